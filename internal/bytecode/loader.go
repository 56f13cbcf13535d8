package bytecode

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"unicode/utf16"

	gzip "github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/kristofer/minijs/internal/value"
)

// Literal tags, per the module binary format.
const (
	litTagNumber    byte = 0
	litTagString    byte = 1
	litTagTrue      byte = 2
	litTagFalse     byte = 3
	litTagNull      byte = 4
	litTagUndefined byte = 5
)

var gzipMagic = [2]byte{0x1f, 0x8b}

// Decode reads a Module from the varint-framed binary format described by
// the loader. The stream may optionally be gzip-compressed (sniffed from
// its leading magic bytes); either way the decoded Module is identical.
// Any unexpected tag or truncated stream is a fatal, non-recoverable error.
func Decode(r io.Reader) (*Module, error) {
	br := bufio.NewReader(r)
	peek, err := br.Peek(2)
	if err == nil && peek[0] == gzipMagic[0] && peek[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "bytecode: open gzip envelope")
		}
		defer gz.Close()
		br = bufio.NewReader(gz)
	}
	return decodeModule(br)
}

func decodeModule(br *bufio.Reader) (*Module, error) {
	nfuncs, err := readVarint(br)
	if err != nil {
		return nil, errors.Wrap(err, "bytecode: read function count")
	}
	functions := make([]Function, nfuncs)
	for i := range functions {
		nargs, err := readVarint(br)
		if err != nil {
			return nil, errors.Wrapf(err, "bytecode: function %d: read nargs", i)
		}
		maxStack, err := readVarint(br)
		if err != nil {
			return nil, errors.Wrapf(err, "bytecode: function %d: read max_stack", i)
		}
		nameUnits, err := readString(br)
		if err != nil {
			return nil, errors.Wrapf(err, "bytecode: function %d: read name", i)
		}
		blen, err := readVarint(br)
		if err != nil {
			return nil, errors.Wrapf(err, "bytecode: function %d: read bytecode length", i)
		}
		code := make([]uint64, blen)
		for j := range code {
			code[j], err = readVarint(br)
			if err != nil {
				return nil, errors.Wrapf(err, "bytecode: function %d: read word %d", i, j)
			}
		}
		functions[i] = Function{
			Name:     string(utf16.Decode(nameUnits)),
			ID:       i,
			NArgs:    int(nargs),
			MaxStack: int(maxStack),
			Bytecode: code,
		}
	}

	nlits, err := readVarint(br)
	if err != nil {
		return nil, errors.Wrap(err, "bytecode: read literal count")
	}
	literals := make([]value.Value, nlits)
	for i := range literals {
		tag, err := br.ReadByte()
		if err != nil {
			return nil, errors.Wrapf(err, "bytecode: literal %d: read tag", i)
		}
		switch tag {
		case litTagNumber:
			units, err := readString(br)
			if err != nil {
				return nil, errors.Wrapf(err, "bytecode: literal %d: read number text", i)
			}
			text := string(utf16.Decode(units))
			var f float64
			switch text {
			case "Infinity":
				f = math.Inf(1)
			case "-Infinity":
				f = math.Inf(-1)
			default:
				f, err = strconv.ParseFloat(text, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "bytecode: literal %d: parse number %q", i, text)
				}
			}
			literals[i] = value.Num(f)
		case litTagString:
			units, err := readString(br)
			if err != nil {
				return nil, errors.Wrapf(err, "bytecode: literal %d: read string", i)
			}
			literals[i] = value.Str(units)
		case litTagTrue:
			literals[i] = value.Bool(true)
		case litTagFalse:
			literals[i] = value.Bool(false)
		case litTagNull:
			literals[i] = value.Null()
		case litTagUndefined:
			literals[i] = value.Undefined()
		default:
			return nil, errors.Errorf("bytecode: literal %d: unexpected tag %d", i, tag)
		}
	}

	return &Module{Functions: functions, Literals: literals}, nil
}

// Encode writes m in the uncompressed varint-framed binary format.
func Encode(m *Module, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if err := encodeModule(m, bw); err != nil {
		return err
	}
	return errors.Wrap(bw.Flush(), "bytecode: flush")
}

// EncodeGzip writes m gzip-compressed; Decode transparently understands
// either form.
func EncodeGzip(m *Module, w io.Writer) error {
	gz := gzip.NewWriter(w)
	if err := Encode(m, gz); err != nil {
		return err
	}
	return errors.Wrap(gz.Close(), "bytecode: close gzip envelope")
}

func encodeModule(m *Module, bw *bufio.Writer) error {
	if err := writeVarint(bw, uint64(len(m.Functions))); err != nil {
		return err
	}
	for i, fn := range m.Functions {
		if err := writeVarint(bw, uint64(fn.NArgs)); err != nil {
			return errors.Wrapf(err, "bytecode: function %d: write nargs", i)
		}
		if err := writeVarint(bw, uint64(fn.MaxStack)); err != nil {
			return errors.Wrapf(err, "bytecode: function %d: write max_stack", i)
		}
		if err := writeString(bw, utf16.Encode([]rune(fn.Name))); err != nil {
			return errors.Wrapf(err, "bytecode: function %d: write name", i)
		}
		if err := writeVarint(bw, uint64(len(fn.Bytecode))); err != nil {
			return errors.Wrapf(err, "bytecode: function %d: write bytecode length", i)
		}
		for j, word := range fn.Bytecode {
			if err := writeVarint(bw, word); err != nil {
				return errors.Wrapf(err, "bytecode: function %d: write word %d", i, j)
			}
		}
	}

	if err := writeVarint(bw, uint64(len(m.Literals))); err != nil {
		return errors.Wrap(err, "bytecode: write literal count")
	}
	for i, lit := range m.Literals {
		if err := encodeLiteral(bw, lit); err != nil {
			return errors.Wrapf(err, "bytecode: literal %d", i)
		}
	}
	return nil
}

func encodeLiteral(bw *bufio.Writer, v value.Value) error {
	switch v.Kind() {
	case value.KindNumber:
		if err := bw.WriteByte(litTagNumber); err != nil {
			return err
		}
		f := v.NumValue()
		var text string
		switch {
		case math.IsInf(f, 1):
			text = "Infinity"
		case math.IsInf(f, -1):
			text = "-Infinity"
		default:
			text = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return writeString(bw, utf16.Encode([]rune(text)))
	case value.KindString:
		if err := bw.WriteByte(litTagString); err != nil {
			return err
		}
		return writeString(bw, v.StrUnits())
	case value.KindBoolean:
		if v.BoolValue() {
			return bw.WriteByte(litTagTrue)
		}
		return bw.WriteByte(litTagFalse)
	case value.KindNull:
		return bw.WriteByte(litTagNull)
	case value.KindUndefined:
		return bw.WriteByte(litTagUndefined)
	default:
		return errors.Errorf("bytecode: literal kind %s cannot be serialized", v.Kind())
	}
}
