package bytecode

import (
	"io"

	"github.com/pkg/errors"
)

// writeVarint encodes n with the recursive base-128 rule: if n<128 emit n;
// else emit 128+(n%128) and recurse on n/128.
func writeVarint(w io.ByteWriter, n uint64) error {
	for {
		if n < 128 {
			return w.WriteByte(byte(n))
		}
		if err := w.WriteByte(byte(128 + n%128)); err != nil {
			return errors.Wrap(err, "bytecode: write varint")
		}
		n /= 128
	}
}

// readVarint decodes a single varint: reading byte b yields b if b<128,
// else (b-128) + 128*readVarint().
func readVarint(r io.ByteReader) (uint64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(err, "bytecode: read varint")
	}
	if b < 128 {
		return uint64(b), nil
	}
	rest, err := readVarint(r)
	if err != nil {
		return 0, err
	}
	return uint64(b-128) + 128*rest, nil
}

// writeString encodes a UTF-16 code-unit sequence as a length varint
// followed by that many unit varints.
func writeString(w io.ByteWriter, units []uint16) error {
	if err := writeVarint(w, uint64(len(units))); err != nil {
		return err
	}
	for _, u := range units {
		if err := writeVarint(w, uint64(u)); err != nil {
			return err
		}
	}
	return nil
}

// readString decodes a UTF-16 code-unit sequence written by writeString.
func readString(r io.ByteReader) ([]uint16, error) {
	n, err := readVarint(r)
	if err != nil {
		return nil, errors.Wrap(err, "bytecode: read string length")
	}
	units := make([]uint16, n)
	for i := range units {
		u, err := readVarint(r)
		if err != nil {
			return nil, errors.Wrapf(err, "bytecode: read string unit %d", i)
		}
		units[i] = uint16(u)
	}
	return units, nil
}
