// Package codec implements the canonical byte encoding used for every
// value that gets hashed, signed, or stored by photochain. The encoding
// is deterministic: logically equal values always produce identical
// bytes, which is a prerequisite for the log-entry signatures and
// content hashes built on top of it.
//
// Supported values are int64, string, []byte, []interface{} and
// map[string]interface{}, arbitrarily nested. Map entries are encoded
// in ascending key order, and Decode rejects any input that is not in
// canonical form.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

// ErrMalformedEncoding is returned by Decode for any input that was not
// produced by Encode: unknown tags, truncated values, trailing bytes,
// or maps whose keys are not strictly sorted.
var ErrMalformedEncoding = errors.New("codec: malformed encoding")

// Type tags. One byte each, followed by a uvarint length or value.
const (
	tagInt    = 'i'
	tagString = 's'
	tagBytes  = 'b'
	tagList   = 'l'
	tagMap    = 'm'
)

// Encode serializes the given value into canonical bytes.
// Accepted types are int, int64, string, []byte, []interface{} and
// map[string]interface{}; any other type is an error.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case int:
		encodeInt(buf, int64(val))
	case int64:
		encodeInt(buf, val)
	case string:
		buf.WriteByte(tagString)
		putUvarint(buf, uint64(len(val)))
		buf.WriteString(val)
	case []byte:
		buf.WriteByte(tagBytes)
		putUvarint(buf, uint64(len(val)))
		buf.Write(val)
	case []interface{}:
		buf.WriteByte(tagList)
		putUvarint(buf, uint64(len(val)))
		for _, item := range val {
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		buf.WriteByte(tagMap)
		putUvarint(buf, uint64(len(val)))
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			putUvarint(buf, uint64(len(k)))
			buf.WriteString(k)
			if err := encodeValue(buf, val[k]); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("codec: cannot encode type %T", v)
	}
	return nil
}

func encodeInt(buf *bytes.Buffer, v int64) {
	buf.WriteByte(tagInt)
	// zigzag so small negative values stay small
	putUvarint(buf, uint64((v<<1)^(v>>63)))
}

func putUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

// Decode parses canonical bytes produced by Encode. Integers come back
// as int64, lists as []interface{}, maps as map[string]interface{}.
// Any deviation from canonical form returns ErrMalformedEncoding.
func Decode(b []byte) (interface{}, error) {
	v, rest, err := decodeValue(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrMalformedEncoding
	}
	return v, nil
}

func decodeValue(b []byte) (interface{}, []byte, error) {
	if len(b) == 0 {
		return nil, nil, ErrMalformedEncoding
	}
	tag, b := b[0], b[1:]
	switch tag {
	case tagInt:
		u, b, err := readUvarint(b)
		if err != nil {
			return nil, nil, err
		}
		return int64(u>>1) ^ -int64(u&1), b, nil
	case tagString:
		raw, b, err := readBlob(b)
		if err != nil {
			return nil, nil, err
		}
		return string(raw), b, nil
	case tagBytes:
		raw, b, err := readBlob(b)
		if err != nil {
			return nil, nil, err
		}
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, b, nil
	case tagList:
		n, b, err := readUvarint(b)
		if err != nil {
			return nil, nil, err
		}
		if n > uint64(len(b)) {
			// each element takes at least one byte
			return nil, nil, ErrMalformedEncoding
		}
		list := make([]interface{}, 0, n)
		for i := uint64(0); i < n; i++ {
			var item interface{}
			item, b, err = decodeValue(b)
			if err != nil {
				return nil, nil, err
			}
			list = append(list, item)
		}
		return list, b, nil
	case tagMap:
		n, b, err := readUvarint(b)
		if err != nil {
			return nil, nil, err
		}
		if n > uint64(len(b)) {
			return nil, nil, ErrMalformedEncoding
		}
		m := make(map[string]interface{}, n)
		prevKey := ""
		for i := uint64(0); i < n; i++ {
			var raw []byte
			raw, b, err = readBlob(b)
			if err != nil {
				return nil, nil, err
			}
			key := string(raw)
			if i > 0 && key <= prevKey {
				// out-of-order or duplicate keys break canonical form
				return nil, nil, ErrMalformedEncoding
			}
			prevKey = key
			var val interface{}
			val, b, err = decodeValue(b)
			if err != nil {
				return nil, nil, err
			}
			m[key] = val
		}
		return m, b, nil
	default:
		return nil, nil, ErrMalformedEncoding
	}
}

func readUvarint(b []byte) (uint64, []byte, error) {
	v, n := binary.Uvarint(b)
	if n <= 0 {
		return 0, nil, ErrMalformedEncoding
	}
	// only the shortest form is canonical; a zero final byte means the
	// value was padded with continuation bytes
	if n > 1 && b[n-1] == 0 {
		return 0, nil, ErrMalformedEncoding
	}
	return v, b[n:], nil
}

func readBlob(b []byte) ([]byte, []byte, error) {
	n, b, err := readUvarint(b)
	if err != nil {
		return nil, nil, err
	}
	if n > uint64(len(b)) {
		return nil, nil, ErrMalformedEncoding
	}
	return b[:n], b[n:], nil
}
