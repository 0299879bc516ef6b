// Package encoding holds the compact voxel encodings shared by the wire protocol.
package encoding

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// AppendRLE appends (value, run) uvarint pairs for data to dst.
func AppendRLE(dst []byte, data []byte) []byte {
	for i := 0; i < len(data); {
		v := data[i]
		run := 1
		for i+run < len(data) && data[i+run] == v {
			run++
		}
		dst = append(dst, v)
		dst = binary.AppendUvarint(dst, uint64(run))
		i += run
	}
	return dst
}

// EncodeRLE encodes voxel ids as base64 of (id, run) pairs.
func EncodeRLE(data []byte) string {
	return base64.StdEncoding.EncodeToString(AppendRLE(nil, data))
}

// ExpandRLE decodes raw pairs. A positive limit bounds the output length.
func ExpandRLE(raw []byte, limit int) ([]byte, error) {
	var out []byte
	if limit > 0 {
		out = make([]byte, 0, limit)
	}
	for i := 0; i < len(raw); {
		v := raw[i]
		i++
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if run == 0 {
			return nil, fmt.Errorf("zero run at %d", i)
		}
		if limit > 0 && uint64(len(out))+run > uint64(limit) {
			return nil, fmt.Errorf("rle expands past %d bytes", limit)
		}
		for k := uint64(0); k < run; k++ {
			out = append(out, v)
		}
	}
	return out, nil
}

func DecodeRLE(b64 string, limit int) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	return ExpandRLE(raw, limit)
}
