// Package encoding packs palette id runs for chunk storage.
package encoding

import (
	"encoding/binary"
	"fmt"
)

// EncodeRLE packs ids as uvarint (id, run) pairs.
func EncodeRLE(ids []uint16) []byte {
	out := make([]byte, 0, 64)
	for i := 0; i < len(ids); {
		id := ids[i]
		run := 1
		for i+run < len(ids) && ids[i+run] == id {
			run++
		}
		out = binary.AppendUvarint(out, uint64(id))
		out = binary.AppendUvarint(out, uint64(run))
		i += run
	}
	return out
}

// DecodeRLE unpacks exactly n ids. Streams that decode to any other length
// are rejected.
func DecodeRLE(raw []byte, n int) ([]uint16, error) {
	out := make([]uint16, 0, n)
	for i := 0; i < len(raw); {
		id, k := binary.Uvarint(raw[i:])
		if k <= 0 {
			return nil, fmt.Errorf("rle: bad id varint at %d", i)
		}
		i += k
		run, k := binary.Uvarint(raw[i:])
		if k <= 0 {
			return nil, fmt.Errorf("rle: bad run varint at %d", i)
		}
		i += k
		if id > 0xFFFF {
			return nil, fmt.Errorf("rle: id too large: %d", id)
		}
		if run == 0 || run > uint64(n-len(out)) {
			return nil, fmt.Errorf("rle: run %d overflows %d ids", run, n)
		}
		for j := uint64(0); j < run; j++ {
			out = append(out, uint16(id))
		}
	}
	if len(out) != n {
		return nil, fmt.Errorf("rle: decoded %d ids, want %d", len(out), n)
	}
	return out, nil
}
