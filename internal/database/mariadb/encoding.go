package mariadb

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
)

// DecodeEncoding decodes a face vector stored in a legacy blob column.
// Old deployments wrote the vector in two formats over time: raw
// little-endian float32 or float64 bytes, and JSON number arrays. The
// canonical binary forms are tried first, then the JSON fallback. The
// decoded vector is normalized to the current representation when the
// student is written to the new store.
func DecodeEncoding(blob []byte, dim int) ([]float32, error) {
	if len(blob) == 0 {
		return nil, nil
	}

	switch len(blob) {
	case dim * 4:
		out := make([]float32, dim)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
		}
		return out, nil
	case dim * 8:
		out := make([]float32, dim)
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:])))
		}
		return out, nil
	}

	var values []float64
	if err := json.Unmarshal(blob, &values); err != nil {
		return nil, fmt.Errorf("undecodable face encoding blob (%d bytes): %w", len(blob), err)
	}
	if len(values) != dim {
		return nil, fmt.Errorf("legacy face encoding has %d values, expected %d", len(values), dim)
	}
	out := make([]float32, dim)
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}
