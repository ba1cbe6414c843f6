package tilesource

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const b3dmHeaderLen = 28

var ErrFormat = errors.New("invalid b3dm")

// B3DM is a decoded Batched 3D Model tile.
type B3DM struct {
	FeatureTable map[string]json.RawMessage
	GLTF         []byte
}

// RTCCenter returns the feature table's RTC_CENTER, if present.
func (b *B3DM) RTCCenter() ([3]float64, bool) {
	var c [3]float64
	raw, ok := b.FeatureTable["RTC_CENTER"]
	if !ok {
		return c, false
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, false
	}
	return c, true
}

// ParseB3DM decodes the header and feature table of a b3dm payload. The
// declared byte length must match the payload.
func ParseB3DM(data []byte) (*B3DM, error) {
	if len(data) < b3dmHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrFormat, len(data))
	}
	if string(data[0:4]) != "b3dm" {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, data[0:4])
	}

	le := binary.LittleEndian
	if v := le.Uint32(data[4:8]); v != 1 {
		return nil, fmt.Errorf("%w: version %d", ErrFormat, v)
	}
	byteLength := int(le.Uint32(data[8:12]))
	ftJSON := int(le.Uint32(data[12:16]))
	ftBin := int(le.Uint32(data[16:20]))
	btJSON := int(le.Uint32(data[20:24]))
	btBin := int(le.Uint32(data[24:28]))

	if byteLength != len(data) {
		return nil, fmt.Errorf("%w: declared %d bytes, got %d", ErrFormat, byteLength, len(data))
	}
	body := b3dmHeaderLen + ftJSON + ftBin + btJSON + btBin
	if body > len(data) {
		return nil, fmt.Errorf("%w: tables overrun payload", ErrFormat)
	}

	out := &B3DM{FeatureTable: map[string]json.RawMessage{}}
	if ftJSON > 0 {
		if err := json.Unmarshal(data[b3dmHeaderLen:b3dmHeaderLen+ftJSON], &out.FeatureTable); err != nil {
			return nil, fmt.Errorf("%w: feature table: %v", ErrFormat, err)
		}
	}
	out.GLTF = data[body:]
	return out, nil
}

// EncodeB3DM builds a payload with the given feature table and glTF body.
func EncodeB3DM(featureTable map[string]interface{}, gltf []byte) ([]byte, error) {
	ft, err := json.Marshal(featureTable)
	if err != nil {
		return nil, err
	}
	// Feature table JSON is padded to 8 bytes with spaces.
	for (b3dmHeaderLen+len(ft))%8 != 0 {
		ft = append(ft, ' ')
	}

	total := b3dmHeaderLen + len(ft) + len(gltf)
	out := make([]byte, b3dmHeaderLen, total)
	copy(out, "b3dm")
	le := binary.LittleEndian
	le.PutUint32(out[4:], 1)
	le.PutUint32(out[8:], uint32(total))
	le.PutUint32(out[12:], uint32(len(ft)))
	out = append(out, ft...)
	out = append(out, gltf...)
	return out, nil
}
