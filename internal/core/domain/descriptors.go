package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// descriptorObject is the object form of a rectangle descriptor.
type descriptorObject struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name,omitempty"`
	Data   json.RawMessage `json:"data"`
	Color  string          `json:"color,omitempty"`
	Center *[3]float64     `json:"center,omitempty"`
}

// encodedDescriptor is the list form written by EncodeDescriptors.
type encodedDescriptor struct {
	Name   string      `json:"name,omitempty"`
	Data   [4]float64  `json:"data"`
	Color  string      `json:"color,omitempty"`
	Center *[3]float64 `json:"center,omitempty"`
}

// DecodeRectangleSet parses rectangle descriptors in any of the accepted shapes:
//
//	{"r1": [lat0, lng0, lat1, lng1], "r2": {"data": [...], "color": "#00F"}, "color": "#0F0"}
//	[{"name": "r1", "data": [...], "color": "#F00"}, [lat0, lng0, lat1, lng1]]
//	{"name": "set", "default_color": "#0F0", "rectangles": [...]}
//
// A top-level "color" string in the mapping form is the set default color.
// Key order is preserved. A null document yields an empty set.
func DecodeRectangleSet(data []byte) (RectangleSet, error) {
	var set RectangleSet

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return set, fmt.Errorf("decode descriptors: %w", err)
	}

	switch tok {
	case nil:
		return set, nil
	case json.Delim('['):
		set.Rectangles, err = decodeDescriptorList(dec)
		return set, err
	case json.Delim('{'):
		return decodeDescriptorMapping(dec)
	default:
		return set, fmt.Errorf("decode descriptors: unexpected token %v", tok)
	}
}

func decodeDescriptorList(dec *json.Decoder) ([]Rectangle, error) {
	var rects []Rectangle
	for i := 0; dec.More(); i++ {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode descriptor %d: %w", i, err)
		}
		r, err := decodeDescriptor(raw)
		if err != nil {
			return nil, fmt.Errorf("decode descriptor %d: %w", i, err)
		}
		if r.ID == "" {
			r.ID = strconv.Itoa(i)
		}
		rects = append(rects, r)
	}
	return rects, nil
}

func decodeDescriptorMapping(dec *json.Decoder) (RectangleSet, error) {
	type entry struct {
		key string
		raw json.RawMessage
	}

	var entries []entry
	envelope := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return RectangleSet{}, fmt.Errorf("decode descriptor key: %w", err)
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return RectangleSet{}, fmt.Errorf("decode descriptor %q: %w", key, err)
		}
		if key == "rectangles" && isDescriptorCollection(raw) {
			envelope = true
		}
		entries = append(entries, entry{key: key, raw: raw})
	}

	var set RectangleSet
	for _, e := range entries {
		if envelope {
			if err := decodeEnvelopeField(&set, e.key, e.raw); err != nil {
				return RectangleSet{}, err
			}
			continue
		}

		if e.key == "color" && isJSONString(e.raw) {
			if err := json.Unmarshal(e.raw, &set.DefaultColor); err != nil {
				return RectangleSet{}, fmt.Errorf("decode set color: %w", err)
			}
			continue
		}
		r, err := decodeDescriptor(e.raw)
		if err != nil {
			return RectangleSet{}, fmt.Errorf("decode descriptor %q: %w", e.key, err)
		}
		r.ID = e.key
		set.Rectangles = append(set.Rectangles, r)
	}
	return set, nil
}

func decodeEnvelopeField(set *RectangleSet, key string, raw json.RawMessage) error {
	switch key {
	case "name":
		return json.Unmarshal(raw, &set.Name)
	case "default_color", "color":
		return json.Unmarshal(raw, &set.DefaultColor)
	case "rectangles":
		inner, err := DecodeRectangleSet(raw)
		if err != nil {
			return err
		}
		set.Rectangles = inner.Rectangles
		if set.DefaultColor == "" {
			set.DefaultColor = inner.DefaultColor
		}
	}
	return nil
}

// isDescriptorCollection reports whether raw holds descriptors rather than a
// single one: an object without "data", or an array that is empty or whose
// first element is itself an array or object.
func isDescriptorCollection(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	switch trimmed[0] {
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return false
		}
		_, single := fields["data"]
		return !single
	case '[':
		inner := bytes.TrimSpace(trimmed[1:])
		return len(inner) > 0 && (inner[0] == ']' || inner[0] == '[' || inner[0] == '{')
	}
	return false
}

var errMissingData = errors.New("descriptor has no data")

// decodeTuple reads exactly four corner coordinates.
func decodeTuple(raw json.RawMessage) ([4]float64, error) {
	var out [4]float64
	var v []float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return out, err
	}
	if len(v) != 4 {
		return out, fmt.Errorf("expected [lat0, lng0, lat1, lng1], got %d numbers", len(v))
	}
	copy(out[:], v)
	return out, nil
}

// decodeDescriptor accepts a bare [lat0, lng0, lat1, lng1] tuple or the object form.
func decodeDescriptor(raw json.RawMessage) (Rectangle, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		data, err := decodeTuple(trimmed)
		return Rectangle{Data: data}, err
	}

	var obj descriptorObject
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return Rectangle{}, err
	}
	if obj.Data == nil {
		return Rectangle{}, errMissingData
	}
	data, err := decodeTuple(obj.Data)
	if err != nil {
		return Rectangle{}, err
	}
	id := obj.ID
	if id == "" {
		id = obj.Name
	}
	return Rectangle{ID: id, Data: data, Color: obj.Color, Center: obj.Center}, nil
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// EncodeDescriptors writes the rectangles in the list form
// [{"name": ..., "data": [...], "color": ..., "center": [...]}], the shape map
// pages load as DATA. Center is only written for surveyed tiles.
func EncodeDescriptors(rects []Rectangle) ([]byte, error) {
	out := make([]encodedDescriptor, 0, len(rects))
	for _, r := range rects {
		out = append(out, encodedDescriptor{Name: r.ID, Data: r.Data, Color: r.Color, Center: r.Center})
	}
	return json.Marshal(out)
}

// EncodeDataScript wraps the descriptor list as a script assigning window.DATA.
func EncodeDataScript(rects []Rectangle) ([]byte, error) {
	data, err := EncodeDescriptors(rects)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(data)+14)
	out = append(out, "window.DATA="...)
	out = append(out, data...)
	return append(out, ";\n"...), nil
}
