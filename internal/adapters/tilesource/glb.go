package tilesource

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	glbHeaderLen  = 12
	glbChunkJSON  = 0x4E4F534A
	glbChunkBin   = 0x004E4942
	glbChunkFrame = 8
)

var ErrNoImage = errors.New("glb has no embedded image")

type glbDocument struct {
	Images []struct {
		BufferView *int   `json:"bufferView"`
		MimeType   string `json:"mimeType"`
	} `json:"images"`
	BufferViews []struct {
		ByteOffset int `json:"byteOffset"`
		ByteLength int `json:"byteLength"`
	} `json:"bufferViews"`
}

// GLBImage returns the first image stored in the binary chunk of a glTF 2.0
// container, with its MIME type.
func GLBImage(glb []byte) ([]byte, string, error) {
	if len(glb) < glbHeaderLen || string(glb[0:4]) != "glTF" {
		return nil, "", fmt.Errorf("%w: not a glb container", ErrFormat)
	}
	le := binary.LittleEndian
	if v := le.Uint32(glb[4:8]); v != 2 {
		return nil, "", fmt.Errorf("%w: glb version %d", ErrFormat, v)
	}

	var docJSON, bin []byte
	for off := glbHeaderLen; off+glbChunkFrame <= len(glb); {
		size := int(le.Uint32(glb[off:]))
		kind := le.Uint32(glb[off+4:])
		start := off + glbChunkFrame
		if start+size > len(glb) {
			return nil, "", fmt.Errorf("%w: glb chunk overruns payload", ErrFormat)
		}
		switch kind {
		case glbChunkJSON:
			docJSON = glb[start : start+size]
		case glbChunkBin:
			bin = glb[start : start+size]
		}
		off = start + size
	}
	if docJSON == nil {
		return nil, "", fmt.Errorf("%w: glb has no JSON chunk", ErrFormat)
	}

	var doc glbDocument
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return nil, "", fmt.Errorf("%w: glb JSON: %v", ErrFormat, err)
	}
	if len(doc.Images) == 0 || doc.Images[0].BufferView == nil {
		return nil, "", ErrNoImage
	}
	idx := *doc.Images[0].BufferView
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, "", fmt.Errorf("%w: image buffer view %d", ErrFormat, idx)
	}
	view := doc.BufferViews[idx]
	if view.ByteOffset < 0 || view.ByteLength < 0 || view.ByteOffset+view.ByteLength > len(bin) {
		return nil, "", fmt.Errorf("%w: image buffer view overruns binary chunk", ErrFormat)
	}
	return bin[view.ByteOffset : view.ByteOffset+view.ByteLength], doc.Images[0].MimeType, nil
}

// ImageExt maps an image MIME type to a file extension.
func ImageExt(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/ktx2":
		return ".ktx2"
	default:
		return ".jpg"
	}
}
