package tilesource

import (
	"context"
	"encoding/binary"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chtimi59/getmaptiles/internal/core/domain"
	"github.com/chtimi59/getmaptiles/internal/core/tiles"
)

func sampleTile(t *testing.T) []byte {
	t.Helper()
	data, err := EncodeB3DM(map[string]interface{}{
		"BATCH_LENGTH": 0,
		"RTC_CENTER":   []float64{4047698.28041974, 216222.461707754, 4908015.82939969},
	}, []byte("glTF-body"))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestParseB3DM(t *testing.T) {
	tile, err := ParseB3DM(sampleTile(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(tile.GLTF) != "glTF-body" {
		t.Errorf("unexpected glTF %q", tile.GLTF)
	}
	c, ok := tile.RTCCenter()
	if !ok || c[0] != 4047698.28041974 {
		t.Errorf("unexpected RTC_CENTER %v (%v)", c, ok)
	}
}

func TestParseB3DM_Invalid(t *testing.T) {
	good := sampleTile(t)

	badMagic := append([]byte{}, good...)
	copy(badMagic, "glTF")

	badVersion := append([]byte{}, good...)
	binary.LittleEndian.PutUint32(badVersion[4:], 2)

	cases := map[string][]byte{
		"short":     good[:10],
		"magic":     badMagic,
		"version":   badVersion,
		"truncated": good[:len(good)-1],
	}
	for name, data := range cases {
		if _, err := ParseB3DM(data); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: expected ErrFormat, got %v", name, err)
		}
	}
}

func TestSource_Fetch(t *testing.T) {
	body := sampleTile(t)
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.Path == "/Data/211/123/L17_21112330.b3dm" {
			_, _ = w.Write(body)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	src := New(srv.URL+"/", tiles.NewSystem(1, 1, 0, 0, tiles.RootLevel), 5*time.Second)

	info, err := src.Fetch(context.Background(), "21112330")
	if err != nil {
		t.Fatalf("unexpected error: %v (path %s)", err, gotPath)
	}
	if info.Name != "21112330" || info.GLTFBytes != len("glTF-body") || info.RTCCenter == nil || info.RTCCenter[2] != 4908015.82939969 {
		t.Errorf("unexpected info %+v", info)
	}
	if string(info.GLTF) != "glTF-body" {
		t.Errorf("expected the glTF body to be kept, got %q", info.GLTF)
	}

	if _, err := src.Fetch(context.Background(), "21112331"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
