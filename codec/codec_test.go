package codec

import (
	"testing"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func TestCodecs(t *testing.T) {
	modTime := time.Date(2024, 5, 12, 10, 30, 0, 0, time.UTC)

	listing := dircache.Listing{
		{Name: "dir", Mode: 0o755 | 1<<31, ModTime: modTime, IsDir: true},
		{Name: "file.txt", Size: 42, Mode: 0o644, ModTime: modTime, Extra: map[string]string{"etag": "abc"}},
	}

	for _, name := range []string{NameMsgpack, NameCBOR, NameJSON} {
		t.Run(name, func(t *testing.T) {
			c, err := New[dircache.Listing](name)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			data, err := c.Encode(listing)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			decoded, err := c.Decode(data)
			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := len(listing), len(decoded); e != g {
				t.Fatalf("len(decoded): expected '%d', got '%d'", e, g)
			}

			for i, e := range listing {
				g := decoded[i]
				if e.Name != g.Name || e.Size != g.Size || e.Mode != g.Mode || e.IsDir != g.IsDir || !e.ModTime.Equal(g.ModTime) {
					t.Errorf("decoded[%d]: expected %s, got %s", i, spew.Sdump(e), spew.Sdump(g))
				}
			}

			if e, g := "abc", decoded[1].Extra["etag"]; e != g {
				t.Errorf("decoded[1].Extra[\"etag\"]: expected '%s', got '%s'", e, g)
			}
		})
	}
}

func TestUnknownCodec(t *testing.T) {
	if _, err := New[dircache.Listing]("xml"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("expected ErrUnknownCodec, got '%v'", err)
	}
}
