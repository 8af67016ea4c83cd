package upload

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iliyamo/famlink/internal/model"
)

// pngHeader is enough of a real PNG for content sniffing to recognize it.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestSaveStoresBlobAndReturnsURL(t *testing.T) {
	st, err := NewStore(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	res, err := st.Save("photo.PNG", "image/png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if res.Kind != model.AttachmentImage {
		t.Errorf("expected kind %q, got %q", model.AttachmentImage, res.Kind)
	}
	if !strings.HasPrefix(res.URL, URLPrefix) || !strings.HasSuffix(res.URL, ".png") {
		t.Errorf("unexpected URL %q", res.URL)
	}

	name := strings.TrimPrefix(res.URL, URLPrefix)
	data, err := os.ReadFile(filepath.Join(st.Dir(), name))
	if err != nil {
		t.Fatalf("stored object unreadable: %v", err)
	}
	if !bytes.Equal(data, pngHeader) {
		t.Error("stored bytes differ from uploaded bytes")
	}
}

func TestSaveRejectsOversizedBlob(t *testing.T) {
	st, err := NewStore(t.TempDir(), 16)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	big := bytes.Repeat([]byte("x"), 64)
	if _, err := st.Save("big.bin", "application/octet-stream", bytes.NewReader(big)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	// Nothing should be left behind on rejection.
	entries, _ := os.ReadDir(st.Dir())
	if len(entries) != 0 {
		t.Errorf("expected empty dir after rejected upload, found %d entries", len(entries))
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name     string
		declared string
		head     []byte
		want     string
	}{
		{"declared image wins", "image/jpeg", nil, model.AttachmentImage},
		{"declared video wins", "video/mp4", nil, model.AttachmentVideo},
		{"declared with params", "image/png; charset=binary", nil, model.AttachmentImage},
		{"pdf is a file", "application/pdf", nil, model.AttachmentFile},
		{"empty type sniffs png", "", pngHeader, model.AttachmentImage},
		{"octet-stream sniffs png", "application/octet-stream", pngHeader, model.AttachmentImage},
		{"unknown bytes fall back to file", "", []byte{0x00, 0x01, 0x02}, model.AttachmentFile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classify(tc.declared, tc.head); got != tc.want {
				t.Errorf("classify(%q) = %q, want %q", tc.declared, got, tc.want)
			}
		})
	}
}

func TestSanitizeExt(t *testing.T) {
	if got := sanitizeExt("a/b/photo.JPG"); got != ".jpg" {
		t.Errorf("expected .jpg, got %q", got)
	}
	if got := sanitizeExt("noext"); got != "" {
		t.Errorf("expected empty ext, got %q", got)
	}
	if got := sanitizeExt("weird.reallylongextension"); got != "" {
		t.Errorf("expected long ext dropped, got %q", got)
	}
}
