// Package upload stores message attachments and resolves their media
// kind. Objects land on local disk under a configured directory and are
// served back over the static /uploads route, so the returned URL is
// durable for the lifetime of the deployment.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/iliyamo/famlink/internal/model"
	"github.com/iliyamo/famlink/internal/utils"
)

// ErrTooLarge is returned when the blob exceeds the configured cap.
var ErrTooLarge = errors.New("upload exceeds size limit")

// URLPrefix is the public route the stored objects are served under.
const URLPrefix = "/uploads/"

// Result describes a stored object.
type Result struct {
	URL  string
	Kind string
}

// Store writes uploaded blobs to disk.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

// Dir returns the backing directory, for wiring the static file route.
func (s *Store) Dir() string { return s.dir }

// Save streams the blob to disk and returns its URL and coarse kind.
// The object name is a fresh id plus the original extension; the
// caller-supplied filename never touches the filesystem path beyond
// that extension. Failures surface as errors, never as a silently
// dropped attachment.
func (s *Store) Save(filename, declaredType string, r io.Reader) (Result, error) {
	// Sniff the head so the kind cannot be spoofed by the declared type
	// alone when it is missing or generic.
	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Result{}, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	kind := classify(declaredType, head)

	name := utils.NewID() + sanitizeExt(filename)
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return Result{}, fmt.Errorf("create object: %w", err)
	}
	defer f.Close()

	// Cap total bytes: head already read plus the remaining stream.
	limit := s.maxBytes - int64(len(head))
	if limit < 0 {
		_ = os.Remove(path)
		return Result{}, ErrTooLarge
	}
	if _, err := f.Write(head); err != nil {
		_ = os.Remove(path)
		return Result{}, fmt.Errorf("write object: %w", err)
	}
	written, err := io.Copy(f, io.LimitReader(r, limit+1))
	if err != nil {
		_ = os.Remove(path)
		return Result{}, fmt.Errorf("write object: %w", err)
	}
	if written > limit {
		_ = os.Remove(path)
		return Result{}, ErrTooLarge
	}

	return Result{URL: URLPrefix + name, Kind: kind}, nil
}

// classify maps a content type to the coarse attachment kinds. The
// declared type wins when specific; otherwise the sniffed head decides.
func classify(declaredType string, head []byte) string {
	ct := declaredType
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(head)
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return model.AttachmentImage
	case strings.HasPrefix(ct, "video/"):
		return model.AttachmentVideo
	default:
		return model.AttachmentFile
	}
}

// sanitizeExt keeps a short, safe extension from the client filename.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
