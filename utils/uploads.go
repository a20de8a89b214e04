package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// DefaultMaxUploadBytes is the image size limit (5 MB).
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

// ImageStore keeps uploaded event images and hands back the reference stored
// on the event.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader, ext string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// UploadError is an upload rejected before it reaches the service.
type UploadError struct {
	Message string
}

func (e *UploadError) Error() string { return e.Message }

func IsUploadError(err error) bool {
	var ue *UploadError
	return errors.As(err, &ue)
}

// OpenImage checks an uploaded file header against the size limit and
// verifies that both the declared and the sniffed content types are images.
// The returned file is rewound and must be closed by the caller.
func OpenImage(fh *multipart.FileHeader, maxBytes int64) (multipart.File, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if fh.Size > maxBytes {
		return nil, "", &UploadError{Message: fmt.Sprintf("File size too large. Maximum size is %dMB.", maxBytes/(1024*1024))}
	}
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return nil, "", &UploadError{Message: "Not an image! Please upload an image."}
	}

	file, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		file.Close()
		return nil, "", fmt.Errorf("sniff upload: %w", err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		file.Close()
		return nil, "", &UploadError{Message: "Not an image! Please upload an image."}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, "", fmt.Errorf("rewind upload: %w", err)
	}

	// the stored name takes the sniffed extension, never the client's
	return file, mt.Extension(), nil
}

// ---------------- DISK ----------------

// DiskImageStore writes images under Dir and references them as
// URLPrefix/{name}.
type DiskImageStore struct {
	Dir       string
	URLPrefix string
	now       func() time.Time
}

func NewDiskImageStore(dir, urlPrefix string) (*DiskImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &DiskImageStore{Dir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/"), now: time.Now}, nil
}

func (s *DiskImageStore) Save(ctx context.Context, r io.Reader, ext string) (string, error) {
	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:12], ext)

	f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close image file: %w", err)
	}
	return s.URLPrefix + "/" + name, nil
}

// Delete removes a file previously returned by Save. References this store
// did not produce are ignored.
func (s *DiskImageStore) Delete(ctx context.Context, ref string) error {
	if !strings.HasPrefix(ref, s.URLPrefix+"/") {
		return nil
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name == ".." {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove image file: %w", err)
	}
	return nil
}
