package covers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bookdatabase/bookdb/pkg/errcodes"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	_ "golang.org/x/image/webp" // register decoder
)

// Storage persists cover images and hands back the name to store on the book.
type Storage interface {
	StoreCoverImage(ctx context.Context, bookID int, r io.Reader) (string, error)
	DeleteCoverImage(ctx context.Context, filename string) error
}

// Extensions by detected MIME type.
var allowedTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// LocalStorage keeps covers as files in a single directory that is also
// served under /uploads.
type LocalStorage struct {
	dir     string
	maxSize int64
}

func NewLocalStorage(dir string, maxSize int64) (*LocalStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if err := os.MkdirAll(abs, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create upload directory: %s", abs)
	}
	return &LocalStorage{dir: abs, maxSize: maxSize}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

// StoreCoverImage validates the image and writes it as
// book-<id>-<uuid>.<ext>. The file only appears under its final name once it
// is completely written.
func (s *LocalStorage) StoreCoverImage(ctx context.Context, bookID int, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", errors.WithStack(err)
	}
	if int64(len(data)) > s.maxSize {
		return "", errcodes.ValidationError(fmt.Sprintf("Cover image is larger than %d MB.", s.maxSize/(1024*1024)))
	}
	if len(data) == 0 {
		return "", errcodes.ValidationError("Cover image is empty.")
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedTypes[mtype.String()]
	if !ok {
		return "", errcodes.ValidationError(fmt.Sprintf("Cover image type %s isn't supported. Use png, jpg, gif or webp.", mtype.String()))
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", errcodes.ValidationError("Cover image couldn't be read.")
	}

	filename := fmt.Sprintf("book-%d-%s.%s", bookID, uuid.NewString(), ext)

	tmp, err := os.CreateTemp(s.dir, ".cover-*.tmp")
	if err != nil {
		return "", errors.WithStack(err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmp.Write(data); err != nil {
		return "", errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, filename)); err != nil {
		return "", errors.WithStack(err)
	}

	logger.FromContext(ctx).Info("stored cover image", logger.Data{"book_id": bookID, "filename": filename, "mime_type": mtype.String()})

	return filename, nil
}

// DeleteCoverImage removes a stored cover. Missing files are fine, names that
// point outside the upload directory are not.
func (s *LocalStorage) DeleteCoverImage(ctx context.Context, filename string) error {
	if filename == "" {
		return nil
	}

	path, err := s.resolve(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			logger.FromContext(ctx).Warn("cover image already missing", logger.Data{"filename": filename})
			return nil
		}
		return errors.WithStack(err)
	}
	return nil
}

func (s *LocalStorage) resolve(filename string) (string, error) {
	path := filepath.Join(s.dir, filename)
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errcodes.ValidationError("Cover path is outside the upload directory.")
	}
	return path, nil
}

// RemoveAll deletes every stored cover. Used when the catalogue is wiped
// before an import.
func (s *LocalStorage) RemoveAll(ctx context.Context) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "book-*"))
	if err != nil {
		return 0, errors.WithStack(err)
	}
	removed := 0
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return removed, errors.WithStack(err)
		}
		removed++
	}
	logger.FromContext(ctx).Info("removed stored covers", logger.Data{"count": removed})
	return removed, nil
}
