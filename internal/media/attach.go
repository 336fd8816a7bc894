package media

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "photogallery/internal/errors"
)

// MaxAttachSize is the largest file Attach will stream.
const MaxAttachSize = 10 << 20

// Attach streams the image at path to w with hardening headers. Nothing is
// written to w when validation fails.
func (p *Pipeline) Attach(w http.ResponseWriter, path, filename string) error {
	path, err := p.resolve(path)
	if err != nil {
		return err
	}
	if err := checkReadable(path); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Size() > MaxAttachSize {
		return fmt.Errorf("%w: %d bytes", apperrors.ErrImageTooLarge, info.Size())
	}
	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("detect type of %s: %w", path, err)
	}
	contentType := baseMIME(mtype.String())
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%w: %s", apperrors.ErrUnsupportedType, contentType)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if filename == "" {
		filename = filepath.Base(path)
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": filename}))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; style-src 'unsafe-inline'")
	w.WriteHeader(http.StatusOK)
	_, err = io.Copy(w, f)
	return err
}
