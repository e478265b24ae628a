package afip

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"

	"github.com/mlerena/comprobantes/internal/domain"
)

// ExtractCSV unpacks the downloaded export archive. The portal always
// ships the CSV as the single entry of a zip file; anything else fails
// with domain.ErrFormat.
func ExtractCSV(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a zip archive: %v", domain.ErrFormat, err)
	}

	if len(r.File) != 1 {
		return "", fmt.Errorf("%w: expected a single file inside the zip, got %d",
			domain.ErrFormat, len(r.File))
	}

	f, err := r.File[0].Open()
	if err != nil {
		return "", fmt.Errorf("%w: opening zip entry: %v", domain.ErrFormat, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("%w: reading zip entry: %v", domain.ErrFormat, err)
	}

	return string(body), nil
}
