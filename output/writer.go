package output

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrExists is returned when a document is already on disk.
	ErrExists = errors.New("document already exists")

	// ErrOutsideDir is returned when a ticket id would place the document
	// outside the output directory.
	ErrOutsideDir = errors.New("document path escapes the output directory")
)

// Writer creates prompt documents in a single directory.
type Writer struct {
	dir    string
	naming Naming
}

// NewWriter returns a writer for dir using the given naming convention.
func NewWriter(dir string, naming Naming) *Writer {
	return &Writer{dir: dir, naming: naming}
}

// Path returns where the ticket's document lives.
func (w *Writer) Path(ticketID string) string {
	return filepath.Join(w.dir, w.naming.FileName(ticketID))
}

// Create writes a new document for the ticket and returns its path.
// The file is opened with O_EXCL so an existing document is never
// overwritten; that case returns ErrExists.
func (w *Writer) Create(ticketID, content string) (path string, err error) {
	path = w.Path(ticketID)
	if strings.ContainsAny(ticketID, `/\`) || filepath.Dir(path) != filepath.Clean(w.dir) {
		return "", fmt.Errorf("%s: %w", ticketID, ErrOutsideDir)
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create prompt directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%s: %w", path, ErrExists)
		}
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	if _, err := f.WriteString(content); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
