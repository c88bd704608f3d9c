// Package output owns the prompt directory: it names documents, finds the
// ones already generated, and writes new ones without ever overwriting.
package output

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Naming is the document naming convention: <prefix>-<id>-v<version>.<ext>.
type Naming struct {
	Prefix    string
	Version   int
	Extension string
}

// DefaultNaming returns the stock dev-agent naming convention.
func DefaultNaming() Naming {
	return Naming{Prefix: "dev-agent", Version: 1, Extension: "md"}
}

// FileName returns the document name for a ticket at the configured version.
func (n Naming) FileName(ticketID string) string {
	return fmt.Sprintf("%s-%s-v%d.%s", n.Prefix, ticketID, n.Version, n.Extension)
}

// ParseFileName recovers the ticket id and version from a document name.
// Any version is accepted; ok is false for names outside the convention.
func (n Naming) ParseFileName(name string) (ticketID string, version int, ok bool) {
	prefix := n.Prefix + "-"
	suffix := "." + n.Extension
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", 0, false
	}

	stem := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
	idx := strings.LastIndex(stem, "-v")
	if idx <= 0 {
		return "", 0, false
	}

	digits := stem[idx+2:]
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return "", 0, false
	}
	version, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, false
	}
	return stem[:idx], version, true
}

// Index is the set of ticket ids that already have a document. It is built
// once per run and only read afterwards.
type Index struct {
	ids map[string]struct{}
}

// NewIndex builds an index from known ids.
func NewIndex(ids ...string) *Index {
	idx := &Index{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		idx.ids[id] = struct{}{}
	}
	return idx
}

// Has reports whether a document exists for the ticket.
func (i *Index) Has(ticketID string) bool {
	_, ok := i.ids[ticketID]
	return ok
}

// Len returns the number of ticket ids with a document.
func (i *Index) Len() int {
	return len(i.ids)
}

// IDs returns the indexed ticket ids, sorted.
func (i *Index) IDs() []string {
	ids := make([]string, 0, len(i.ids))
	for id := range i.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Scan lists dir and indexes every file that follows the naming convention.
// Files that don't match are not ours and are ignored. A missing directory
// means nothing has been generated yet.
func Scan(dir string, naming Naming) (*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex(), nil
		}
		return nil, fmt.Errorf("failed to scan prompt directory: %w", err)
	}

	idx := NewIndex()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if id, _, ok := naming.ParseFileName(entry.Name()); ok {
			idx.ids[id] = struct{}{}
		}
	}
	return idx, nil
}
