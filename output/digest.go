package output

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// Digest returns the hex blake3 hash of a document's content. The run
// ledger stores it so a prompt edited after generation can be spotted.
func Digest(content string) string {
	return fmt.Sprintf("%x", blake3.Sum256([]byte(content)))
}
