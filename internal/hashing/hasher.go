// Package hashing derives the content-addressed document id used to name
// cache artifacts, by streaming a PDF through sha256 the same way the
// teacher's SecureStore streams an upload through md5 for deduplication.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const blockSize = 64 * 1024

// HashFile streams the file at path through sha256 in 64KiB blocks and
// returns the first 8 bytes of the digest as 16 lowercase hex characters.
// This is the document's doc_id: stable across re-ingestion as long as the
// file's bytes don't change, regardless of filename or path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hashing: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hashing: read %s: %w", path, err)
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8]), nil
}
