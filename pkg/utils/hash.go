package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// CalculateDocumentsSHA256 hashes a sequence of documents in order.
// Each document is length-prefixed so boundaries are part of the digest.
func CalculateDocumentsSHA256(docs []string) string {
	hash := sha256.New()
	for _, d := range docs {
		var lenBuf [8]byte
		n := uint64(len(d))
		for i := range lenBuf {
			lenBuf[i] = byte(n >> (8 * i))
		}
		hash.Write(lenBuf[:])
		hash.Write([]byte(d))
	}
	return hex.EncodeToString(hash.Sum(nil))
}
