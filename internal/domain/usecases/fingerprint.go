package usecases

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/Vishwatejkhot/Self-Healing-Enterprise-AI-System/internal/domain/entities"
)

// Fingerprint computes the corpus change-detector digest over an ordered document set.
// Each document contributes its path and content, both length-prefixed, so content,
// order, count and identity changes all move the digest. Not a security primitive.
// An empty set hashes to the SHA-256 of the empty input.
func Fingerprint(docs []entities.Document) string {
	h := sha256.New()
	var n [8]byte
	for _, d := range docs {
		for _, field := range []string{d.Path, d.Content} {
			binary.BigEndian.PutUint64(n[:], uint64(len(field)))
			h.Write(n[:])
			h.Write([]byte(field))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
