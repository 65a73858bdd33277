// Package anonid generates the public-facing anonymous identifiers shown to
// chat partners instead of any platform identity.
package anonid

import (
	"crypto/rand"
	"math/big"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// Length of the random part of an anonymous id.
	Length = 8
	// Prefix marks the id as a user pseudonym, e.g. "u_k3x9q0ab".
	Prefix = "u_"
)

// New returns a fresh anonymous id of the form "u_XXXXXXXX". The id is
// never derived from the platform identity and is stable once assigned.
func New() string {
	buf := make([]byte, Length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		buf[i] = alphabet[n.Int64()]
	}
	return Prefix + string(buf)
}
