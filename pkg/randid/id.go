// Package randid generates short random ids for log correlation.
package randid

import (
	"math/rand/v2"
	"strings"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Generate returns a random id of n characters. The alphabet omits
// letters easily confused in logs (i, l, o, u).
func Generate(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for range n {
		sb.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return sb.String()
}
