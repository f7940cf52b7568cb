package api

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const (
	idLength = 24
	charset  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	sessionIDPrefix = "sess_"
)

var sessionIDPattern = regexp.MustCompile(`^sess_[a-zA-Z0-9]{24}$`)

// NewSessionID generates a conversation session ID: "sess_" followed by 24
// cryptographically random alphanumeric characters.
func NewSessionID() string {
	return sessionIDPrefix + randomAlphanumeric(idLength)
}

// ValidateSessionID reports whether id has the form produced by NewSessionID.
func ValidateSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

func randomAlphanumeric(n int) string {
	limit := big.NewInt(int64(len(charset)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic("crypto/rand failed: " + err.Error())
		}
		b[i] = charset[idx.Int64()]
	}
	return string(b)
}
