package utils // id and invite-code generation helpers

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// inviteAlphabet is the character set for invite codes. Uppercase
// letters and digits only, so codes survive being read aloud or typed
// on a phone keyboard.
const inviteAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InviteCodeLength is the fixed length of group invite codes.
const InviteCodeLength = 6

// NewID returns a fresh opaque identifier for a domain record.
func NewID() string {
	return uuid.NewString()
}

// NewInviteCode returns a 6-character uppercase alphanumeric code drawn
// from crypto/rand. Uniqueness is not guaranteed here; the registry
// checks the store and re-rolls on collision.
func NewInviteCode() (string, error) {
	buf := make([]byte, InviteCodeLength)
	max := big.NewInt(int64(len(inviteAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = inviteAlphabet[n.Int64()]
	}
	return string(buf), nil
}
