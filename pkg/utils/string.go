package utils

import (
	"crypto/rand"
	"math/big"
)

// JoinCodeAlphabet leaves out 0/O and 1/I so codes survive being read aloud.
const JoinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const JoinCodeLength = 6

// GenerateRandomString returns length characters drawn uniformly from charset.
func GenerateRandomString(charset string, length int) (string, error) {
	max := big.NewInt(int64(len(charset)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}
	return string(b), nil
}

// GenerateJoinCode returns a fresh team join code.
func GenerateJoinCode() (string, error) {
	return GenerateRandomString(JoinCodeAlphabet, JoinCodeLength)
}
