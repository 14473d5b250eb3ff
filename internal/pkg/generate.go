package pkg

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	roomKeyAlphabet  = "abcdefghjkmnpqrstuvwxyz23456789"
	roomKeyLength    = 6
	passcodeAlphabet = "0123456789"
	passcodeLength   = 6
)

// GenerateRoomKey - generates a short room identifier that is easy to read out loud.
func GenerateRoomKey() (string, error) {
	key, err := randomString(roomKeyAlphabet, roomKeyLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate room key: %w", err)
	}

	return key, nil
}

// GeneratePasscode - generates a numeric room passcode.
func GeneratePasscode() (string, error) {
	passcode, err := randomString(passcodeAlphabet, passcodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate passcode: %w", err)
	}

	return passcode, nil
}

func randomString(alphabet string, length int) (string, error) {
	limit := big.NewInt(int64(len(alphabet)))

	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[n.Int64()]
	}

	return string(buf), nil
}
