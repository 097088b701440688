package inmem

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const otpDigits = 6

// generateOTP returns a 6-digit numeric code from crypto/rand.
func generateOTP() (string, error) {
	b := make([]byte, otpDigits)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := make([]byte, otpDigits)
	for i := range otpDigits {
		s[i] = '0' + (b[i] % 10)
	}
	return string(s), nil
}

func hashOTP(otp string) string {
	h := sha256.Sum256([]byte(otp))
	return hex.EncodeToString(h[:])
}

// otpEqual compares the provided code against a stored hash in constant time.
func otpEqual(provided, storedHash string) bool {
	return subtle.ConstantTimeCompare([]byte(hashOTP(provided)), []byte(storedHash)) == 1
}
