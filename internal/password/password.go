package password

import "golang.org/x/crypto/bcrypt"

// Cost is the bcrypt work factor used for every stored hash.
const Cost = 10

// MaxLength is the longest plaintext bcrypt accepts, in bytes.
const MaxLength = 72

func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), Cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. A malformed hash is a mismatch.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
