package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashAdminKey produces the value stored in ADMIN_KEY_HASH.
func HashAdminKey(key string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckAdminKey reports whether key matches hash. An empty hash disables
// admin access entirely.
func CheckAdminKey(hash, key string) bool {
	if hash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
