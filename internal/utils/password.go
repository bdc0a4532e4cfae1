package utils

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash using the given cost. It exists so
// deployments can mint an ADMIN_PASS_HASH value instead of storing the admin
// password in plain text.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares a bcrypt hash and a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// SecureCompare performs a constant-time equality check for plain-text
// secrets such as the admin credentials.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// CheckAdminPassword validates a submitted password against the configured
// admin secret. When a bcrypt hash is configured it wins over the plain
// comparison.
func CheckAdminPassword(plain, configured, configuredHash string) bool {
	if configuredHash != "" {
		return VerifyPassword(configuredHash, plain)
	}
	return SecureCompare(plain, configured)
}
