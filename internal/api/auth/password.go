package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Local credentials exist only for superadmins; everyone else signs in
// through Clerk. bcrypt ignores input past 72 bytes, so longer passwords are
// refused rather than silently truncated.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

// ValidatePassword reports why password cannot be used. The message reads as
// a field reason ("must be ...").
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return fmt.Errorf("must be at least %d characters", MinPasswordLength)
	case len(password) > MaxPasswordLength:
		return fmt.Errorf("must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", fmt.Errorf("password %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword is false for a malformed hash as well as a wrong password.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
