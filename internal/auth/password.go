// Package auth covers credentials: bcrypt password hashing, password
// policy checks, and JWT access/refresh tokens.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/dohyunkim/moneytree/internal/domain"
)

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a plaintext password against its bcrypt hash.
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

const validSymbols = "!@#$%^&*-+"

// ValidatePassword enforces the password policy: at least 8 characters,
// one lowercase letter, one digit, and only alphanumerics plus the
// allowed symbols.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return domain.InvalidInputf("password must be at least 8 characters long")
	}

	var hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'A' && r <= 'Z':
		case strings.ContainsRune(validSymbols, r):
		default:
			return domain.InvalidInputf("password may only contain letters, digits, and %s", validSymbols)
		}
	}
	if !hasLower {
		return domain.InvalidInputf("password must contain at least one lowercase letter")
	}
	if !hasDigit {
		return domain.InvalidInputf("password must contain at least one number")
	}
	return nil
}

const (
	passwordLowercase = "abcdefghijklmnopqrstuvwxyz"
	passwordDigits    = "0123456789"
)

// GeneratePassword produces a random temporary password of length n that
// passes ValidatePassword: lowercase letters and digits, at least one of
// each. n must be at least the policy minimum of 8.
func GeneratePassword(n int) (string, error) {
	if n < 8 {
		return "", fmt.Errorf("password length must be at least 8 characters")
	}

	alphabet := passwordLowercase + passwordDigits
	chars := make([]byte, n)

	pick := func(set string) (byte, error) {
		i, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, fmt.Errorf("generate password: %w", err)
		}
		return set[i.Int64()], nil
	}

	var err error
	if chars[0], err = pick(passwordLowercase); err != nil {
		return "", err
	}
	if chars[1], err = pick(passwordDigits); err != nil {
		return "", err
	}
	for i := 2; i < n; i++ {
		if chars[i], err = pick(alphabet); err != nil {
			return "", err
		}
	}

	// Shuffle so the guaranteed characters are not always in front.
	for i := len(chars) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		chars[i], chars[j.Int64()] = chars[j.Int64()], chars[i]
	}
	return string(chars), nil
}

// GenerateCode produces a 6-hex-character email verification code.
func GenerateCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
