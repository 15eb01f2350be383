package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/rbac-accounts/internal/core/ports"
)

const (
	HasherSHA256 = "sha256"
	HasherBcrypt = "bcrypt"
)

// SHA256Hasher maps a password to the lowercase hex SHA-256 digest of its
// UTF-8 bytes. Unsalted and deterministic, so verification recomputes the digest.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(plain string) (string, error) {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Compare(digest, plain string) bool {
	got, _ := h.Hash(plain)
	return subtle.ConstantTimeCompare([]byte(got), []byte(digest)) == 1
}

// BcryptHasher stores salted bcrypt hashes.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plain string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt hash: %w", err)
	}
	return string(hash), nil
}

func (BcryptHasher) Compare(digest, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// NewPasswordHasher returns the hasher registered under name.
func NewPasswordHasher(name string, bcryptCost int) (ports.PasswordHasher, error) {
	switch name {
	case "", HasherSHA256:
		return SHA256Hasher{}, nil
	case HasherBcrypt:
		if bcryptCost != 0 && (bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost) {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
		return BcryptHasher{Cost: bcryptCost}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}
