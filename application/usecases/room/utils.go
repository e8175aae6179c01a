package room

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

const (
	// InviteAlphabet leaves out look-alike characters (0/O, 1/I).
	InviteAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	InviteCodeLength = 8

	tokenLength = 32
)

// GenerateToken returns a fresh participant token.
func GenerateToken() (string, error) {
	b := make([]byte, tokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateInviteCode draws InviteCodeLength characters uniformly from
// InviteAlphabet. 256 is a multiple of the alphabet size, so reducing each
// random byte modulo 32 introduces no bias.
func GenerateInviteCode() (string, error) {
	b := make([]byte, InviteCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}

	code := make([]byte, InviteCodeLength)
	for i, v := range b {
		code[i] = InviteAlphabet[int(v)%len(InviteAlphabet)]
	}
	return string(code), nil
}

// NormalizeInviteCode upper-cases and trims a user-supplied code.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func IsValidInviteCode(code string) bool {
	if len(code) != InviteCodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(InviteAlphabet, r) {
			return false
		}
	}
	return true
}
