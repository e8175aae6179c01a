package room

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_GenerateInviteCode_Uses_Alphabet(t *testing.T) {
	req := require.New(t)

	seen := make(map[string]struct{})
	for range 200 {
		code, err := GenerateInviteCode()
		req.NoError(err)
		req.Len(code, InviteCodeLength)
		req.True(IsValidInviteCode(code), code)
		for _, ambiguous := range "01IO" {
			req.False(strings.ContainsRune(code, ambiguous))
		}
		seen[code] = struct{}{}
	}
	req.Greater(len(seen), 190)
}

func Test_Invite_Code_Normalisation(t *testing.T) {
	req := require.New(t)

	req.Equal("ABCD2345", NormalizeInviteCode("  abcd2345 "))
	req.True(IsValidInviteCode(NormalizeInviteCode("abcd2345")))
	req.False(IsValidInviteCode("ABCD234"))
	req.False(IsValidInviteCode("ABCD23450"))
	req.False(IsValidInviteCode("ABCD2341"), "1 is not in the alphabet")
	req.False(IsValidInviteCode("abcd2345"))
}

func Test_GenerateToken_Is_Url_Safe(t *testing.T) {
	req := require.New(t)

	a, err := GenerateToken()
	req.NoError(err)
	b, err := GenerateToken()
	req.NoError(err)

	req.NotEqual(a, b)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	req.NoError(err)
	req.Len(raw, 32)
}
