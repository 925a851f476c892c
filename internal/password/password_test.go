package password_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/password"
)

var fastParams = password.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHashAndVerify(t *testing.T) {
	hash, err := password.HashWith("Str0ng!Pass", fastParams)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := password.Verify("Str0ng!Pass", hash)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = password.Verify("wrong", hash)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashIsSalted(t *testing.T) {
	a, err := password.HashWith("Str0ng!Pass", fastParams)
	require.NoError(t, err)
	b, err := password.HashWith("Str0ng!Pass", fastParams)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=0$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$aGFzaA",
	} {
		ok, err := password.Verify("secret", hash)
		require.Error(t, err, hash)
		require.False(t, ok)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]error{
		"Str0ng!Pass":             nil,
		"Sh0rt!":                  password.ErrTooShort,
		"lowercase1!":             password.ErrMissingUpper,
		"UPPERCASE1!":             password.ErrMissingLower,
		"NoDigits!!":              password.ErrMissingDigit,
		"NoSpecial12":             password.ErrMissingSpecial,
		strings.Repeat("Aa1!", 33): password.ErrTooLong,
	}
	for input, want := range cases {
		err := password.Validate(input)
		if want == nil {
			require.NoError(t, err, input)
			continue
		}
		require.ErrorIs(t, err, want, input)
	}
}
