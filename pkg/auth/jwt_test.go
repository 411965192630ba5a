package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("secret", "bnb-api", time.Hour, 24*time.Hour)

	access, err := iss.NewAccessToken("user-1", "a@b.co")
	require.NoError(t, err)
	claims, err := iss.Parse(access, TypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "a@b.co", claims.Email)
	assert.Equal(t, jwt.ClaimStrings{"bnb-api"}, claims.Audience)

	refresh, err := iss.NewRefreshToken("user-1", "a@b.co")
	require.NoError(t, err)
	_, err = iss.Parse(refresh, TypeRefresh)
	require.NoError(t, err)
}

func TestIssuer_Rejects(t *testing.T) {
	iss := NewIssuer("secret", "bnb-api", time.Hour, 24*time.Hour)
	access, err := iss.NewAccessToken("user-1", "a@b.co")
	require.NoError(t, err)

	t.Run("wrong type", func(t *testing.T) {
		_, err := iss.Parse(access, TypeRefresh)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewIssuer("another-secret", "bnb-api", time.Hour, time.Hour)
		_, err := other.Parse(access, TypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewIssuer("secret", "someone-else", time.Hour, time.Hour)
		_, err := other.Parse(access, TypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		parts := strings.Split(access, ".")
		require.Len(t, parts, 3)
		forged := parts[0] + "." + parts[1] + "x." + parts[2]
		_, err := iss.Parse(forged, TypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewIssuer("secret", "bnb-api", time.Hour, time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(access, TypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			Type: TypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				Issuer:    "bnb-api",
				Audience:  jwt.ClaimStrings{audience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = iss.Parse(s, TypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("empty subject", func(t *testing.T) {
		tok, err := iss.NewAccessToken("", "a@b.co")
		require.NoError(t, err)
		_, err = iss.Parse(tok, TypeAccess)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
