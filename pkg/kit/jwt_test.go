package kit

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestTokenMaker_RoundTrip(t *testing.T) {
	tm := NewTokenMaker("secret")

	tok, err := tm.New("ops", "inventory:write", time.Minute)
	require.NoError(t, err)

	c, err := tm.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "ops", c.Subject)
	require.Equal(t, "inventory:write", c.Scope)
	require.Equal(t, tokenIssuer, c.Issuer)
	require.NotEmpty(t, c.ID)
}

func TestTokenMaker_Rejects(t *testing.T) {
	tm := NewTokenMaker("secret")

	t.Run("WrongSecret", func(t *testing.T) {
		tok, err := NewTokenMaker("other").New("ops", "", time.Minute)
		require.NoError(t, err)
		_, err = tm.Parse(tok)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired", func(t *testing.T) {
		tok, err := tm.New("ops", "", -time.Minute)
		require.NoError(t, err)
		_, err = tm.Parse(tok)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoSubject", func(t *testing.T) {
		tok, err := tm.New("", "", time.Minute)
		require.NoError(t, err)
		_, err = tm.Parse(tok)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "ops",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tm.Parse(tok)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := tm.Parse("not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
