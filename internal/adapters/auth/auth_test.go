package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"experiences/internal/domain"
)

const secret = "0123456789abcdef0123"

func TestTokens_RoundTrip(t *testing.T) {
	tk, err := NewTokens(secret, time.Hour)
	require.NoError(t, err)

	tok, err := tk.Issue(domain.Principal{UserID: 42, Username: "mia"})
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(tok.Value, ".")))

	p, err := tk.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: 42, Username: "mia"}, p)
}

func TestTokens_Rejects(t *testing.T) {
	tk, _ := NewTokens(secret, time.Hour)
	good, _ := tk.Issue(domain.Principal{UserID: 1, Username: "a"})

	other, _ := NewTokens("another-secret-value", time.Hour)
	foreign, _ := other.Issue(domain.Principal{UserID: 1, Username: "a"})

	expired, _ := NewTokens(secret, time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.Issue(domain.Principal{UserID: 1})

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "iss": "experiences"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	for name, raw := range map[string]string{
		"garbage":      "not-a-token",
		"tampered":     good.Value + "x",
		"wrong secret": foreign.Value,
		"expired":      old.Value,
		"alg none":     none,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tk.Verify(raw)
			assert.True(t, errors.Is(err, ErrInvalidToken), "err = %v", err)
		})
	}
}

func TestNewTokens_ShortSecret(t *testing.T) {
	_, err := NewTokens("short", time.Hour)
	assert.Error(t, err)
}

func TestBcrypt(t *testing.T) {
	h := Bcrypt{Cost: bcrypt.MinCost}
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, h.Verify(hash, "correct horse"))
	assert.False(t, h.Verify(hash, "battery staple"))
}

func TestBcrypt_TooLongIsValidationError(t *testing.T) {
	_, err := Bcrypt{Cost: bcrypt.MinCost}.Hash(strings.Repeat("a", domain.MaxPasswordBytes+1))
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "err = %v", err)
	assert.NotEmpty(t, ve.Fields["password1"])
}
