package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashYVerify(t *testing.T) {
	c := NewCredentials("s", time.Hour, bcrypt.MinCost)

	h, err := c.Hash("clave-segura")
	require.NoError(t, err)
	assert.NotEqual(t, "clave-segura", h)
	assert.True(t, c.Verify("clave-segura", h))
	assert.False(t, c.Verify("otra", h))
	assert.False(t, c.Verify("clave-segura", "no-es-un-hash"))
}

func TestIssueYVerifyToken(t *testing.T) {
	c := NewCredentials("secreto", time.Hour, bcrypt.MinCost)
	id := uuid.New()

	tok, err := c.IssueToken(id, "ana@example.com")
	require.NoError(t, err)

	claims, err := c.VerifyToken(tok)
	require.NoError(t, err)
	assert.Equal(t, id, claims.UserUUID())
	assert.Equal(t, "ana@example.com", claims.Email)
}

func TestVerifyToken_Expirado(t *testing.T) {
	c := NewCredentials("secreto", time.Hour, bcrypt.MinCost)
	c.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := c.IssueToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	c.now = time.Now
	_, err = c.VerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_OtroSecreto(t *testing.T) {
	tok, err := NewCredentials("uno", time.Hour, bcrypt.MinCost).IssueToken(uuid.New(), "a@b.c")
	require.NoError(t, err)

	_, err = NewCredentials("dos", time.Hour, bcrypt.MinCost).VerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyToken_AlgoritmoNone(t *testing.T) {
	claims := Claims{UserID: uuid.NewString()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewCredentials("s", time.Hour, bcrypt.MinCost).VerifyToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
