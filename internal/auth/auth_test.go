package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexakit/lexa/internal/common"
)

func TestIssueAndVerify(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", "HS256", time.Minute)
	require.NoError(t, err)

	token, err := issuer.Issue("alice", []string{"user"})
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, []string{"user"}, claims.Roles)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret-a", "HS256", time.Minute)
	other, _ := NewTokenIssuer("secret-b", "HS256", time.Minute)

	token, err := issuer.Issue("alice", nil)
	require.NoError(t, err)

	_, err = other.Verify(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestVerifyExpiredToken(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", "HS256", time.Minute)

	expired := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestVerifyGarbage(t *testing.T) {
	issuer, _ := NewTokenIssuer("secret", "HS256", time.Minute)
	_, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestUnsupportedAlgorithm(t *testing.T) {
	_, err := NewTokenIssuer("secret", "RS256", time.Minute)
	assert.Error(t, err)

	_, err = NewTokenIssuer("", "HS256", time.Minute)
	assert.Error(t, err)
}

func TestAlgorithmVariants(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		issuer, err := NewTokenIssuer("secret", alg, time.Minute)
		require.NoError(t, err, alg)

		token, err := issuer.Issue("bob", []string{RoleAdmin})
		require.NoError(t, err, alg)

		claims, err := issuer.Verify(token)
		require.NoError(t, err, alg)
		assert.True(t, HasRole(claims.Roles, RoleAdmin))
	}
}

func TestUserStoreAuthenticate(t *testing.T) {
	store := NewUserStore()
	require.NoError(t, store.Seed("admin", "hunter2", RoleAdmin, "user"))

	user, err := store.Authenticate("admin", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.True(t, HasRole(user.Roles, RoleAdmin))

	_, err = store.Authenticate("admin", "wrong")
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = store.Authenticate("ghost", "hunter2")
	assert.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestTokenTTLDefault(t *testing.T) {
	issuer, err := NewTokenIssuer("secret", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, issuer.TTL())
}
