package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeys(t *testing.T) (privPEM, pubPEM []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privPEM, pubPEM
}

func newTestService(t *testing.T) *AuthService {
	t.Helper()
	priv, pub := newTestKeys(t)
	svc, err := NewAuthService(priv, pub, time.Minute, time.Hour)
	require.NoError(t, err)
	return svc
}

func TestNewAuthServiceRequiresKeys(t *testing.T) {
	_, err := NewAuthService(nil, []byte("x"), time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewAuthService([]byte("x"), nil, time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewAuthService([]byte("not pem"), []byte("not pem"), time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestTokenPairRoundTrip(t *testing.T) {
	svc := newTestService(t)

	pair, err := svc.GenerateTokenPair("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	access, err := svc.ValidateTokenOfType(pair.AccessToken, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.UserID)
	assert.Equal(t, "user-1", access.Subject)

	refresh, err := svc.ValidateTokenOfType(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refresh.ID)

	_, err = svc.ValidateTokenOfType(pair.RefreshToken, TokenTypeAccess)
	assert.Error(t, err)
}

func TestValidateTokenRejectsForeignKey(t *testing.T) {
	issuer := newTestService(t)
	verifier := newTestService(t)

	pair, err := issuer.GenerateTokenPair("user-1")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
	_, err = verifier.ValidateToken("")
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	priv, pub := newTestKeys(t)
	svc, err := NewAuthService(priv, pub, -time.Minute, time.Hour)
	require.NoError(t, err)

	pair, err := svc.GenerateTokenPair("user-1")
	require.NoError(t, err)
	_, err = svc.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestGenerateTokenPairRequiresUser(t *testing.T) {
	_, err := newTestService(t).GenerateTokenPair("")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestValidatePassword(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("12345"), ErrPasswordLength)
	assert.NoError(t, ValidatePassword("123456"))
	assert.NoError(t, ValidatePassword(string(make([]byte, 72))))
	assert.ErrorIs(t, ValidatePassword(string(make([]byte, 73))), ErrPasswordLength)
}
