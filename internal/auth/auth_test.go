package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

func TestJWTIssueVerify(t *testing.T) {
	j := NewJWT("s3cret", 15*time.Minute)
	tok, err := j.Issue(42, model.RolePublisher)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	p, err := j.Verify(tok.Token)
	require.NoError(t, err)
	assert.Equal(t, Principal{UserID: 42, Role: model.RolePublisher}, p)
	assert.False(t, p.IsOrganizer())
}

func TestJWTRejectsWrongSecretAndExpiry(t *testing.T) {
	tok, err := NewJWT("one", time.Minute).Issue(1, model.RoleOrganizer)
	require.NoError(t, err)
	_, err = NewJWT("two", time.Minute).Verify(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	j := NewJWT("one", time.Minute)
	j.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = j.Verify(tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "1", "role": model.RoleOrganizer, "exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	_, err = NewJWT("k", time.Minute).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenHash(t *testing.T) {
	rt, err := NewRefreshToken(24 * time.Hour)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefresh(rt.Raw), 64)
	assert.Equal(t, HashRefresh(rt.Raw), HashRefresh(rt.Raw))
}

func TestPasswordHashing(t *testing.T) {
	h, err := HashPassword("hunter2", 4)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(h, "hunter2"))
	assert.False(t, VerifyPassword(h, "hunter3"))
}
