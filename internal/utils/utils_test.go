package utils

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	token, err := GenerateJWT(42, "user", 3, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.Equal(t, "42", claims.Subject)
}

func TestJWTRejectsWrongSecretAndExpired(t *testing.T) {
	token, err := GenerateJWT(1, "admin", 0, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ParseJWT(token, "other")
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)

	expired, err := GenerateJWT(1, "admin", 0, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTRejectsOtherAlgorithms(t *testing.T) {
	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = ParseJWT(token, "secret")
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	BurnPasswordCheck("anything")
}

func TestNoopThrottle(t *testing.T) {
	var th LoginThrottle = NoopThrottle{}
	ok, err := th.Allow(context.Background(), "a@b.es")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisThrottle(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available at %s: %v", addr, err)
	}
	defer rdb.Close()

	th := NewRedisThrottle(rdb, 2, time.Minute)
	key := "throttle-test-" + time.Now().Format("150405.000000")
	defer th.Reset(ctx, key)

	ok, err := th.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, th.Fail(ctx, key))
	require.NoError(t, th.Fail(ctx, key))
	ok, err = th.Allow(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	ttl, err := rdb.TTL(ctx, "login:fail:"+key).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, th.Reset(ctx, key))
	ok, err = th.Allow(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}
