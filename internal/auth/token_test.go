package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-for-unit-tests!!")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newTestCodec(t *testing.T, clock *fakeClock) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(TokenConfig{Secret: testSecret, Now: clock.Now})
	require.NoError(t, err)
	return codec
}

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestNewTokenCodec(t *testing.T) {
	tests := []struct {
		name    string
		cfg     TokenConfig
		wantErr error
		wantTTL time.Duration
	}{
		{name: "missing secret", cfg: TokenConfig{}, wantErr: ErrMissingSecret},
		{name: "negative ttl", cfg: TokenConfig{Secret: testSecret, TTL: -time.Second}, wantErr: ErrInvalidTTL},
		{name: "default ttl", cfg: TokenConfig{Secret: testSecret}, wantTTL: DefaultTokenTTL},
		{name: "custom ttl", cfg: TokenConfig{Secret: testSecret, TTL: time.Hour}, wantTTL: time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := NewTokenCodec(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, codec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTTL, codec.TTL())
		})
	}
}

func TestNewTokenCodec_CopiesSecret(t *testing.T) {
	secret := []byte("mutable-secret")
	codec, err := NewTokenCodec(TokenConfig{Secret: secret})
	require.NoError(t, err)

	token, err := codec.Issue("alice")
	require.NoError(t, err)

	secret[0] = 'X'

	username, err := codec.Validate(token.Signed)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestTokenCodec_IssueAndValidate(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 30, 15, 500, time.UTC)}
	codec := newTestCodec(t, clock)

	for _, username := range []string{"alice", "bob", "ünïcödé", "with space", "a"} {
		t.Run(username, func(t *testing.T) {
			token, err := codec.Issue(username)
			require.NoError(t, err)

			assert.Equal(t, username, token.Subject)
			assert.Equal(t, clock.now.Truncate(time.Second), token.IssuedAt)
			assert.Equal(t, DefaultTokenTTL, token.ExpiresAt.Sub(token.IssuedAt))
			assert.Equal(t, 2, strings.Count(token.Signed, "."))

			got, err := codec.Validate(token.Signed)
			require.NoError(t, err)
			assert.Equal(t, username, got)
		})
	}
}

func TestTokenCodec_IssueEmptySubject(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{now: time.Now()})

	_, err := codec.Issue("")
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestTokenCodec_Expired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, err := codec.Issue("alice")
	require.NoError(t, err)

	clock.now = clock.now.Add(DefaultTokenTTL - time.Second)
	_, err = codec.Validate(token.Signed)
	require.NoError(t, err, "token should still be valid just before expiry")

	clock.now = clock.now.Add(2 * time.Second)
	_, err = codec.Validate(token.Signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenCodec_SignatureBitFlips(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{now: time.Now()})

	token, err := codec.Issue("alice")
	require.NoError(t, err)

	lastDot := strings.LastIndex(token.Signed, ".")
	head, encodedSig := token.Signed[:lastDot+1], token.Signed[lastDot+1:]

	sig, err := base64.RawURLEncoding.DecodeString(encodedSig)
	require.NoError(t, err)

	for i := 0; i < len(sig)*8; i++ {
		tampered := append([]byte(nil), sig...)
		tampered[i/8] ^= 1 << (i % 8)

		_, err := codec.Validate(head + base64.RawURLEncoding.EncodeToString(tampered))
		require.ErrorIs(t, err, ErrTokenInvalid, "bit %d", i)
	}
}

func TestTokenCodec_TamperedExpiredTokenIsInvalid(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, err := codec.Issue("alice")
	require.NoError(t, err)
	clock.now = clock.now.Add(48 * time.Hour)

	lastDot := strings.LastIndex(token.Signed, ".")
	sig, err := base64.RawURLEncoding.DecodeString(token.Signed[lastDot+1:])
	require.NoError(t, err)
	sig[0] ^= 0x01

	_, err = codec.Validate(token.Signed[:lastDot+1] + base64.RawURLEncoding.EncodeToString(sig))
	assert.ErrorIs(t, err, ErrTokenInvalid)
	assert.NotErrorIs(t, err, ErrTokenExpired)
}

func TestTokenCodec_RejectsForeignTokens(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	valid := jwt.RegisteredClaims{
		Subject:   "alice",
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "garbage", raw: "not-a-token"},
		{name: "three garbage segments", raw: "a.b.c"},
		{name: "wrong secret", raw: signClaims(t, jwt.SigningMethodHS256, []byte("other-secret"), valid)},
		{name: "hs512", raw: signClaims(t, jwt.SigningMethodHS512, testSecret, valid)},
		{name: "alg none", raw: signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
		{name: "missing subject", raw: signClaims(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
			IssuedAt:  valid.IssuedAt,
			ExpiresAt: valid.ExpiresAt,
		})},
		{name: "missing expiry", raw: signClaims(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
			Subject:  "alice",
			IssuedAt: valid.IssuedAt,
		})},
		{name: "missing issued-at", raw: signClaims(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: valid.ExpiresAt,
		})},
		{name: "issued in the future", raw: signClaims(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
			Subject:   "alice",
			IssuedAt:  jwt.NewNumericDate(clock.now.Add(time.Hour)),
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(2 * time.Hour)),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, err := codec.Validate(tt.raw)
			assert.ErrorIs(t, err, ErrTokenInvalid)
			assert.Empty(t, username)
		})
	}
}

func TestTokenCodec_AcceptsMatchingForeignSigner(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	raw := signClaims(t, jwt.SigningMethodHS256, testSecret, jwt.RegisteredClaims{
		Subject:   "carol",
		IssuedAt:  jwt.NewNumericDate(clock.now),
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Minute)),
	})

	username, err := codec.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, "carol", username)
}
