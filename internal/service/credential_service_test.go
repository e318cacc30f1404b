package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/gallery/internal/domain"
)

func newTestCredentialService() (*CredentialService, *MockUserRepository, *countingHasher) {
	repo := NewMockUserRepository()
	hasher := newCountingHasher()
	return NewCredentialService(repo, hasher, zerolog.Nop()), repo, hasher
}

func TestCredentialService_RegisterThenVerify(t *testing.T) {
	tests := []struct {
		username string
		password string
	}{
		{"alice", "secret123"},
		{"bob", "p4ssw0rd-bob"},
		{"émile", "pässwörd"},
		{"long-password", strings.Repeat("x", 72)},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			svc, repo, _ := newTestCredentialService()
			ctx := context.Background()

			result, err := svc.Register(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.Equal(t, Created, result)

			hash := repo.hashOf(tt.username)
			assert.True(t, strings.HasPrefix(hash, "$2a$"), "stored value should be a bcrypt hash: %s", hash)
			assert.NotEqual(t, tt.password, hash)

			ok, err := svc.Verify(ctx, tt.username, tt.password)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = svc.Verify(ctx, tt.username, tt.password+"!")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCredentialService_RegisterExisting(t *testing.T) {
	svc, repo, hasher := newTestCredentialService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "secret123")
	require.NoError(t, err)
	original := repo.hashOf("alice")
	hashesBefore := hasher.hashes.Load()

	for _, password := range []string{"secret123", "anything", "x"} {
		result, err := svc.Register(ctx, "alice", password)
		require.NoError(t, err)
		assert.Equal(t, AlreadyExists, result)
	}

	assert.Equal(t, original, repo.hashOf("alice"), "original hash must be unchanged")
	assert.Equal(t, hashesBefore, hasher.hashes.Load(), "existing usernames must not be hashed")

	ok, err := svc.Verify(ctx, "alice", "secret123")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCredentialService_ConcurrentRegistration(t *testing.T) {
	svc, repo, _ := newTestCredentialService()

	// Hold both lookups until each has seen "not found", forcing the race
	// to be decided by the insert.
	barrier := &sync.WaitGroup{}
	barrier.Add(2)
	repo.lookupBarrier = barrier

	var wg sync.WaitGroup
	results := make([]RegisterResult, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Register(context.Background(), "carol", "pw-"+string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.ElementsMatch(t, []RegisterResult{Created, AlreadyExists}, results)
}

func TestCredentialService_VerifyRejectsSuffixBeyondLimit(t *testing.T) {
	svc, _, _ := newTestCredentialService()
	ctx := context.Background()
	exact := strings.Repeat("x", 72)

	_, err := svc.Register(ctx, "erin", exact)
	require.NoError(t, err)

	ok, err := svc.Verify(ctx, "erin", exact+"TOTALLY-WRONG-SUFFIX")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialService_VerifyUnknownUser(t *testing.T) {
	svc, _, _ := newTestCredentialService()

	ok, err := svc.Verify(context.Background(), "nobody", "secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentialService_InvalidPasswords(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"empty", ""},
		{"too long", strings.Repeat("x", 73)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestCredentialService()

			_, err := svc.Register(context.Background(), "dave", tt.password)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Empty(t, repo.hashOf("dave"))
		})
	}
}

func TestCredentialService_StoreFailures(t *testing.T) {
	storeErr := errors.New("connection reset")
	ctx := context.Background()

	t.Run("lookup fails on register", func(t *testing.T) {
		svc, repo, hasher := newTestCredentialService()
		repo.getErr = storeErr

		_, err := svc.Register(ctx, "alice", "secret")
		assert.ErrorIs(t, err, domain.ErrInternal)
		assert.Zero(t, hasher.hashes.Load())
	})

	t.Run("insert fails", func(t *testing.T) {
		svc, repo, _ := newTestCredentialService()
		repo.createErr = storeErr

		_, err := svc.Register(ctx, "alice", "secret")
		assert.ErrorIs(t, err, domain.ErrInternal)
	})

	t.Run("lookup fails on verify", func(t *testing.T) {
		svc, repo, _ := newTestCredentialService()
		repo.getErr = storeErr

		ok, err := svc.Verify(ctx, "alice", "secret")
		assert.ErrorIs(t, err, domain.ErrInternal)
		assert.False(t, ok)
	})
}

func TestRegisterResult_String(t *testing.T) {
	if got := Created.String(); got != "created" {
		t.Errorf("expected created, got %s", got)
	}
	if got := AlreadyExists.String(); got != "already_exists" {
		t.Errorf("expected already_exists, got %s", got)
	}
	if got := RegisterResult(0).String(); got != "unknown" {
		t.Errorf("expected unknown, got %s", got)
	}
}
