package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prn-tf/gallery/internal/domain"
	"github.com/prn-tf/gallery/internal/pkg/crypto"
	"github.com/prn-tf/gallery/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repository.UserRepository.
// Create enforces username uniqueness atomically, like a UNIQUE column.
type MockUserRepository struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	getErr    error
	createErr error

	// lookupBarrier, when set, holds every GetByUsername call until
	// the barrier's count of callers has arrived.
	lookupBarrier *sync.WaitGroup
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

func (m *MockUserRepository) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.users[user.Username]; exists {
		return domain.ErrUserAlreadyExists
	}
	copied := *user
	m.users[user.Username] = &copied
	return nil
}

func (m *MockUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if m.lookupBarrier != nil {
		m.lookupBarrier.Done()
		m.lookupBarrier.Wait()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			copied := *u
			return &copied, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) FindOwnerIDByUsername(_ context.Context, username string) (domain.UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	u, ok := m.users[username]
	if !ok {
		return "", domain.ErrUserNotFound
	}
	return u.ID, nil
}

func (m *MockUserRepository) hashOf(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		return u.PasswordHash
	}
	return ""
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

// MockImageRepository is a mock implementation of repository.ImageRepository.
type MockImageRepository struct {
	mu      sync.Mutex
	images  map[domain.ImageID]*domain.Image
	users   *MockUserRepository
	listErr error
	getErr  error
}

func NewMockImageRepository(users *MockUserRepository) *MockImageRepository {
	return &MockImageRepository{
		images: make(map[domain.ImageID]*domain.Image),
		users:  users,
	}
}

func (m *MockImageRepository) Create(ctx context.Context, image *domain.Image) error {
	if _, err := m.users.GetByID(ctx, image.OwnerID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *image
	m.images[image.ID] = &copied
	return nil
}

func (m *MockImageRepository) GetByID(_ context.Context, id domain.ImageID) (*domain.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	img, ok := m.images[id]
	if !ok {
		return nil, domain.ErrImageNotFound
	}
	copied := *img
	return &copied, nil
}

func (m *MockImageRepository) withAuthor(ctx context.Context, img *domain.Image) *domain.ImageWithAuthor {
	out := &domain.ImageWithAuthor{ID: img.ID, Src: img.Src, Name: img.Name, CreatedAt: img.CreatedAt}
	if u, err := m.users.GetByID(ctx, img.OwnerID); err == nil {
		out.Author = domain.Author{ID: u.ID, Username: u.Username}
	}
	return out
}

func (m *MockImageRepository) GetWithAuthor(ctx context.Context, id domain.ImageID) (*domain.ImageWithAuthor, error) {
	img, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.withAuthor(ctx, img), nil
}

func (m *MockImageRepository) List(ctx context.Context, opts repository.ImageListOptions) ([]*domain.ImageWithAuthor, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	var matched []*domain.Image
	for _, img := range m.images {
		if opts.Search == "" || strings.Contains(strings.ToLower(img.Name), strings.ToLower(opts.Search)) {
			copied := *img
			matched = append(matched, &copied)
		}
	}
	m.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	out := make([]*domain.ImageWithAuthor, 0, len(matched))
	for _, img := range matched {
		out = append(out, m.withAuthor(ctx, img))
	}
	return out, nil
}

func (m *MockImageRepository) UpdateName(_ context.Context, id domain.ImageID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	img, ok := m.images[id]
	if !ok {
		return domain.ErrImageNotFound
	}
	img.Name = name
	return nil
}

func (m *MockImageRepository) nameOf(id domain.ImageID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if img, ok := m.images[id]; ok {
		return img.Name
	}
	return ""
}

var _ repository.ImageRepository = (*MockImageRepository)(nil)

// countingHasher wraps a real bcrypt hasher and counts Hash calls.
type countingHasher struct {
	*crypto.PasswordHasher
	hashes atomic.Int32
}

func newCountingHasher() *countingHasher {
	h, err := crypto.NewPasswordHasher(bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &countingHasher{PasswordHasher: h}
}

func (h *countingHasher) Hash(plaintext string) (string, error) {
	h.hashes.Add(1)
	return h.PasswordHasher.Hash(plaintext)
}
