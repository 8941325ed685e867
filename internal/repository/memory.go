package repository

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/auth-service/internal/domain"
)

// In-memory implementations of the repository interfaces. They back tests and
// local runs without a database, and honor the same error contracts as the
// Postgres versions (pgx.ErrNoRows on misses, duplicate sentinels on
// uniqueness violations).

type MemoryUserRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.User
	nextID int
}

// NewMemoryUserRepository returns an empty in-memory user store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{byID: make(map[string]*domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Email == user.Email {
			return ErrDuplicateEmail
		}
	}

	r.nextID++
	user.ID = "user-" + strconv.Itoa(r.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	stored := *user
	r.byID[user.ID] = &stored
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.byID {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type MemoryTokenRepository struct {
	mu     sync.RWMutex
	byID   map[string]*domain.Token
	nextID int
}

// NewMemoryTokenRepository returns an empty in-memory ledger.
func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{byID: make(map[string]*domain.Token)}
}

func (r *MemoryTokenRepository) Insert(_ context.Context, token *domain.Token) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Token == token.Token {
			return ErrDuplicateToken
		}
	}

	r.nextID++
	token.ID = "token-" + strconv.Itoa(r.nextID)
	token.CreatedAt = time.Now()

	stored := *token
	r.byID[token.ID] = &stored
	return nil
}

func (r *MemoryTokenRepository) GetByToken(_ context.Context, raw string) (*domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, token := range r.byID {
		if token.Token == raw {
			copied := *token
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryTokenRepository) FindLiveByUser(_ context.Context, userID string) ([]domain.Token, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tokens []domain.Token
	for _, token := range r.byID {
		if token.UserID == userID && token.Live() {
			tokens = append(tokens, *token)
		}
	}
	return tokens, nil
}

func (r *MemoryTokenRepository) Revoke(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if token, ok := r.byID[id]; ok {
		token.Expired = true
		token.Revoked = true
	}
	return nil
}

func (r *MemoryTokenRepository) RevokeAll(_ context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range ids {
		if token, ok := r.byID[id]; ok {
			token.Expired = true
			token.Revoked = true
		}
	}
	return nil
}
