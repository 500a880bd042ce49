package storage

import (
	"context"
	"sync"

	"cashflow/internal/core"
)

// MemoryRepository is the in-process backend used for development and tests.
// All maps are guarded by one mutex; slices returned to callers are copies.
type MemoryRepository struct {
	mu          sync.Mutex
	users       map[string]core.User
	ledgers     map[string][]core.Transaction
	reflections map[string][]core.Reflection
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:       make(map[string]core.User),
		ledgers:     make(map[string][]core.Transaction),
		reflections: make(map[string][]core.Reflection),
	}
}

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) LoadLedger(_ context.Context, owner string) ([]core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	txs := r.ledgers[owner]
	out := make([]core.Transaction, len(txs))
	copy(out, txs)
	return out, nil
}

func (r *MemoryRepository) GetTransaction(_ context.Context, owner, id string) (core.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.ledgers[owner] {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}

func (r *MemoryRepository) AppendTransaction(_ context.Context, owner string, tx core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ledgers[owner] = append(r.ledgers[owner], tx)
	return nil
}

func (r *MemoryRepository) UpdateTransaction(_ context.Context, owner string, tx core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.ledgers[owner] {
		if existing.ID == tx.ID {
			r.ledgers[owner][i] = tx
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) DeleteTransaction(_ context.Context, owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	txs := r.ledgers[owner]
	for i, tx := range txs {
		if tx.ID == id {
			r.ledgers[owner] = append(txs[:i:i], txs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) ReplaceLedger(_ context.Context, owner string, txs []core.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	replacement := make([]core.Transaction, len(txs))
	copy(replacement, txs)
	r.ledgers[owner] = replacement
	return nil
}

func (r *MemoryRepository) GetUser(_ context.Context, email string) (core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return core.User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) CreateUser(_ context.Context, u core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return core.ErrDuplicateEmail
	}
	r.users[u.Email] = u
	return nil
}

func (r *MemoryRepository) UpdateUser(_ context.Context, u core.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; !ok {
		return ErrNotFound
	}
	r.users[u.Email] = u
	return nil
}

func (r *MemoryRepository) ListUsers(_ context.Context) ([]core.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *MemoryRepository) ListReflections(_ context.Context, owner string) ([]core.Reflection, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := r.reflections[owner]
	out := make([]core.Reflection, len(refs))
	copy(out, refs)
	return out, nil
}

func (r *MemoryRepository) AppendReflection(_ context.Context, owner string, ref core.Reflection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reflections[owner] = append(r.reflections[owner], ref)
	return nil
}

func (r *MemoryRepository) DeleteReflection(_ context.Context, owner, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	refs := r.reflections[owner]
	for i, ref := range refs {
		if ref.ID == id {
			r.reflections[owner] = append(refs[:i:i], refs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) DeleteAllReflections(_ context.Context, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reflections, owner)
	return nil
}
