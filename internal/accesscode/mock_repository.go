package accesscode

import (
	"sync"
	"time"
)

type mockRepository struct {
	rows   map[string]*AccessCode
	nextID uint

	// pretendFull makes every existence check hit, simulating an
	// exhausted code space.
	pretendFull bool
	// failBatches makes the next n CreateBatch calls fail with
	// ErrDuplicateCode without persisting, simulating a lost uniqueness
	// race.
	failBatches int

	batchCalls int

	mu sync.RWMutex
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		rows: make(map[string]*AccessCode),
	}
}

func (r *mockRepository) Exists(code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.pretendFull {
		return true, nil
	}
	_, exists := r.rows[code]
	return exists, nil
}

func (r *mockRepository) FindByCode(code string) (*AccessCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, exists := r.rows[code]
	if !exists {
		return nil, ErrCodeNotFound
	}
	clone := *row
	return &clone, nil
}

func (r *mockRepository) CreateBatch(codes []*AccessCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batchCalls++
	if r.failBatches > 0 {
		r.failBatches--
		return ErrDuplicateCode
	}

	// All or nothing, like the real transaction.
	for _, row := range codes {
		if _, exists := r.rows[row.Code]; exists {
			return ErrDuplicateCode
		}
	}
	now := time.Now().UTC()
	for _, row := range codes {
		r.nextID++
		clone := *row
		clone.ID = r.nextID
		clone.CreatedAt = now
		clone.UpdatedAt = now
		r.rows[clone.Code] = &clone
	}
	return nil
}

func (r *mockRepository) seed(code string, tier Tier, used bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.rows[code] = &AccessCode{ID: r.nextID, Code: code, Tier: tier, IsUsed: used}
}

func (r *mockRepository) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rows)
}
