package booking

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests. Writes stage inside
// Transact and merge only when fn returns nil, mirroring rollback.
type MemoryRepository struct {
	mu        sync.Mutex
	customers map[string]Customer // keyed by phone
	jobs      []Job
	jobNumber int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{customers: make(map[string]Customer)}
}

func (r *MemoryRepository) Transact(ctx context.Context, fn func(tx Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stage := &memoryTx{repo: r, customers: make(map[string]Customer)}
	if err := fn(stage); err != nil {
		return err
	}

	for phone, c := range stage.customers {
		r.customers[phone] = c
	}
	r.jobs = append(r.jobs, stage.jobs...)
	r.jobNumber += int64(len(stage.jobs))
	return nil
}

func (r *MemoryRepository) Customers() []Customer {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Customer, 0, len(r.customers))
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out
}

func (r *MemoryRepository) Jobs() []Job {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

type memoryTx struct {
	repo      *MemoryRepository
	customers map[string]Customer
	jobs      []Job
}

func (t *memoryTx) UpsertCustomer(ctx context.Context, name, phone, email, address string) (string, error) {
	if c, ok := t.customers[phone]; ok {
		c.Name, c.Email = name, email
		t.customers[phone] = c
		return c.ID, nil
	}
	if c, ok := t.repo.customers[phone]; ok {
		c.Name, c.Email = name, email
		t.customers[phone] = c
		return c.ID, nil
	}
	c := Customer{ID: uuid.NewString(), Name: name, PhoneE164: phone, Email: email, Address: address}
	t.customers[phone] = c
	return c.ID, nil
}

func (t *memoryTx) InsertJob(ctx context.Context, j Job) (Job, error) {
	j.ID = uuid.NewString()
	j.JobNumber = t.repo.jobNumber + int64(len(t.jobs)) + 1
	t.jobs = append(t.jobs, j)
	return j, nil
}
