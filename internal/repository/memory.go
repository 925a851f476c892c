package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
)

// MemoryStore is an in-process stand-in for Postgres used by tests.
// It mirrors the unique email constraint and organization cascade.
type MemoryStore struct {
	mu        sync.Mutex
	orgs      map[int64]domain.Organization
	users     map[int64]domain.User
	exercises map[int64]domain.Exercise
	programs  map[int64]domain.Program

	// FailNextCreate, when set, is returned once by CreateAccount.
	FailNextCreate error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:      make(map[int64]domain.Organization),
		users:     make(map[int64]domain.User),
		exercises: make(map[int64]domain.Exercise),
		programs:  make(map[int64]domain.Program),
	}
}

func (s *MemoryStore) Organizations() *MemoryOrganizationRepo { return &MemoryOrganizationRepo{s} }
func (s *MemoryStore) Users() *MemoryUserRepo                 { return &MemoryUserRepo{s} }
func (s *MemoryStore) Accounts() *MemoryAccountRepo           { return &MemoryAccountRepo{s} }
func (s *MemoryStore) Exercises() *MemoryExerciseRepo         { return &MemoryExerciseRepo{s} }
func (s *MemoryStore) Programs() *MemoryProgramRepo           { return &MemoryProgramRepo{s} }

var (
	_ OrganizationRepository = (*MemoryOrganizationRepo)(nil)
	_ UserRepository         = (*MemoryUserRepo)(nil)
	_ AccountRepository      = (*MemoryAccountRepo)(nil)
	_ ExerciseRepository     = (*MemoryExerciseRepo)(nil)
	_ ProgramRepository      = (*MemoryProgramRepo)(nil)
)

type MemoryOrganizationRepo struct{ s *MemoryStore }

func (r *MemoryOrganizationRepo) GetByID(_ context.Context, id int64) (domain.Organization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	org, ok := r.s.orgs[id]
	if !ok {
		return domain.Organization{}, fmt.Errorf("get organization: %w", ErrNotFound)
	}
	return org, nil
}

func (r *MemoryOrganizationRepo) Update(_ context.Context, org domain.Organization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[org.ID]; !ok {
		return fmt.Errorf("update organization: %w", ErrNotFound)
	}
	org.UpdatedAt = time.Now().UTC()
	r.s.orgs[org.ID] = org
	return nil
}

type MemoryUserRepo struct{ s *MemoryStore }

func (r *MemoryUserRepo) GetByID(_ context.Context, id int64) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("get user by id: %w", ErrNotFound)
	}
	return user, nil
}

func (r *MemoryUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, fmt.Errorf("get user by email: %w", ErrNotFound)
}

func (r *MemoryUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *MemoryUserRepo) ListByOrganization(_ context.Context, orgID int64) ([]domain.User, error) {
	return r.s.filterUsers(func(u domain.User) bool { return u.OrganizationID == orgID }), nil
}

func (r *MemoryUserRepo) ListDeletionDue(_ context.Context, requestedBefore time.Time) ([]domain.User, error) {
	return r.s.filterUsers(func(u domain.User) bool {
		return u.DeletionRequestedAt != nil && !u.DeletionRequestedAt.After(requestedBefore)
	}), nil
}

func (r *MemoryUserRepo) Update(_ context.Context, user domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return fmt.Errorf("update user: %w", ErrNotFound)
	}
	for id, other := range r.s.users {
		if id != user.ID && other.Email == user.Email {
			return fmt.Errorf("update user: %w", ErrConflict)
		}
	}
	user.UpdatedAt = time.Now().UTC()
	r.s.users[user.ID] = user
	return nil
}

type MemoryAccountRepo struct{ s *MemoryStore }

func (r *MemoryAccountRepo) CreateAccount(_ context.Context, org domain.Organization, user domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailNextCreate; err != nil {
		r.s.FailNextCreate = nil
		return fmt.Errorf("create account: %w", err)
	}
	if _, ok := r.s.orgs[org.ID]; ok {
		return fmt.Errorf("create account: %w", ErrConflict)
	}
	if _, ok := r.s.users[user.ID]; ok {
		return fmt.Errorf("create account: %w", ErrConflict)
	}
	for _, other := range r.s.users {
		if other.Email == user.Email {
			return fmt.Errorf("create account: %w", ErrConflict)
		}
	}
	r.s.orgs[org.ID] = org
	r.s.users[user.ID] = user
	return nil
}

func (r *MemoryAccountRepo) DeleteAccount(_ context.Context, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[userID]
	if !ok {
		return false, fmt.Errorf("delete account: %w", ErrNotFound)
	}
	delete(r.s.users, userID)
	for _, other := range r.s.users {
		if other.OrganizationID == user.OrganizationID {
			return false, nil
		}
	}
	delete(r.s.orgs, user.OrganizationID)
	for id, e := range r.s.exercises {
		if e.OrganizationID == user.OrganizationID {
			delete(r.s.exercises, id)
		}
	}
	for id, p := range r.s.programs {
		if p.OrganizationID == user.OrganizationID {
			delete(r.s.programs, id)
		}
	}
	return true, nil
}

type MemoryExerciseRepo struct{ s *MemoryStore }

func (r *MemoryExerciseRepo) Create(_ context.Context, e domain.Exercise) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[e.OrganizationID]; !ok {
		return fmt.Errorf("insert exercise: %w", ErrNotFound)
	}
	if _, ok := r.s.exercises[e.ID]; ok {
		return fmt.Errorf("insert exercise: %w", ErrConflict)
	}
	for _, other := range r.s.exercises {
		if other.OrganizationID == e.OrganizationID && other.Name == e.Name {
			return fmt.Errorf("insert exercise: %w", ErrConflict)
		}
	}
	r.s.exercises[e.ID] = e
	return nil
}

func (r *MemoryExerciseRepo) GetByID(_ context.Context, orgID, id int64) (domain.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.exercises[id]
	if !ok || e.OrganizationID != orgID {
		return domain.Exercise{}, fmt.Errorf("get exercise: %w", ErrNotFound)
	}
	return e, nil
}

func (r *MemoryExerciseRepo) ListByOrganization(_ context.Context, orgID int64) ([]domain.Exercise, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Exercise
	for _, e := range r.s.exercises {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryExerciseRepo) Delete(_ context.Context, orgID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.exercises[id]
	if !ok || e.OrganizationID != orgID {
		return fmt.Errorf("delete exercise: %w", ErrNotFound)
	}
	delete(r.s.exercises, id)
	return nil
}

type MemoryProgramRepo struct{ s *MemoryStore }

func (r *MemoryProgramRepo) Create(_ context.Context, p domain.Program) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.orgs[p.OrganizationID]; !ok {
		return fmt.Errorf("insert program: %w", ErrNotFound)
	}
	if _, ok := r.s.programs[p.ID]; ok {
		return fmt.Errorf("insert program: %w", ErrConflict)
	}
	r.s.programs[p.ID] = p
	return nil
}

func (r *MemoryProgramRepo) GetByID(_ context.Context, orgID, id int64) (domain.Program, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.programs[id]
	if !ok || p.OrganizationID != orgID {
		return domain.Program{}, fmt.Errorf("get program: %w", ErrNotFound)
	}
	return p, nil
}

func (r *MemoryProgramRepo) ListByOrganization(_ context.Context, orgID int64) ([]domain.Program, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Program
	for _, p := range r.s.programs {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryProgramRepo) Delete(_ context.Context, orgID, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.programs[id]
	if !ok || p.OrganizationID != orgID {
		return fmt.Errorf("delete program: %w", ErrNotFound)
	}
	delete(r.s.programs, id)
	return nil
}

func (s *MemoryStore) filterUsers(keep func(domain.User) bool) []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.User
	for _, u := range s.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
