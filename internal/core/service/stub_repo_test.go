package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

type stubUserRepo struct {
	mu     sync.Mutex
	users  map[string]*domain.User
	nextID int

	// createErr, when set, is returned by CreateWithProfile instead of storing.
	createErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) CreateWithProfile(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.users {
		if u.LoginName == user.LoginName {
			return nil, domain.ErrLoginTaken
		}
	}
	r.nextID++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("user-%d", r.nextID)
	c.Profile = domain.WithProfileID(user.Profile, fmt.Sprintf("profile-%d", r.nextID))
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByLoginName(_ context.Context, loginName string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.LoginName == loginName {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) update(id string, fn func(u *domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	fn(u)
	return nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return r.update(id, func(u *domain.User) { u.PasswordHash = hash })
}

func (r *stubUserRepo) UpdateAvatar(_ context.Context, id, path string) error {
	return r.update(id, func(u *domain.User) { u.AvatarPath = path })
}

func (r *stubUserRepo) UpdateLoginName(_ context.Context, id, loginName string) error {
	r.mu.Lock()
	for _, u := range r.users {
		if u.LoginName == loginName && u.ID != id {
			r.mu.Unlock()
			return domain.ErrLoginTaken
		}
	}
	r.mu.Unlock()
	return r.update(id, func(u *domain.User) { u.LoginName = loginName })
}

func (r *stubUserRepo) Ping(context.Context) error { return nil }

// countingHasher is a cheap reversible stand-in for the real hasher that
// records how many verifications ran.
type countingHasher struct {
	mu       sync.Mutex
	verifies int
}

func (h *countingHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }

func (h *countingHasher) Verify(p, hash string) bool {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return hash == "hashed:"+p
}

type stubIssuer struct {
	issued []domain.Identity
}

func (s *stubIssuer) Issue(id domain.Identity) (string, error) {
	s.issued = append(s.issued, id)
	return "token-for-" + id.UserID, nil
}
