// Package memory is an in-process credential store for local development and
// tests. Data is lost when the process exits.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/proyectoveris/clinic-api/internal/core/domain"
	"github.com/proyectoveris/clinic-api/internal/core/ports"
)

// DefaultSpecialties seeds every new Store.
var DefaultSpecialties = []string{
	"Medicina General",
	"Pediatría",
	"Cardiología",
	"Dermatología",
	"Ginecología",
	"Traumatología",
}

// Store implements ports.UserRepository. Specialties returns its
// ports.SpecialtyRepository view.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*domain.User
	specialties []domain.Specialty
}

func NewStore() *Store {
	s := &Store{users: make(map[string]*domain.User)}
	for i, name := range DefaultSpecialties {
		s.specialties = append(s.specialties, domain.Specialty{ID: int64(i + 1), Name: name})
	}
	return s
}

var _ ports.UserRepository = (*Store)(nil)

func (s *Store) CreateWithProfile(_ context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.LoginName == user.LoginName {
			return nil, domain.ErrLoginTaken
		}
	}
	switch p := user.Profile.(type) {
	case *domain.DoctorProfile:
		if _, ok := s.specialty(p.SpecialtyID); !ok {
			return nil, domain.ErrSpecialtyNotFound
		}
	case *domain.PatientProfile:
		for _, u := range s.users {
			if other, ok := u.Profile.(*domain.PatientProfile); ok && other.NationalID == p.NationalID {
				return nil, domain.ErrNationalIDTaken
			}
		}
	}

	created := *user
	created.ID = uuid.NewString()
	created.Profile = domain.WithProfileID(user.Profile, uuid.NewString())
	if created.AvatarPath == "" {
		created.AvatarPath = domain.NoAvatar
	}
	s.users[created.ID] = &created
	return s.hydrate(&created), nil
}

func (s *Store) FindByLoginName(_ context.Context, loginName string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.LoginName == loginName {
			return s.hydrate(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *Store) FindByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return s.hydrate(u), nil
}

func (s *Store) List(_ context.Context, filter ports.UserFilter) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, s.hydrate(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].LoginName < out[j].LoginName
	})
	return out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) UpdatePassword(_ context.Context, id, hash string) error {
	return s.update(id, func(u *domain.User) error {
		u.PasswordHash = hash
		return nil
	})
}

func (s *Store) UpdateAvatar(_ context.Context, id, path string) error {
	return s.update(id, func(u *domain.User) error {
		u.AvatarPath = path
		return nil
	})
}

func (s *Store) UpdateLoginName(_ context.Context, id, loginName string) error {
	return s.update(id, func(u *domain.User) error {
		for _, other := range s.users {
			if other.ID != id && other.LoginName == loginName {
				return domain.ErrLoginTaken
			}
		}
		u.LoginName = loginName
		return nil
	})
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) update(id string, fn func(u *domain.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// hydrate returns a copy of u with the doctor's specialty name filled in.
// Callers hold s.mu.
func (s *Store) hydrate(u *domain.User) *domain.User {
	c := *u
	c.Profile = domain.WithProfileID(u.Profile, u.Profile.ProfileID())
	if p, ok := c.Profile.(*domain.DoctorProfile); ok {
		if sp, found := s.specialty(p.SpecialtyID); found {
			p.SpecialtyName = sp.Name
		}
	}
	return &c
}

func (s *Store) specialty(id int64) (domain.Specialty, bool) {
	for _, sp := range s.specialties {
		if sp.ID == id {
			return sp, true
		}
	}
	return domain.Specialty{}, false
}

// Specialties returns the specialty repository view of the store.
func (s *Store) Specialties() ports.SpecialtyRepository {
	return specialtyView{s}
}

type specialtyView struct{ s *Store }

func (v specialtyView) List(context.Context) ([]domain.Specialty, error) {
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	out := make([]domain.Specialty, len(v.s.specialties))
	copy(out, v.s.specialties)
	return out, nil
}

func (v specialtyView) Create(_ context.Context, name string) (*domain.Specialty, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, sp := range v.s.specialties {
		if sp.Name == name {
			return nil, domain.ErrSpecialtyExists
		}
	}
	sp := domain.Specialty{ID: int64(len(v.s.specialties) + 1), Name: name}
	v.s.specialties = append(v.s.specialties, sp)
	return &sp, nil
}
