package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

type roleRepository struct {
	v *view
}

func (r *roleRepository) List(ctx context.Context) ([]domain.RoleRecord, error) {
	var out []domain.RoleRecord
	err := r.v.read(ctx, func(s *state) error {
		out = append(out, s.roles...)
		return nil
	})
	return out, err
}

func (r *roleRepository) GetByName(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	var out *domain.RoleRecord
	err := r.v.read(ctx, func(s *state) error {
		role, ok := s.role(name)
		if !ok {
			return repository.ErrNotFound
		}
		out = &role
		return nil
	})
	return out, err
}

func (r *roleRepository) Ensure(ctx context.Context, name domain.Role) (*domain.RoleRecord, error) {
	var out *domain.RoleRecord
	err := r.v.write(ctx, func(s *state) error {
		role, ok := s.role(name)
		if !ok {
			s.nextRoleID++
			role = domain.RoleRecord{ID: s.nextRoleID, Name: name}
			s.roles = append(s.roles, role)
		}
		out = &role
		return nil
	})
	return out, err
}

func (s *state) role(name domain.Role) (domain.RoleRecord, bool) {
	for _, role := range s.roles {
		if role.Name == name {
			return role, true
		}
	}
	return domain.RoleRecord{}, false
}

type userRepository struct {
	v *view
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.v.write(ctx, func(s *state) error {
		if _, ok := s.role(user.Role); !ok {
			return repository.ErrNotFound
		}
		if s.emailTaken(user.Email, 0) {
			return repository.ErrDuplicate
		}
		now := r.v.clock()
		s.nextUserID++
		user.ID = s.nextUserID
		user.CreatedAt = now
		user.UpdatedAt = now
		s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	return r.v.write(ctx, func(s *state) error {
		current, ok := s.users[user.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if _, ok := s.role(user.Role); !ok {
			return repository.ErrNotFound
		}
		if s.emailTaken(user.Email, user.ID) {
			return repository.ErrDuplicate
		}
		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = r.v.clock()
		s.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.v.write(ctx, func(s *state) error {
		if _, ok := s.users[id]; !ok {
			return repository.ErrNotFound
		}
		for _, ticket := range s.tickets {
			if ticket.ClientID == id || ticket.AssignedTo(id) {
				return repository.ErrReferenced
			}
		}
		for _, entry := range s.history {
			if entry.AuthorID == id {
				return repository.ErrReferenced
			}
		}
		delete(s.users, id)
		return nil
	})
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.v.read(ctx, func(s *state) error {
		user, ok := s.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &user
		return nil
	})
	return out, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.v.read(ctx, func(s *state) error {
		for _, user := range s.users {
			if strings.EqualFold(user.Email, email) {
				u := user
				out = &u
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	err := r.v.read(ctx, func(s *state) error {
		for _, user := range s.users {
			out = append(out, user)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

func (s *state) emailTaken(email string, exceptID int64) bool {
	for id, user := range s.users {
		if id != exceptID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

func (s *state) summary(id int64) (domain.UserSummary, bool) {
	user, ok := s.users[id]
	if !ok {
		return domain.UserSummary{}, false
	}
	return user.Summary(), true
}
