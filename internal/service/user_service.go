package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

// UserService implements account administration.
type UserService struct {
	store      repository.Store
	bcryptCost int
	logger     *zap.Logger
}

// UserCreateInput describes an admin-created account.
type UserCreateInput struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=6"`
	Role     domain.Role `json:"role" validate:"oneof=client support admin"`
}

// UserUpdateInput carries optional account changes.
type UserUpdateInput struct {
	Name     *string      `json:"name" validate:"omitnil,min=1,max=100"`
	Email    *string      `json:"email" validate:"omitnil,email"`
	Role     *domain.Role `json:"role" validate:"omitnil,oneof=client support admin"`
	Password *string      `json:"password" validate:"omitnil,min=6"`
}

// NewUserService builds the service.
func NewUserService(store repository.Store, bcryptCost int, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{store: store, bcryptCost: bcryptCost, logger: logger}
}

// ListUsers returns every account ordered by name.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.store.Users().List(ctx)
	if err != nil {
		return nil, mapRepoError(err, "users")
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// GetUser loads one account.
func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return user, nil
}

// ListRoles returns the roles lookup table.
func (s *UserService) ListRoles(ctx context.Context) ([]domain.RoleRecord, error) {
	roles, err := s.store.Roles().List(ctx)
	if err != nil {
		return nil, mapRepoError(err, "roles")
	}
	return roles, nil
}

// CreateUser adds an account of any role.
func (s *UserService) CreateUser(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := validateInput("invalid user", input); err != nil {
		return nil, err
	}
	name, email := input.Name, input.Email

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{Name: name, Email: email, PasswordHash: hash, Role: input.Role}
	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, mapRepoError(err, "role")
	}
	s.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// UpdateUser applies the provided changes.
func (s *UserService) UpdateUser(ctx context.Context, id int64, input UserUpdateInput) (*domain.User, error) {
	if input.Name != nil {
		trimmed := strings.TrimSpace(*input.Name)
		input.Name = &trimmed
	}
	if input.Email != nil {
		normalized := normalizeEmail(*input.Email)
		input.Email = &normalized
	}
	if err := validateInput("invalid user", input); err != nil {
		return nil, err
	}

	var updated *domain.User
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return mapRepoError(err, "user")
		}
		if input.Name != nil {
			user.Name = *input.Name
		}
		if input.Email != nil {
			user.Email = *input.Email
		}
		if input.Role != nil && *input.Role != user.Role {
			if err := ensureRoleReleasable(ctx, tx, user); err != nil {
				return err
			}
			user.Role = *input.Role
		}
		if input.Password != nil {
			hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
			if err != nil {
				return apperrors.NewInternalError(err)
			}
			user.PasswordHash = hash
		}

		if err := tx.Users().Update(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.NewConflict("email already registered", map[string]any{"email": user.Email})
			}
			return mapRepoError(err, "user")
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "user")
	}
	return updated, nil
}

// ensureRoleReleasable rejects moving a user out of the client or support
// role while tickets still reference them in that capacity.
func ensureRoleReleasable(ctx context.Context, tx repository.Store, user *domain.User) error {
	ownership, err := tx.Tickets().CountByUser(ctx, user.ID)
	if err != nil {
		return mapRepoError(err, "user")
	}
	switch {
	case user.Role == domain.RoleClient && ownership.AsClient > 0:
		return apperrors.NewConflict("user owns tickets as a client and cannot change role", map[string]any{"tickets": ownership.AsClient})
	case user.Role == domain.RoleSupport && ownership.AsSupport > 0:
		return apperrors.NewConflict("user has assigned tickets and cannot change role", map[string]any{"tickets": ownership.AsSupport})
	}
	return nil
}

// DeleteUser removes an account that owns nothing.
func (s *UserService) DeleteUser(ctx context.Context, actor domain.Actor, id int64) error {
	if actor.UserID == id {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}
	if err := s.store.Users().Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrReferenced) {
			return apperrors.NewConflict("user has related tickets or history and cannot be deleted", nil)
		}
		return mapRepoError(err, "user")
	}
	s.logger.Info("user deleted", zap.Int64("user_id", id), zap.Int64("by", actor.UserID))
	return nil
}
