// Package seed loads the roles lookup and a set of demo accounts.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
)

// Account is a user created by the seeder when missing.
type Account struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// DemoAccounts is one user per role.
var DemoAccounts = []Account{
	{Name: "Admin", Email: "admin@example.com", Password: "admin123", Role: domain.RoleAdmin},
	{Name: "Support Agent", Email: "support@example.com", Password: "support123", Role: domain.RoleSupport},
	{Name: "Demo Client", Email: "client@example.com", Password: "client123", Role: domain.RoleClient},
}

// Run ensures every role exists and creates the accounts whose email is not
// yet registered. Existing accounts are left untouched.
func Run(ctx context.Context, store repository.Store, accounts []Account, bcryptCost int, logger *zap.Logger) error {
	for _, role := range domain.Roles {
		if _, err := store.Roles().Ensure(ctx, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
	}

	for _, account := range accounts {
		_, err := store.Users().GetByEmail(ctx, account.Email)
		if err == nil {
			logger.Info("seed account exists", zap.String("email", account.Email))
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("lookup %s: %w", account.Email, err)
		}

		hash, err := auth.HashPassword(account.Password, bcryptCost)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", account.Email, err)
		}
		user := &domain.User{Name: account.Name, Email: account.Email, PasswordHash: hash, Role: account.Role}
		if err := store.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("create %s: %w", account.Email, err)
		}
		logger.Info("seed account created", zap.String("email", account.Email), zap.String("role", string(account.Role)))
	}
	return nil
}
