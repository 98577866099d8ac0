package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

func newUserFixture(t *testing.T) (*fixture, *UserService) {
	t.Helper()
	f := newFixture(t, defaultPolicy())
	return f, NewUserService(f.store, bcrypt.MinCost, nil)
}

func TestCreateUser(t *testing.T) {
	_, users := newUserFixture(t)
	ctx := context.Background()

	user, err := users.CreateUser(ctx, UserCreateInput{Name: " Ana ", Email: "Ana@Example.com", Password: "secret1", Role: domain.RoleSupport})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, domain.RoleSupport, user.Role)
	assert.NoError(t, auth.ComparePassword(user.PasswordHash, "secret1"))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	_, users := newUserFixture(t)
	ctx := context.Background()

	_, err := users.CreateUser(ctx, UserCreateInput{Name: "Ana", Email: "ana@example.com", Password: "secret1", Role: domain.RoleClient})
	require.NoError(t, err)

	_, err = users.CreateUser(ctx, UserCreateInput{Name: "Other", Email: "ANA@example.com", Password: "secret1", Role: domain.RoleAdmin})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	all, err := users.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateUserValidation(t *testing.T) {
	_, users := newUserFixture(t)

	_, err := users.CreateUser(context.Background(), UserCreateInput{Name: "", Email: "nope", Password: "123", Role: "owner"})
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Contains(t, de.Details, "name")
	assert.Contains(t, de.Details, "email")
	assert.Contains(t, de.Details, "password")
	assert.Contains(t, de.Details, "role")
}

func TestUpdateUser(t *testing.T) {
	f, users := newUserFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", domain.RoleClient)
	f.user(t, "bob", domain.RoleClient)

	role := domain.RoleSupport
	name := "Ana Lima"
	password := "changed1"
	updated, err := users.UpdateUser(ctx, ana.UserID, UserUpdateInput{Name: &name, Role: &role, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", updated.Name)
	assert.Equal(t, domain.RoleSupport, updated.Role)
	assert.NoError(t, auth.ComparePassword(updated.PasswordHash, "changed1"))

	taken := "bob@example.com"
	_, err = users.UpdateUser(ctx, ana.UserID, UserUpdateInput{Email: &taken})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = users.UpdateUser(ctx, 9999, UserUpdateInput{Name: &name})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestRoleChangeKeepsTicketReferences(t *testing.T) {
	f, users := newUserFixture(t)
	ctx := context.Background()
	ana := f.user(t, "ana", domain.RoleClient)
	sam := f.user(t, "sam", domain.RoleSupport)
	idle := f.user(t, "idle", domain.RoleSupport)
	ticket := f.ticket(t, ana, "printer")
	_, err := f.tickets.UpdateTicket(ctx, sam, ticket.ID, TicketUpdateInput{Status: statusPtr(domain.TicketStatusInProgress)})
	require.NoError(t, err)

	client := domain.RoleClient
	support := domain.RoleSupport
	_, err = users.UpdateUser(ctx, sam.UserID, UserUpdateInput{Role: &client})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	_, err = users.UpdateUser(ctx, ana.UserID, UserUpdateInput{Role: &support})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	stored, err := f.store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, stored.Client.Role)
	require.NotNil(t, stored.Support)
	assert.Equal(t, domain.RoleSupport, stored.Support.Role)

	name := "Sam Ortiz"
	renamed, err := users.UpdateUser(ctx, sam.UserID, UserUpdateInput{Name: &name, Role: &support})
	require.NoError(t, err)
	assert.Equal(t, "Sam Ortiz", renamed.Name)

	moved, err := users.UpdateUser(ctx, idle.UserID, UserUpdateInput{Role: &client})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleClient, moved.Role)
}

func TestDeleteUser(t *testing.T) {
	f, users := newUserFixture(t)
	ctx := context.Background()
	admin := f.user(t, "root", domain.RoleAdmin)
	idle := f.user(t, "idle", domain.RoleClient)
	busy := f.user(t, "busy", domain.RoleClient)
	f.ticket(t, busy, "printer")

	err := users.DeleteUser(ctx, admin, admin.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	err = users.DeleteUser(ctx, admin, busy.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	require.NoError(t, users.DeleteUser(ctx, admin, idle.UserID))
	_, err = users.GetUser(ctx, idle.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = users.DeleteUser(ctx, admin, idle.UserID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestListRoles(t *testing.T) {
	_, users := newUserFixture(t)

	roles, err := users.ListRoles(context.Background())
	require.NoError(t, err)
	var names []domain.Role
	for _, r := range roles {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, domain.Roles, names)
}
