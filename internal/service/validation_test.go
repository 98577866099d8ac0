package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util"
)

func TestValidateInputDetails(t *testing.T) {
	err := validateInput("invalid user", UserCreateInput{Email: "nope", Password: "123", Role: "owner"})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, de.Code)
	assert.Equal(t, "invalid user", de.Message)
	assert.Equal(t, map[string]any{
		"name":     "is required",
		"email":    "is not a valid email",
		"password": "is too short",
		"role":     "must be one of client, support, admin",
	}, de.Details)
}

func TestValidateInputCountsRunes(t *testing.T) {
	assert.NoError(t, validateInput("invalid ticket", TicketCreateInput{Title: strings.Repeat("ñ", 200), Description: "d"}))

	err := validateInput("invalid ticket", TicketCreateInput{Title: strings.Repeat("ñ", 201), Description: "d"})
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, map[string]any{"title": "is too long"}, de.Details)
}

func TestValidateInputSkipsAbsentFields(t *testing.T) {
	assert.NoError(t, validateInput("invalid user", UserUpdateInput{}))
	assert.NoError(t, validateInput("invalid ticket update", &TicketUpdateInput{}))

	empty := ""
	zero := int64(0)
	archived := domain.TicketStatus("archived")

	de := apperrors.ToDomainError(validateInput("invalid user", UserUpdateInput{Name: &empty}))
	require.NotNil(t, de)
	assert.Equal(t, "is required", de.Details["name"])

	de = apperrors.ToDomainError(validateInput("invalid ticket update", &TicketUpdateInput{Status: &archived, SupportID: &zero}))
	require.NotNil(t, de)
	assert.Equal(t, "must be one of open, in_progress, closed", de.Details["status"])
	assert.Equal(t, "must be greater than 0", de.Details["supportId"])
}
