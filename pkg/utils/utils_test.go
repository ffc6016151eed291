package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"facility-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clockRequest struct {
	Start string `validate:"required,clock"`
	Notes string `validate:"max=5"`
}

func TestValidateStructClock(t *testing.T) {
	assert.Empty(t, ValidateStruct(clockRequest{Start: "09:30"}))

	errs := ValidateStruct(clockRequest{Start: "9:30", Notes: "too long"})
	require.Len(t, errs, 2)
	assert.Equal(t, "Must be a 24h time in HH:MM format", errs["Start"])
	assert.Equal(t, "Maximum length is 5", errs["Notes"])
	assert.Equal(t,
		"Notes: Maximum length is 5; Start: Must be a 24h time in HH:MM format",
		FormatValidationErrors(errs))
}

func TestActorFromContext(t *testing.T) {
	_, ok := GetActorFromContext(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	ctx := SetUserContext(context.Background(), id, "admin")

	actor, ok := GetActorFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, id, actor.ID)
	assert.Equal(t, entity.RoleAdmin, actor.Role)
	assert.True(t, actor.IsAdmin())
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 3, ParseInt("3", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 10, ParseInt("abc", 10))
	assert.Equal(t, 1, ParseInt("0", 1))
}

func TestResponseConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseConflict(rec, "time slot already booked")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":false,"message":"time slot already booked"}`, rec.Body.String())
}
