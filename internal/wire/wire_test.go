package wire

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"facility-booking/internal/data/entity"
	"facility-booking/internal/data/repository"
	"facility-booking/pkg/cache"
	"facility-booking/pkg/money"
	"facility-booking/pkg/queue"
	"facility-booking/pkg/timeslot"
	"facility-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// A Monday far enough ahead to never be in the past.
const reservationDate = "2030-06-03"

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type testServer struct {
	t        *testing.T
	router   http.Handler
	config   *utils.Config
	facility *entity.Facility
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	facility := &entity.Facility{
		ID:         uuid.New(),
		Name:       "Futsal A",
		HourlyRate: money.Cents(10000),
		OperatingHours: map[time.Weekday]timeslot.Range{
			time.Monday: {Start: 8 * 60, End: 22 * 60},
		},
		IsActive: true,
	}

	config := &utils.Config{
		Auth:    utils.AuthConfig{JWTSecret: "wire-test-secret"},
		Booking: utils.BookingConfig{MinMinutes: 30, EnforceHours: true, CommitTimeout: time.Second},
	}

	log := zap.NewNop()
	repo := repository.NewMemoryRepository([]*entity.Facility{facility}, log)
	app := Wiring(repo, config, cache.Nop{}, queue.NopPublisher{}, log)

	return &testServer{t: t, router: app.Router, config: config, facility: facility}
}

func (s *testServer) token(userID uuid.UUID, role entity.UserRole) string {
	s.t.Helper()
	tok, err := utils.NewAccessToken(s.config.Auth, userID, string(role), time.Hour)
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec.Code, env
}

func (s *testServer) create(token, start, end string) (int, string) {
	s.t.Helper()

	code, env := s.do(http.MethodPost, "/api/reservations", token, map[string]any{
		"facility_id": s.facility.ID.String(),
		"date":        reservationDate,
		"start_time":  start,
		"end_time":    end,
	})
	if code != http.StatusCreated {
		return code, ""
	}

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &created))
	return code, created.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestReservationFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(uuid.New(), entity.RoleCustomer)
	stranger := s.token(uuid.New(), entity.RoleCustomer)
	admin := s.token(uuid.New(), entity.RoleAdmin)

	code, _ := s.create("", "10:00", "12:00")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, id := s.create(owner, "10:00", "12:00")
	require.Equal(t, http.StatusCreated, code)

	code, _ = s.create(stranger, "11:00", "13:00")
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.create(owner, "12:00", "11:00")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env := s.do(http.MethodGet, "/api/facilities/"+s.facility.ID.String()+"/availability?date="+reservationDate, "", nil)
	require.Equal(t, http.StatusOK, code)
	var avail struct {
		BookedRanges []struct{ Start, End string } `json:"booked_ranges"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &avail))
	require.Len(t, avail.BookedRanges, 1)
	assert.Equal(t, "10:00", avail.BookedRanges[0].Start)

	code, _ = s.do(http.MethodGet, "/api/reservations/"+id, stranger, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodGet, "/api/reservations/"+id, owner, nil)
	require.Equal(t, http.StatusOK, code)
	var got struct {
		TotalPrice string `json:"total_price"`
		Status     string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "200.00", got.TotalPrice)
	assert.Equal(t, "pending", got.Status)

	code, _ = s.do(http.MethodPut, "/api/admin/reservations/"+id+"/confirm", owner, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodPut, "/api/admin/reservations/"+id+"/confirm", admin, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodPut, "/api/reservations/"+id+"/confirm", owner, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(http.MethodDelete, "/api/reservations/"+id, owner, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = s.do(http.MethodPut, "/api/reservations/"+id+"/cancel", owner, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPut, "/api/reservations/"+id+"/cancel", owner, map[string]string{"reason": "weather"})
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.create(stranger, "10:00", "12:00")
	assert.Equal(t, http.StatusCreated, code)

	code, _ = s.do(http.MethodDelete, "/api/reservations/"+id, owner, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/reservations/"+id, owner, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListReservationsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	aliceID := uuid.New()
	alice := s.token(aliceID, entity.RoleCustomer)
	bob := s.token(uuid.New(), entity.RoleCustomer)
	admin := s.token(uuid.New(), entity.RoleAdmin)

	for _, slot := range [][2]string{{"08:00", "09:00"}, {"09:00", "10:00"}} {
		code, _ := s.create(alice, slot[0], slot[1])
		require.Equal(t, http.StatusCreated, code)
	}
	code, _ := s.create(bob, "14:00", "15:00")
	require.Equal(t, http.StatusCreated, code)

	type page struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			Total int64 `json:"total"`
		} `json:"pagination"`
	}

	code, env := s.do(http.MethodGet, "/api/reservations?per_page=1", alice, nil)
	require.Equal(t, http.StatusOK, code)
	var p page
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, int64(2), p.Pagination.Total)
	assert.Len(t, p.Data, 1)

	code, _ = s.do(http.MethodGet, "/api/admin/reservations", bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodGet, "/api/admin/reservations?requester_id="+aliceID.String(), admin, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, int64(2), p.Pagination.Total)

	code, _ = s.do(http.MethodGet, "/api/reservations?status=archived", alice, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAvailabilityErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(http.MethodGet, "/api/facilities/"+s.facility.ID.String()+"/availability", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/facilities/"+uuid.NewString()+"/availability?date="+reservationDate, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
