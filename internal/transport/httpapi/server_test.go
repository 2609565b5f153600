package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "esilogis/internal/domain/intervention"
	"esilogis/internal/errs"
	"esilogis/internal/ports"
	"esilogis/internal/usecase/auth"
	"esilogis/internal/usecase/intervention"
)

type fakeLifecycle struct {
	err       error
	panicOn   string
	report    intervention.ReportInput
	plan      intervention.PlanInput
	assign    intervention.AssignInput
	resolve   intervention.ResolveInput
	lastActor intervention.Actor
	lastID    uint64
	listType  string
}

func (f *fakeLifecycle) item(id uint64, status domain.Status) ports.Intervention {
	return ports.Intervention{
		ID:          id,
		Description: "Leaking pipe",
		Type:        domain.TypeCorrective,
		Status:      status,
		Priority:    domain.PriorityMedium,
		LocationID:  3,
		Location:    &ports.Location{ID: 3, Name: "Building B"},
		Assignees:   []ports.Person{{ID: 11, FirstName: "Ada", LastName: "Lovelace"}},
	}
}

func (f *fakeLifecycle) list(actor intervention.Actor) ([]ports.Intervention, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return []ports.Intervention{f.item(1, domain.StatusPending)}, nil
}

func (f *fakeLifecycle) byID(actor intervention.Actor, id uint64, status domain.Status) (ports.Intervention, error) {
	f.lastActor = actor
	f.lastID = id
	if f.err != nil {
		return ports.Intervention{}, f.err
	}
	return f.item(id, status), nil
}

func (f *fakeLifecycle) ListInterventions(_ context.Context, actor intervention.Actor) ([]ports.Intervention, error) {
	if f.panicOn == "list" {
		panic("boom")
	}
	return f.list(actor)
}

func (f *fakeLifecycle) ListByType(_ context.Context, actor intervention.Actor, rawType string) ([]ports.Intervention, error) {
	if _, err := domain.ParseType(rawType); err != nil {
		return nil, err
	}
	f.listType = rawType
	return f.list(actor)
}

func (f *fakeLifecycle) History(_ context.Context, actor intervention.Actor, id uint64) ([]ports.HistoryEntry, error) {
	f.lastActor = actor
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return []ports.HistoryEntry{
		{ID: 1, InterventionID: id, Action: domain.ActionAssigned, LoggedByID: 11},
		{ID: 2, InterventionID: id, Action: domain.ActionPaused, LoggedByID: 11},
	}, nil
}

func (f *fakeLifecycle) GetIntervention(_ context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error) {
	return f.byID(actor, id, domain.StatusPending)
}

func (f *fakeLifecycle) ListPlanned(_ context.Context, actor intervention.Actor) ([]ports.Intervention, error) {
	return f.list(actor)
}

func (f *fakeLifecycle) ListAssigned(_ context.Context, actor intervention.Actor) ([]ports.Intervention, error) {
	return f.list(actor)
}

func (f *fakeLifecycle) ListReported(_ context.Context, actor intervention.Actor) ([]ports.Intervention, error) {
	return f.list(actor)
}

func (f *fakeLifecycle) Report(_ context.Context, actor intervention.Actor, input intervention.ReportInput) (ports.Intervention, error) {
	f.report = input
	return f.byID(actor, 7, domain.StatusPending)
}

func (f *fakeLifecycle) Plan(_ context.Context, actor intervention.Actor, input intervention.PlanInput) (ports.Intervention, error) {
	f.plan = input
	return f.byID(actor, 8, domain.StatusPending)
}

func (f *fakeLifecycle) Update(_ context.Context, actor intervention.Actor, id uint64, _ intervention.UpdateInput) (ports.Intervention, error) {
	return f.byID(actor, id, domain.StatusApproved)
}

func (f *fakeLifecycle) Deactivate(_ context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error) {
	return f.byID(actor, id, domain.StatusCancelled)
}

func (f *fakeLifecycle) Assign(_ context.Context, actor intervention.Actor, input intervention.AssignInput) ([]ports.Intervention, error) {
	f.assign = input
	return f.list(actor)
}

func (f *fakeLifecycle) Pause(_ context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error) {
	return f.byID(actor, id, domain.StatusPaused)
}

func (f *fakeLifecycle) Resume(_ context.Context, actor intervention.Actor, id uint64) (ports.Intervention, error) {
	return f.byID(actor, id, domain.StatusInProgress)
}

func (f *fakeLifecycle) Resolve(_ context.Context, actor intervention.Actor, id uint64, input intervention.ResolveInput) (intervention.ResolveResult, error) {
	f.resolve = input
	item, err := f.byID(actor, id, domain.StatusCompleted)
	if err != nil {
		return intervention.ResolveResult{}, err
	}
	next := f.item(id+1, domain.StatusPending)
	return intervention.ResolveResult{
		Intervention: item,
		History:      ports.HistoryEntry{ID: 4, InterventionID: id, Action: input.Action},
		Recurring:    &next,
	}, nil
}

func (f *fakeLifecycle) Stats(_ context.Context, actor intervention.Actor) (map[domain.Status]int64, error) {
	f.lastActor = actor
	return map[domain.Status]int64{domain.StatusPending: 2, domain.StatusCompleted: 1}, nil
}

type fakeAuth struct{}

var testActors = map[string]intervention.Actor{
	"admin-token": {UserAccountID: 1, Role: domain.RoleAdmin},
	"tech-token":  {UserAccountID: 2, Role: domain.RoleTechnician},
	"user-token":  {UserAccountID: 3, Role: domain.RoleUser},
}

func (fakeAuth) Login(_ context.Context, email string, password string) (auth.Token, error) {
	if email != "admin@example.com" || password != "password-1" {
		return auth.Token{}, errs.Unauthenticated("invalid email or password")
	}
	return auth.Token{
		AccessToken: "admin-token",
		ExpiresAt:   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Actor:       testActors["admin-token"],
	}, nil
}

func (fakeAuth) Authenticate(raw string) (intervention.Actor, error) {
	actor, ok := testActors[raw]
	if !ok {
		return intervention.Actor{}, errs.Unauthenticated("invalid token")
	}
	return actor, nil
}

type fakeInbox struct {
	readAccount uint64
	readID      uint64
}

func (f *fakeInbox) ListForAccount(_ context.Context, accountID uint64, unreadOnly bool) ([]ports.Notification, error) {
	if !unreadOnly {
		return nil, nil
	}
	return []ports.Notification{{ID: 5, RecipientAccountID: accountID, Kind: ports.KindInterventionAssigned, Message: "assigned", EmailStatus: ports.EmailSent}}, nil
}

func (f *fakeInbox) MarkRead(_ context.Context, accountID uint64, id uint64) error {
	if id == 404 {
		return ports.ErrNotificationNotFound
	}
	f.readAccount = accountID
	f.readID = id
	return nil
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func setupServer(t *testing.T) (*fakeLifecycle, *fakeInbox, http.Handler) {
	t.Helper()
	lifecycle := &fakeLifecycle{}
	inbox := &fakeInbox{}
	return lifecycle, inbox, NewHandler(lifecycle, fakeAuth{}, inbox).Routes()
}

func do(t *testing.T, h http.Handler, method string, path string, token string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestHealthAndMetrics(t *testing.T) {
	_, _, h := setupServer(t)

	status, body := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, body.Success)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthentication(t *testing.T) {
	_, _, h := setupServer(t)

	status, body := do(t, h, http.MethodGet, "/api/intervention", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, body.Success)

	status, _ = do(t, h, http.MethodGet, "/api/intervention", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "password-1"})
	require.Equal(t, http.StatusOK, status)
	var login loginResponse
	require.NoError(t, json.Unmarshal(body.Data, &login))
	assert.Equal(t, "admin-token", login.AccessToken)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.Equal(t, "ADMIN", login.Role)

	status, body = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "admin@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "invalid email or password", body.Message)

	status, _ = do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRoleGates(t *testing.T) {
	_, _, h := setupServer(t)

	cases := []struct {
		method string
		path   string
		token  string
		want   int
	}{
		{http.MethodPost, "/api/intervention/planify", "user-token", http.StatusForbidden},
		{http.MethodPost, "/api/intervention/assign", "tech-token", http.StatusForbidden},
		{http.MethodPatch, "/api/intervention/1", "tech-token", http.StatusForbidden},
		{http.MethodDelete, "/api/intervention/1", "user-token", http.StatusForbidden},
		{http.MethodGet, "/api/intervention/assigned", "user-token", http.StatusForbidden},
		{http.MethodGet, "/api/intervention/stats", "tech-token", http.StatusForbidden},
		{http.MethodPatch, "/api/intervention/1/pause", "user-token", http.StatusForbidden},
		{http.MethodPatch, "/api/intervention/1/pause", "tech-token", http.StatusOK},
		{http.MethodDelete, "/api/intervention/1", "tech-token", http.StatusOK},
		{http.MethodGet, "/api/intervention/reported", "user-token", http.StatusOK},
		{http.MethodGet, "/api/intervention/assigned", "tech-token", http.StatusOK},
	}
	for _, tc := range cases {
		status, _ := do(t, h, tc.method, tc.path, tc.token, nil)
		assert.Equal(t, tc.want, status, "%s %s as %s", tc.method, tc.path, tc.token)
	}
}

func TestReportAndList(t *testing.T) {
	lifecycle, _, h := setupServer(t)

	status, body := do(t, h, http.MethodPost, "/api/intervention", "user-token", map[string]any{
		"description": "Leaking pipe",
		"locationId":  3,
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, uint64(3), lifecycle.report.LocationID)
	assert.Equal(t, "", lifecycle.report.Priority)
	assert.Equal(t, uint64(3), lifecycle.lastActor.UserAccountID)

	var created map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "PENDING", created["status"])
	assert.Equal(t, "CORRECTIVE", created["type"])
	assert.Equal(t, float64(3), created["locationId"])

	status, body = do(t, h, http.MethodPost, "/api/intervention", "user-token", map[string]any{"locationId": 3})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "description is required")

	status, body = do(t, h, http.MethodGet, "/api/intervention", "tech-token", nil)
	require.Equal(t, http.StatusOK, status)
	var items []interventionView
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Building B", items[0].Location.Name)
	assert.Len(t, items[0].Assignees, 1)
}

func TestPlanParsesDates(t *testing.T) {
	lifecycle, _, h := setupServer(t)

	status, _ := do(t, h, http.MethodPost, "/api/intervention/planify", "admin-token", map[string]any{
		"description":        "Quarterly HVAC check",
		"locationId":         5,
		"plannedAt":          "2025-03-01",
		"isRecurring":        true,
		"recurrenceInterval": 90,
		"assignees":          []uint64{11, 12},
	})
	require.Equal(t, http.StatusCreated, status)
	require.NotNil(t, lifecycle.plan.PlannedAt)
	assert.True(t, lifecycle.plan.PlannedAt.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 90, *lifecycle.plan.RecurrenceInterval)
	assert.Equal(t, []uint64{11, 12}, lifecycle.plan.Assignees)

	status, body := do(t, h, http.MethodPost, "/api/intervention/planify", "admin-token", map[string]any{
		"description": "Quarterly HVAC check",
		"locationId":  5,
		"plannedAt":   "next tuesday",
		"isRecurring": false,
		"assignees":   []uint64{11},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "plannedAt")

	status, body = do(t, h, http.MethodPost, "/api/intervention/planify", "admin-token", map[string]any{
		"description": "Quarterly HVAC check",
		"locationId":  5,
		"plannedAt":   "2025-03-01T08:30:00+02:00",
		"isRecurring": false,
		"assignees":   []uint64{},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "assignees")
}

func TestErrorMapping(t *testing.T) {
	lifecycle, _, h := setupServer(t)

	cases := []struct {
		err     error
		want    int
		message string
	}{
		{errs.NotFound("intervention 9 not found"), http.StatusNotFound, "intervention 9 not found"},
		{errs.State("intervention 9 is COMPLETED"), http.StatusBadRequest, "intervention 9 is COMPLETED"},
		{errs.Validation("bad input"), http.StatusBadRequest, "bad input"},
		{errs.Permission("not yours"), http.StatusForbidden, "not yours"},
		{errs.Persistence(errors.New("database is locked"), "update intervention"), http.StatusInternalServerError, "internal server error"},
		{errors.New("secret detail"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		lifecycle.err = tc.err
		status, body := do(t, h, http.MethodGet, "/api/intervention/9", "admin-token", nil)
		assert.Equal(t, tc.want, status, "error %v", tc.err)
		assert.False(t, body.Success)
		assert.Equal(t, tc.message, body.Message)
	}

	lifecycle.err = nil
	status, body := do(t, h, http.MethodGet, "/api/intervention/abc", "admin-token", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "invalid id")
}

func TestPanicBecomesInternalError(t *testing.T) {
	lifecycle, _, h := setupServer(t)
	lifecycle.panicOn = "list"

	status, body := do(t, h, http.MethodGet, "/api/intervention", "admin-token", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", body.Message)
}

func TestAssignResolveAndStats(t *testing.T) {
	lifecycle, _, h := setupServer(t)

	status, _ := do(t, h, http.MethodPost, "/api/intervention/assign", "admin-token", map[string]any{
		"interventionIds": []uint64{1, 2},
		"technicianIds":   []uint64{11},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []uint64{1, 2}, lifecycle.assign.InterventionIDs)

	status, body := do(t, h, http.MethodPost, "/api/intervention/assign", "admin-token", map[string]any{
		"interventionIds": []uint64{1},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "technicianIds")

	status, body = do(t, h, http.MethodPost, "/api/intervention/4/resolve", "tech-token", map[string]any{
		"action":    "Replaced filter",
		"partsUsed": "filter x1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(4), lifecycle.lastID)
	assert.Equal(t, "Replaced filter", lifecycle.resolve.Action)
	var resolved resolveView
	require.NoError(t, json.Unmarshal(body.Data, &resolved))
	assert.Equal(t, "COMPLETED", resolved.Intervention.Status)
	require.NotNil(t, resolved.Recurring)
	assert.Equal(t, uint64(5), resolved.Recurring.ID)

	status, body = do(t, h, http.MethodGet, "/api/intervention/stats", "admin-token", nil)
	require.Equal(t, http.StatusOK, status)
	var counts map[string]int64
	require.NoError(t, json.Unmarshal(body.Data, &counts))
	assert.Equal(t, int64(2), counts["PENDING"])
}

func TestNotifications(t *testing.T) {
	_, inbox, h := setupServer(t)

	status, body := do(t, h, http.MethodGet, "/api/notification?unread=true", "tech-token", nil)
	require.Equal(t, http.StatusOK, status)
	var items []notificationView
	require.NoError(t, json.Unmarshal(body.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, ports.EmailSent, items[0].EmailStatus)

	status, _ = do(t, h, http.MethodPatch, "/api/notification/5/read", "tech-token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(2), inbox.readAccount)
	assert.Equal(t, uint64(5), inbox.readID)

	status, _ = do(t, h, http.MethodPatch, "/api/notification/404/read", "tech-token", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestListFilterAndHistory(t *testing.T) {
	lifecycle, _, h := setupServer(t)

	status, body := do(t, h, http.MethodGet, "/api/intervention?type=preventive", "user-token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "preventive", lifecycle.listType)
	var items []interventionView
	require.NoError(t, json.Unmarshal(body.Data, &items))
	assert.Len(t, items, 1)

	status, body = do(t, h, http.MethodGet, "/api/intervention?type=urgent", "user-token", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Message, "invalid intervention type")

	status, body = do(t, h, http.MethodGet, "/api/intervention/9/history", "tech-token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, uint64(9), lifecycle.lastID)
	var entries []historyView
	require.NoError(t, json.Unmarshal(body.Data, &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionAssigned, entries[0].Action)
	assert.Equal(t, domain.ActionPaused, entries[1].Action)

	lifecycle.err = ports.ErrInterventionNotFound
	status, _ = do(t, h, http.MethodGet, "/api/intervention/10/history", "tech-token", nil)
	assert.Equal(t, http.StatusNotFound, status)
}
