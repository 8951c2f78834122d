package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cboderot1/turnos2/internal/config"
	"github.com/cboderot1/turnos2/internal/dispatch"
	"github.com/cboderot1/turnos2/internal/models"
	"github.com/cboderot1/turnos2/internal/utils"
)

// stubUsers is an in-memory repository.UserRepository for handler tests.
type stubUsers struct {
	users  map[string]*models.User // by id
	hashes map[string]string       // by username
}

func newStubUsers() *stubUsers {
	return &stubUsers{users: map[string]*models.User{}, hashes: map[string]string{}}
}

func (s *stubUsers) add(id, username string, role models.Role, passwordHash string) {
	s.users[id] = &models.User{ID: id, Username: username, DisplayName: username, Role: role, CreatedAt: time.Now()}
	s.hashes[username] = passwordHash
}

func (s *stubUsers) Create(ctx context.Context, username, displayName string, role models.Role, passwordHash string) (*models.User, error) {
	id := fmt.Sprintf("u-%d", len(s.users)+1)
	s.add(id, username, role, passwordHash)
	return s.users[id], nil
}

func (s *stubUsers) GetByUsername(ctx context.Context, username string) (*models.User, string, error) {
	for _, u := range s.users {
		if u.Username == username {
			return u, s.hashes[username], nil
		}
	}
	return nil, "", nil
}

func (s *stubUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.users[id], nil
}

func (s *stubUsers) List(ctx context.Context, role models.Role, limit, offset int) ([]models.User, int, error) {
	var out []models.User
	for _, u := range s.users {
		if role == "" || u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, len(out), nil
}

type testAPI struct {
	srv   http.Handler
	cfg   config.Config
	core  *dispatch.Coordinator
	users *stubUsers
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := config.Config{
		Env:           "dev",
		Origin:        "http://localhost:3000",
		SessionSecret: "test-secret",
	}
	users := newStubUsers()
	// bcrypt at test time keeps the fixtures honest with the login path
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	users.add("admin-1", "admin", models.RoleAdmin, hash)
	users.add("asesor-1", "asesor", models.RoleAsesor, hash)
	users.add("matriz-1", "matrizador1", models.RoleMatrizador, hash)

	core := dispatch.New(zerolog.Nop())
	return &testAPI{
		srv:   New(zerolog.Nop(), core, users, cfg),
		cfg:   cfg,
		core:  core,
		users: users,
	}
}

func (a *testAPI) token(t *testing.T, userID string) string {
	t.Helper()
	u := a.users.users[userID]
	require.NotNil(t, u)
	tok, err := utils.SignJWT(a.cfg.SessionSecret, u.ID, string(u.Role), time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.srv.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginAndMe(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "asesor", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	token, _ := resp["access_token"].(string)
	require.NotEmpty(t, token)

	w = api.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[models.User](t, w)
	assert.Equal(t, "asesor-1", me.ID)
	assert.Equal(t, models.RoleAsesor, me.Role)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "asesor", "password": "nope",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTicketIntakeAndQueue(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/tickets", "", dispatch.CreateTicket{
		ClientName:       "Ana",
		ClientIdentifier: "0912345678",
		Motive:           "escritura",
		ClientType:       models.ClientDiscapacitado,
		ServiceType:      models.ServiceTramite,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Ticket](t, w)
	assert.True(t, created.Priority)
	assert.Equal(t, models.TicketPending, created.Status)

	// display board poll: no auth required
	w = api.do(t, http.MethodGet, "/api/tickets/queue", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[dispatch.QueueSummary](t, w)
	require.Len(t, snap.MatrizadorQueue, 1)
	assert.Equal(t, created.ID, snap.MatrizadorQueue[0].ID)
	assert.Empty(t, snap.AsesorQueue)
}

func TestTicketIntakeValidation(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/tickets", "", map[string]string{"client_name": "Ana"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTakeNextAndCompleteFlow(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, "matriz-1")

	// empty queue: poll again later
	w := api.do(t, http.MethodPost, "/api/agents/matriz-1/next", tok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(t, http.MethodPost, "/api/tickets", "", dispatch.CreateTicket{
		ClientName:       "Ana",
		ClientIdentifier: "0912345678",
		Motive:           "escritura",
		ClientType:       models.ClientGeneral,
		ServiceType:      models.ServiceTramite,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode[models.Ticket](t, w)

	w = api.do(t, http.MethodPost, "/api/agents/matriz-1/next", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	taken := decode[models.Ticket](t, w)
	assert.Equal(t, created.ID, taken.ID)
	assert.Equal(t, models.TicketAssigned, taken.Status)
	assert.Equal(t, "matriz-1", taken.AssignedTo)

	w = api.do(t, http.MethodGet, "/api/agents/me", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[models.AgentState](t, w)
	assert.Equal(t, models.AgentBusy, state.Status)
	assert.Equal(t, taken.ID, state.CurrentTicketID)

	w = api.do(t, http.MethodPost, fmt.Sprintf("/api/tickets/%d/complete", taken.ID), tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	done := decode[models.Ticket](t, w)
	assert.Equal(t, models.TicketDone, done.Status)

	// double submit is a conflict, not a silent success
	w = api.do(t, http.MethodPost, fmt.Sprintf("/api/tickets/%d/complete", taken.ID), tok, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAgentCannotPullForAnother(t *testing.T) {
	api := newTestAPI(t)
	tok := api.token(t, "asesor-1")
	w := api.do(t, http.MethodPost, "/api/agents/matriz-1/next", tok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminCanPullForAgent(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodPost, "/api/tickets", "", dispatch.CreateTicket{
		ClientName:       "Eva",
		ClientIdentifier: "0999999999",
		Motive:           "consulta",
		ClientType:       models.ClientGeneral,
		ServiceType:      models.ServiceAsesoria,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	admin := api.token(t, "admin-1")
	w = api.do(t, http.MethodPost, "/api/agents/asesor-1/next", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	taken := decode[models.Ticket](t, w)
	assert.Equal(t, "asesor-1", taken.AssignedTo)
}

func TestForceStatusAndOrphanReport(t *testing.T) {
	api := newTestAPI(t)
	agent := api.token(t, "asesor-1")
	admin := api.token(t, "admin-1")

	w := api.do(t, http.MethodPost, "/api/tickets", "", dispatch.CreateTicket{
		ClientName:       "Eva",
		ClientIdentifier: "0999999999",
		Motive:           "consulta",
		ClientType:       models.ClientTerceraEdad,
		ServiceType:      models.ServiceAsesoria,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(t, http.MethodPost, "/api/agents/asesor-1/next", agent, nil)
	require.Equal(t, http.StatusOK, w.Code)
	taken := decode[models.Ticket](t, w)

	// only admins may force agent status
	w = api.do(t, http.MethodPost, "/api/agents/asesor-1/status", agent, map[string]string{"status": "FREE"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/agents/asesor-1/status", admin, map[string]string{"status": "FREE"})
	require.Equal(t, http.StatusOK, w.Code)
	state := decode[models.AgentState](t, w)
	assert.Equal(t, models.AgentFree, state.Status)

	// the detached ticket surfaces in the orphan report
	w = api.do(t, http.MethodGet, "/api/reports/orphans", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	orphans := decode[[]models.Ticket](t, w)
	require.Len(t, orphans, 1)
	assert.Equal(t, taken.ID, orphans[0].ID)
}

func TestReportsRequireAdmin(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/api/reports", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, http.MethodGet, "/api/reports", api.token(t, "asesor-1"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodGet, "/api/reports", api.token(t, "admin-1"), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAgentsListForAdmin(t *testing.T) {
	api := newTestAPI(t)
	admin := api.token(t, "admin-1")

	w := api.do(t, http.MethodGet, "/api/agents", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var agents []struct {
		models.User
		Status models.AgentStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &agents))
	require.Len(t, agents, 2, "asesor and matrizador, not the admin")
	for _, a := range agents {
		assert.Equal(t, models.AgentFree, a.Status)
	}
}

func TestUsersListForAdmin(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodGet, "/api/users?role=MATRIZADOR", api.token(t, "admin-1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]any](t, w)
	assert.EqualValues(t, 1, resp["total"])
}

func TestCompleteRequiresAgentRole(t *testing.T) {
	api := newTestAPI(t)
	w := api.do(t, http.MethodPost, "/api/tickets/1/complete", api.token(t, "admin-1"), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.do(t, http.MethodPost, "/api/tickets/1/complete", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
