// Relog - Personal Event Tracking and Staleness Monitoring
// Copyright 2026 Relog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/relogapp/relog

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/relogapp/relog/internal/auth"
	"github.com/relogapp/relog/internal/config"
	"github.com/relogapp/relog/internal/idcodec"
	"github.com/relogapp/relog/internal/logging"
	"github.com/relogapp/relog/internal/models"
	"github.com/relogapp/relog/internal/tracker"
)

// internalIDPattern matches the internal 24-hex storage ids, which must
// never leak through the API boundary.
var internalIDPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "error",
		Format: "console",
		Output: io.Discard,
	})
}

// memStore is an in-memory implementation of tracker.Store, ListStore,
// Pinger and auth.UserStore, backing full-router tests without DuckDB.
type memStore struct {
	mu     sync.Mutex
	seq    int
	events map[string]*models.Event
	labels map[string]*models.Label
	users  map[string]*models.User
}

func newMemStore() *memStore {
	return &memStore{
		events: make(map[string]*models.Event),
		labels: make(map[string]*models.Label),
		users:  make(map[string]*models.User),
	}
}

func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("%024x", m.seq)
}

func cloneEvent(e *models.Event) *models.Event {
	out := *e
	out.Timestamps = append([]time.Time(nil), e.Timestamps...)
	out.Labels = append([]models.Label(nil), e.Labels...)
	return &out
}

func (m *memStore) GetEvent(_ context.Context, id string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (m *memStore) FindEventByName(_ context.Context, ownerID, name string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.OwnerID == ownerID && e.Name == name {
			return cloneEvent(e), nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) resolveLabels(ids []string) []models.Label {
	out := make([]models.Label, 0, len(ids))
	for _, id := range ids {
		if l, ok := m.labels[id]; ok {
			out = append(out, *l)
		}
	}
	return out
}

func (m *memStore) InsertEvent(_ context.Context, event *models.Event, labelIDs []string) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := cloneEvent(event)
	stored.ID = m.nextID()
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	stored.Labels = m.resolveLabels(labelIDs)
	m.events[stored.ID] = stored
	return cloneEvent(stored), nil
}

func (m *memStore) UpdateEvent(_ context.Context, id string, upd *models.EventUpdate) (*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.Name != nil {
		e.Name = *upd.Name
	}
	if upd.WarningThresholdDays != nil {
		e.WarningThresholdDays = *upd.WarningThresholdDays
	}
	if upd.Timestamps != nil {
		e.Timestamps = append([]time.Time(nil), *upd.Timestamps...)
	}
	if upd.LabelIDs != nil {
		e.Labels = m.resolveLabels(*upd.LabelIDs)
	}
	e.UpdatedAt = time.Now().UTC()
	return cloneEvent(e), nil
}

func (m *memStore) DeleteEvent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *memStore) ListEvents(_ context.Context, ownerID string) ([]*models.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Event
	for _, e := range m.events {
		if e.OwnerID == ownerID {
			out = append(out, cloneEvent(e))
		}
	}
	return out, nil
}

func (m *memStore) CountLabelsOwned(_ context.Context, ownerID string, labelIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, id := range labelIDs {
		if l, ok := m.labels[id]; ok && l.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (m *memStore) GetLabel(_ context.Context, id string) (*models.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *l
	return &out, nil
}

func (m *memStore) InsertLabel(_ context.Context, label *models.Label) (*models.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *label
	stored.ID = m.nextID()
	stored.CreatedAt = time.Now().UTC()
	m.labels[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memStore) UpdateLabelName(_ context.Context, id, name string) (*models.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.labels[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	l.Name = name
	out := *l
	return &out, nil
}

func (m *memStore) DeleteLabel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.labels[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.labels, id)
	for _, e := range m.events {
		kept := e.Labels[:0]
		for _, l := range e.Labels {
			if l.ID != id {
				kept = append(kept, l)
			}
		}
		e.Labels = kept
	}
	return nil
}

func (m *memStore) ListLabels(_ context.Context, ownerID string) ([]*models.Label, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Label
	for _, l := range m.labels {
		if l.OwnerID == ownerID {
			copied := *l
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memStore) GetUser(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *u
	return &out, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			out := *u
			return &out, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) InsertUser(_ context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username {
			return nil, fmt.Errorf("unique constraint violated")
		}
	}
	stored := *user
	stored.ID = m.nextID()
	stored.CreatedAt = time.Now().UTC()
	m.users[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (m *memStore) Ping(_ context.Context) error { return nil }

// memSessions is an in-memory auth.SessionStore.
type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
}

func newMemSessions() *memSessions {
	return &memSessions{sessions: make(map[string]*auth.Session)}
}

func (m *memSessions) Create(_ context.Context, s *auth.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	m.sessions[s.ID] = &copied
	return nil
}

func (m *memSessions) Get(_ context.Context, id string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	if s.IsExpired() {
		return nil, auth.ErrSessionExpired
	}
	out := *s
	return &out, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memSessions) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *memSessions) DeleteExpired(_ context.Context) (int, error) { return 0, nil }

func (m *memSessions) Close() error { return nil }

// envelope mirrors models.APIResponse with a raw data payload.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

type mutationEnvelope struct {
	PrimaryResult json.RawMessage        `json:"primaryResult"`
	Errors        []models.MutationError `json:"errors"`
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.Environment = "development"
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	cfg.Security.SessionTimeout = time.Hour
	cfg.Security.BcryptCost = 4
	cfg.Security.LoginRatePerMinute = 600
	cfg.Security.LoginBurst = 50
	cfg.Security.RateLimitDisabled = true
	cfg.Security.CORSOrigins = []string{"*"}
	cfg.Security.RegistrationOpen = true
	cfg.Codec.Salt = "relog-test"
	cfg.Codec.MinLength = 10
	cfg.WebSocket.Enabled = true
	cfg.WebSocket.PingInterval = 30 * time.Second
	cfg.WebSocket.WriteTimeout = 10 * time.Second
	return cfg
}

func newTestRouter(t *testing.T) (http.Handler, *memStore) {
	t.Helper()

	cfg := testConfig()
	store := newMemStore()

	codec := idcodec.NewRegistry(idcodec.Config{
		Salt:      cfg.Codec.Salt,
		MinLength: cfg.Codec.MinLength,
	})

	jwtMgr, err := auth.NewJWTManager(&cfg.Security, false)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	authSvc := auth.NewService(store, newMemSessions(), jwtMgr, &cfg.Security)
	trackerSvc := tracker.New(store, codec)

	handler := NewHandler(trackerSvc, authSvc, store, store, codec, nil, cfg)
	t.Cleanup(handler.Close)

	return NewRouter(handler, authSvc, cfg), store
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, &env
}

// registerAndLogin creates an account and returns a bearer token.
func registerAndLogin(t *testing.T, router http.Handler, username string) string {
	t.Helper()

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		Username: username,
		Password: "correct-horse-battery",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.Status != "success" {
		t.Fatalf("register status field = %q", env.Status)
	}

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		Username: username,
		Password: "correct-horse-battery",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login loginResponse
	if err := json.Unmarshal(env.Data, &login); err != nil {
		t.Fatalf("unmarshal login data: %v", err)
	}
	if login.Token == "" {
		t.Fatal("login returned empty token")
	}
	return login.Token
}

func unmarshalMutation(t *testing.T, env *envelope) (*models.EventDTO, []models.MutationError) {
	t.Helper()
	var payload mutationEnvelope
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal mutation payload: %v", err)
	}
	if string(payload.PrimaryResult) == "null" || len(payload.PrimaryResult) == 0 {
		return nil, payload.Errors
	}
	var dto models.EventDTO
	if err := json.Unmarshal(payload.PrimaryResult, &dto); err != nil {
		t.Fatalf("unmarshal primary result: %v", err)
	}
	return &dto, payload.Errors
}

func createEvent(t *testing.T, router http.Handler, token, name string, threshold int) models.EventDTO {
	t.Helper()
	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/events", token, models.CreateEventRequest{
		Name:                   name,
		WarningThresholdInDays: threshold,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create event status = %d, body %s", rec.Code, rec.Body.String())
	}
	dto, errs := unmarshalMutation(t, env)
	if len(errs) != 0 {
		t.Fatalf("create event errors = %+v", errs)
	}
	if dto == nil {
		t.Fatal("create event returned null primary result")
	}
	return *dto
}

func TestAuthFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	token := registerAndLogin(t, router, "alice")

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	var me models.UserDTO
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("unmarshal me: %v", err)
	}
	if me.Username != "alice" {
		t.Errorf("me username = %q, want alice", me.Username)
	}
	if me.ID == "" {
		t.Error("me returned empty id")
	}

	// Logout revokes the session; the same token stops working.
	rec, _ = doJSON(t, router, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	rec, _ = doJSON(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me after logout status = %d, want 401", rec.Code)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	router, _ := newTestRouter(t)
	registerAndLogin(t, router, "alice")

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", models.RegisterRequest{
		Username: "alice",
		Password: "another-password",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "CONFLICT" {
		t.Errorf("error = %+v, want CONFLICT", env.Error)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newTestRouter(t)
	registerAndLogin(t, router, "alice")

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{
		Username: "alice",
		Password: "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("error = %+v, want UNAUTHORIZED", env.Error)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/events", "/api/v1/labels"} {
		rec, env := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("GET %s status = %d, want 401", path, rec.Code)
		}
		if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
			t.Errorf("GET %s error = %+v", path, env.Error)
		}
	}
}

func TestCreateAndListEvents(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	dto := createEvent(t, router, token, "water plants", 7)
	if dto.Name != "water plants" {
		t.Errorf("name = %q", dto.Name)
	}
	if dto.WarningThresholdInDays != 7 {
		t.Errorf("threshold = %d, want 7", dto.WarningThresholdInDays)
	}
	if internalIDPattern.MatchString(dto.ID) {
		t.Errorf("event id %q looks like an internal id", dto.ID)
	}
	if !dto.Overdue {
		t.Error("event with no occurrences and positive threshold should be overdue")
	}

	rec, env := doJSON(t, router, http.MethodGet, "/api/v1/events", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list []models.EventDTO
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 1 || list[0].ID != dto.ID {
		t.Errorf("list = %+v, want the created event", list)
	}
	if env.Metadata.Cached {
		t.Error("first list should not be served from cache")
	}

	// Second read hits the cache.
	_, env = doJSON(t, router, http.MethodGet, "/api/v1/events", token, nil)
	if !env.Metadata.Cached {
		t.Error("second list should be served from cache")
	}

	// A mutation invalidates the cached listing.
	createEvent(t, router, token, "change filter", 30)
	_, env = doJSON(t, router, http.MethodGet, "/api/v1/events", token, nil)
	if env.Metadata.Cached {
		t.Error("list after mutation should not be served from cache")
	}
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("list length = %d, want 2", len(list))
	}
}

func TestCreateEventDuplicateNameStructuredError(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")
	createEvent(t, router, token, "water plants", 7)

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/events", token, models.CreateEventRequest{
		Name: "water plants",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with structured errors", rec.Code)
	}
	dto, errs := unmarshalMutation(t, env)
	if dto != nil {
		t.Errorf("primary result = %+v, want null", dto)
	}
	if len(errs) != 1 || errs[0].Code != models.MutationCodeValidation || errs[0].Field != "name" {
		t.Errorf("errors = %+v, want one VALIDATION_ERROR on name", errs)
	}
}

func TestCreateEventNameTooLong(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/events", token, models.CreateEventRequest{
		Name: strings.Repeat("x", 26),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	dto, errs := unmarshalMutation(t, env)
	if dto != nil || len(errs) == 0 {
		t.Errorf("dto = %+v errs = %+v, want structured validation failure", dto, errs)
	}
}

func TestUpdateEventMalformedID(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	name := "renamed"
	rec, env := doJSON(t, router, http.MethodPatch, "/api/v1/events/!!bad!!", token, models.UpdateEventRequest{
		Name: &name,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "BAD_REQUEST" {
		t.Errorf("error = %+v, want BAD_REQUEST", env.Error)
	}
}

func TestForeignEventIsNotFound(t *testing.T) {
	router, _ := newTestRouter(t)
	aliceToken := registerAndLogin(t, router, "alice")
	bobToken := registerAndLogin(t, router, "bob")

	dto := createEvent(t, router, aliceToken, "water plants", 7)

	name := "stolen"
	rec, env := doJSON(t, router, http.MethodPatch, "/api/v1/events/"+dto.ID, bobToken, models.UpdateEventRequest{
		Name: &name,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestTimestampEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")
	dto := createEvent(t, router, token, "water plants", 7)

	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/events/"+dto.ID+"/timestamps", token, models.TimestampRequest{
		Timestamp: ts,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add timestamp status = %d", rec.Code)
	}
	updated, errs := unmarshalMutation(t, env)
	if len(errs) != 0 || updated == nil {
		t.Fatalf("add timestamp dto=%+v errs=%+v", updated, errs)
	}
	if len(updated.Timestamps) != 1 || updated.Timestamps[0] != ts.Format(time.RFC3339) {
		t.Errorf("timestamps = %v, want [%s]", updated.Timestamps, ts.Format(time.RFC3339))
	}

	// Removing an instant the event does not have is a structured miss.
	other := ts.Add(time.Hour)
	rec, env = doJSON(t, router, http.MethodDelete, "/api/v1/events/"+dto.ID+"/timestamps", token, models.TimestampRequest{
		Timestamp: other,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("remove timestamp status = %d", rec.Code)
	}
	removedDTO, errs := unmarshalMutation(t, env)
	if removedDTO != nil {
		t.Errorf("primary result = %+v, want null", removedDTO)
	}
	if len(errs) != 1 || errs[0].Code != models.MutationCodeNotFound || errs[0].Field != "timestamp" {
		t.Errorf("errors = %+v, want one NOT_FOUND on timestamp", errs)
	}

	// Removing the real instant empties the collection.
	rec, env = doJSON(t, router, http.MethodDelete, "/api/v1/events/"+dto.ID+"/timestamps", token, models.TimestampRequest{
		Timestamp: ts,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("remove timestamp status = %d", rec.Code)
	}
	removedDTO, errs = unmarshalMutation(t, env)
	if len(errs) != 0 || removedDTO == nil {
		t.Fatalf("remove dto=%+v errs=%+v", removedDTO, errs)
	}
	if len(removedDTO.Timestamps) != 0 {
		t.Errorf("timestamps = %v, want empty", removedDTO.Timestamps)
	}
}

func TestDeleteEventReturnsSnapshot(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")
	dto := createEvent(t, router, token, "water plants", 7)

	rec, env := doJSON(t, router, http.MethodDelete, "/api/v1/events/"+dto.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	snapshot, errs := unmarshalMutation(t, env)
	if len(errs) != 0 || snapshot == nil || snapshot.Name != "water plants" {
		t.Errorf("snapshot = %+v errs = %+v", snapshot, errs)
	}

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/v1/events/"+dto.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestLabelLifecycle(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/labels", token, models.CreateLabelRequest{Name: "garden"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create label status = %d", rec.Code)
	}
	var payload mutationEnvelope
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	var label models.LabelDTO
	if err := json.Unmarshal(payload.PrimaryResult, &label); err != nil {
		t.Fatalf("unmarshal label: %v", err)
	}
	if label.Name != "garden" || label.ID == "" {
		t.Errorf("label = %+v", label)
	}

	// Attach to an event, then delete the label: the association goes too.
	recEv, envEv := doJSON(t, router, http.MethodPost, "/api/v1/events", token, models.CreateEventRequest{
		Name:     "water plants",
		LabelIDs: []string{label.ID},
	})
	if recEv.Code != http.StatusOK {
		t.Fatalf("create event status = %d", recEv.Code)
	}
	eventDTO, errs := unmarshalMutation(t, envEv)
	if len(errs) != 0 || eventDTO == nil || len(eventDTO.Labels) != 1 {
		t.Fatalf("event = %+v errs = %+v, want one attached label", eventDTO, errs)
	}

	rec, _ = doJSON(t, router, http.MethodPatch, "/api/v1/labels/"+label.ID, token, models.UpdateLabelRequest{Name: "outdoors"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update label status = %d", rec.Code)
	}

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/v1/labels/"+label.ID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete label status = %d", rec.Code)
	}

	_, env = doJSON(t, router, http.MethodGet, "/api/v1/events", token, nil)
	var list []models.EventDTO
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(list) != 1 || len(list[0].Labels) != 0 {
		t.Errorf("events after label delete = %+v, want detached", list)
	}
}

func TestForeignLabelReferenceForbidden(t *testing.T) {
	router, _ := newTestRouter(t)
	aliceToken := registerAndLogin(t, router, "alice")
	bobToken := registerAndLogin(t, router, "bob")

	rec, env := doJSON(t, router, http.MethodPost, "/api/v1/labels", aliceToken, models.CreateLabelRequest{Name: "garden"})
	if rec.Code != http.StatusOK {
		t.Fatalf("create label status = %d", rec.Code)
	}
	var payload mutationEnvelope
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	var label models.LabelDTO
	if err := json.Unmarshal(payload.PrimaryResult, &label); err != nil {
		t.Fatalf("unmarshal label: %v", err)
	}

	rec, env = doJSON(t, router, http.MethodPost, "/api/v1/events", bobToken, models.CreateEventRequest{
		Name:     "steal the label",
		LabelIDs: []string{label.ID},
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Errorf("error = %+v, want FORBIDDEN", env.Error)
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	router, _ := newTestRouter(t)
	token := registerAndLogin(t, router, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/health", "/api/v1/health/live", "/api/v1/health/ready"} {
		rec, env := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d", path, rec.Code)
		}
		if env.Status != "success" {
			t.Errorf("GET %s status field = %q", path, env.Status)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output does not contain default collectors")
	}
}

func TestResponseCarriesRequestIDAndETag(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if rec.Header().Get("ETag") == "" {
		t.Error("missing ETag header")
	}
}
