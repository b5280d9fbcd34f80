package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hydrantmap/internal/auth"
	"hydrantmap/internal/docstore"
	"hydrantmap/internal/httpapi"
	"hydrantmap/internal/hydrant"
	"hydrantmap/internal/testutil"
)

type testServer struct {
	store    *docstore.MemoryDocumentStore
	svc      *hydrant.Service
	handler  http.Handler
	token    string
	snapshot []string
}

func newTestServer(t *testing.T, opts httpapi.Options) *testServer {
	t.Helper()
	clock := testutil.NewStubClock(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC))
	store := testutil.NewTestStore(clock)
	svc := hydrant.NewService(store, nil, hydrant.NewNopLogger(), clock, testutil.NewStubIDGenerator(), time.UTC)

	users := auth.NewUsers(store, clock)
	_, err := users.Add("chief", "hose-reel-42", auth.RoleAdmin)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager("test-secret", time.Hour, clock)
	require.NoError(t, err)

	ts := &testServer{store: store, svc: svc}
	if opts.AfterSnapshot == nil {
		opts.AfterSnapshot = func(info *hydrant.SnapshotInfo) {
			ts.snapshot = append(ts.snapshot, info.Date)
		}
	}
	ts.handler = httpapi.NewServer(svc, users, tokens, hydrant.NewNopLogger(), opts).Handler()

	token, _, err := tokens.Issue(&auth.User{Username: "chief", Role: auth.RoleAdmin})
	require.NoError(t, err)
	ts.token = token
	return ts
}

func (ts *testServer) do(t *testing.T, method, target string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})
	rec := ts.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLogin(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})

	rec := ts.do(t, http.MethodPost, "/api/login", map[string]string{"username": "chief", "password": "hose-reel-42"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, auth.RoleAdmin, resp.Role)

	rec = ts.do(t, http.MethodGet, "/api/settings", nil, resp.Token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/login", map[string]string{"username": "chief", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{LoginRatePerMinute: 2})
	body := map[string]string{"username": "chief", "password": "wrong-password"}

	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/login", body, "").Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(t, http.MethodPost, "/api/login", body, "").Code)

	rec := ts.do(t, http.MethodPost, "/api/login", body, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestAdminRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})

	routes := []struct{ method, target string }{
		{http.MethodPost, "/api/hydrants"},
		{http.MethodPut, "/api/hydrants/h-1"},
		{http.MethodDelete, "/api/hydrants/h-1"},
		{http.MethodGet, "/api/snapshots?action=list"},
		{http.MethodPost, "/api/snapshots?action=create"},
		{http.MethodDelete, "/api/snapshots?date=2024-01-10"},
		{http.MethodGet, "/api/settings"},
		{http.MethodPut, "/api/settings"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.target, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, ts.do(t, rt.method, rt.target, nil, "").Code)
			assert.Equal(t, http.StatusUnauthorized, ts.do(t, rt.method, rt.target, nil, "forged").Code)
		})
	}
	assert.Equal(t, 1, ts.store.Len(), "only users.json should exist")
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	clock := testutil.ClockOn("2024-01-15")
	store := testutil.NewTestStore(clock)
	svc := hydrant.NewService(store, nil, hydrant.NewNopLogger(), clock, testutil.NewStubIDGenerator(), time.UTC)
	tokens, err := auth.NewTokenManager("test-secret", time.Hour, clock)
	require.NoError(t, err)
	handler := httpapi.NewServer(svc, auth.NewUsers(store, clock), tokens, hydrant.NewNopLogger(), httpapi.Options{}).Handler()

	token, _, err := tokens.Issue(&auth.User{Username: "viewer", Role: "viewer"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/settings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHydrantCRUD(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})

	rec := ts.do(t, http.MethodPost, "/api/hydrants", hydrant.HydrantInput{
		Lat: 48.137, Lng: 11.575, Type: "underground", Title: "Marienplatz",
	}, ts.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created hydrant.Hydrant
	decode(t, rec, &created)
	assert.Equal(t, "h-1", created.ID)
	assert.Equal(t, "chief", created.CreatedBy)

	rec = ts.do(t, http.MethodGet, "/api/hydrants", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Hydrants []hydrant.Hydrant `json:"hydrants"`
	}
	decode(t, rec, &list)
	assert.Len(t, list.Hydrants, 1)

	rec = ts.do(t, http.MethodPut, "/api/hydrants/h-1", hydrant.HydrantInput{
		Lat: 48.137, Lng: 11.575, Type: "overground", Title: "Marienplatz north",
	}, ts.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/hydrants/h-1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got hydrant.Hydrant
	decode(t, rec, &got)
	assert.Equal(t, "Marienplatz north", got.Title)

	rec = ts.do(t, http.MethodDelete, "/api/hydrants/h-1", nil, ts.token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/hydrants/h-1", nil, "").Code)
}

func TestHydrantValidation(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})

	rec := ts.do(t, http.MethodPost, "/api/hydrants", hydrant.HydrantInput{
		Lat: 123, Lng: 11.575, Type: "underground", Title: "Nowhere",
	}, ts.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/hydrants", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer "+ts.token)
	rec = httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotLifecycle(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})
	testutil.SeedCollection(t, ts.store, testutil.MakeHydrants("live", 8))
	testutil.SeedSnapshot(t, ts.store, "2024-01-10", testutil.MakeHydrants("old", 5))

	rec := ts.do(t, http.MethodPost, "/api/snapshots?action=create", nil, ts.token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var info hydrant.SnapshotInfo
	decode(t, rec, &info)
	assert.Equal(t, "2024-01-15", info.Date)
	assert.Equal(t, 8, info.Meta.HydrantCount)
	assert.Equal(t, "chief", info.Meta.CreatedBy)
	assert.Equal(t, []string{"2024-01-15"}, ts.snapshot)

	rec = ts.do(t, http.MethodGet, "/api/snapshots?action=list", nil, ts.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Snapshots []hydrant.SnapshotInfo `json:"snapshots"`
	}
	decode(t, rec, &list)
	require.Len(t, list.Snapshots, 2)
	assert.Equal(t, "2024-01-15", list.Snapshots[0].Date)

	rec = ts.do(t, http.MethodGet, "/api/snapshots?action=preview&date=2024-01-10", nil, ts.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var preview hydrant.SnapshotPreview
	decode(t, rec, &preview)
	assert.Equal(t, 5, preview.HydrantCount)

	rec = ts.do(t, http.MethodPost, "/api/snapshots?action=restore", map[string]string{"date": "2024-01-10"}, ts.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result hydrant.RestoreResult
	decode(t, rec, &result)
	assert.Equal(t, 5, result.HydrantsRestored)
	assert.Equal(t, "hydrants_2024-01-15_103000_backup.json", result.BackupCreated)

	rec = ts.do(t, http.MethodGet, "/api/snapshots?action=backups", nil, ts.token)
	require.Equal(t, http.StatusOK, rec.Code)
	var backups struct {
		Backups []hydrant.BackupInfo `json:"backups"`
	}
	decode(t, rec, &backups)
	require.Len(t, backups.Backups, 1)
	assert.Equal(t, 8, backups.Backups[0].Meta.HydrantCount)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/snapshots?date=2024-01-10", nil, ts.token).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/snapshots?date=2024-01-10", nil, ts.token).Code)
}

func TestSnapshotErrors(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{"preview malformed date", http.MethodGet, "/api/snapshots?action=preview&date=../etc", nil, http.StatusBadRequest},
		{"preview missing", http.MethodGet, "/api/snapshots?action=preview&date=2024-01-01", nil, http.StatusNotFound},
		{"restore missing", http.MethodPost, "/api/snapshots?action=restore&date=2024-01-01", nil, http.StatusNotFound},
		{"restore bad date", http.MethodPost, "/api/snapshots?action=restore", map[string]string{"date": "yesterday"}, http.StatusBadRequest},
		{"unknown get action", http.MethodGet, "/api/snapshots?action=explode", nil, http.StatusBadRequest},
		{"unknown post action", http.MethodPost, "/api/snapshots?action=explode", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.target, tt.body, ts.token)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})

	rec := ts.do(t, http.MethodPut, "/api/settings", map[string]any{
		"snapshots": hydrant.SnapshotSettings{Enabled: true, AutoCreate: false, MaxCount: 5},
	}, ts.token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	settings, err := ts.svc.SnapshotSettings()
	require.NoError(t, err)
	assert.False(t, settings.AutoCreate)
	assert.Equal(t, 5, settings.MaxCount)

	rec = ts.do(t, http.MethodPut, "/api/settings", map[string]any{
		"snapshots": hydrant.SnapshotSettings{Enabled: true, MaxCount: 0},
	}, ts.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/settings", map[string]any{}, ts.token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})
	testutil.SeedCollection(t, ts.store, testutil.MakeHydrants("live", 3))
	testutil.SeedSnapshot(t, ts.store, "2024-01-10", testutil.MakeHydrants("old", 2))
	ts.do(t, http.MethodGet, "/healthz", nil, "")

	rec := ts.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "hydrantmap_hydrants 3")
	assert.Contains(t, body, "hydrantmap_snapshots 1")
	assert.Contains(t, body, `hydrantmap_http_requests_total{code="200",method="GET"}`)
}

func TestMarkerTypes(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})
	rec := ts.do(t, http.MethodGet, "/api/marker-types", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Types []hydrant.MarkerType `json:"types"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, hydrant.DefaultMarkerTypes(), resp.Types)
}

func TestUnknownRoute(t *testing.T) {
	ts := newTestServer(t, httpapi.Options{})
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/nothing", nil, "").Code)
}
