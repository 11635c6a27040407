// AngelaMos | 2026
// handler_test.go

package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeCreativeRuben/StudioThielmanV2/internal/store"
)

type recordingNotifier struct {
	mu    sync.Mutex
	subs  []Submission
	links []string
}

func (n *recordingNotifier) SubmissionCreated(
	_ context.Context,
	sub Submission,
	link string,
) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, sub)
	n.links = append(n.links, link)
}

type staticLinker string

func (l staticLinker) Link(_, _, _, _ string) string { return string(l) }

func passthrough(next http.Handler) http.Handler { return next }

type testEnv struct {
	router   http.Handler
	service  *Service
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fs, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewService(NewRepository(fs), staticLinker("https://cal.example/book"), notifier)

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, passthrough, passthrough)

	return &testEnv{router: r, service: svc, notifier: notifier}
}

func (e *testEnv) do(
	t *testing.T,
	method, path string,
	body any,
) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func validForm(overrides map[string]any) map[string]any {
	form := map[string]any{
		"business_name":          "Acme Bakery",
		"name":                   "Jane Doe",
		"email":                  "jane@acme.test",
		"phone":                  "+32 470 00 00 00",
		"package":                PackageStarter,
		"goals":                  []string{"more-leads", "online-booking"},
		"has_existing_website":   true,
		"existing_website_url":   "https://acme.test",
		"preferred_contact":      "email",
		"accepts_privacy_policy": true,
	}
	for k, v := range overrides {
		form[k] = v
	}
	return form
}

func (e *testEnv) create(t *testing.T, overrides map[string]any) CreatedResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/submissions", validForm(overrides))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CreatedResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestCreateForcesServerFields(t *testing.T) {
	env := newTestEnv(t)
	before := time.Now().UTC()

	resp := env.create(t, map[string]any{
		"id":           "client-chosen",
		"status":       StatusCompleted,
		"submitted_at": "2001-01-01T00:00:00Z",
		"notes":        "sneaky",
	})

	assert.NotEqual(t, "client-chosen", resp.ID)
	assert.Len(t, resp.ID, 36)
	assert.Equal(t, StatusNew, resp.Status)
	assert.Empty(t, resp.Notes)
	assert.False(t, resp.SubmittedAt.Before(before.Add(-time.Second)))
	assert.False(t, resp.SubmittedAt.After(time.Now().UTC().Add(time.Second)))
	assert.Nil(t, resp.UpdatedAt)
	assert.Equal(t, "https://cal.example/book", resp.CalendarLink)

	require.Len(t, env.notifier.subs, 1)
	assert.Equal(t, resp.ID, env.notifier.subs[0].ID)
	assert.Equal(t, "https://cal.example/book", env.notifier.links[0])
}

func TestCreateRoundTripsFields(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, map[string]any{"timezone": "Europe/Brussels"})

	rec := env.do(t, http.MethodGet, "/submissions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got Submission
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, created.Submission.ID, got.ID)
	assert.Equal(t, "Acme Bakery", got.BusinessName)
	assert.Equal(t, "jane@acme.test", got.Email)
	assert.Equal(t, []string{"more-leads", "online-booking"}, got.Goals)
	assert.True(t, got.HasExistingWebsite)
	assert.Equal(t, "Europe/Brussels", got.Timezone)
	assert.Equal(t, StatusNew, got.Status)
	assert.True(t, created.SubmittedAt.Equal(got.SubmittedAt))
}

func TestCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{"bad email", map[string]any{"email": "nope"}, "email must be a valid email address"},
		{"missing name", map[string]any{"name": ""}, "name is required"},
		{"unknown package", map[string]any{"package": "gold"}, "package must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/submissions", validForm(tt.overrides))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
		})
	}
	assert.Empty(t, env.notifier.subs)
}

func TestDeleteThenGet(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)

	rec := env.do(t, http.MethodDelete, "/submissions/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/submissions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/submissions/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMergesShallowly(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)

	rec := env.do(t, http.MethodPut, "/submissions/"+created.ID, map[string]any{
		"notes": "call back Tuesday",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/submissions/"+created.ID, map[string]any{
		"status":       StatusContacted,
		"id":           "other",
		"submitted_at": "2001-01-01T00:00:00Z",
		"unknown_key":  true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got Submission
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, StatusContacted, got.Status)
	assert.Equal(t, "call back Tuesday", got.Notes)
	assert.Equal(t, "Jane Doe", got.Name)
	assert.True(t, created.SubmittedAt.Equal(got.SubmittedAt))
	require.NotNil(t, got.UpdatedAt)
	assert.WithinDuration(t, time.Now(), *got.UpdatedAt, time.Minute)
}

func TestUpdateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	created := env.create(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{"bad status", map[string]any{"status": "archived"}},
		{"bad package", map[string]any{"package": "gold"}},
		{"wrong type", map[string]any{"goals": "not-a-list"}},
		{"not an object", []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/submissions/"+created.ID, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := env.do(t, http.MethodPut, "/submissions/missing", map[string]any{"notes": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func seed(t *testing.T, env *testEnv, subs ...Submission) {
	t.Helper()
	repo := env.service.repo
	for i := range subs {
		require.NoError(t, repo.Create(context.Background(), &subs[i]))
	}
}

func listIDs(t *testing.T, env *testEnv, query string) []string {
	t.Helper()
	rec := env.do(t, http.MethodGet, "/submissions"+query, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var subs []Submission
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&subs))
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestListFiltersAndSorts(t *testing.T) {
	env := newTestEnv(t)
	day := func(d int) time.Time { return time.Date(2025, 3, d, 12, 0, 0, 0, time.UTC) }

	seed(t, env,
		Submission{ID: "a", Status: StatusNew, Package: PackageStarter, SubmittedAt: day(1), BusinessName: "Acme Bakery"},
		Submission{ID: "b", Status: StatusNew, Package: PackageStarter, SubmittedAt: day(3), Name: "Bob"},
		Submission{ID: "c", Status: StatusContacted, Package: PackageStarter, SubmittedAt: day(2)},
		Submission{ID: "d", Status: StatusNew, Package: PackageGrowth, SubmittedAt: day(4), Email: "d@bakery.test"},
	)

	assert.Equal(t, []string{"d", "b", "c", "a"}, listIDs(t, env, ""))
	assert.Equal(t, []string{"b", "a"}, listIDs(t, env, "?status=new&package=starter"))
	assert.Equal(t, []string{"d", "a"}, listIDs(t, env, "?search=bakery"))
	assert.Equal(t, []string{"d", "a"}, listIDs(t, env, "?search=BAKERY"))
	assert.Equal(t, []string{"b", "c"}, listIDs(t, env, "?startDate=2025-03-02&endDate=2025-03-03"))
	assert.Equal(t, []string{"d", "b"}, listIDs(t, env, "?startDate=2025-03-03T00:00:00Z"))
	assert.Empty(t, listIDs(t, env, "?status=rejected"))
}

func TestListRejectsBadDate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/submissions?startDate=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCounts(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env,
		Submission{ID: "a", Status: StatusNew, Package: PackageStarter},
		Submission{ID: "b", Status: StatusNew, Package: PackageProMax},
		Submission{ID: "c", Status: StatusCompleted, Package: PackageStarter},
	)

	counts, err := env.service.Counts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, counts.Total)
	assert.Equal(t, 2, counts.ByStatus[StatusNew])
	assert.Equal(t, 0, counts.ByStatus[StatusRejected])
	assert.Equal(t, 2, counts.ByPackage[PackageStarter])
	assert.Equal(t, 0, counts.ByPackage[PackageGrowth])
}
