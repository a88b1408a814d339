package scripts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/orgkit/internal/config"
	"github.com/kode4food/orgkit/internal/engine"
	"github.com/kode4food/orgkit/internal/scripts"
	"github.com/kode4food/orgkit/pkg/api"
)

// fakeOrg simulates the slice of the identity API the scripts touch:
// authenticators, users, groups, the token endpoint, and governance
// campaigns. State is kept in memory so rerun tests observe their own
// earlier writes
type fakeOrg struct {
	srv *httptest.Server

	mu                  sync.Mutex
	users               map[string]bool
	groups              map[string]bool
	campaigns           map[string]bool
	authenticatorStatus string
	activateCalls       int
	tokenCalls          int
	failAuthenticators  bool
	failGroups          map[string]bool
	forbidCampaigns     bool
	governanceDisabled  bool
}

var quoted = regexp.MustCompile(`"([^"]+)"`)

func newFakeOrg(t *testing.T) *fakeOrg {
	t.Helper()
	f := &fakeOrg{
		users:               map[string]bool{},
		groups:              map[string]bool{},
		campaigns:           map[string]bool{},
		authenticatorStatus: "INACTIVE",
		failGroups:          map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/authenticators", f.listAuthenticators)
	mux.HandleFunc(
		"POST /api/v1/authenticators/{id}/lifecycle/activate",
		f.activateAuthenticator,
	)
	mux.HandleFunc("GET /api/v1/users", f.searchUsers)
	mux.HandleFunc("POST /api/v1/users", f.createUser)
	mux.HandleFunc("GET /api/v1/groups", f.searchGroups)
	mux.HandleFunc("POST /api/v1/groups", f.createGroup)
	mux.HandleFunc("POST /oauth2/v1/token", f.issueToken)
	mux.HandleFunc(
		"GET /governance/api/v1/campaigns", f.searchCampaigns,
	)
	mux.HandleFunc(
		"POST /governance/api/v1/campaigns", f.createCampaign,
	)

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeOrg) listAuthenticators(
	w http.ResponseWriter, _ *http.Request,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAuthenticators {
		apiError(w, http.StatusInternalServerError,
			"E0000009", "Internal server error")
		return
	}
	writeJSON(w, []map[string]any{
		{"id": "aut-otp", "key": "google_otp", "status": "ACTIVE"},
		{
			"id":     "aut-webauthn",
			"key":    "webauthn",
			"status": f.authenticatorStatus,
		},
	})
}

func (f *fakeOrg) activateAuthenticator(
	w http.ResponseWriter, _ *http.Request,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activateCalls++
	f.authenticatorStatus = "ACTIVE"
	writeJSON(w, map[string]any{"id": "aut-webauthn"})
}

func (f *fakeOrg) searchUsers(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	login := quotedValue(r.URL.Query().Get("search"))
	if f.users[login] {
		writeJSON(w, []map[string]any{{"id": "usr-" + login}})
		return
	}
	writeJSON(w, []map[string]any{})
}

func (f *fakeOrg) createUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	login := profileField(r, "login")
	if f.users[login] {
		apiError(w, http.StatusBadRequest, "E0000038",
			"An object with this field already exists")
		return
	}
	f.users[login] = true
	writeJSON(w, map[string]any{"id": "usr-" + login})
}

func (f *fakeOrg) searchGroups(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := r.URL.Query().Get("q")
	if f.groups[name] {
		writeJSON(w, []map[string]any{{
			"id":      "grp-" + name,
			"profile": map[string]any{"name": name},
		}})
		return
	}
	writeJSON(w, []map[string]any{})
}

func (f *fakeOrg) createGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := profileField(r, "name")
	if f.failGroups[name] {
		apiError(w, http.StatusInternalServerError,
			"E0000009", "Internal server error")
		return
	}
	if f.groups[name] {
		apiError(w, http.StatusBadRequest, "E0000038",
			"An object with this field already exists")
		return
	}
	f.groups[name] = true
	writeJSON(w, map[string]any{"id": "grp-" + name})
}

func (f *fakeOrg) issueToken(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls++
	writeJSON(w, map[string]any{
		"access_token": "gov-token",
		"token_type":   "Bearer",
		"expires_in":   3600,
	})
}

func (f *fakeOrg) searchCampaigns(
	w http.ResponseWriter, r *http.Request,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.governanceDisabled {
		apiError(w, http.StatusNotFound, "E0000007",
			"Not found: /governance/api/v1/campaigns")
		return
	}
	if f.forbidCampaigns {
		apiError(w, http.StatusForbidden, "E0000006",
			"You do not have permission to perform the requested action")
		return
	}
	name := quotedValue(r.URL.Query().Get("filter"))
	if f.campaigns[name] {
		writeJSON(w, map[string]any{
			"data": []map[string]any{
				{"id": "cam-" + name, "name": name},
			},
		})
		return
	}
	writeJSON(w, map[string]any{"data": []map[string]any{}})
}

func (f *fakeOrg) createCampaign(
	w http.ResponseWriter, r *http.Request,
) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	name, _ := body["name"].(string)
	f.campaigns[name] = true
	writeJSON(w, map[string]any{"id": "cam-1", "name": name})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, status int, code, summary string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"errorCode":    code,
		"errorSummary": summary,
	})
}

func quotedValue(s string) string {
	m := quoted.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return m[1]
}

func profileField(r *http.Request, field string) string {
	var body struct {
		Profile map[string]any `json:"profile"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	v, _ := body.Profile[field].(string)
	return v
}

func orgConfig(f *fakeOrg) *api.OrgConfig {
	return &api.OrgConfig{
		OrgURL:   f.srv.URL,
		APIToken: "test-token",
	}
}

// runScript drives an engine-managed run to completion and returns the
// events in emission order
func runScript(
	t *testing.T, id api.ScriptID, cfg *api.OrgConfig,
	inputs api.Inputs,
) []api.LogEvent {
	t.Helper()
	registry, err := scripts.NewRegistry(5 * time.Second)
	require.NoError(t, err)
	eng := engine.New(registry, config.NewDefaultConfig())

	events, err := eng.Run(context.Background(), &api.RunRequest{
		ScriptID: id,
		Config:   cfg,
		Inputs:   inputs,
	})
	require.NoError(t, err)

	var all []api.LogEvent
	for ev := range events {
		all = append(all, ev)
	}
	require.NotEmpty(t, all)
	return all
}

// registryMustReject asserts the engine refuses to start the script
// because the config lacks the OAuth credential bundle
func registryMustReject(
	t *testing.T, id api.ScriptID, cfg *api.OrgConfig,
) {
	t.Helper()
	registry, err := scripts.NewRegistry(5 * time.Second)
	require.NoError(t, err)
	eng := engine.New(registry, config.NewDefaultConfig())

	_, err = eng.Run(context.Background(), &api.RunRequest{
		ScriptID: id,
		Config:   cfg,
	})
	require.ErrorIs(t, err, api.ErrMissingOAuth)
}

// terminal asserts the run terminated exactly once, as its final event
func terminal(t *testing.T, events []api.LogEvent) api.LogEvent {
	t.Helper()
	doneCount := 0
	for _, ev := range events {
		if ev.Done {
			doneCount++
		}
	}
	require.Equal(t, 1, doneCount, "expected exactly one terminal event")
	last := events[len(events)-1]
	require.True(t, last.Done, "terminal event must be last")
	require.NotNil(t, last.Result)
	return last
}

func dataInt(t *testing.T, res *api.StepResult, key string) int {
	t.Helper()
	v, ok := res.Data[key]
	require.True(t, ok, "missing data key %q", key)
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		t.Fatalf("data key %q has type %T", key, v)
		return 0
	}
}
