package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohdi/cdimock/pkg/config"
	"github.com/cohdi/cdimock/pkg/logging"
)

const (
	cmPrefix = "/cluster_manager/cluster_autoscaler"
	fmPrefix = "/fabric_manager/api/v1"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// newTestHandler returns the full middleware-wrapped handler over a fresh
// fixture root.
func newTestHandler(t *testing.T, mutate ...func(*config.ServerConfig)) (http.Handler, string) {
	t.Helper()
	root := t.TempDir()
	cfg := config.DefaultServerConfig()
	cfg.FixtureRoot = root
	cfg.TLS.Disabled = true
	for _, m := range mutate {
		m(cfg)
	}
	srv, err := NewServer(cfg)
	require.NoError(t, err)
	return srv.Handler(), root
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "http://stub.test"+path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, data []byte) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal(data, &v), "body: %s", data)
	return v
}

func TestFixtureRoutes(t *testing.T) {
	t.Parallel()

	routes := []struct {
		name    string
		path    string
		fixture string
	}{
		{"node detail", cmPrefix + "/v3/tenants/t1/clusters/c1/machines/m-1", "machines/m-1/detail.json"},
		{"nodegroup list", cmPrefix + "/v2/tenants/t1/clusters/c1/nodegroups", "nodegroups/list.json"},
		{"nodegroup detail", cmPrefix + "/v2/tenants/t1/clusters/c1/nodegroups/ng-7", "nodegroups/ng-7/detail.json"},
		{"machine list", fmPrefix + "/machines", "machines/list.json"},
		{"machine", fmPrefix + "/machines/m-1", "machines/m-1/fm_get_response.json"},
		{"available resources", fmPrefix + "/machines/m-1/available-reserved-resources", "machines/m-1/available.json"},
	}

	for _, rt := range routes {
		t.Run(rt.name+" present", func(t *testing.T) {
			t.Parallel()
			h, root := newTestHandler(t)
			src := fmt.Sprintf(`{"source": %q, "data": {"items": [1, 2.5, "三"], "flag": false}}`, rt.fixture)
			writeFixture(t, root, rt.fixture, src)

			rec := do(t, h, http.MethodGet, rt.path)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if diff := cmp.Diff(decodeJSON(t, []byte(src)), decodeJSON(t, rec.Body.Bytes())); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})

		t.Run(rt.name+" absent", func(t *testing.T) {
			t.Parallel()
			h, _ := newTestHandler(t)

			rec := do(t, h, http.MethodGet, rt.path)

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, `{"error":"not found"}`, rec.Body.String())
		})
	}
}

func TestFixtureRoutes_MalformedFixtureIsServerError(t *testing.T) {
	t.Parallel()
	h, root := newTestHandler(t)
	writeFixture(t, root, "machines/list.json", `{"data":`)

	rec := do(t, h, http.MethodGet, fmPrefix+"/machines")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "malformed_fixture")
}

func TestFixtureRoutes_EmptyFixtureIsServerError(t *testing.T) {
	t.Parallel()
	h, root := newTestHandler(t)
	writeFixture(t, root, "machines/list.json", "")

	rec := do(t, h, http.MethodGet, fmPrefix+"/machines")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed_fixture")
}

func TestFixtureRoutes_TrailingSlashIsNotTheListRoute(t *testing.T) {
	t.Parallel()
	h, root := newTestHandler(t)
	writeFixture(t, root, "machines/list.json", `{"data":{"machines":[]}}`)

	rec := do(t, h, http.MethodGet, fmPrefix+"/machines/")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, `{"error":"not found"}`, rec.Body.String())
}

func TestStubRoutes(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, cmPrefix + "/v3/tenants/t1/clusters/c1/machines/m-1/actions/resize"},
		{http.MethodPost, cmPrefix + "/v3/tenants/x/clusters/y/machines/does-not-exist/actions/resize"},
		{http.MethodDelete, fmPrefix + "/machines/m-1/update"},
		{http.MethodDelete, fmPrefix + "/machines/does-not-exist/update"},
	}
	for _, p := range paths {
		rec := do(t, h, p.method, p.path)
		assert.Equal(t, http.StatusOK, rec.Code, "%s %s", p.method, p.path)
		assert.Equal(t, `{"status":"success"}`, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestTokenRoute(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	for _, realm := range []string{"master", "", "weird%20realm", "a.b.c", "%E2%9C%93"} {
		t.Run("realm="+realm, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/id_manager/realms/"+realm+"/protocol/openid-connect/token")

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Len(t, body, 9)
			assert.Equal(t, "Bearer", body["token_type"])
			assert.EqualValues(t, 300, body["expires_in"])
			for _, key := range []string{
				"access_token", "expires_in", "refresh_expires_in", "refresh_token", "token_type",
				"id_token", "not-before-policy", "session_state", "scope",
			} {
				assert.Contains(t, body, key)
			}
		})
	}
}

func TestTokenRoute_ConfiguredOverride(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t, func(c *config.ServerConfig) { c.Token.Scope = "openid" })

	rec := do(t, h, http.MethodPost, "/id_manager/realms/r/protocol/openid-connect/token")

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "openid", body["scope"])
	assert.Equal(t, "Bearer", body["token_type"])
}

func seedPool(t *testing.T, root, machine string, n int) string {
	t.Helper()
	for i := 0; i < n; i++ {
		writeFixture(t, root,
			fmt.Sprintf("machines/%s/fm_patch_response/r%03d.json", machine, i),
			fmt.Sprintf(`{"data":{"resource":%d}}`, i))
	}
	return filepath.Join(root, "machines", machine, "fm_patch_response")
}

func countJSON(t *testing.T, dir string) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	require.NoError(t, err)
	return len(matches)
}

func TestPatchRoute_DrainsPool(t *testing.T) {
	t.Parallel()
	const n = 3
	h, root := newTestHandler(t)
	incoming := seedPool(t, root, "m-1", n)
	path := fmPrefix + "/machines/m-1/update"

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		rec := do(t, h, http.MethodPatch, path)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		body := rec.Body.String()
		assert.False(t, seen[body], "resource returned twice: %s", body)
		seen[body] = true
		assert.Equal(t, i+1, countJSON(t, filepath.Join(incoming, "allocated")))
	}

	rec := do(t, h, http.MethodPatch, path)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t,
		fmt.Sprintf(`{"error":"no_available_resources","message":"No resources in '%s' left to allocate."}`, incoming),
		rec.Body.String())

	assert.Zero(t, countJSON(t, incoming))
	assert.Equal(t, n, countJSON(t, filepath.Join(incoming, "allocated")))
}

func TestPatchRoute_PoolsAreIndependent(t *testing.T) {
	t.Parallel()
	h, root := newTestHandler(t)
	seedPool(t, root, "m-1", 1)
	seedPool(t, root, "m-2", 1)

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPatch, fmPrefix+"/machines/m-1/update").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPatch, fmPrefix+"/machines/m-1/update").Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPatch, fmPrefix+"/machines/m-2/update").Code)
}

func TestPatchRoute_BlankResourceIsServerError(t *testing.T) {
	t.Parallel()
	h, root := newTestHandler(t)
	writeFixture(t, root, "machines/m-1/fm_patch_response/a.json", "   \n")
	incoming := filepath.Join(root, "machines", "m-1", "fm_patch_response")

	rec := do(t, h, http.MethodPatch, fmPrefix+"/machines/m-1/update")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "malformed_fixture")
	assert.Equal(t, 1, countJSON(t, incoming), "resource must stay in the pool")
	assert.Zero(t, countJSON(t, filepath.Join(incoming, "allocated")))
}

func TestPatchRoute_UnknownMachineIsExhausted(t *testing.T) {
	t.Parallel()
	h, root := newTestHandler(t)

	rec := do(t, h, http.MethodPatch, fmPrefix+"/machines/ghost/update")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no_available_resources")
	assert.DirExists(t, filepath.Join(root, "machines", "ghost", "fm_patch_response", "allocated"))
}

func TestPatchRoute_Concurrent(t *testing.T) {
	t.Parallel()
	const n = 16
	h, root := newTestHandler(t)
	incoming := seedPool(t, root, "m-1", n)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		bodies = make(map[string]int)
		misses int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := do(t, h, http.MethodPatch, fmPrefix+"/machines/m-1/update")
			mu.Lock()
			defer mu.Unlock()
			if rec.Code != http.StatusOK {
				misses++
				return
			}
			bodies[rec.Body.String()]++
		}()
	}
	wg.Wait()

	assert.Zero(t, misses)
	assert.Len(t, bodies, n, "each resource must be allocated exactly once")
	for body, count := range bodies {
		assert.Equal(t, 1, count, body)
	}
	assert.Zero(t, countJSON(t, incoming))
	assert.Equal(t, n, countJSON(t, filepath.Join(incoming, "allocated")))
}

func TestHealthRoute(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandler(t)

	rec := do(t, h, http.MethodGet, "/healthz")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "3f2b8a4e-0c57-4b8e-9a53-1d1f7a6f2c11")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "3f2b8a4e-0c57-4b8e-9a53-1d1f7a6f2c11", rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestRequestID_VisibleToHandlers(t *testing.T) {
	t.Parallel()
	var seen string
	h := withMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}), logging.Nop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, rec.Header().Get(RequestIDHeader), seen)
	assert.Empty(t, RequestID(context.Background()))
}
