package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuan28064/Hono-demo/internal/auth"
	"github.com/tuan28064/Hono-demo/internal/core"
	"github.com/tuan28064/Hono-demo/internal/core/memory"
)

type fixture struct {
	users    *memory.Users
	products *memory.Products
	router   chi.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	seed, err := core.DefaultSeed()
	require.NoError(t, err)

	f := &fixture{
		users:    memory.NewUsers(seed.Users),
		products: memory.NewProducts(seed.Products),
	}

	users := NewUsers(f.users)
	products := NewProducts(f.products)
	svc := NewService("honodemo", "/api", time.Now().Add(-time.Minute))
	protected := NewProtected(f.users, f.products)

	r := chi.NewRouter()
	r.Get("/", Handle(svc.Index))
	r.Get("/users", Handle(users.List))
	r.Post("/users", Handle(users.Create))
	r.Get("/users/{id}", Handle(users.Get))
	r.Put("/users/{id}", Handle(users.Update))
	r.Delete("/users/{id}", Handle(users.Delete))
	r.Get("/search", Handle(users.Search))
	r.Get("/hello/{name}", Handle(svc.Hello))
	r.Get("/error", Handle(svc.Fail))
	r.Get("/status", Handle(svc.Status))
	r.Get("/products", Handle(products.List))
	r.Get("/products/{id}", Handle(products.Get))
	r.Get("/profile", Handle(protected.Profile))
	r.Get("/dashboard", Handle(protected.Dashboard))
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestUsersList(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(3), body["total"])
	assert.Len(t, body["data"], 3)
}

func TestUsersCreateThenFetch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/users", `{"name":"Dana","email":"dana@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, msgUserCreated, body["message"])
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(4), data["id"])

	rec = f.do(http.MethodGet, "/users/4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "dana@example.com", fetched["email"])
}

func TestUsersCreateFailures(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"MissingEmail", `{"name":"Dana"}`, core.ErrMissingFields.Error()},
		{"BlankName", `{"name":"  ","email":"x@example.com"}`, core.ErrMissingFields.Error()},
		{"MalformedJSON", `{"name":`, msgInvalidBody},
		{"TrailingData", `{"name":"x","email":"x@y"} trailing`, msgInvalidBody},
		{"TwoObjects", `{"name":"x","email":"x@y"}{}`, msgInvalidBody},
		{"DuplicateEmail", `{"name":"Z","email":"zhangsan@example.com"}`, core.ErrDuplicateEmail.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(http.MethodPost, "/users", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])

			count, err := f.users.Count(t.Context())
			require.NoError(t, err)
			assert.Equal(t, 3, count, "no row may be inserted")
		})
	}
}

func TestUsersGetNotFound(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/users/99", "/users/abc", "/users/-1"} {
		rec := f.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Equal(t, msgUserNotFound, decode(t, rec)["message"], path)
	}
}

func TestUsersUpdate(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPut, "/users/1", `{"name":"Zhang"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "Zhang", data["name"])
	assert.Equal(t, "zhangsan@example.com", data["email"])

	rec = f.do(http.MethodPut, "/users/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, core.ErrNoFields.Error(), decode(t, rec)["message"])

	rec = f.do(http.MethodPut, "/users/2", `{"email":"zhangsan@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPut, "/users/99", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown id is reported before a malformed body.
	rec = f.do(http.MethodPut, "/users/99", `not json`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPut, "/users/1", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUsersDelete(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodDelete, "/users/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	count, _ := f.users.Count(t.Context())
	assert.Equal(t, 3, count)

	rec = f.do(http.MethodDelete, "/users/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, msgUserDeleted, decode(t, rec)["message"])
	count, _ = f.users.Count(t.Context())
	assert.Equal(t, 2, count)

	rec = f.do(http.MethodGet, "/users/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		path    string
		results int
		total   float64
	}{
		{"EmptyQueryMatchesAll", "/search", 3, 3},
		{"LimitCapsResults", "/search?q=example.com&limit=2", 2, 3},
		{"InvalidLimitUsesDefault", "/search?q=example.com&limit=abc", 3, 3},
		{"NoMatches", "/search?q=nobody", 0, 0},
		{"CaseSensitive", "/search?q=ZHANG", 0, 0},
		{"NameMatch", "/search?q=Li", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, true, body["success"])
			data := body["data"].(map[string]any)
			results, isList := data["results"].([]any)
			require.True(t, isList, "results must be a list, never null")
			assert.Len(t, results, tt.results)
			assert.Equal(t, tt.total, data["total"])
		})
	}
}

func TestProducts(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode(t, rec)["total"])

	rec = f.do(http.MethodGet, "/products/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, "iPhone 15", data["name"])
	assert.Equal(t, float64(5999), data["price"])

	rec = f.do(http.MethodGet, "/products/42", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgProductNotFound, decode(t, rec)["message"])
}

func TestServiceEndpoints(t *testing.T) {
	f := newFixture(t)

	t.Run("Index", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, APIVersion, body["version"])
		assert.Contains(t, body["endpoints"], "users")
	})

	t.Run("Hello", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/hello/Gopher", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "Hello, Gopher!", body["message"])
		_, err := time.Parse(time.RFC3339Nano, body["timestamp"].(string))
		assert.NoError(t, err)
	})

	t.Run("ErrorCarriesFaultMessage", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/error", "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, ErrDemoFault.Error(), body["message"])
	})

	t.Run("Status", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/status", "")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.GreaterOrEqual(t, body["uptime"].(float64), 60.0)
	})
}

func TestProtectedHandlers(t *testing.T) {
	f := newFixture(t)

	t.Run("ProfileRequiresPrincipal", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/profile", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ProfileEchoesPrincipal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		p := auth.DefaultPrincipal
		req = req.WithContext(auth.WithPrincipal(req.Context(), &p))
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]any)
		assert.Equal(t, "admin", data["username"])
		assert.Equal(t, "administrator", data["role"])
	})

	t.Run("DashboardCountsCollections", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/dashboard", "")
		require.Equal(t, http.StatusOK, rec.Code)
		stats := decode(t, rec)["data"].(map[string]any)["stats"].(map[string]any)
		assert.Equal(t, float64(3), stats["users"])
		assert.Equal(t, float64(3), stats["products"])
	})
}
