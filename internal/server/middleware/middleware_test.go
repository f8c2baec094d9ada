package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/ratelimit"
	"github.com/mamadbah2/farmhub/internal/service/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func mustToken(t *testing.T, tokens *auth.Tokens, role models.Role, farmerID string) string {
	t.Helper()
	signed, _, err := tokens.Issue(models.User{ID: "u-" + string(role), Email: "x@y.co", Role: role, FarmerID: farmerID})
	require.NoError(t, err)
	return signed
}

func protectedEngine(tokens *auth.Tokens, roles ...models.Role) *gin.Engine {
	r := gin.New()
	r.GET("/private", Authenticate(tokens), RequireRole(roles...), func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID})
	})
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)
	r := protectedEngine(tokens, models.RoleAdmin, models.RoleManager)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
		{"wrong role", "Bearer " + mustToken(t, tokens, models.RoleFarmer, "f1"), http.StatusForbidden},
		{"allowed", "Bearer " + mustToken(t, tokens, models.RoleManager, ""), http.StatusOK},
		{"scheme is case insensitive", "bearer " + mustToken(t, tokens, models.RoleAdmin, ""), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, do(r, req).Code)
		})
	}
}

func TestRequireRole_WithoutAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/x", RequireRole(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestPrincipal_CanAccessFarmer(t *testing.T) {
	assert.True(t, Principal{Role: models.RoleAdmin}.CanAccessFarmer("f1"))
	assert.True(t, Principal{Role: models.RoleManager}.CanAccessFarmer("f1"))
	assert.True(t, Principal{Role: models.RoleFarmer, FarmerID: "f1"}.CanAccessFarmer("f1"))
	assert.False(t, Principal{Role: models.RoleFarmer, FarmerID: "f1"}.CanAccessFarmer("f2"))
	assert.False(t, Principal{Role: models.RoleFarmer}.CanAccessFarmer(""))
}

type fakeLimiter struct {
	res *ratelimit.Result
	err error
	key string
}

func (f *fakeLimiter) Allow(_ context.Context, key string, _ float64, _ int) (*ratelimit.Result, error) {
	f.key = key
	return f.res, f.err
}

func limitedEngine(l ratelimit.Limiter) *gin.Engine {
	r := gin.New()
	r.POST("/login", RateLimit(l, "login", 1, 5, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit(t *testing.T) {
	allow := &fakeLimiter{res: &ratelimit.Result{Allowed: true, Limit: 5, Remaining: 4}}
	w := do(limitedEngine(allow), httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, allow.key, "login:")

	deny := &fakeLimiter{res: &ratelimit.Result{Allowed: false, Limit: 5, RetryAfter: 2500 * time.Millisecond}}
	w = do(limitedEngine(deny), httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	broken := &fakeLimiter{err: errors.New("redis down")}
	w := do(limitedEngine(broken), httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := gin.New()
	r.Use(m.Handler())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	do(r, httptest.NewRequest(http.MethodGet, "/items/1", nil))
	do(r, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	families, err := reg.Gather()
	require.NoError(t, err)

	routes := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "farmhub_http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "route" {
					routes[l.GetValue()] += metric.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 1.0, routes["/items/:id"])
	assert.Equal(t, 1.0, routes["unmatched"])
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, httptest.NewRequest(http.MethodGet, "/ping", nil))

	entries := logs.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "/ping", entries[0].ContextMap()["path"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
}
