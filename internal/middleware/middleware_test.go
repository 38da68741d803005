package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/taskgig-backoffice/internal/logging"
	"github.com/01moynul/taskgig-backoffice/internal/models"
	"github.com/01moynul/taskgig-backoffice/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubTokens map[string]int64

func (s stubTokens) Validate(token string) (int64, error) {
	if id, ok := s[token]; ok {
		return id, nil
	}
	return 0, errors.New("bad token")
}

type stubUsers map[int64]models.User

func (s stubUsers) FindByID(ctx context.Context, id int64) (models.User, error) {
	if id == 500 {
		return models.User{}, errors.New("connection refused")
	}
	u, ok := s[id]
	if !ok {
		return models.User{}, store.ErrUserNotFound
	}
	return u, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetInt64(UserIDKey), "role": c.GetString(UserRoleKey)})
	})
	r.GET("/protected", handlers...)
	return r
}

func get(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter(AuthMiddleware(stubTokens{"good": 7}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"invalid token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "Authorization", tt.header)
			assert.Equal(t, tt.status, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.status == http.StatusOK {
				assert.Equal(t, float64(7), body["userID"])
			} else {
				assert.Equal(t, false, body["success"])
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestStaffMiddleware(t *testing.T) {
	tokens := stubTokens{"admin": 1, "manager": 2, "client": 3, "ghost": 4, "broken": 500}
	users := stubUsers{
		1: {ID: 1, Role: models.RoleAdministrator},
		2: {ID: 2, Role: models.RoleManager},
		3: {ID: 3, Role: models.RoleClient},
	}
	r := newRouter(AuthMiddleware(tokens), StaffMiddleware(users))

	tests := []struct {
		token  string
		status int
	}{
		{"admin", http.StatusOK},
		{"manager", http.StatusOK},
		{"client", http.StatusForbidden},
		{"ghost", http.StatusUnauthorized},
		{"broken", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			w := get(r, "Authorization", "Bearer "+tt.token)
			assert.Equal(t, tt.status, w.Code)
		})
	}

	w := get(r, "Authorization", "Bearer manager")
	assert.Contains(t, w.Body.String(), `"role":"manager"`)
}

func TestStaffMiddleware_RequiresAuthFirst(t *testing.T) {
	r := newRouter(StaffMiddleware(stubUsers{}))
	assert.Equal(t, http.StatusUnauthorized, get(r, "", "").Code)
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(RequestLogger(logging.New(&buf, "info")))

	w := get(r, "", "")
	require.Equal(t, http.StatusOK, w.Code)
	generated := w.Header().Get(requestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), generated)
	assert.Contains(t, buf.String(), `"path":"/protected"`)

	incoming := uuid.NewString()
	w = get(r, requestIDHeader, incoming)
	assert.Equal(t, incoming, w.Header().Get(requestIDHeader))

	w = get(r, requestIDHeader, "<script>")
	assert.NotEqual(t, "<script>", w.Header().Get(requestIDHeader))
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	r := newRouter(AuthMiddleware(stubTokens{"a": 1, "b": 2}), limiter.Middleware())

	assert.Equal(t, http.StatusOK, get(r, "Authorization", "Bearer a").Code)
	assert.Equal(t, http.StatusOK, get(r, "Authorization", "Bearer a").Code)

	w := get(r, "Authorization", "Bearer a")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)

	// Buckets are per user.
	assert.Equal(t, http.StatusOK, get(r, "Authorization", "Bearer b").Code)
}

func TestRateLimiter_CleanupStaleDropsIdleBuckets(t *testing.T) {
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	clock := base
	limiter := NewRateLimiter(10, 20)
	limiter.now = func() time.Time { return clock }
	r := newRouter(limiter.Middleware())

	for i := 0; i < 500; i++ {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:4321", i/256, i%256)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}
	require.Len(t, limiter.limiters, 500)

	// One caller stays active after the others go quiet.
	clock = base.Add(LimiterTTL / 2)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.RemoteAddr = "10.0.0.0:4321"
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Zero(t, limiter.CleanupStale(base.Add(LimiterTTL)), "nothing is idle for a full TTL yet")

	removed := limiter.CleanupStale(base.Add(LimiterTTL + time.Minute))
	assert.Equal(t, 499, removed)
	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "ip:10.0.0.0")
}

func TestRateLimiter_TTLCoversRefill(t *testing.T) {
	assert.Equal(t, LimiterTTL, NewRateLimiter(10, 20).ttl)
	// A burst of 1000 at 0.25/s takes 4000s to refill.
	assert.Equal(t, 40000*time.Second, NewRateLimiter(0.25, 1000).ttl)
}

func TestRateLimiter_StartStop(t *testing.T) {
	limiter := NewRateLimiter(10, 20)
	limiter.Start()
	limiter.Start()
	limiter.Stop()
	limiter.Stop()
	assert.Nil(t, limiter.stop)
}
