package middlewares

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	GetByIDFn func(ctx context.Context, id string) (user.User, error)
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	return f.GetByIDFn(ctx, id)
}

func usersWith(list ...user.User) *fakeUsers {
	return &fakeUsers{GetByIDFn: func(_ context.Context, id string) (user.User, error) {
		for _, u := range list {
			if u.ID == id {
				return u, nil
			}
		}
		return user.User{}, user.ErrNotFound
	}}
}

func newManager(t *testing.T) *auth.Manager {
	t.Helper()
	m, err := auth.NewManager([]byte("test-secret-test-secret-test-secret"), time.Hour, "taskhub")
	require.NoError(t, err)
	return m
}

func protectedRouter(mw *AuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	handlers := append([]gin.HandlerFunc{mw.RequireAuth()}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		fromCtx, _ := actorctx.ActorFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": actor.ID, "role": actor.Role, "ctxId": fromCtx.ID})
	})
	r.GET("/p", handlers...)

	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth(t *testing.T) {
	jwtm := newManager(t)

	active := user.User{ID: "u1", Role: user.RoleUser, IsActive: true}
	inactive := user.User{ID: "u2", Role: user.RoleUser, IsActive: false}
	// token says user, store says admin
	promoted := user.User{ID: "u3", Role: user.RoleAdmin, IsActive: true}

	r := protectedRouter(NewAuthMiddleware(jwtm, usersWith(active, inactive, promoted), nil))

	issue := func(id string, role user.Role) string {
		tok, _, err := jwtm.Issue(id, role)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantRole   string
	}{
		{"no header", "", http.StatusUnauthorized, ""},
		{"garbage token", "not.a.jwt", http.StatusUnauthorized, ""},
		{"active user", issue("u1", user.RoleUser), http.StatusOK, "user"},
		{"inactive user", issue("u2", user.RoleUser), http.StatusUnauthorized, ""},
		{"deleted user", issue("gone", user.RoleUser), http.StatusUnauthorized, ""},
		{"stored role wins", issue("u3", user.RoleUser), http.StatusOK, "admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, tt.token)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decode(t, w)
			if tt.wantStatus == http.StatusOK {
				require.Equal(t, tt.wantRole, body["role"])
				require.Equal(t, body["id"], body["ctxId"])
				return
			}
			require.Equal(t, "error", body["status"])
			require.NotEmpty(t, body["message"])
		})
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	old, err := auth.NewManager([]byte("test-secret-test-secret-test-secret"), time.Hour, "taskhub",
		auth.WithClock(func() time.Time { return past }))
	require.NoError(t, err)

	tok, _, err := old.Issue("u1", user.RoleUser)
	require.NoError(t, err)

	r := protectedRouter(NewAuthMiddleware(newManager(t), usersWith(user.User{ID: "u1", Role: user.RoleUser, IsActive: true}), nil))
	w := doGet(r, tok)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Invalid or expired token", decode(t, w)["message"])
}

func TestRequireAuthStoreFailureIs500(t *testing.T) {
	jwtm := newManager(t)
	users := &fakeUsers{GetByIDFn: func(context.Context, string) (user.User, error) {
		return user.User{}, errors.New("db down")
	}}

	tok, _, err := jwtm.Issue("u1", user.RoleUser)
	require.NoError(t, err)

	w := doGet(protectedRouter(NewAuthMiddleware(jwtm, users, nil)), tok)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), "db down")
}

func TestRestrictTo(t *testing.T) {
	jwtm := newManager(t)
	admin := user.User{ID: "a1", Role: user.RoleAdmin, IsActive: true}
	plain := user.User{ID: "u1", Role: user.RoleUser, IsActive: true}

	mw := NewAuthMiddleware(jwtm, usersWith(admin, plain), nil)
	r := protectedRouter(mw, mw.RestrictTo(user.RoleAdmin))

	adminTok, _, _ := jwtm.Issue(admin.ID, admin.Role)
	userTok, _, _ := jwtm.Issue(plain.ID, plain.Role)

	require.Equal(t, http.StatusOK, doGet(r, adminTok).Code)
	require.Equal(t, http.StatusForbidden, doGet(r, userTok).Code)
	require.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
}

func TestRestrictToWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mw := NewAuthMiddleware(newManager(t), usersWith(), nil)

	r := gin.New()
	r.GET("/p", mw.RestrictTo(user.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := bearerToken(tt.header)
		require.Equal(t, tt.ok, ok, tt.header)
		require.Equal(t, tt.want, got, tt.header)
	}
}
