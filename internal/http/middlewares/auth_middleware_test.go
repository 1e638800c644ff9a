package middlewares_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeValidator knows two fixed tokens.
type fakeValidator struct {
	calls int
}

func (f *fakeValidator) Validate(token string) (*auth.Claims, error) {
	f.calls++
	switch token {
	case "admin-token":
		return &auth.Claims{Email: "admin@example.com", Role: user.RoleAdmin}, nil
	case "user-token":
		return &auth.Claims{Email: "user@example.com", Role: user.RoleUser}, nil
	}
	return nil, auth.ErrTokenInvalid
}

type denialRecorder struct {
	reasons []string
}

func (d *denialRecorder) ObserveDenial(reason string) {
	d.reasons = append(d.reasons, reason)
}

// newEngine mounts a handler that echoes the actor it finds in the context.
func newEngine(tokens middlewares.TokenValidator, denials middlewares.DenialObserver, handlerRan *bool) *gin.Engine {
	r := gin.New()
	mw := middlewares.NewAuthMiddleware(tokens, middlewares.DefaultPolicy(), denials)

	echo := func(c *gin.Context) {
		*handlerRan = true
		actor, ok := actorctx.From(c.Request.Context())
		if !ok {
			c.JSON(http.StatusOK, gin.H{"anonymous": true})
			return
		}
		c.JSON(http.StatusOK, gin.H{"email": actor.Email, "role": actor.Role})
	}

	g := r.Group("", mw.Authorize())
	g.POST("/auth/login", echo)
	g.GET("/admin/users", echo)
	g.GET("/admin/users/:id", echo)
	g.GET("/user/profile", echo)
	g.GET("/user/data", echo)
	g.GET("/unlisted", echo)

	return r
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		header      string
		wantStatus  int
		wantHandler bool
		wantReason  string
	}{
		{"public login without token", http.MethodPost, "/auth/login", "", http.StatusOK, true, ""},
		{"admin route no token", http.MethodGet, "/admin/users", "", http.StatusUnauthorized, false, "missing_token"},
		{"admin route wrong scheme", http.MethodGet, "/admin/users", "Basic YWRtaW46YWRtaW4=", http.StatusUnauthorized, false, "missing_token"},
		{"admin route empty bearer", http.MethodGet, "/admin/users", "Bearer   ", http.StatusUnauthorized, false, "missing_token"},
		{"admin route bad token", http.MethodGet, "/admin/users", "Bearer forged", http.StatusUnauthorized, false, "invalid_token"},
		{"admin route user token", http.MethodGet, "/admin/users", "Bearer user-token", http.StatusForbidden, false, "insufficient_role"},
		{"admin param route user token", http.MethodGet, "/admin/users/1", "Bearer user-token", http.StatusForbidden, false, "insufficient_role"},
		{"admin route admin token", http.MethodGet, "/admin/users", "Bearer admin-token", http.StatusOK, true, ""},
		{"lowercase scheme", http.MethodGet, "/admin/users", "bearer admin-token", http.StatusOK, true, ""},
		{"user route user token", http.MethodGet, "/user/profile", "Bearer user-token", http.StatusOK, true, ""},
		{"user route admin token", http.MethodGet, "/user/data", "Bearer admin-token", http.StatusOK, true, ""},
		{"user route no token", http.MethodGet, "/user/data", "", http.StatusUnauthorized, false, "missing_token"},
		{"route without rule", http.MethodGet, "/unlisted", "Bearer admin-token", http.StatusForbidden, false, "no_rule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ran := false
			denials := &denialRecorder{}
			r := newEngine(&fakeValidator{}, denials, &ran)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if ran != tt.wantHandler {
				t.Fatalf("handler ran = %v, want %v", ran, tt.wantHandler)
			}
			if tt.wantReason == "" && len(denials.reasons) != 0 {
				t.Fatalf("unexpected denials %v", denials.reasons)
			}
			if tt.wantReason != "" && (len(denials.reasons) != 1 || denials.reasons[0] != tt.wantReason) {
				t.Fatalf("denials = %v, want [%s]", denials.reasons, tt.wantReason)
			}
		})
	}
}

func TestAuthorize_PopulatesActorFromToken(t *testing.T) {
	ran := false
	r := newEngine(&fakeValidator{}, nil, &ran)

	req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	want := `{"email":"user@example.com","role":"USER"}`
	if w.Body.String() != want {
		t.Fatalf("body = %s, want %s", w.Body.String(), want)
	}
}

func TestAuthorize_PublicRouteSkipsValidation(t *testing.T) {
	ran := false
	v := &fakeValidator{}
	r := newEngine(v, nil, &ran)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || v.calls != 0 {
		t.Fatalf("status = %d, validator calls = %d", w.Code, v.calls)
	}
	if w.Body.String() != `{"anonymous":true}` {
		t.Fatalf("public route must not carry an actor, got %s", w.Body.String())
	}
}

func TestAuthorize_RealTokens(t *testing.T) {
	m := auth.NewManager("middleware-test-secret-0123456789abcdef", time.Minute)
	adminToken, _, err := m.Issue("admin@example.com", user.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}

	ran := false
	r := newEngine(m, nil, &ran)

	req := httptest.NewRequest(http.MethodGet, "/admin/users/7", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/users/7", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken+"x")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("tampered token: status = %d, want 401", w.Code)
	}
}
