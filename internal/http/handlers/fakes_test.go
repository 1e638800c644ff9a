package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

var errStoreDown = errors.New("store down")

// Fake repository implementing handlers.UserStore and handlers.ProfileStore

type fakeUsersRepo struct {
	getByIDFn    func(ctx context.Context, id int64) (user.User, error)
	getByEmailFn func(ctx context.Context, email string) (user.User, error)
	listFn       func(ctx context.Context) ([]user.User, error)
	createFn     func(ctx context.Context, u user.User) (user.User, error)
	updateFn     func(ctx context.Context, u user.User) (user.User, error)
	deleteFn     func(ctx context.Context, id int64) error
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	if f.getByIDFn != nil {
		return f.getByIDFn(ctx, id)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) List(ctx context.Context) ([]user.User, error) {
	if f.listFn != nil {
		return f.listFn(ctx)
	}

	return []user.User{}, nil
}

func (f *fakeUsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, u)
	}

	u.ID = 1
	return u, nil
}

func (f *fakeUsersRepo) Update(ctx context.Context, u user.User) (user.User, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, u)
	}

	return u, nil
}

func (f *fakeUsersRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}

	return nil
}

type fakeHasher struct {
	err error
}

func (f fakeHasher) Hash(plain string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if len(plain) > security.MaxPasswordBytes {
		return "", security.ErrPasswordTooLong
	}

	return "hashed:" + plain, nil
}

type fakeAuthenticator struct {
	loginFn func(ctx context.Context, email, password string) (auth.Session, error)
}

func (f *fakeAuthenticator) Login(ctx context.Context, email, password string) (auth.Session, error) {
	return f.loginFn(ctx, email, password)
}

type loginRecorder struct {
	results []string
}

func (r *loginRecorder) ObserveLogin(result string) {
	r.results = append(r.results, result)
}

// setupRouter mounts one handler, optionally behind a fake authenticated actor.

func setupRouter(method, path string, actor *actorctx.Actor, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	if actor != nil {
		a := *actor
		r.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), a))
			c.Next()
		})
	}

	r.Handle(method, path, h)

	return r
}

func doJSON(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
