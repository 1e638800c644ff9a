package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/gin-gonic/gin"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (auth.Session, error)
}

// LoginObserver is satisfied by *observability.Prom.
type LoginObserver interface {
	ObserveLogin(result string)
}

type AuthHandler struct {
	auth     Authenticator
	log      *slog.Logger
	observer LoginObserver
}

func NewAuthHandler(authenticator Authenticator, log *slog.Logger, observer LoginObserver) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{auth: authenticator, log: log, observer: observer}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=72"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Login exchanges credentials for a bearer token. A failed login is a bare
// 401 so the response never says which check failed.
func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for the store lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	session, err := h.auth.Login(cctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			h.observe("failed")
			ctx.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		h.observe("error")
		h.log.ErrorContext(ctx.Request.Context(), "login failed", "err", err)
		RespondInternal(ctx, "Could not complete login")
		return
	}

	h.observe("ok")

	ctx.JSON(http.StatusOK, LoginResponse{
		Token: session.Token,
		Email: session.Email,
		Role:  session.Role.String(),
	})
}

func (h *AuthHandler) observe(result string) {
	if h.observer != nil {
		h.observer.ObserveLogin(result)
	}
}
