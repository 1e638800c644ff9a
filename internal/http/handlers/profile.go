package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

type ProfileStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
}

// ProfileHandler serves the caller's own record. The record is always
// resolved from the authenticated actor; ids in the request are ignored.
type ProfileHandler struct {
	users ProfileStore
	log   *slog.Logger
}

func NewProfileHandler(users ProfileStore, log *slog.Logger) *ProfileHandler {
	if log == nil {
		log = slog.Default()
	}

	return &ProfileHandler{users: users, log: log}
}

func (h *ProfileHandler) Get(ctx *gin.Context) {
	actor, ok := actorctx.From(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, actor.Email)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not fetch profile")
		return
	}

	respondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *ProfileHandler) Update(ctx *gin.Context) {
	actor, ok := actorctx.From(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	var req user.UpdateProfileRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	current, err := h.users.GetByEmail(cctx, actor.Email)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not update profile")
		return
	}

	current.Name = strings.TrimSpace(req.Name)
	if req.Email != "" {
		current.Email = user.NormalizeEmail(req.Email)
	}

	updated, err := h.users.Update(cctx, current)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not update profile")
		return
	}

	if updated.Email != actor.Email {
		h.log.InfoContext(ctx.Request.Context(), "profile email changed", "user_id", updated.ID)
	}

	ctx.JSON(http.StatusOK, updated)
}

// Data returns what the token says about the caller, without a store lookup.
func (h *ProfileHandler) Data(ctx *gin.Context) {
	actor, ok := actorctx.From(ctx.Request.Context())
	if !ok {
		RespondUnauthorized(ctx, "Missing identity")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User data",
		"email":   actor.Email,
		"role":    actor.Role,
	})
}

func (h *ProfileHandler) respondStoreError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email is already in use.")
	default:
		h.log.ErrorContext(ctx.Request.Context(), "profile store error", "err", err)
		RespondInternal(ctx, message)
	}
}
