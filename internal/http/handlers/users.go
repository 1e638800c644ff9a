package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/userhub/internal/actorctx"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/security"
	"github.com/gin-gonic/gin"
)

// UserStore is the credential store as the admin endpoints see it.
// *postgres.UsersRepo and *memory.UsersRepo both implement it.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, u user.User) (user.User, error)
	Update(ctx context.Context, u user.User) (user.User, error)
	Delete(ctx context.Context, id int64) error
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
}

type AdminUsersHandler struct {
	users  UserStore
	hasher PasswordHasher
	log    *slog.Logger
}

func NewAdminUsersHandler(users UserStore, hasher PasswordHasher, log *slog.Logger) *AdminUsersHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AdminUsersHandler{users: users, hasher: hasher, log: log}
}

func (h *AdminUsersHandler) Dashboard(ctx *gin.Context) {
	actor, _ := actorctx.From(ctx.Request.Context())

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not load dashboard")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Admin dashboard",
		"email":   actor.Email,
		"users":   len(users),
	})
}

func (h *AdminUsersHandler) List(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not list users")
		return
	}

	respondJSONWithETag(ctx, http.StatusOK, gin.H{
		"items": users,
		"count": len(users),
	})
}

func (h *AdminUsersHandler) Get(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not fetch user")
		return
	}

	respondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *AdminUsersHandler) Create(ctx *gin.Context) {
	var req user.CreateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		h.respondHashError(ctx, err, "Could not create user")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	created, err := h.users.Create(cctx, user.NewFromCreateRequest(req, hash))
	if err != nil {
		h.respondStoreError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// Update applies the non-empty fields of the request to the stored user.
func (h *AdminUsersHandler) Update(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	current, err := h.users.GetByID(cctx, id)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not update user")
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		current.Name = name
	}
	if req.Email != "" {
		current.Email = user.NormalizeEmail(req.Email)
	}
	if req.Role != "" {
		current.Role = req.Role
	}
	if req.Password != "" {
		hash, err := h.hasher.Hash(req.Password)
		if err != nil {
			h.respondHashError(ctx, err, "Could not update user")
			return
		}
		current.PasswordHash = hash
	}

	updated, err := h.users.Update(cctx, current)
	if err != nil {
		h.respondStoreError(ctx, err, "Could not update user")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

func (h *AdminUsersHandler) Delete(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		h.respondStoreError(ctx, err, "Could not delete user")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *AdminUsersHandler) respondStoreError(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	case errors.Is(err, user.ErrEmailTaken):
		RespondConflict(ctx, "email_taken", "Email is already in use.")
	default:
		h.log.ErrorContext(ctx.Request.Context(), "user store error", "err", err)
		RespondInternal(ctx, message)
	}
}

// respondHashError reports an over-long password as a validation failure.
// The binding tag counts characters while bcrypt's limit is in bytes.
func (h *AdminUsersHandler) respondHashError(ctx *gin.Context, err error, message string) {
	if errors.Is(err, security.ErrPasswordTooLong) {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "password",
			Rule:    "max",
			Param:   strconv.Itoa(security.MaxPasswordBytes),
			Message: "must be at most " + strconv.Itoa(security.MaxPasswordBytes) + " bytes",
		}}})
		return
	}

	h.log.ErrorContext(ctx.Request.Context(), "hash password", "err", err)
	RespondInternal(ctx, message)
}

func userIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(ctx, "Invalid user id", gin.H{"id": ctx.Param("id")})
		return 0, false
	}

	return id, true
}
