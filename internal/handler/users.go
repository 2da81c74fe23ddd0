package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// UserDirectory lists accounts and switches sign-in on or off.
type UserDirectory interface {
	List(ctx context.Context, role string) ([]model.User, error)
	SetActive(ctx context.Context, id uint64, active bool) error
}

// TokenRevoker drops every refresh token of a user.
type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type accountResp struct {
	userPart
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ListUsers handles GET /v1/admin/users?role=PUBLISHER.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	role := strings.ToUpper(strings.TrimSpace(c.QueryParam("role")))
	if role != "" && role != model.RoleOrganizer && role != model.RolePublisher {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}
	ctx, cancel := timeout(c)
	defer cancel()
	users, err := h.Users.List(ctx, role)
	if err != nil {
		return fail(c, err)
	}
	out := make([]accountResp, len(users))
	for i, u := range users {
		out[i] = accountResp{
			userPart:  userPart{ID: u.ID, Email: u.Email, Role: u.Role},
			Active:    u.IsActive,
			CreatedAt: u.CreatedAt,
		}
	}
	return c.JSON(http.StatusOK, out)
}

// SetUserActive handles PATCH /v1/admin/users/:id with {"active": bool}.
// Deactivating an account also revokes its refresh tokens; access tokens
// already issued run until they expire.
func (h *AdminHandler) SetUserActive(c echo.Context) error {
	p, ok := principal(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active is required"})
	}
	if id == p.UserID && !*req.Active {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot deactivate yourself"})
	}

	ctx, cancel := timeout(c)
	defer cancel()
	err := h.Users.SetActive(ctx, id, *req.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err != nil {
		return fail(c, err)
	}
	if !*req.Active && h.Tokens != nil {
		if err := h.Tokens.RevokeAllForUser(ctx, id); err != nil {
			return fail(c, err)
		}
	}
	log.WithFields(log.Fields{"user_id": id, "active": *req.Active, "by": p.UserID}).Info("account updated")
	return c.JSON(http.StatusOK, echo.Map{"id": id, "active": *req.Active})
}
