// Package auth is the single authentication capability shared by the admin
// portal and the publisher site.  Handlers and middleware only see the
// Verifier interface; JWT is the production implementation and
// authtest.Static the test double.
package auth

import (
	"errors"

	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// ErrInvalidToken is returned for malformed, expired or wrongly signed tokens.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the authenticated caller.
type Principal struct {
	UserID uint64
	Role   string
}

// IsOrganizer reports whether the caller administers book fairs.
func (p Principal) IsOrganizer() bool { return p.Role == model.RoleOrganizer }

// Verifier turns a bearer token into a Principal.
type Verifier interface {
	Verify(raw string) (Principal, error)
}
