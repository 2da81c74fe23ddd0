// Package authtest provides an in-memory auth.Verifier for handler tests.
package authtest

import (
	"github.com/iliyamo/bookfair-stall-reservation/internal/auth"
	"github.com/iliyamo/bookfair-stall-reservation/internal/model"
)

// Static accepts exactly the tokens it was given.
type Static map[string]auth.Principal

// Verify implements auth.Verifier.
func (s Static) Verify(raw string) (auth.Principal, error) {
	p, ok := s[raw]
	if !ok {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return p, nil
}

// Tokens used across handler tests.
const (
	PublisherToken = "publisher-token"
	OtherToken     = "other-publisher-token"
	OrganizerToken = "organizer-token"
)

// Default knows one organiser (user 1) and two publishers (users 2 and 3).
func Default() Static {
	return Static{
		OrganizerToken: {UserID: 1, Role: model.RoleOrganizer},
		PublisherToken: {UserID: 2, Role: model.RolePublisher},
		OtherToken:     {UserID: 3, Role: model.RolePublisher},
	}
}
