// Package session stages registrations between step 1 and step 2.
//
// A session is visible from Create until it is taken, deleted or expires.
// Once gone it never comes back, except through Restore by the caller that
// took it.
package session

import (
	"context"
	"errors"

	"github.com/jwalitptl/doctor-directory-api/internal/model"
)

var (
	ErrNotFound = errors.New("registration session not found")
	ErrExists   = errors.New("registration session already exists")
)

// Store is a keyed, TTL-bound staging area for registration sessions.
// Implementations must be safe for concurrent use.
type Store interface {
	Create(ctx context.Context, s *model.RegistrationSession) error
	Get(ctx context.Context, tempID string) (*model.RegistrationSession, error)
	// AttachImage records an uploaded image path on a live session.
	AttachImage(ctx context.Context, tempID, path string) error
	// Take atomically removes and returns the session. At most one caller
	// succeeds for a given tempID.
	Take(ctx context.Context, tempID string) (*model.RegistrationSession, error)
	// Restore puts back a session obtained from Take, keeping its original expiry.
	Restore(ctx context.Context, s *model.RegistrationSession) error
	Delete(ctx context.Context, tempID string) error
	// DeleteExpired removes expired sessions and reports how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
	List(ctx context.Context) ([]*model.RegistrationSession, error)
}
