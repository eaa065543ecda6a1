// Package session persists conversation sessions and guards against overlapping turns.
package session

import (
	"context"
	"time"

	"mortgage-qualification-engine/internal/models"
)

// DefaultTurnLockTTL bounds how long a crashed turn can keep a session locked.
const DefaultTurnLockTTL = 90 * time.Second

// Store loads and saves sessions.
//
// AcquireTurn returns models.ErrTurnInProgress while another turn holds the session.
type Store interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, id string) error
	AcquireTurn(ctx context.Context, id string) error
	ReleaseTurn(ctx context.Context, id string) error
}
