package server

import (
	"context"

	"github.com/preston-bernstein/match-overlay/internal/hostloop"
)

// HostLoop is the ticking behavior the server drives.
type HostLoop interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() hostloop.Status
}
