package services

import (
	"errors"
	"fmt"

	"github.com/nexconsult/pncp-vagas/internal/pncp"
)

// ErrRebuildInProgress is returned when a snapshot rebuild is already running.
var ErrRebuildInProgress = errors.New("snapshot rebuild already in progress")

// ErrSuperseded is returned by a session run replaced by a newer one. It
// matches pncp.ErrCancelled too.
var ErrSuperseded = fmt.Errorf("query superseded: %w", pncp.ErrCancelled)

// InvalidRequestError reports a query parameter the services cannot accept.
type InvalidRequestError struct {
	Field   string
	Value   string
	Message string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Message)
}
