package sources

import (
	"context"
	"errors"
	"fmt"

	"kpiboard/internal/core"
)

// Ports for inbound data adapters.
type (
	// RecordSource returns every record of a named table.
	RecordSource interface {
		FetchRecords(ctx context.Context, table string) ([]core.Record, error)
	}
)

var (
	// ErrMissingCredentials is returned when no access token is configured.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrUnexpectedStatus is returned for any non-200 response.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// StatusError carries the status code and body text of a failed request.
type StatusError struct {
	Table      string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %v %d - %s", e.Table, ErrUnexpectedStatus, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
