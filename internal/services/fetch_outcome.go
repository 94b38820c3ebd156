package services

import (
	"context"
	"errors"

	"kpiboard/internal/core"
	"kpiboard/internal/sources"
)

// FetchStatus classifies how a dataset fetch ended.
type FetchStatus int

const (
	// Authenticated means the request was made and answered successfully.
	Authenticated FetchStatus = iota
	// Unauthenticated means no credentials were available, so nothing was requested.
	Unauthenticated
	// TransportError means the request failed or returned a non-success status.
	TransportError
)

func (s FetchStatus) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	case TransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// FetchOutcome is the result of fetching one table.
// Records is only populated when Status is Authenticated.
type FetchOutcome struct {
	Table   string
	Status  FetchStatus
	Records []core.Record
	Err     error
}

// Classify maps a source result onto a FetchOutcome.
func Classify(table string, records []core.Record, err error) FetchOutcome {
	switch {
	case err == nil:
		return FetchOutcome{Table: table, Status: Authenticated, Records: records}
	case errors.Is(err, sources.ErrMissingCredentials):
		return FetchOutcome{Table: table, Status: Unauthenticated, Err: err}
	default:
		return FetchOutcome{Table: table, Status: TransportError, Err: err}
	}
}

// fetchTable fetches one table. A nil source means no credentials were configured.
func fetchTable(ctx context.Context, src sources.RecordSource, table string) FetchOutcome {
	if src == nil {
		return Classify(table, nil, sources.ErrMissingCredentials)
	}
	records, err := src.FetchRecords(ctx, table)
	return Classify(table, records, err)
}
