package core

import (
	"fmt"
	"maps"
	"net/http"
	"strings"
	"time"
)

// ParameterSet is one fully resolved provider request
type ParameterSet struct {
	Function string
	Symbol   string // empty for symbol-less functions
	Params   map[string]string
}

// ID identifies the parameter set in reports and logs
func (p ParameterSet) ID() string {
	if p.Symbol == "" {
		return p.Function
	}
	return p.Function + ":" + p.Symbol
}

// Query returns a copy of the request parameters.
func (p ParameterSet) Query() map[string]string {
	return maps.Clone(p.Params)
}

// Format is the serialized form of a record
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Table is a tabular row set with a header
type Table struct {
	Header []string
	Rows   [][]string
}

// Record is the normalized, storage-ready result of one fetch
type Record struct {
	Key    string
	Format Format
	JSON   []byte // FormatJSON
	Table  *Table // FormatCSV
}

// Request is the trigger input of a harvester run
type Request struct {
	Schedule string `json:"schedule"`
	Query    string `json:"query"`
}

// Failure describes one item that produced no record
type Failure struct {
	ID    string
	Kind  Kind
	Error error
}

// Report aggregates per-item outcomes of a run
type Report struct {
	RunID     string
	Harvester string
	Schedule  string
	StartedAt time.Time
	Keys      []string
	Failures  []Failure
}

// Succeeded returns the number of records written.
func (r *Report) Succeeded() int {
	return len(r.Keys)
}

// AddSuccess records a written key.
func (r *Report) AddSuccess(key string) {
	r.Keys = append(r.Keys, key)
}

// AddFailure records a failed item.
func (r *Report) AddFailure(id string, err error) {
	r.Failures = append(r.Failures, Failure{ID: id, Kind: KindOf(err), Error: err})
}

// FailedIDs returns the identifiers of failed items in run order.
func (r *Report) FailedIDs() []string {
	ids := make([]string, len(r.Failures))
	for i, f := range r.Failures {
		ids[i] = f.ID
	}
	return ids
}

// Status is the run summary handed back to the invoking framework
type Status struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// StatusFor summarizes a run outcome. runErr is the error returned by the run itself.
func StatusFor(r *Report, runErr error) Status {
	if runErr != nil {
		code := http.StatusInternalServerError
		if KindOf(runErr) == KindConfiguration {
			code = http.StatusBadRequest
		}
		return Status{StatusCode: code, Body: runErr.Error()}
	}
	if r == nil {
		return Status{StatusCode: http.StatusInternalServerError, Body: "no report"}
	}

	switch {
	case len(r.Failures) == 0:
		return Status{
			StatusCode: http.StatusOK,
			Body:       fmt.Sprintf("%d records successfully uploaded", r.Succeeded()),
		}
	case r.Succeeded() == 0:
		return Status{
			StatusCode: http.StatusInternalServerError,
			Body:       fmt.Sprintf("all %d items failed: %s", len(r.Failures), strings.Join(r.FailedIDs(), ", ")),
		}
	default:
		return Status{
			StatusCode: http.StatusMultiStatus,
			Body: fmt.Sprintf("%d records uploaded, %d failed: %s",
				r.Succeeded(), len(r.Failures), strings.Join(r.FailedIDs(), ", ")),
		}
	}
}
