package dishbook

import (
	"time"

	"github.com/foodielens/dishbook/internal/domain"
)

// SubmissionResult is returned for an accepted submission.
type SubmissionResult struct {
	Record domain.Record `json:"record"`
}

// ErrorResponse is the body of every failed API call. Asset is set when the
// photo was stored but its record was not; pass it back in a ResumeRequest.
type ErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
	Asset  string   `json:"asset,omitempty"`
}

// ResumeRequest appends a record for an asset that is already stored. Asset
// is in the "<content hash>@<location>" form.
type ResumeRequest struct {
	domain.Fields
	Asset string `json:"asset"`
}

// Event is published on the records channel and relayed to realtime clients.
type Event struct {
	Type      string        `json:"type"`
	Record    domain.Record `json:"record"`
	Timestamp time.Time     `json:"timestamp"`
}
