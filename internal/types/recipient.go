// Package types provides type definitions for records shared across the
// certsender pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Recipient is the unified record produced by reconciliation: one spreadsheet
// row joined against the certificate directory.
type Recipient struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	RawPhone  string `json:"raw_phone"`
	Phone     string `json:"phone"` // formatted, digits only
	Key       string `json:"key"`   // normalized join key, never displayed
	FilePath  string `json:"file_path,omitempty"`
	Found     bool   `json:"found"`
	Display   string `json:"display"`
	Selected  bool   `json:"selected"`
}

// OutcomeStatus tags the result of one delivery attempt.
type OutcomeStatus string

const (
	StatusSent      OutcomeStatus = "SENT"
	StatusNoFile    OutcomeStatus = "NO_FILE"
	StatusSendError OutcomeStatus = "SEND_ERROR"
)

// Outcome records what happened to one recipient during a delivery run.
type Outcome struct {
	Recipient Recipient     `json:"recipient"`
	Status    OutcomeStatus `json:"status"`
	Detail    string        `json:"detail,omitempty"`
}

// Delivered reports whether the outcome counts toward the sent set.
func (o Outcome) Delivered() bool {
	return o.Status == StatusSent
}

// StatusTag returns the status string written to reports, including the
// error detail for failed sends.
func (o Outcome) StatusTag() string {
	if o.Status == StatusSendError && o.Detail != "" {
		detail := o.Detail
		if len(detail) > 50 {
			detail = detail[:50]
		}
		return string(o.Status) + ": " + detail
	}
	return string(o.Status)
}
