package entity

import "time"

// WorkRecord is one form slot's entry.
type WorkRecord struct {
	Slot          int     `json:"slot"`
	Customer      string  `json:"customer"`
	CustomerOther string  `json:"customer_other"` // only meaningful when Customer == CustomerOther
	JobType       string  `json:"job_type"`       // empty when Customer == CustomerMisc
	JobNumber     string  `json:"job_number"`     // upper-cased at intake
	Hours         float64 `json:"hours"`
}

// IsComplete reports whether the record is eligible for submission: a real
// customer, a real job type (miscellaneous work is never categorized, so
// 雑務 passes without one), a job number, and positive hours.
//
// A record with Customer == CustomerOther but a blank CustomerOther still
// counts as "customer set"; the effective customer name written downstream is
// then empty. That matches the permissive source behavior and is deliberately
// not tightened here.
func (r WorkRecord) IsComplete() bool {
	if r.Customer == SentinelChoose || r.Customer == "" {
		return false
	}
	if r.JobType == SentinelChoose {
		return false
	}
	if r.JobType == "" && r.Customer != CustomerMisc {
		return false
	}
	return r.JobNumber != "" && r.Hours > 0
}

// EffectiveCustomer is the customer name written to the sheet.
func (r WorkRecord) EffectiveCustomer() string {
	if r.Customer == CustomerOther {
		return r.CustomerOther
	}
	return r.Customer
}

// EffectiveJobType is the job type written to the sheet. Miscellaneous work
// always gets an empty job-type column.
func (r WorkRecord) EffectiveJobType() string {
	if r.Customer == CustomerMisc {
		return ""
	}
	return r.JobType
}

// SubmissionBatch is the ordered set of complete records produced by one
// submit action, with the session-level date and worker name.
type SubmissionBatch struct {
	ID         string       `json:"id"` // idempotency key, one per submit attempt
	Department string       `json:"department"`
	WorkDate   string       `json:"work_date"`
	Worker     string       `json:"worker"`
	Records    []WorkRecord `json:"records"`
}

// Submission is the journal entry persisted for every submit attempt.
type Submission struct {
	ID           string    `json:"id"`
	Department   string    `json:"department"`
	WorkDate     string    `json:"work_date"`
	Worker       string    `json:"worker"`
	RowCount     int       `json:"row_count"`
	TotalHours   float64   `json:"total_hours"`
	AutoHours    float64   `json:"auto_hours"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
