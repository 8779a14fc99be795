package entity

// Sentinel values shared by every department form. The choose sentinel is
// always the first option of a select field and never a real data value.
const (
	SentinelChoose = "選択してください"

	// CustomerMisc marks work not tied to a job number. Records with this
	// customer carry no job type and the job number field holds a free-text
	// description of the work instead.
	CustomerMisc = "雑務"

	// CustomerOther requires a free-text customer name in CustomerOther.
	CustomerOther = "その他メーカー"
)

// Submission statuses recorded in the journal.
const (
	SubmissionStatusPending = "PENDING"
	SubmissionStatusWritten = "WRITTEN"
	SubmissionStatusFailed  = "FAILED"
)
