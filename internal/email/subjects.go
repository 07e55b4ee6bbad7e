package email

const (
	subjectLeadAlertFmt = "New lead (score %d) for %s"
	leadAlertTitle      = "New high-scoring lead"
)
