package domain

type CorrectionStatus string

const (
	CorrectionPending  CorrectionStatus = "pending"
	CorrectionApproved CorrectionStatus = "approved"
	CorrectionRejected CorrectionStatus = "rejected"
)

// ParseCorrectionFilter accepts "" (all) or one of the three statuses.
func ParseCorrectionFilter(raw string) (CorrectionStatus, error) {
	switch status := CorrectionStatus(raw); status {
	case "", CorrectionPending, CorrectionApproved, CorrectionRejected:
		return status, nil
	default:
		return "", NewInputError("status", "알 수 없는 상태 필터입니다: "+raw)
	}
}

type Correction struct {
	ID                string           `json:"id"`
	Status            CorrectionStatus `json:"status"`
	OriginalQuestion  string           `json:"original_question"`
	AIWrongAnswer     string           `json:"ai_wrong_answer"`
	UserCorrection    string           `json:"user_correction"`
	ExtractedFact     string           `json:"extracted_fact"`
	Confidence        float64          `json:"confidence"`
	SubmittedUsername string           `json:"submitted_username"`
	CreatedAt         Timestamp        `json:"created_at"`
	RejectReason      string           `json:"reject_reason,omitempty"`
}

type FeedbackStats struct {
	Pending    int `json:"pending"`
	Approved   int `json:"approved"`
	Rejected   int `json:"rejected"`
	Superseded int `json:"superseded"`
	Total      int `json:"total"`
}

type FeedbackList struct {
	Stats       FeedbackStats `json:"stats"`
	Corrections []Correction  `json:"corrections"`
}

type FeedbackSubmission struct {
	SessionID    string `json:"session_id"`
	MessageIndex int    `json:"message_index"`
	UserFeedback string `json:"user_feedback"`
}

type FeedbackReceipt struct {
	CorrectionID string `json:"correction_id"`
	Message      string `json:"message"`
}

// ActionResult is the generic {"message": ...} acknowledgement.
type ActionResult struct {
	Message string `json:"message"`
}
