package domain

import "time"

type ActivityKind string

const (
	ActivityFeedbackApproved ActivityKind = "feedback.approved"
	ActivityFeedbackRejected ActivityKind = "feedback.rejected"
	ActivityDocumentLatest   ActivityKind = "document.set_latest"
	ActivityUpload           ActivityKind = "upload.completed"
)

// ActivityEvent records an admin action taken through the console.
type ActivityEvent struct {
	Kind       ActivityKind `json:"kind"`
	Actor      string       `json:"actor"`
	TargetID   string       `json:"target_id,omitempty"`
	Detail     string       `json:"detail,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
