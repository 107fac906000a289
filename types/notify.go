package types

const (
	NotifyTypeUploadSuccess   = "upload_success"
	NotifyTypeUploadFailed    = "upload_failed"
	NotifyTypeUploadCancelled = "upload_cancelled"
	NotifyTypeBatchCompleted  = "batch_completed"
	NotifyTypeSessionUpdate   = "session_update"
)

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // Notification type, e.g. "upload_success", "upload_failed", etc.
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

// IsFailure reports whether the notification should be rendered as an error toast.
// Cancellation is a neutral status, not a failure.
func (n *Notification) IsFailure() bool {
	return n != nil && n.Type == NotifyTypeUploadFailed
}
