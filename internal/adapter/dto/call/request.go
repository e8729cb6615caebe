package call

// StartCallRequest represents the request to start a live call session
type StartCallRequest struct {
	SessionID  string  `json:"session_id" validate:"required,min=1,max=255"`
	PlaybookID *string `json:"playbook_id,omitempty" validate:"omitempty,uuid"`
}

// IngestSegmentRequest represents one transcript fragment pushed into an
// active call. Offsets are milliseconds from the start of the audio stream.
type IngestSegmentRequest struct {
	Side    string  `json:"side" validate:"required,oneof=caller counterparty"`
	Text    string  `json:"text" validate:"required"`
	IsFinal bool    `json:"is_final"`
	StartMs float64 `json:"start_ms" validate:"min=0"`
	EndMs   float64 `json:"end_ms" validate:"min=0"`
}

// TriggerFeedbackRequest represents user action on a raised cue card
type TriggerFeedbackRequest struct {
	Status   string `json:"status" validate:"required,oneof=pinned dismissed"`
	Feedback string `json:"feedback,omitempty" validate:"omitempty,oneof=helpful wrong irrelevant"`
}
