package types

// EnvelopeData is the payload carried by every intake endpoint response.
type EnvelopeData struct {
	Message string `json:"message"`
}

// Envelope is the response body of the intake endpoint, on success and on error.
// e.g. {"data":{"message":"Success"}}
type Envelope struct {
	Data EnvelopeData `json:"data"`
}

// NewEnvelope wraps message in the intake response shape.
func NewEnvelope(message string) Envelope {
	return Envelope{Data: EnvelopeData{Message: message}}
}

// IntakeReceipt records one file acknowledged by the intake endpoint.
type IntakeReceipt struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	Size       int64  `json:"size"`
	FileType   string `json:"fileType,omitempty"`
	ReceivedAt string `json:"receivedAt"`
}
