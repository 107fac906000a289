package types

// SessionFile describes one entry of the batch as seen by the presentation layer.
type SessionFile struct {
	Index    int    `json:"index"`
	FileName string `json:"fileName"`
	Size     int64  `json:"size"`
	FileType string `json:"fileType,omitempty"`
	Done     bool   `json:"done"`
}

// SessionSnapshot is the UI boundary view of the upload session.
// Seq only grows; clients drop a snapshot older than one already shown.
type SessionSnapshot struct {
	Seq       uint64        `json:"seq"`
	State     string        `json:"state"`
	Completed int           `json:"completed"`
	Total     int           `json:"total"`
	Progress  float64       `json:"progress"`
	AttemptId string        `json:"attemptId,omitempty"`
	LastError string        `json:"lastError,omitempty"`
	Files     []SessionFile `json:"files"`
}

// SessionAddFilesRequest adds local files to the batch.
// Only file:// urls are accepted.
type SessionAddFilesRequest struct {
	FileUrls []string `json:"fileUrls"`
}
