package session

import (
	"fmt"
	"strings"

	"github.com/moyoez/batchupload/transfer"
	"github.com/moyoez/batchupload/types"
)

// State is the lifecycle phase of a batch.
type State int

const (
	Idle State = iota
	Uploading
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Policy decides what happens to progress when an attempt fails or is cancelled.
type Policy int

const (
	// PolicyResume keeps completed files and moves to Failed; Retry resumes
	// at the first file not yet acknowledged.
	PolicyResume Policy = iota
	// PolicyDiscard drops every file and all progress and returns to Idle.
	PolicyDiscard
)

func (p Policy) String() string {
	if p == PolicyDiscard {
		return "discard"
	}
	return "resume"
}

func ParsePolicy(value string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "resume":
		return PolicyResume, nil
	case "discard":
		return PolicyDiscard, nil
	default:
		return PolicyResume, fmt.Errorf("unknown policy %q", value)
	}
}

// Snapshot is a consistent copy of the session taken under its lock.
// Seq increases with every snapshot so consumers can drop stale ones.
type Snapshot struct {
	Seq       uint64
	State     State
	Completed int
	Files     []transfer.File
	AttemptID string
	LastError string
}

func (s Snapshot) Total() int {
	return len(s.Files)
}

// Progress is Completed/Total, 0 for an empty batch.
func (s Snapshot) Progress() float64 {
	if len(s.Files) == 0 {
		return 0
	}
	return float64(s.Completed) / float64(len(s.Files))
}

// Response converts the snapshot to its wire form.
func (s Snapshot) Response() types.SessionSnapshot {
	files := make([]types.SessionFile, len(s.Files))
	for i, f := range s.Files {
		files[i] = types.SessionFile{
			Index:    i,
			FileName: f.Name,
			Size:     f.Size,
			FileType: f.FileType,
			Done:     i < s.Completed,
		}
	}
	return types.SessionSnapshot{
		Seq:       s.Seq,
		State:     s.State.String(),
		Completed: s.Completed,
		Total:     len(s.Files),
		Progress:  s.Progress(),
		AttemptId: s.AttemptID,
		LastError: s.LastError,
		Files:     files,
	}
}
