package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/transfer"
	"github.com/moyoez/batchupload/types"
)

var (
	ErrEmptyBatch      = errors.New("batch has no files")
	ErrBusy            = errors.New("an upload is already in progress")
	ErrNotIdle         = errors.New("batch can only be changed while idle")
	ErrNotFailed       = errors.New("retry is only possible after a failed upload")
	ErrIndexOutOfRange = errors.New("file index out of range")
	ErrClosed          = errors.New("upload session was closed")
)

// Uploader sends a single file. *transfer.Client implements it.
type Uploader interface {
	Upload(token *transfer.Token, file transfer.File) transfer.Result
}

// Notifier receives user-facing notifications. Implementations must not block.
type Notifier interface {
	Notify(n *types.Notification)
}

// Listener is called with a fresh snapshot after every observable change.
// Deliveries are serialized and never go backwards in Seq; a snapshot
// overtaken by a newer one is dropped. Listeners must not block or call
// back into the Session.
type Listener func(Snapshot)

type Option func(*Session)

func WithPolicy(p Policy) Option {
	return func(s *Session) { s.policy = p }
}

// WithThrottle inserts a pause before each upload. Zero disables it.
func WithThrottle(d time.Duration) Option {
	return func(s *Session) { s.throttle = d }
}

func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

func WithListener(l Listener) Option {
	return func(s *Session) {
		if l != nil {
			s.listeners = append(s.listeners, l)
		}
	}
}

// attempt is one Idle/Failed -> Uploading run. Its token is never reused.
type attempt struct {
	id    string
	token *transfer.Token
	from  int
	done  chan struct{}
	err   error
}

// Session drives one batch through upload. Files are sent strictly in order,
// one at a time; cancellation is cooperative through the attempt's token.
type Session struct {
	uploader  Uploader
	policy    Policy
	throttle  time.Duration
	notifier  Notifier
	listeners []Listener

	mu        sync.Mutex
	files     []transfer.File
	completed int
	state     State
	current   *attempt // live attempt, nil unless Uploading
	last      *attempt // most recent attempt, for Wait
	lastErr   string
	seq       uint64

	emitMu    sync.Mutex
	delivered uint64 // Seq of the last snapshot handed to listeners
}

func New(uploader Uploader, opts ...Option) *Session {
	s := &Session{
		uploader: uploader,
		policy:   PolicyResume,
		state:    Idle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) Policy() Policy {
	return s.policy
}

// Add appends files to the batch, keeping insertion order. Duplicates are allowed.
func (s *Session) Add(files ...transfer.File) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return fmt.Errorf("add files: %w", ErrNotIdle)
	}
	if len(files) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.files = append(s.files, files...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	return nil
}

// Remove drops the file at index. Only permitted while Idle.
func (s *Session) Remove(index int) error {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return fmt.Errorf("remove file: %w", ErrNotIdle)
	}
	if index < 0 || index >= len(s.files) {
		s.mu.Unlock()
		return fmt.Errorf("remove file %d: %w", index, ErrIndexOutOfRange)
	}
	s.files = append(s.files[:index:index], s.files[index+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(snap)
	return nil
}

// Start begins uploading the whole batch from the first file.
// It returns once the session is Uploading; use Wait for the result.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state == Uploading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != Idle {
		s.mu.Unlock()
		return fmt.Errorf("start: %w", ErrNotIdle)
	}
	return s.beginLocked(0)
}

// Retry resumes a failed batch at the first file not yet acknowledged.
func (s *Session) Retry() error {
	s.mu.Lock()
	if s.state == Uploading {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != Failed {
		s.mu.Unlock()
		return ErrNotFailed
	}
	return s.beginLocked(s.completed)
}

// beginLocked must be called with s.mu held; it releases it.
func (s *Session) beginLocked(from int) error {
	if len(s.files) == 0 {
		s.mu.Unlock()
		return ErrEmptyBatch
	}
	att := &attempt{
		id:    tool.GenerateShortID(),
		token: transfer.NewToken(),
		from:  from,
		done:  make(chan struct{}),
	}
	s.current = att
	s.last = att
	s.state = Uploading
	s.lastErr = ""
	total := len(s.files)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] Attempt %s started: from=%d total=%d policy=%s", att.id, from, total, s.policy)
	s.emit(snap)
	go s.run(att)
	return nil
}

// Cancel signals the live attempt's token. The attempt stops before the next
// file, or aborts the file in flight. It is a no-op unless Uploading.
func (s *Session) Cancel() {
	s.mu.Lock()
	att := s.current
	s.mu.Unlock()
	if att == nil {
		return
	}
	tool.DefaultLogger.Infof("[Session] Cancel requested for attempt %s", att.id)
	att.token.Signal()
}

// Close cancels any live attempt, then clears files, progress and state.
// Closing an already empty idle session does nothing.
func (s *Session) Close() {
	s.mu.Lock()
	att := s.current
	if att == nil && s.state == Idle && len(s.files) == 0 && s.completed == 0 && s.lastErr == "" {
		s.mu.Unlock()
		return
	}
	if att != nil {
		att.token.Signal()
	}
	s.current = nil
	s.files = nil
	s.completed = 0
	s.state = Idle
	s.lastErr = ""
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if att != nil {
		tool.DefaultLogger.Infof("[Session] Attempt %s closed while uploading", att.id)
	}
	s.emit(snap)
}

// Wait blocks until the most recent attempt has resolved. It returns nil when
// the batch completed, ErrClosed when it was closed mid-flight, and the
// failing transfer.Result otherwise.
func (s *Session) Wait() error {
	s.mu.Lock()
	att := s.last
	s.mu.Unlock()
	if att == nil {
		return nil
	}
	<-att.done
	return att.err
}

// Done is closed when the most recent attempt resolves. It is nil if no
// attempt was ever started.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	return s.last.done
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Progress() float64 {
	return s.Snapshot().Progress()
}

func (s *Session) run(att *attempt) {
	defer close(att.done)

	var limiter *rate.Limiter
	if s.throttle > 0 {
		limiter = rate.NewLimiter(rate.Every(s.throttle), 1)
		limiter.Allow() // drain the burst so the first upload waits too
	}

	for i := att.from; ; i++ {
		s.mu.Lock()
		if s.current != att {
			s.mu.Unlock()
			att.err = ErrClosed
			return
		}
		if i >= len(s.files) {
			s.completeLocked(att)
			return
		}
		if att.token.Signaled() {
			s.failLocked(att, transfer.Result{Outcome: transfer.Cancelled, Message: "Upload cancelled", Err: transfer.ErrCancelled})
			return
		}
		file, total := s.files[i], len(s.files)
		s.mu.Unlock()

		if limiter != nil {
			if err := limiter.Wait(att.token.Context()); err != nil {
				// only the token can end the wait early; the next pass reports it
				i--
				continue
			}
		}

		tool.DefaultLogger.Debugf("[Session] Attempt %s uploading %d/%d: %s", att.id, i+1, total, file.Name)
		res := s.uploader.Upload(att.token, file)

		s.mu.Lock()
		if s.current != att {
			s.mu.Unlock()
			att.err = ErrClosed
			return
		}
		if !res.OK() {
			s.failLocked(att, res)
			return
		}
		s.completed++
		completed := s.completed
		snap := s.snapshotLocked()
		s.mu.Unlock()

		tool.DefaultLogger.Infof("[Session] Attempt %s uploaded %s (%d/%d)", att.id, file.Name, completed, total)
		s.notify(&types.Notification{
			Type:    types.NotifyTypeUploadSuccess,
			Title:   "Upload Successful!",
			Message: res.Message,
			Data: map[string]any{
				"fileName":  file.Name,
				"index":     i,
				"completed": completed,
				"total":     total,
			},
		})
		s.emit(snap)
	}
}

// completeLocked must be called with s.mu held; it releases it.
func (s *Session) completeLocked(att *attempt) {
	s.state = Completed
	s.current = nil
	total := len(s.files)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	tool.DefaultLogger.Infof("[Session] Attempt %s completed: %d files", att.id, total)
	s.notify(&types.Notification{
		Type:    types.NotifyTypeBatchCompleted,
		Title:   "Upload Successful!",
		Message: fmt.Sprintf("%d files uploaded", total),
		Data:    map[string]any{"total": total},
	})
	s.emit(snap)
}

// failLocked must be called with s.mu held; it releases it.
func (s *Session) failLocked(att *attempt, res transfer.Result) {
	att.err = res
	s.current = nil
	completed := s.completed
	if s.policy == PolicyDiscard {
		s.files = nil
		s.completed = 0
		s.state = Idle
		s.lastErr = ""
	} else {
		s.state = Failed
		s.lastErr = res.Message
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	n := &types.Notification{
		Data: map[string]any{
			"completed": completed,
			"outcome":   res.Outcome.String(),
		},
	}
	if res.Outcome == transfer.Cancelled {
		tool.DefaultLogger.Infof("[Session] Attempt %s cancelled after %d files", att.id, completed)
		n.Type = types.NotifyTypeUploadCancelled
		n.Title = "Upload Cancelled"
		n.Message = res.Message
	} else {
		tool.DefaultLogger.Warnf("[Session] Attempt %s failed after %d files: %s (%v)", att.id, completed, res.Message, res.Err)
		n.Type = types.NotifyTypeUploadFailed
		n.Title = "Upload Failed!"
		n.Message = res.Message
		if res.StatusCode != 0 {
			n.Data["statusCode"] = res.StatusCode
		}
	}
	s.notify(n)
	s.emit(snap)
}

func (s *Session) snapshotLocked() Snapshot {
	s.seq++
	files := make([]transfer.File, len(s.files))
	copy(files, s.files)
	snap := Snapshot{
		Seq:       s.seq,
		State:     s.state,
		Completed: s.completed,
		Files:     files,
		LastError: s.lastErr,
	}
	if s.current != nil {
		snap.AttemptID = s.current.id
	}
	return snap
}

func (s *Session) emit(snap Snapshot) {
	s.emitMu.Lock()
	defer s.emitMu.Unlock()
	if snap.Seq <= s.delivered {
		return
	}
	s.delivered = snap.Seq
	for _, l := range s.listeners {
		l(snap)
	}
}

func (s *Session) notify(n *types.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
