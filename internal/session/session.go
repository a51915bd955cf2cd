package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jo-hoe/photolog/internal/capture"
	"github.com/jo-hoe/photolog/internal/entry"
	"github.com/jo-hoe/photolog/internal/export"
)

// State is the capture page mode
type State int

const (
	// Live streams the camera with the capture trigger enabled
	Live State = iota
	// Annotating shows the grabbed still and the annotation form
	Annotating
)

func (s State) String() string {
	switch s {
	case Live:
		return "live"
	case Annotating:
		return "annotating"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrExportInProgress rejects a second export while one is being built
var ErrExportInProgress = errors.New("export already in progress")

// Form carries the user supplied annotation for the pending snapshot
type Form struct {
	Caption   string `form:"caption"`
	Category1 string `form:"category1"`
	Category2 string `form:"category2"`
}

// Session is the explicit state of one capture page
type Session struct {
	ID string

	mu         sync.Mutex
	state      State
	pending    *capture.Snapshot
	captureErr error
	feed       capture.Feed
	store      *entry.Store

	lastSeen  atomic.Int64 // unix nanos
	exporting atomic.Bool
}

// New creates a session in Live state. A non-nil captureErr starts it capture-disabled.
func New(id string, feed capture.Feed, captureErr error, store *entry.Store, now time.Time) *Session {
	s := &Session{
		ID:         id,
		state:      Live,
		feed:       feed,
		captureErr: captureErr,
		store:      store,
	}
	s.lastSeen.Store(now.UnixNano())
	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the grabbed but not yet saved snapshot
func (s *Session) Pending() (capture.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return capture.Snapshot{}, false
	}
	return *s.pending, true
}

// CaptureError is non-nil while capture is disabled
func (s *Session) CaptureError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captureErr
}

func (s *Session) Feed() capture.Feed {
	return s.feed
}

func (s *Session) Store() *entry.Store {
	return s.store
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// DisableCapture switches the session to capture-disabled. Stored entries stay reviewable and exportable.
func (s *Session) DisableCapture(err error) {
	var capErr *capture.CapabilityError
	if !errors.As(err, &capErr) {
		capErr = &capture.CapabilityError{Device: capture.BrowserDeviceName, Err: err}
	}

	s.mu.Lock()
	s.captureErr = capErr
	s.mu.Unlock()

	slog.Warn("capture disabled for session", "session_id", s.ID, "error", capErr)
}

// PushFrame hands a client-side frame to the feed
func (s *Session) PushFrame(data []byte) error {
	if err := s.CaptureError(); err != nil {
		return err
	}
	pusher, ok := s.feed.(capture.FramePusher)
	if !ok {
		return fmt.Errorf("capture device does not accept uploaded frames")
	}
	return pusher.Push(data)
}

// Capture grabs one frame and moves to Annotating. Any unsaved pending snapshot is replaced.
func (s *Session) Capture(ctx context.Context, grabber *capture.Grabber) (capture.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.captureErr != nil {
		return capture.Snapshot{}, s.captureErr
	}
	snapshot, err := grabber.Grab(ctx, s.feed)
	if err != nil {
		return capture.Snapshot{}, err
	}

	if s.pending != nil {
		slog.Debug("replacing unsaved snapshot", "session_id", s.ID)
	}
	s.pending = &snapshot
	s.state = Annotating
	return snapshot, nil
}

// Retake drops the pending snapshot and returns to Live
func (s *Session) Retake() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
	s.state = Live
}

// Submit stores the pending snapshot with form as a new entry.
// On success the session returns to Live; on *entry.ValidationError nothing changes.
func (s *Session) Submit(ctx context.Context, form Form) (entry.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var image string
	if s.pending != nil {
		image = s.pending.Image
	}
	e := entry.New(image, form.Caption, form.Category1, form.Category2)
	if err := s.store.Append(ctx, e); err != nil {
		return entry.Entry{}, err
	}

	s.pending = nil
	s.state = Live
	return e, nil
}

// Entries lists the session's entries in insertion order
func (s *Session) Entries(ctx context.Context) ([]entry.Entry, error) {
	return s.store.ListAll(ctx)
}

// Export writes the archive of all entries to w without touching session state.
// Only one export may run at a time.
func (s *Session) Export(ctx context.Context, exporter *export.Exporter, w io.Writer) error {
	if !s.exporting.CompareAndSwap(false, true) {
		return ErrExportInProgress
	}
	defer s.exporting.Store(false)

	entries, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}
	return exporter.Export(ctx, entries, w)
}

// Exporting reports whether an export is in flight
func (s *Session) Exporting() bool {
	return s.exporting.Load()
}

// end discards the session's entries
func (s *Session) end(ctx context.Context) error {
	return s.store.Discard(ctx)
}
