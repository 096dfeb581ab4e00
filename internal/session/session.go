// Package session runs one photo booth session: live preview, countdown,
// capture of three stills and composition of the strip.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/go-photobooth/internal/camera"
	"github.com/1F47E/go-photobooth/internal/capture"
	"github.com/1F47E/go-photobooth/internal/config"
	"github.com/1F47E/go-photobooth/internal/countdown"
	"github.com/1F47E/go-photobooth/internal/filter"
	"github.com/1F47E/go-photobooth/internal/logger"
	"github.com/1F47E/go-photobooth/internal/photo"
	"github.com/1F47E/go-photobooth/internal/strip"
)

var (
	// ErrCaptureRejected is returned when a shot is attempted while one is in
	// flight or the photo quota is reached. Callers ignore it.
	ErrCaptureRejected = errors.New("capture rejected")
	ErrInvalidPhase    = errors.New("not allowed in this phase")
	ErrClosed          = errors.New("session closed")
)

type Options struct {
	MaxPhotos    int
	ComposeDelay time.Duration
	Filter       string
	Facing       camera.Facing
	Quality      int
	// Events receives state changes; sends never block, a full channel drops.
	Events chan<- Event
	// After is time.After unless a test swaps in its own clock.
	After func(time.Duration) <-chan time.Time
	Now   func() time.Time
}

type Session struct {
	mu sync.Mutex

	id       string
	log      *logrus.Entry
	opts     Options
	camera   *camera.Adapter
	seq      *countdown.Sequencer
	capturer *capture.Capturer
	composer *strip.Composer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	startedAt time.Time
	phase     Phase
	label     string
	photos    []photo.Photo
	filter    filter.Filter
	facing    camera.Facing

	// per round state, replaced on reset
	round       int
	roundCtx    context.Context
	roundCancel context.CancelFunc
	composed    bool
	strip       *strip.Strip
	stripErr    error
	stripReady  chan struct{}
	readyClosed bool
}

func New(adapter *camera.Adapter, seq *countdown.Sequencer, capturer *capture.Capturer, composer *strip.Composer, opts Options) (*Session, error) {
	if opts.MaxPhotos < config.StripPhotos {
		opts.MaxPhotos = config.MaxPhotos
	}
	if opts.Filter == "" {
		opts.Filter = config.DefaultFilter
	}
	if opts.Facing == "" {
		opts.Facing = camera.FacingFront
	}
	if opts.Quality <= 0 {
		opts.Quality = config.JPEGQuality
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	f, err := filter.Lookup(opts.Filter)
	if err != nil {
		return nil, err
	}

	id := uuid.Must(uuid.NewV7()).String()
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		id:        id,
		log:       logger.Log.WithField("session", id),
		opts:      opts,
		camera:    adapter,
		seq:       seq,
		capturer:  capturer,
		composer:  composer,
		ctx:       ctx,
		cancel:    cancel,
		startedAt: opts.Now(),
		phase:     Idle,
		filter:    f,
		facing:    opts.Facing,
	}
	s.newRoundLocked()
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) StartedAt() time.Time {
	return s.startedAt
}

// Start acquires the camera: idle → acquiring → live. When the camera is
// unavailable the session falls back to idle and emits a prompt.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase != Idle {
		p := s.phase
		s.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidPhase, p)
	}
	s.mu.Unlock()
	return s.acquire(ctx)
}

// acquire (re)opens the camera for the current facing.
func (s *Session) acquire(ctx context.Context) error {
	s.mu.Lock()
	facing := s.facing
	s.setPhaseLocked(Acquiring)
	s.mu.Unlock()

	_, err := s.camera.Acquire(ctx, facing)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.camera.Release()
		return ErrClosed
	}
	if err != nil {
		s.log.Warnf("camera unavailable: %v", err)
		s.setPhaseLocked(Idle)
		s.emitLocked(Event{Type: EventPrompt, Text: camera.PromptMessage, Err: err})
		return err
	}
	s.setPhaseLocked(Live)
	return nil
}

// Shoot runs the countdown and captures one still. It blocks until the still
// is taken. Composition is scheduled once the third still lands.
func (s *Session) Shoot(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase != Live || len(s.photos) >= s.opts.MaxPhotos {
		s.mu.Unlock()
		return ErrCaptureRejected
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()
	round := s.round
	s.setPhaseLocked(CountingDown)
	s.mu.Unlock()

	err := s.seq.Run(ctx, func(label string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.label = label
		s.emitLocked(Event{Type: EventCountdown, Text: label})
	})
	if err != nil {
		s.abortShot(round)
		return err
	}

	s.mu.Lock()
	if s.round != round || s.phase != CountingDown {
		s.mu.Unlock()
		return ErrCaptureRejected
	}
	s.setPhaseLocked(CapturingFrame)
	f, facing := s.filter, s.facing
	s.mu.Unlock()

	src := s.camera.Source()
	if src == nil {
		s.abortShot(round)
		return camera.ErrDeviceUnavailable
	}
	p, err := s.capturer.Capture(ctx, src, f, facing)
	if err != nil {
		s.abortShot(round)
		s.emit(Event{Type: EventError, Err: err})
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.round != round || s.closed {
		return ErrCaptureRejected
	}
	s.photos = append(s.photos, p)
	count := len(s.photos)
	s.log.Infof("photo %d/%d captured (%s, %s)", count, config.StripPhotos, f.Name, facing)
	s.setPhaseLocked(Live)
	s.emitLocked(Event{Type: EventCaptured})

	if count == config.StripPhotos && !s.composed {
		s.composed = true
		s.setPhaseLocked(Composing)
		photos := make([]photo.Photo, count)
		copy(photos, s.photos)
		s.wg.Add(1)
		go s.compose(round, photos)
	}
	return nil
}

func (s *Session) abortShot(round int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.label = ""
	if s.round == round && !s.closed && (s.phase == CountingDown || s.phase == CapturingFrame) {
		s.setPhaseLocked(Live)
	}
}

func (s *Session) compose(round int, photos []photo.Photo) {
	defer s.wg.Done()

	s.mu.Lock()
	ctx := s.roundCtx
	s.mu.Unlock()

	finish := func(st *strip.Strip, err error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.round != round {
			return
		}
		if s.closed {
			// teardown, not a reset
			s.settleRoundLocked(nil, ErrClosed)
			return
		}
		s.settleRoundLocked(st, err)
		if err != nil {
			s.log.Warnf("compose: %v", err)
			s.emitLocked(Event{Type: EventError, Err: err})
			return
		}
		s.setPhaseLocked(Reviewing)
		s.emitLocked(Event{Type: EventStrip})
	}

	select {
	case <-ctx.Done():
		finish(nil, ctx.Err())
		return
	case <-s.opts.After(s.opts.ComposeDelay):
	}

	now := time.Now()
	st, err := s.composer.Compose(ctx, photos, s.opts.Now())
	if err == nil {
		s.log.Infof("strip composed in %s, %d blank cells", time.Since(now), len(st.Failed))
	}
	finish(st, err)
}

// Preview grabs the current frame as the live view shows it, width pixels
// across. Only available while the camera is open.
func (s *Session) Preview(ctx context.Context, width int) (*image.RGBA, error) {
	s.mu.Lock()
	switch s.phase {
	case Live, CountingDown, CapturingFrame:
	default:
		p := s.phase
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: preview while %s", ErrInvalidPhase, p)
	}
	f, facing := s.filter, s.facing
	s.mu.Unlock()

	src := s.camera.Source()
	if src == nil {
		return nil, camera.ErrDeviceUnavailable
	}
	frame, err := src.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("preview frame: %w", err)
	}
	return s.capturer.Preview(frame, f, facing, width), nil
}

// WaitStrip blocks until the current round's strip is composed.
func (s *Session) WaitStrip(ctx context.Context) (*strip.Strip, error) {
	s.mu.Lock()
	ready := s.stripReady
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ready:
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ready != s.stripReady {
		// the round was reset under us
		return nil, context.Canceled
	}
	return s.strip, s.stripErr
}

func (s *Session) SetFilter(name string) error {
	f, err := filter.Lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == Composing {
		return fmt.Errorf("%w: filter change while %s", ErrInvalidPhase, s.phase)
	}
	s.filter = f
	s.emitLocked(Event{Type: EventPhase})
	return nil
}

// ToggleFacing switches between front and rear camera. Only allowed while
// live, or idle after a failed acquire.
func (s *Session) ToggleFacing(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.phase != Live && s.phase != Idle {
		p := s.phase
		s.mu.Unlock()
		return fmt.Errorf("%w: switch camera while %s", ErrInvalidPhase, p)
	}
	s.facing = s.facing.Toggle()
	s.mu.Unlock()
	return s.acquire(ctx)
}

// Reset drops the captured stills and the strip and reacquires the camera.
// Filter and facing are kept.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	switch s.phase {
	case Reviewing, Live, Idle:
	default:
		p := s.phase
		s.mu.Unlock()
		return fmt.Errorf("%w: reset while %s", ErrInvalidPhase, p)
	}
	s.roundCancel()
	s.newRoundLocked()
	s.photos = nil
	s.label = ""
	s.mu.Unlock()

	s.log.Info("session reset")
	return s.acquire(ctx)
}

// Download writes the strip to path. The session stays in review.
func (s *Session) Download(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != Reviewing || s.strip == nil {
		return "", fmt.Errorf("%w: download while %s", ErrInvalidPhase, s.phase)
	}
	if path == "" {
		path = config.PathStripOut
	}
	if err := s.strip.Save(path, s.opts.Quality); err != nil {
		return "", err
	}
	s.log.Infof("strip saved to %s", path)
	return path, nil
}

// Close cancels any pending countdown or composition and releases the
// camera. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
	s.camera.Release()

	s.mu.Lock()
	s.settleRoundLocked(nil, ErrClosed)
	s.phase = Idle
	s.label = ""
	s.mu.Unlock()
	s.log.Debug("session closed")
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) Strip() *strip.Strip {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.strip
}

func (s *Session) Photos() []photo.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]photo.Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:     s.id,
		Phase:  s.phase,
		Label:  s.label,
		Count:  len(s.photos),
		Max:    config.StripPhotos,
		Filter: s.filter.Name,
		Facing: s.facing,
	}
	if s.strip != nil && len(s.strip.Failed) > 0 {
		snap.Failed = append([]int(nil), s.strip.Failed...)
	}
	return snap
}

func (s *Session) newRoundLocked() {
	if s.stripReady != nil && !s.readyClosed {
		close(s.stripReady)
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.round++
	s.roundCancel = cancel
	s.roundCtx = ctx
	s.composed = false
	s.strip = nil
	s.stripErr = nil
	s.stripReady = make(chan struct{})
	s.readyClosed = false
}

func (s *Session) settleRoundLocked(st *strip.Strip, err error) {
	if s.readyClosed {
		return
	}
	s.strip, s.stripErr = st, err
	close(s.stripReady)
	s.readyClosed = true
}

func (s *Session) setPhaseLocked(p Phase) {
	if s.phase == p {
		return
	}
	s.log.Debugf("phase %s -> %s", s.phase, p)
	s.phase = p
	s.emitLocked(Event{Type: EventPhase})
}

func (s *Session) emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitLocked(e)
}

func (s *Session) emitLocked(e Event) {
	if s.opts.Events == nil {
		return
	}
	e.Snapshot = s.snapshotLocked()
	select {
	case s.opts.Events <- e:
	default:
		s.log.Debugf("event %d dropped, channel full", e.Type)
	}
}
