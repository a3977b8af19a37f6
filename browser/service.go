package browser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"

	"github.com/yhl48/proxy-lite/annotate"
	"github.com/yhl48/proxy-lite/idgen"
	"github.com/yhl48/proxy-lite/pagetext"
	"github.com/yhl48/proxy-lite/poi"
	"github.com/yhl48/proxy-lite/safeurl"
	"github.com/yhl48/proxy-lite/store"
)

var (
	ErrNoSession     = errors.New("browser: unknown session")
	ErrNoObservation = errors.New("browser: no observation yet; observe first")
	ErrBadMark       = errors.New("browser: mark index out of range")
)

// scrollFraction is how much of the scrolled box a single scroll gesture
// covers, leaving overlap so nothing slips between two views.
const scrollFraction = 0.8

// ServiceConfig assembles the service's collaborators.
type ServiceConfig struct {
	Manager  *Manager
	Observer *Observer
	Store    *store.Store
	Guard    safeurl.Guard
	NewID    idgen.Generator

	ViewportWidth  int
	ViewportHeight int

	// ResourceBlocking is passed through to each new session's page.
	ResourceBlocking []string

	// AnnotateQuality is the JPEG quality for annotated screenshots.
	AnnotateQuality int

	Logger *slog.Logger
}

func (c *ServiceConfig) defaults() {
	if c.NewID == nil {
		c.NewID = idgen.Default
	}
	if c.ViewportWidth <= 0 {
		c.ViewportWidth = 1280
	}
	if c.ViewportHeight <= 0 {
		c.ViewportHeight = 720
	}
	if c.AnnotateQuality <= 0 {
		c.AnnotateQuality = 70
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Service is the top of the stack: it owns browsing sessions, runs
// observation passes, persists their history, and executes mark-addressed
// actions.
type Service struct {
	cfg     ServiceConfig
	conv    *pagetext.Converter
	observe observeFunc

	mu       sync.Mutex
	sessions map[string]*sessionState
}

// observeFunc is the observation pass entry point, a field so tests can
// exercise the service without a live browser.
type observeFunc func(context.Context, *Session, *poi.Extractor) (*Observation, error)

// sessionState pairs a live page with its extractor and the most recent
// observation, which defines the current mark index space. mu serializes
// extraction passes on the session: the extractor's mark registry is not
// safe for concurrent use, so only one observation (or rebind) may run at
// a time.
type sessionState struct {
	mu   sync.Mutex
	sess *Session
	ex   *poi.Extractor
	last *Observation
}

// NewService creates the Service and registers for browser recycle events
// so sessions get rebound to the fresh process.
func NewService(cfg ServiceConfig) *Service {
	cfg.defaults()
	s := &Service{
		cfg:      cfg,
		conv:     pagetext.NewConverter(),
		observe:  cfg.Observer.Observe,
		sessions: make(map[string]*sessionState),
	}
	cfg.Manager.SetRecycleCallback(&RecycleCallback{
		AfterRecycle: s.rebindAll,
	})
	return s
}

func (s *Service) rebindAll(b *rod.Browser) {
	s.mu.Lock()
	states := make(map[string]*sessionState, len(s.sessions))
	for id, st := range s.sessions {
		states[id] = st
	}
	s.mu.Unlock()

	for id, st := range states {
		st.mu.Lock()
		err := st.sess.Rebind(b)
		if err == nil {
			// Marks referenced the dead page; force a fresh observation.
			st.last = nil
		}
		st.mu.Unlock()

		if err != nil {
			s.cfg.Logger.Error("browser: session rebind failed", "session_id", id, "error", err)
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
		}
	}
}

func (s *Service) state(sessionID string) (*sessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}
	return st, nil
}

// StartSession opens a new browsing session, optionally navigating to a
// start URL, and returns its ID.
func (s *Service) StartSession(ctx context.Context, startURL string) (string, error) {
	if startURL != "" {
		if err := s.cfg.Guard.Validate(startURL); err != nil {
			return "", err
		}
	}

	b := s.cfg.Manager.Browser()
	if b == nil {
		return "", fmt.Errorf("browser: not started")
	}

	id := s.cfg.NewID()
	sess, err := NewSession(b, id, s.cfg.ViewportWidth, s.cfg.ViewportHeight, s.cfg.ResourceBlocking, s.cfg.Logger)
	if err != nil {
		return "", err
	}

	if startURL != "" {
		if err := sess.Goto(ctx, startURL); err != nil {
			sess.Close()
			return "", err
		}
	}

	if err := s.cfg.Store.CreateSession(ctx, id, startURL); err != nil {
		sess.Close()
		return "", err
	}

	s.mu.Lock()
	s.sessions[id] = &sessionState{sess: sess, ex: poi.New(poi.Config{Logger: s.cfg.Logger})}
	s.mu.Unlock()

	s.cfg.Logger.Info("browser: session started", "session_id", id, "url", startURL)
	return id, nil
}

// CloseSession closes the session's page and stamps its history row.
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	st, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSession, sessionID)
	}

	if err := st.sess.Close(); err != nil {
		s.cfg.Logger.Warn("browser: close session page", "session_id", sessionID, "error", err)
	}
	return s.cfg.Store.CloseSession(ctx, sessionID)
}

// ObserveResult is what one observation returns to callers: the rendered
// mark list plus both images.
type ObserveResult struct {
	ObservationID string `json:"observation_id"`
	URL           string `json:"url"`
	MarkCount     int    `json:"mark_count"`
	Partial       bool   `json:"partial"`
	Marks         string `json:"marks"`
	Screenshot    []byte `json:"screenshot,omitempty"`
	Annotated     []byte `json:"annotated,omitempty"`
}

// Observe runs an extraction pass on the session, annotates the
// screenshot, persists the pass, and makes its marks the session's
// current index space. Passes on the same session are serialized; a
// second caller blocks until the first finishes.
func (s *Service) Observe(ctx context.Context, sessionID string) (*ObserveResult, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	obs, err := s.observe(ctx, st.sess, st.ex)
	if err != nil {
		return nil, err
	}

	annotated, err := s.annotateScreenshot(obs.Screenshot, obs.Result)
	if err != nil {
		s.cfg.Logger.Warn("browser: annotation failed", "session_id", sessionID, "error", err)
		annotated = nil
	}

	obsID := s.cfg.NewID()
	rec := store.Observation{
		ID:         obsID,
		SessionID:  sessionID,
		URL:        obs.URL,
		Screenshot: obs.Screenshot,
		Annotated:  annotated,
	}
	if err := s.cfg.Store.SaveObservation(ctx, rec, obs.Result); err != nil {
		return nil, err
	}

	st.last = obs

	return &ObserveResult{
		ObservationID: obsID,
		URL:           obs.URL,
		MarkCount:     obs.Result.Len(),
		Partial:       obs.Result.Partial,
		Marks:         poi.RenderResult(obs.Result),
		Screenshot:    obs.Screenshot,
		Annotated:     annotated,
	}, nil
}

func (s *Service) annotateScreenshot(shot []byte, result poi.Result) ([]byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(shot))
	if err != nil {
		return nil, fmt.Errorf("browser: decode screenshot: %w", err)
	}
	out := annotate.Annotate(img, annotate.Boxes(result))
	var buf bytes.Buffer
	if err := annotate.EncodeJPEG(&buf, out, s.cfg.AnnotateQuality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// markCentroid resolves a mark index against the session's most recent
// observation.
func (s *Service) markCentroid(st *sessionState, mark int) (poi.Centroid, error) {
	st.mu.Lock()
	last := st.last
	st.mu.Unlock()
	if last == nil {
		return poi.Centroid{}, ErrNoObservation
	}
	if mark < 0 || mark >= last.Result.Len() {
		return poi.Centroid{}, fmt.Errorf("%w: %d of %d", ErrBadMark, mark, last.Result.Len())
	}
	return last.Result.Centroids[mark], nil
}

// Goto navigates the session, guarding the URL first.
func (s *Service) Goto(ctx context.Context, sessionID, url string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	if err := s.cfg.Guard.Validate(url); err != nil {
		return err
	}
	return st.sess.Goto(ctx, url)
}

// Back steps the session one entry back in history.
func (s *Service) Back(ctx context.Context, sessionID string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	return st.sess.Back(ctx)
}

// Reload reloads the session's page.
func (s *Service) Reload(ctx context.Context, sessionID string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	return st.sess.Reload(ctx)
}

// Click clicks the centroid of the given mark. newTab middle-clicks.
func (s *Service) Click(ctx context.Context, sessionID string, mark int, newTab bool) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	c, err := s.markCentroid(st, mark)
	if err != nil {
		return err
	}
	if newTab {
		return st.sess.MiddleClick(ctx, c.X, c.Y)
	}
	return st.sess.Click(ctx, c.X, c.Y)
}

// Hover moves the pointer to the mark's centroid.
func (s *Service) Hover(ctx context.Context, sessionID string, mark int) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	c, err := s.markCentroid(st, mark)
	if err != nil {
		return err
	}
	return st.sess.Hover(ctx, c.X, c.Y)
}

// Focus gives keyboard focus to the element behind the mark.
func (s *Service) Focus(ctx context.Context, sessionID string, mark int) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	c, err := s.markCentroid(st, mark)
	if err != nil {
		return err
	}
	return st.sess.Focus(ctx, c.X, c.Y)
}

// MarkText returns the flattened text recorded for a mark in the
// session's most recent observation.
func (s *Service) MarkText(sessionID string, mark int) (string, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return "", err
	}
	st.mu.Lock()
	last := st.last
	st.mu.Unlock()
	if last == nil {
		return "", ErrNoObservation
	}
	if mark < 0 || mark >= last.Result.Len() {
		return "", fmt.Errorf("%w: %d of %d", ErrBadMark, mark, last.Result.Len())
	}
	return last.Result.Descriptions[mark].Text, nil
}

// Type clears the marked field and types the text. submit presses Enter.
func (s *Service) Type(ctx context.Context, sessionID string, mark int, text string, submit bool) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	c, err := s.markCentroid(st, mark)
	if err != nil {
		return err
	}
	return st.sess.EnterText(ctx, c.X, c.Y, text, submit)
}

// ClearField clears the marked field without typing anything.
func (s *Service) ClearField(ctx context.Context, sessionID string, mark int) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	c, err := s.markCentroid(st, mark)
	if err != nil {
		return err
	}
	return st.sess.ClearField(ctx, c.X, c.Y)
}

// Select sets the value of the marked select element.
func (s *Service) Select(ctx context.Context, sessionID string, mark int, value string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}
	c, err := s.markCentroid(st, mark)
	if err != nil {
		return err
	}
	return st.sess.SelectOption(ctx, c.X, c.Y, value)
}

// Scroll scrolls by scrollFraction of the marked box in the given
// direction. mark < 0 scrolls the viewport itself.
func (s *Service) Scroll(ctx context.Context, sessionID string, mark int, direction string) error {
	st, err := s.state(sessionID)
	if err != nil {
		return err
	}

	var x, y, w, h float64
	if mark < 0 {
		vw, vh := st.sess.Size()
		w, h = float64(vw), float64(vh)
		x, y = w/2, h/2
	} else {
		c, err := s.markCentroid(st, mark)
		if err != nil {
			return err
		}
		x, y = c.X, c.Y
		w, h = c.Rect.Width(), c.Rect.Height()
	}

	var dx, dy float64
	switch direction {
	case "up":
		dy = -scrollFraction * h
	case "down":
		dy = scrollFraction * h
	case "left":
		dx = -scrollFraction * w
	case "right":
		dx = scrollFraction * w
	default:
		return fmt.Errorf("browser: unknown scroll direction %q", direction)
	}
	return st.sess.Scroll(ctx, x, y, dx, dy)
}

// PageText converts the session's current page to markdown.
func (s *Service) PageText(ctx context.Context, sessionID string) (string, error) {
	st, err := s.state(sessionID)
	if err != nil {
		return "", err
	}
	html, err := st.sess.HTML(ctx)
	if err != nil {
		return "", err
	}
	url, err := st.sess.URL(ctx)
	if err != nil {
		url = ""
	}
	return s.conv.Markdown(html, url)
}

// History lists the session's recorded observations, newest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]store.Observation, error) {
	return s.cfg.Store.ListObservations(ctx, sessionID, limit)
}

// Observation loads one recorded observation with its marks.
func (s *Service) Observation(ctx context.Context, observationID string) (store.Observation, poi.Result, error) {
	return s.cfg.Store.GetObservation(ctx, observationID)
}

// Replay writes the session's annotated screenshots as an animated GIF.
func (s *Service) Replay(ctx context.Context, sessionID string, w io.Writer) error {
	blobs, err := s.cfg.Store.Screenshots(ctx, sessionID)
	if err != nil {
		return err
	}
	frames := make([]image.Image, 0, len(blobs))
	for _, blob := range blobs {
		img, err := jpeg.Decode(bytes.NewReader(blob))
		if err != nil {
			s.cfg.Logger.Warn("browser: skip undecodable replay frame", "error", err)
			continue
		}
		frames = append(frames, img)
	}
	return annotate.EncodeGIF(w, frames, 100)
}

// Close closes every live session. The store rows stay.
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		if err := s.CloseSession(ctx, id); err != nil {
			s.cfg.Logger.Warn("browser: close session", "session_id", id, "error", err)
		}
	}
	return nil
}
