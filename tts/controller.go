// Package tts provides the text-to-speech playback controller.
package tts

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Session is one play request's snapshot of text and parameters.
type Session struct {
	ID        uuid.UUID
	Text      string
	Origin    string
	Params    Parameters
	Voice     *Voice // nil means the engine default voice
	StartedAt time.Time
	Started   bool // The engine confirmed vocalizing
}

// Controller coordinates the catalog, parameters and text source against
// the single shared speech engine. At most one session is live at a time.
type Controller struct {
	engine  Engine
	catalog *Catalog
	source  *TextSource

	mu        sync.Mutex
	state     StateType
	params    Parameters
	voiceAuto bool // Voice follows the catalog default
	session   *Session
	closed    bool

	observers  map[int]func(Status)
	nextObsID  int
	pending    []Status
	deliveryMu sync.Mutex

	now          func() time.Time
	unsubCatalog func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithCatalog uses an existing catalog instead of creating one.
func WithCatalog(c *Catalog) Option {
	return func(ctrl *Controller) {
		ctrl.catalog = c
	}
}

// WithTextSource uses an existing text source.
func WithTextSource(s *TextSource) Option {
	return func(ctrl *Controller) {
		ctrl.source = s
	}
}

// WithParameters sets the initial parameters. They are clamped. A
// non-empty voice is treated as an explicit choice.
func WithParameters(p Parameters) Option {
	return func(ctrl *Controller) {
		ctrl.params = p.Clamped()
		ctrl.voiceAuto = p.Voice == ""
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(ctrl *Controller) {
		ctrl.now = now
	}
}

// NewController creates a controller driving engine.
func NewController(engine Engine, opts ...Option) *Controller {
	c := &Controller{
		engine:    engine,
		state:     StateIdle,
		params:    DefaultParameters(),
		voiceAuto: true,
		observers: make(map[int]func(Status)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.catalog == nil {
		c.catalog = NewCatalog(engine, "")
	}
	if c.source == nil {
		c.source = NewTextSource()
	}
	c.unsubCatalog = c.catalog.Subscribe(c.catalogChanged)
	return c
}

// Catalog returns the voice catalog.
func (c *Controller) Catalog() *Catalog {
	return c.catalog
}

// Text returns the text source.
func (c *Controller) Text() *TextSource {
	return c.source
}

// State returns the visible state.
func (c *Controller) State() StateType {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Parameters returns the parameters the next session will use.
func (c *Controller) Parameters() Parameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// Session returns a copy of the live session, if any.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// OnStatus registers fn for every status. Calls are made in transition
// order, outside the controller lock, so fn may call back into the
// controller. The returned func removes the observer.
func (c *Controller) OnStatus(fn func(Status)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObsID
	c.nextObsID++
	c.observers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.observers, id)
	}
}

// Play starts speaking the current text, or resumes a paused session.
// Any prior session is canceled first. Empty text reports
// ErrEmptyInput and changes nothing.
func (c *Controller) Play() error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}

	text, origin := c.source.Snapshot()
	if text == "" {
		c.emit(Status{State: c.state, Message: MsgEmptyInput, Err: ErrEmptyInput})
		return ErrEmptyInput
	}

	if c.state == StatePaused {
		if err := c.engine.Resume(); err != nil {
			return c.failSession(err)
		}
		c.setState(StateSpeaking)
		c.emit(Status{State: StateSpeaking, Message: MsgSpeaking})
		return nil
	}

	if c.state.Active() || c.engine.Speaking() {
		if prev := c.session; prev != nil {
			log.Debug("superseding session", "session", prev.ID)
		}
		if err := c.engine.Cancel(); err != nil {
			log.Warn("unable to cancel engine activity", "engine", c.engine.Name(), "error", err)
		}
		c.session = nil
	}

	s := &Session{
		ID:        uuid.New(),
		Text:      text,
		Origin:    origin,
		Params:    c.params.Clamped(),
		StartedAt: c.now(),
	}
	if v, ok := s.Params.Resolve(c.catalog); ok {
		s.Voice = &v
	} else if s.Params.Voice != "" {
		log.Debug("voice not in catalog, using engine default", "voice", s.Params.Voice, "error", ErrVoiceNotFound)
	}
	c.session = s

	u := Utterance{
		Session: s.ID,
		Text:    s.Text,
		Voice:   s.Voice,
		Rate:    s.Params.Rate,
		Pitch:   s.Params.Pitch,
		Volume:  s.Params.Volume,
	}
	log.Debug("speaking", "session", s.ID, "chars", len([]rune(text)), "rate", u.Rate, "pitch", u.Pitch, "volume", u.Volume)
	if err := c.engine.Speak(u, c.HandleEvent); err != nil {
		return c.failSession(err)
	}

	c.setState(StateSpeaking)
	c.emit(Status{State: StateSpeaking, Message: MsgSpeaking})
	return nil
}

// Pause pauses a speaking session, or resumes a paused one. It is a
// no-op when idle.
func (c *Controller) Pause() error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateSpeaking:
		if err := c.engine.Pause(); err != nil {
			return c.engineError(err)
		}
		c.setState(StatePaused)
		c.emit(Status{State: StatePaused, Message: MsgPaused})
	case StatePaused:
		if err := c.engine.Resume(); err != nil {
			return c.engineError(err)
		}
		c.setState(StateSpeaking)
		c.emit(Status{State: StateSpeaking, Message: MsgSpeaking})
	}
	return nil
}

// Stop cancels the live session. It is a no-op when idle.
func (c *Controller) Stop() error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *Controller) stopLocked() error {
	if !c.state.Active() {
		return nil
	}
	err := c.engine.Cancel()
	c.session = nil
	c.setState(StateIdle)
	c.emit(Status{State: StateIdle, Message: MsgStopped})
	if err != nil {
		return c.engineError(err)
	}
	return nil
}

// SetParameter clamps and stores a parameter for the next session and
// returns the effective value.
func (c *Controller) SetParameter(field Field, value float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = c.params.Set(field, value)
	return c.params.Get(field)
}

// SetVoice selects a voice by name for the next session. An empty name
// follows the catalog default again.
func (c *Controller) SetVoice(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == "" {
		c.voiceAuto = true
		if v, ok := c.catalog.SelectDefault(); ok {
			name = v.Name
		}
	} else {
		c.voiceAuto = false
	}
	c.params.Voice = name
}

// SetText replaces the text source content.
func (c *Controller) SetText(text string) {
	c.source.SetContent(text)
}

// LoadBytes decodes b into the text source. On failure the previous text
// is kept and the error is returned.
func (c *Controller) LoadBytes(origin string, b []byte) error {
	defer c.flush()
	err := c.source.LoadFromBytes(origin, b)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.emit(Status{State: c.state, Message: err.Error(), Err: err})
		return err
	}
	c.emit(Status{State: c.state, Message: MsgFileLoaded})
	return nil
}

// LoadFile reads path into the text source.
func (c *Controller) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		ioErr := &IOError{Origin: path, Err: err}
		defer c.flush()
		c.mu.Lock()
		c.emit(Status{State: c.state, Message: ioErr.Error(), Err: ioErr})
		c.mu.Unlock()
		return ioErr
	}
	return c.LoadBytes(path, b)
}

// HandleEvent folds an engine event into the state machine. Events for a
// session that is no longer current are dropped.
func (c *Controller) HandleEvent(ev Event) {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || ev.Session != c.session.ID {
		log.Debug("dropping stale engine event", "event", ev.Kind, "session", ev.Session)
		return
	}

	switch ev.Kind {
	case EventStart:
		c.session.Started = true
		if c.state == StateSpeaking {
			c.emit(Status{State: StateSpeaking, Message: MsgSpeaking})
		}
	case EventEnd:
		log.Debug("session complete", "session", c.session.ID, "elapsed", c.now().Sub(c.session.StartedAt))
		c.session = nil
		c.setState(StateEnded)
		c.emit(Status{State: StateEnded, Message: MsgDone})
		c.setState(StateIdle)
	case EventError:
		err := &EngineError{Engine: c.engine.Name(), Session: c.session.ID, Err: ev.Err}
		log.Error("speech engine error", "session", c.session.ID, "error", ev.Err)
		c.session = nil
		c.setState(StateIdle)
		c.emit(Status{State: StateIdle, Message: MsgError, Err: err})
	default:
		log.Warn("unknown engine event", "event", ev.Kind)
	}
}

// Close cancels any live session and detaches from the catalog.
func (c *Controller) Close() error {
	defer c.flush()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	if c.unsubCatalog != nil {
		c.unsubCatalog()
	}
	return c.stopLocked()
}

// failSession discards the session that could not be started or resumed.
func (c *Controller) failSession(cause error) error {
	err := &EngineError{Engine: c.engine.Name(), Err: cause}
	if c.session != nil {
		err.Session = c.session.ID
	}
	log.Error("speech engine error", "error", cause)
	c.session = nil
	c.setState(StateIdle)
	c.emit(Status{State: StateIdle, Message: MsgError, Err: err})
	return err
}

// engineError reports a failed engine command. The state is kept.
func (c *Controller) engineError(cause error) error {
	err := &EngineError{Engine: c.engine.Name(), Err: cause}
	if c.session != nil {
		err.Session = c.session.ID
	}
	log.Warn("speech engine command failed", "engine", c.engine.Name(), "state", c.state, "error", cause)
	c.emit(Status{State: c.state, Message: MsgError, Err: err})
	return err
}

func (c *Controller) setState(to StateType) {
	if c.state == to && to == StateIdle {
		return
	}
	if !canTransition(c.state, to) {
		log.Error("invalid state transition", "from", c.state, "to", to)
		return
	}
	c.state = to
}

func (c *Controller) catalogChanged([]Voice) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.voiceAuto {
		return
	}
	name := ""
	if v, ok := c.catalog.SelectDefault(); ok {
		name = v.Name
	}
	if name != c.params.Voice {
		log.Debug("default voice selected", "voice", name)
	}
	c.params.Voice = name
}

// emit queues a status for delivery. Must hold c.mu.
func (c *Controller) emit(s Status) {
	if s.At.IsZero() {
		s.At = c.now()
	}
	c.pending = append(c.pending, s)
}

// flush delivers queued statuses in order. Only one goroutine delivers at
// a time; statuses queued by a reentrant call are picked up by the loop.
func (c *Controller) flush() {
	for {
		if !c.deliveryMu.TryLock() {
			return
		}
		for {
			c.mu.Lock()
			batch := c.pending
			c.pending = nil
			obs := make([]func(Status), 0, len(c.observers))
			for id := 0; id < c.nextObsID; id++ {
				if fn, ok := c.observers[id]; ok {
					obs = append(obs, fn)
				}
			}
			c.mu.Unlock()

			if len(batch) == 0 {
				break
			}
			for _, s := range batch {
				for _, fn := range obs {
					fn(s)
				}
			}
		}
		c.deliveryMu.Unlock()

		c.mu.Lock()
		more := len(c.pending) > 0
		c.mu.Unlock()
		if !more {
			return
		}
	}
}

// String describes the controller for logs.
func (c *Controller) String() string {
	return fmt.Sprintf("controller(engine=%s, state=%s)", c.engine.Name(), c.State())
}
