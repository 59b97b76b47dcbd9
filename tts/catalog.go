package tts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// DefaultPreferredLanguage is matched against voice language tags when
// choosing a default voice.
const DefaultPreferredLanguage = "zh"

// Catalog holds the voices offered by the engine. The list is replaced
// wholesale on every refresh, never mutated, so readers always see a
// complete snapshot.
type Catalog struct {
	engine    VoiceLister
	preferred string
	voices    atomic.Pointer[[]Voice]

	mu          sync.Mutex
	subscribers map[int]func([]Voice)
	nextSubID   int

	// refreshEvery limits how often Watch re-queries the engine.
	refreshEvery time.Duration
}

// NewCatalog creates an empty catalog backed by engine. An empty
// preferredLanguage uses DefaultPreferredLanguage.
func NewCatalog(engine VoiceLister, preferredLanguage string) *Catalog {
	if preferredLanguage == "" {
		preferredLanguage = DefaultPreferredLanguage
	}
	c := &Catalog{
		engine:       engine,
		preferred:    preferredLanguage,
		subscribers:  make(map[int]func([]Voice)),
		refreshEvery: 500 * time.Millisecond,
	}
	empty := []Voice{}
	c.voices.Store(&empty)
	return c
}

// PreferredLanguage returns the substring used by SelectDefault.
func (c *Catalog) PreferredLanguage() string {
	return c.preferred
}

// Refresh queries the engine and replaces the list. Subscribers are
// notified with the new snapshot. On failure the previous list is kept.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.engine == nil {
		return errors.New("catalog has no engine")
	}
	found, err := c.engine.Voices(ctx)
	if err != nil {
		return fmt.Errorf("unable to list voices: %w", err)
	}

	list := make([]Voice, len(found))
	copy(list, found)
	c.voices.Store(&list)
	log.Debug("voice catalog refreshed", "voices", len(list))

	c.notify(list)
	return nil
}

// List returns a copy of the current snapshot.
func (c *Catalog) List() []Voice {
	cur := *c.voices.Load()
	out := make([]Voice, len(cur))
	copy(out, cur)
	return out
}

// Len returns the number of voices in the current snapshot.
func (c *Catalog) Len() int {
	return len(*c.voices.Load())
}

// Lookup returns the first voice with the given name.
func (c *Catalog) Lookup(name string) (Voice, bool) {
	for _, v := range *c.voices.Load() {
		if v.Name == name {
			return v, true
		}
	}
	return Voice{}, false
}

// SelectDefault prefers a voice whose language contains the preferred
// substring, then the first voice. It returns false only when the catalog
// is empty, meaning the engine default voice will be used.
func (c *Catalog) SelectDefault() (Voice, bool) {
	cur := *c.voices.Load()
	for _, v := range cur {
		if strings.Contains(v.Language, c.preferred) {
			return v, true
		}
	}
	if len(cur) > 0 {
		return cur[0], true
	}
	return Voice{}, false
}

// Subscribe registers fn to be called with the new snapshot after every
// successful refresh. The returned func removes the subscription.
func (c *Catalog) Subscribe(fn func([]Voice)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}

// Watch refreshes the catalog whenever w reports a change, until ctx is
// done. Bursts of change notifications collapse into a single refresh.
func (c *Catalog) Watch(ctx context.Context, w VoiceWatcher) error {
	changed := make(chan struct{}, 1)
	done := make(chan error, 1)

	go func() {
		done <- w.WatchVoices(ctx, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	limiter := rate.NewLimiter(rate.Every(c.refreshEvery), 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			return err
		case <-changed:
			if err := limiter.Wait(ctx); err != nil {
				return nil //nolint:nilerr
			}
			// Anything that arrived while waiting is covered by this refresh.
			select {
			case <-changed:
			default:
			}
			if err := c.Refresh(ctx); err != nil {
				log.Warn("voice catalog refresh failed", "error", err)
			}
		}
	}
}

func (c *Catalog) notify(list []Voice) {
	c.mu.Lock()
	subs := make([]func([]Voice), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		out := make([]Voice, len(list))
		copy(out, list)
		fn(out)
	}
}
