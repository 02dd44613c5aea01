// Package controller runs one player's game. It owns the game state, serializes events
// from requests and the countdown, and carries out the effects transitions request.
package controller

import (
	"context"
	"sync"
	"time"

	"github.com/samber/lo"

	"guesser/internal/clock"
	"guesser/internal/game"
	"guesser/internal/profile"
	"guesser/internal/storage"
)

// DefaultInterval is the length of one countdown unit.
const DefaultInterval = time.Second

// Controller is safe for concurrent use. Whichever of a guess and a tick takes the lock
// first wins; the other sees the updated state.
type Controller struct {
	mu         sync.Mutex
	state      game.State
	env        game.Env
	clock      clock.Clock
	interval   time.Duration
	kv         storage.KV
	timer      clock.Timer
	pending    []game.Effect
	lastAccess time.Time
	closed     bool
}

type Option func(*Controller)

func WithRules(r game.Rules) Option {
	return func(c *Controller) { c.env.Rules = r }
}

// WithDraw replaces the secret number source.
func WithDraw(d game.DrawFunc) Option {
	return func(c *Controller) { c.env.Draw = d }
}

func WithClock(cl clock.Clock) Option {
	return func(c *Controller) { c.clock = cl }
}

// WithInterval sets the countdown unit. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// New loads the player's profile from kv and returns a controller in the lobby.
func New(ctx context.Context, kv storage.KV, opts ...Option) *Controller {
	c := &Controller{
		env:      game.Env{Rules: game.DefaultRules(), Draw: game.RandomDraw},
		clock:    clock.Real{},
		interval: DefaultInterval,
		kv:       kv,
	}
	for _, opt := range opts {
		opt(c)
	}

	p, err := profile.Load(ctx, kv)
	if err != nil {
		logWarn(ctx, "Using default profile after load failure: %v", err)
	}
	c.state = game.NewState(p.Settings, p.Leaderboard)
	c.lastAccess = c.clock.Now()
	return c
}

// Dispatch applies ev and returns the resulting view together with the client effects
// it produced. A non-nil error is a rejection; the view still reflects any hint changes.
func (c *Controller) Dispatch(ctx context.Context, ev game.Event) (game.View, []game.Effect, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastAccess = c.clock.Now()
	client, err := c.apply(ctx, ev)
	return c.state.View(c.env.Rules), client, err
}

// View returns the current render model.
func (c *Controller) View() game.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.View(c.env.Rules)
}

// Drain returns and clears client effects produced by the countdown since the last call.
func (c *Controller) Drain() []game.Effect {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// Touch marks the controller as used without dispatching an event.
func (c *Controller) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAccess = c.clock.Now()
}

func (c *Controller) LastAccess() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastAccess
}

// Close stops the countdown. Later ticks are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.closed = true
}

// apply must be called with mu held.
func (c *Controller) apply(ctx context.Context, ev game.Event) ([]game.Effect, error) {
	next, effects, err := game.Apply(c.state, ev, c.env)
	c.state = next
	for _, e := range lo.Reject(effects, func(e game.Effect, _ int) bool { return e.ClientSide() }) {
		c.execute(ctx, e)
	}
	return lo.Filter(effects, func(e game.Effect, _ int) bool { return e.ClientSide() }), err
}

func (c *Controller) execute(ctx context.Context, e game.Effect) {
	switch e.Kind {
	case game.EffectArmTimer:
		c.armTimer(e.Round)
	case game.EffectCancelTimer:
		c.stopTimer()
	case game.EffectPersistLeaderboard:
		if err := profile.SaveLeaderboard(ctx, c.kv, c.state.Leaderboard); err != nil {
			logWarn(ctx, "Failed to persist leaderboard: %v", err)
		}
	case game.EffectPersistVolume:
		if err := profile.SaveVolume(ctx, c.kv, c.state.Settings.Volume); err != nil {
			logWarn(ctx, "Failed to persist volume: %v", err)
		}
	case game.EffectPersistTheme:
		if err := profile.SaveTheme(ctx, c.kv, c.state.Settings.Theme); err != nil {
			logWarn(ctx, "Failed to persist theme: %v", err)
		}
	}
}

func (c *Controller) armTimer(round uint64) {
	c.stopTimer()
	if c.closed {
		return
	}
	c.timer = c.clock.Every(c.interval, func() { c.tick(round) })
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) tick(round uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	client, err := c.apply(context.Background(), game.Tick(round))
	if err != nil {
		logWarn(context.Background(), "Tick for round %d rejected: %v", round, err)
		return
	}
	c.pending = append(c.pending, client...)
}
