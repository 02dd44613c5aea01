package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"guesser/internal/controller"
	"guesser/internal/storage"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
// Cookies that are not a UUID are replaced, since the ID also names the player's storage.
// The cookie is re-issued on every request so its expiry slides with use.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) != 36 || uuid.Validate(sessionID) != nil {
		sessionID = uuid.NewString()
		logInfo("Created new session: %s", sessionID)
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, sessionID, int(app.CookieMaxAge.Seconds()), "/", "", app.IsProduction, true)
	return sessionID
}

// controllerFor returns the game controller for the request's session, creating it and
// loading the player's profile on first use.
func (app *App) controllerFor(c *gin.Context) *controller.Controller {
	sessionID := app.getOrCreateSession(c)

	app.SessionMutex.RLock()
	ctrl, exists := app.Controllers[sessionID]
	app.SessionMutex.RUnlock()
	if exists {
		return ctrl
	}

	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	if ctrl, exists := app.Controllers[sessionID]; exists {
		return ctrl
	}
	opts := []controller.Option{
		controller.WithRules(app.Rules),
		controller.WithClock(app.Clock),
		controller.WithInterval(app.TickInterval),
	}
	if app.Draw != nil {
		opts = append(opts, controller.WithDraw(app.Draw))
	}
	ctrl = controller.New(c.Request.Context(), app.scope(sessionID), opts...)
	app.Controllers[sessionID] = ctrl
	logInfo("Started controller for session: %s", sessionID)
	return ctrl
}

// scope opens the session's storage. If the store refuses the owner the player still
// gets a working game, backed by memory only.
func (app *App) scope(sessionID string) storage.KV {
	kv, err := app.Store.Scope(sessionID)
	if err == nil {
		return kv
	}
	logWarn("Falling back to in-memory profile for session %s: %v", sessionID, err)
	kv, err = storage.NewMemory().Scope(uuid.NewString())
	if err != nil {
		logFatal("In-memory storage rejected a generated owner: %v", err)
	}
	return kv
}

// sweepSessions drops controllers and rate limiters idle for longer than SessionTimeout.
// Stored profiles are purged only when ProfileRetention is set.
func (app *App) sweepSessions(ctx context.Context, now time.Time) int {
	app.SessionMutex.Lock()
	removed := 0
	for sessionID, ctrl := range app.Controllers {
		if now.Sub(ctrl.LastAccess()) > app.SessionTimeout {
			ctrl.Close()
			delete(app.Controllers, sessionID)
			removed++
		}
	}
	app.SessionMutex.Unlock()
	if removed > 0 {
		logInfo("Removed %d idle game sessions", removed)
	}

	if pruned := app.pruneLimiters(now); pruned > 0 {
		logInfo("Removed %d idle rate limiters", pruned)
	}

	if app.ProfileRetention <= 0 {
		return removed
	}
	if sweeper, ok := app.Store.(storage.Sweeper); ok {
		purged, err := sweeper.Sweep(ctx, now.Add(-app.ProfileRetention))
		if err != nil {
			logWarn("Profile sweep failed: %v", err)
		} else if purged > 0 {
			logInfo("Purged %d expired profiles", purged)
		}
	}
	return removed
}

// runSweeper calls sweepSessions every interval until ctx is done.
func (app *App) runSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			app.sweepSessions(ctx, now)
		}
	}
}

// closeSessions stops every countdown; used on shutdown.
func (app *App) closeSessions() {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	for sessionID, ctrl := range app.Controllers {
		ctrl.Close()
		delete(app.Controllers, sessionID)
	}
}
