package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"guesser/internal/controller"
	"guesser/internal/game"
)

// homeHandler renders the full page for the current session.
func (app *App) homeHandler(c *gin.Context) {
	ctrl := app.controllerFor(c)
	ctrl.Touch()
	app.renderPage(c, ctrl.View(), "")
}

// startHandler begins a round on the posted difficulty, or the selected one if none is posted.
func (app *App) startHandler(c *gin.Context) {
	d := game.Difficulty(strings.ToLower(strings.TrimSpace(c.PostForm("difficulty"))))
	app.dispatch(c, game.StartRound(d))
}

// guessHandler submits the posted guess for the active round.
func (app *App) guessHandler(c *gin.Context) {
	app.dispatch(c, game.SubmitGuess(c.PostForm("guess")))
}

func (app *App) lobbyHandler(c *gin.Context) {
	app.dispatch(c, game.ReturnToLobby())
}

func (app *App) difficultyHandler(c *gin.Context) {
	d, err := game.ParseDifficulty(c.PostForm("difficulty"))
	if err != nil {
		app.reject(c, err)
		return
	}
	app.dispatch(c, game.SelectDifficulty(d))
}

func (app *App) volumeHandler(c *gin.Context) {
	v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("volume")), 64)
	if err != nil {
		app.reject(c, game.ErrInvalidVolume)
		return
	}
	app.dispatch(c, game.SetVolume(v))
}

func (app *App) themeHandler(c *gin.Context) {
	t, err := game.ParseTheme(c.PostForm("theme"))
	if err != nil {
		app.reject(c, err)
		return
	}
	app.dispatch(c, game.SelectTheme(t))
}

func (app *App) settingsToggleHandler(c *gin.Context) {
	app.dispatch(c, game.ToggleSettings())
}

func (app *App) settingsDismissHandler(c *gin.Context) {
	app.dispatch(c, game.DismissSettings())
}

// interactHandler records the first user gesture so audio may start.
func (app *App) interactHandler(c *gin.Context) {
	app.dispatch(c, game.Interact())
}

// leaderboardClearHandler resets the selected difficulty's best. Without confirm=true the
// client is asked to confirm first.
func (app *App) leaderboardClearHandler(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.PostForm("confirm"))
	app.dispatch(c, game.ClearLeaderboard(confirmed))
}

// gameStateHandler renders the game fragment and delivers effects raised by the countdown
// since the last poll.
func (app *App) gameStateHandler(c *gin.Context) {
	ctrl := app.controllerFor(c)
	ctrl.Touch()
	setTrigger(c, ctrl.Drain(), "")
	c.HTML(http.StatusOK, "game-content", app.templateData(ctrl.View(), ""))
}

// apiStateHandler returns the current view as JSON.
func (app *App) apiStateHandler(c *gin.Context) {
	ctrl := app.controllerFor(c)
	ctrl.Touch()
	c.JSON(http.StatusOK, ctrl.View())
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	app.SessionMutex.RLock()
	sessions := len(app.Controllers)
	app.SessionMutex.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"env":             envName(app.IsProduction),
		"store":           app.StoreKind,
		"active_sessions": sessions,
		"uptime":          formatUptime(time.Since(app.StartTime)),
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
	})
}

// dispatch runs ev on the session's controller and responds with the new view.
func (app *App) dispatch(c *gin.Context, ev game.Event) {
	ctx := c.Request.Context()
	ctrl := app.controllerFor(c)
	view, effects, err := ctrl.Dispatch(ctx, ev)
	if err != nil && !errors.Is(err, game.ErrConfirmationRequired) {
		logInfo("[request_id=%s] %s rejected: %v", controller.RequestID(ctx), ev.Kind, err)
	}
	app.respond(c, view, effects, errorMessage(err, view))
}

// reject responds to input that never reached the controller.
func (app *App) reject(c *gin.Context, err error) {
	ctrl := app.controllerFor(c)
	view := ctrl.View()
	app.respond(c, view, nil, errorMessage(err, view))
}

// respond sends the fragment to HTMX requests. Other requests are redirected home, or
// given the full page when there is an error to show.
func (app *App) respond(c *gin.Context, view game.View, effects []game.Effect, errMsg string) {
	if c.GetHeader("HX-Request") == "true" {
		setTrigger(c, effects, errMsg)
		c.HTML(http.StatusOK, "game-content", app.templateData(view, errMsg))
		return
	}
	if errMsg != "" {
		setTrigger(c, effects, errMsg)
		app.renderPage(c, view, errMsg)
		return
	}
	c.Redirect(http.StatusSeeOther, RouteHome)
}

func (app *App) renderPage(c *gin.Context, view game.View, errMsg string) {
	c.HTML(http.StatusOK, "index.html", app.templateData(view, errMsg))
}

func (app *App) templateData(view game.View, errMsg string) gin.H {
	return gin.H{
		"title":   PageTitle,
		"message": PageMessage,
		"view":    view,
		"error":   errMsg,
	}
}

// setTrigger writes client effects and any error message into the HX-Trigger header.
func setTrigger(c *gin.Context, effects []game.Effect, errMsg string) {
	payload := map[string]any{}
	if len(effects) > 0 {
		payload[TriggerEffects] = effects
	}
	if errMsg != "" {
		payload[TriggerServerError] = errMsg
	}
	if len(payload) == 0 {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		logWarn("Failed to marshal HX-Trigger payload: %v", err)
		return
	}
	c.Header("HX-Trigger", string(b))
}

// errorMessage maps a rejection onto the text shown to the player. A pending confirmation
// is not an error; the prompt effect carries it.
func errorMessage(err error, view game.View) string {
	switch {
	case err == nil, errors.Is(err, game.ErrConfirmationRequired):
		return ""
	case errors.Is(err, game.ErrGuessOutOfRange):
		return lo.Ternary(view.Feedback.Hint != "", view.Feedback.Hint, ErrorGuessOutOfRange)
	case errors.Is(err, game.ErrRoundNotActive):
		return ErrorRoundNotActive
	case errors.Is(err, game.ErrRoundInProgress):
		return ErrorRoundInProgress
	case errors.Is(err, game.ErrUnknownDifficulty):
		return ErrorUnknownDifficulty
	case errors.Is(err, game.ErrUnknownTheme):
		return ErrorUnknownTheme
	case errors.Is(err, game.ErrInvalidVolume):
		return ErrorInvalidVolume
	default:
		return ErrorInternal
	}
}
