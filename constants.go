package main

import "time"

// Session configuration constants
const (
	SessionCookieName = "session_id"
	SweepInterval     = 5 * time.Minute
)

// Route constants
const (
	RouteHome             = "/"
	RouteStart            = "/start"
	RouteGuess            = "/guess"
	RouteLobby            = "/lobby"
	RouteDifficulty       = "/difficulty"
	RouteVolume           = "/settings/volume"
	RouteTheme            = "/settings/theme"
	RouteSettingsToggle   = "/settings/toggle"
	RouteSettingsDismiss  = "/settings/dismiss"
	RouteInteract         = "/interact"
	RouteLeaderboardClear = "/leaderboard/clear"
	RouteGameState        = "/game-state"
	RouteAPIState         = "/api/state"
	RouteHealthz          = "/healthz"
)

// Page text
const (
	PageTitle   = "Guesser - Beat the Clock"
	PageMessage = "Find the secret number before time runs out!"
)

// Error message constants
const (
	ErrorRoundNotActive    = "No round in progress."
	ErrorRoundInProgress   = "Return to the lobby first."
	ErrorGuessOutOfRange   = "Enter a whole number within the range."
	ErrorUnknownDifficulty = "Unknown difficulty."
	ErrorUnknownTheme      = "Unknown theme."
	ErrorInvalidVolume     = "Volume must be a number between 0 and 1."
	ErrorInternal          = "Something went wrong. Please try again."
)

// HX-Trigger event names
const (
	TriggerEffects     = "game-effects"
	TriggerServerError = "server_error"
	TriggerRateLimited = "rate-limit-exceeded"
)
