package game

// EventKind selects the transition an Event runs through.
type EventKind string

const (
	EventStartRound       EventKind = "start-round"
	EventSubmitGuess      EventKind = "submit-guess"
	EventTick             EventKind = "tick"
	EventReturnToLobby    EventKind = "return-to-lobby"
	EventSelectDifficulty EventKind = "select-difficulty"
	EventSetVolume        EventKind = "set-volume"
	EventSelectTheme      EventKind = "select-theme"
	EventInteract         EventKind = "interact"
	EventToggleSettings   EventKind = "toggle-settings"
	EventDismissSettings  EventKind = "dismiss-settings"
	EventClearLeaderboard EventKind = "clear-leaderboard"
)

// Event is one input to the state machine. Only the fields relevant to Kind are read.
type Event struct {
	Kind       EventKind
	Input      string
	Difficulty Difficulty
	Volume     float64
	Theme      Theme
	Confirmed  bool
	Round      uint64
}

// StartRound begins a round on d, or on the selected difficulty when d is empty.
func StartRound(d Difficulty) Event {
	return Event{Kind: EventStartRound, Difficulty: d}
}

// SubmitGuess carries the raw text of the guess field.
func SubmitGuess(input string) Event {
	return Event{Kind: EventSubmitGuess, Input: input}
}

// Tick is one countdown step for the given round.
func Tick(round uint64) Event {
	return Event{Kind: EventTick, Round: round}
}

func ReturnToLobby() Event {
	return Event{Kind: EventReturnToLobby}
}

func SelectDifficulty(d Difficulty) Event {
	return Event{Kind: EventSelectDifficulty, Difficulty: d}
}

func SetVolume(v float64) Event {
	return Event{Kind: EventSetVolume, Volume: v}
}

func SelectTheme(t Theme) Event {
	return Event{Kind: EventSelectTheme, Theme: t}
}

// Interact marks any user interaction; the first one unlocks audio.
func Interact() Event {
	return Event{Kind: EventInteract}
}

func ToggleSettings() Event {
	return Event{Kind: EventToggleSettings}
}

func DismissSettings() Event {
	return Event{Kind: EventDismissSettings}
}

// ClearLeaderboard resets the best for the selected difficulty once confirmed.
func ClearLeaderboard(confirmed bool) Event {
	return Event{Kind: EventClearLeaderboard, Confirmed: confirmed}
}

// EffectKind names a side effect requested by a transition.
type EffectKind string

const (
	// Client effects, forwarded to the browser.
	EffectPlaySound  EffectKind = "play-sound"
	EffectPlayMusic  EffectKind = "play-music"
	EffectPauseMusic EffectKind = "pause-music"
	EffectLoadTrack  EffectKind = "load-track"
	EffectSetLevel   EffectKind = "set-level"
	EffectShake      EffectKind = "shake"
	EffectClearInput EffectKind = "clear-input"
	EffectPrompt     EffectKind = "prompt"

	// Controller effects, executed server side.
	EffectArmTimer           EffectKind = "arm-timer"
	EffectCancelTimer        EffectKind = "cancel-timer"
	EffectPersistLeaderboard EffectKind = "persist-leaderboard"
	EffectPersistVolume      EffectKind = "persist-volume"
	EffectPersistTheme       EffectKind = "persist-theme"
)

// Sound is a one-shot sound effect.
type Sound string

const (
	SoundStart Sound = "start"
	SoundClear Sound = "clear"
	SoundLose  Sound = "lose"
	SoundError Sound = "error"
)

// Effect is a side effect request. Level is omitted from JSON at zero; clients treat a
// missing level on set-level as silence.
type Effect struct {
	Kind    EffectKind `json:"kind"`
	Sound   Sound      `json:"sound,omitempty"`
	Track   string     `json:"track,omitempty"`
	Level   float64    `json:"level,omitempty"`
	Message string     `json:"message,omitempty"`
	Round   uint64     `json:"-"`
}

// ClientSide reports whether e is meant for the browser rather than the controller.
func (e Effect) ClientSide() bool {
	switch e.Kind {
	case EffectArmTimer, EffectCancelTimer,
		EffectPersistLeaderboard, EffectPersistVolume, EffectPersistTheme:
		return false
	}
	return true
}
