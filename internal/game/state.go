package game

import (
	"maps"
	"strconv"
)

// Phase is the position of the player in the round lifecycle.
type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhaseActive Phase = "active"
	PhaseEnded  Phase = "ended"
)

// Outcome records how a round finished.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeWin     Outcome = "win"
	OutcomeTimeout Outcome = "timeout"
)

// Session is a single round. ID increases with every round so ticks
// armed for an earlier round can be told apart.
type Session struct {
	ID            uint64     `json:"id"`
	Difficulty    Difficulty `json:"difficulty"`
	SecretNumber  int        `json:"-"`
	Attempts      int        `json:"attempts"`
	MaxRange      int        `json:"maxRange"`
	TimeRemaining int        `json:"timeRemaining"`
	IsActive      bool       `json:"isActive"`
	Outcome       Outcome    `json:"outcome,omitempty"`
	LastGuess     int        `json:"lastGuess,omitempty"`
}

// DefaultVolume applies when no volume has been stored.
const DefaultVolume = 0.5

// Settings are the player's preferences.
type Settings struct {
	Volume     float64    `json:"volume"`
	Theme      Theme      `json:"theme"`
	Difficulty Difficulty `json:"difficulty"`
}

func DefaultSettings() Settings {
	return Settings{
		Volume:     DefaultVolume,
		Theme:      DefaultTheme,
		Difficulty: DefaultDifficulty,
	}
}

// Leaderboard maps a difficulty to the fewest attempts used to win it. Zero means unset.
// Mutating methods return a copy so earlier states stay untouched.
type Leaderboard map[Difficulty]int

// UnsetScore is displayed for a difficulty that has never been won.
const UnsetScore = "--"

func NewLeaderboard() Leaderboard {
	lb := make(Leaderboard, len(Difficulties))
	for _, d := range Difficulties {
		lb[d] = 0
	}
	return lb
}

// Best returns the stored best for d and whether one exists.
func (l Leaderboard) Best(d Difficulty) (int, bool) {
	best := l[d]
	return best, best > 0
}

// Record stores attempts for d when no best exists yet or attempts beats it.
// It reports whether the leaderboard changed.
func (l Leaderboard) Record(d Difficulty, attempts int) (Leaderboard, bool) {
	if attempts < 1 {
		return l, false
	}
	if best, ok := l.Best(d); ok && attempts >= best {
		return l, false
	}
	next := l.clone()
	next[d] = attempts
	return next, true
}

// Reset clears the best for d.
func (l Leaderboard) Reset(d Difficulty) Leaderboard {
	next := l.clone()
	next[d] = 0
	return next
}

// Display renders the best for d, or UnsetScore.
func (l Leaderboard) Display(d Difficulty) string {
	if best, ok := l.Best(d); ok {
		return strconv.Itoa(best)
	}
	return UnsetScore
}

func (l Leaderboard) clone() Leaderboard {
	if l == nil {
		return NewLeaderboard()
	}
	return maps.Clone(l)
}

// Status texts shown above the guess field.
const (
	StatusGuess   = "GUESS"
	StatusTooHigh = "TOO HIGH"
	StatusTooLow  = "TOO LOW"
	TitleVictory  = "VICTORY"
	TitleTimesUp  = "TIME'S UP"
)

// Feedback is what the board shows after the latest guess.
type Feedback struct {
	Status   string  `json:"status"`
	Hint     string  `json:"hint"`
	BarWidth float64 `json:"barWidth"`
	BarColor string  `json:"barColor,omitempty"`
	Tier     Tier    `json:"tier,omitempty"`
}

// Overlay is the end-of-round card.
type Overlay struct {
	Visible      bool   `json:"visible"`
	Title        string `json:"title,omitempty"`
	Subtitle     string `json:"subtitle,omitempty"`
	NewHighScore bool   `json:"newHighScore,omitempty"`
}

// State is everything the controller owns for one player.
type State struct {
	Phase         Phase
	Session       Session
	Settings      Settings
	Leaderboard   Leaderboard
	Feedback      Feedback
	Overlay       Overlay
	Rounds        uint64
	AudioUnlocked bool
	MusicTrack    string
	MusicPlaying  bool
	SettingsOpen  bool
}

// NewState builds the lobby state for a player with the given preferences.
// The theme's track is loaded but not playing until audio is unlocked.
func NewState(settings Settings, lb Leaderboard) State {
	if !settings.Theme.Valid() {
		settings.Theme = DefaultTheme
	}
	if settings.Difficulty == "" {
		settings.Difficulty = DefaultDifficulty
	}
	if lb == nil {
		lb = NewLeaderboard()
	}
	return State{
		Phase:       PhaseLobby,
		Settings:    settings,
		Leaderboard: lb,
		MusicTrack:  settings.Theme.Track(),
	}
}

func (s State) audible() bool {
	return s.AudioUnlocked && s.Settings.Volume > 0
}
