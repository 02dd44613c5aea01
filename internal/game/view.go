package game

import (
	"fmt"

	"github.com/samber/lo"
)

// ThemeOption is one dot in the theme selector.
type ThemeOption struct {
	Name   Theme `json:"name"`
	Active bool  `json:"active"`
}

// LeaderboardRow is one difficulty's best as displayed.
type LeaderboardRow struct {
	Difficulty Difficulty `json:"difficulty"`
	Best       string     `json:"best"`
}

// View is the render model of a State. It never exposes the secret number except
// through the overlay subtitle once a round has timed out.
type View struct {
	Phase         Phase            `json:"phase"`
	Difficulty    Difficulty       `json:"difficulty"`
	Difficulties  []Difficulty     `json:"difficulties"`
	Round         uint64           `json:"round"`
	Attempts      int              `json:"attempts"`
	MaxRange      int              `json:"maxRange"`
	Placeholder   string           `json:"placeholder"`
	TimeRemaining int              `json:"timeRemaining"`
	Countdown     string           `json:"countdown"`
	Urgent        bool             `json:"urgent"`
	Feedback      Feedback         `json:"feedback"`
	Overlay       Overlay          `json:"overlay"`
	HighScore     string           `json:"highScore"`
	Leaderboard   []LeaderboardRow `json:"leaderboard"`
	Volume        float64          `json:"volume"`
	VolumeIcon    VolumeIcon       `json:"volumeIcon"`
	Theme         Theme            `json:"theme"`
	Themes        []ThemeOption    `json:"themes"`
	MusicTrack    string           `json:"musicTrack"`
	SettingsOpen  bool             `json:"settingsOpen"`
	AudioUnlocked bool             `json:"audioUnlocked"`
}

// InGame reports whether the game screen rather than the lobby is shown.
func (v View) InGame() bool {
	return v.Phase != PhaseLobby
}

// View projects s for rendering.
func (s State) View(r Rules) View {
	v := View{
		Phase:         s.Phase,
		Difficulty:    s.Settings.Difficulty,
		Difficulties:  Difficulties,
		Round:         s.Session.ID,
		Attempts:      s.Session.Attempts,
		MaxRange:      s.Session.MaxRange,
		TimeRemaining: s.Session.TimeRemaining,
		Feedback:      s.Feedback,
		Overlay:       s.Overlay,
		HighScore:     s.Leaderboard.Display(s.Settings.Difficulty),
		Volume:        s.Settings.Volume,
		VolumeIcon:    IconFor(s.Settings.Volume),
		Theme:         s.Settings.Theme,
		MusicTrack:    s.MusicTrack,
		SettingsOpen:  s.SettingsOpen,
		AudioUnlocked: s.AudioUnlocked,
	}
	if s.Phase != PhaseLobby {
		v.Difficulty = s.Session.Difficulty
		v.HighScore = s.Leaderboard.Display(s.Session.Difficulty)
		v.Placeholder = fmt.Sprintf("1 - %d", s.Session.MaxRange)
		v.Countdown = fmt.Sprintf("%ds", s.Session.TimeRemaining)
		v.Urgent = s.Session.TimeRemaining <= r.UrgentAt
	}
	v.Leaderboard = lo.Map(Difficulties, func(d Difficulty, _ int) LeaderboardRow {
		return LeaderboardRow{Difficulty: d, Best: s.Leaderboard.Display(d)}
	})
	v.Themes = lo.Map(Themes, func(t Theme, _ int) ThemeOption {
		return ThemeOption{Name: t, Active: t == s.Settings.Theme}
	})
	return v
}
