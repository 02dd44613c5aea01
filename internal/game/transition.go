package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Env carries the collaborators a transition may consult.
type Env struct {
	Rules Rules
	Draw  DrawFunc
}

func (e Env) draw(upper int) int {
	if e.Draw == nil {
		return RandomDraw(upper)
	}
	return clampDraw(e.Draw(upper), upper)
}

type transition func(State, Event, Env) (State, []Effect, error)

var transitions = map[EventKind]transition{
	EventStartRound:       startRound,
	EventSubmitGuess:      submitGuess,
	EventTick:             tick,
	EventReturnToLobby:    returnToLobby,
	EventSelectDifficulty: selectDifficulty,
	EventSetVolume:        setVolume,
	EventSelectTheme:      selectTheme,
	EventInteract:         interact,
	EventToggleSettings:   toggleSettings,
	EventDismissSettings:  dismissSettings,
	EventClearLeaderboard: clearLeaderboard,
}

// Apply runs ev against s and returns the state to adopt, the effects to execute and,
// for rejected input, a sentinel error. The returned state is valid even when err is
// non-nil; a rejection may still update hints.
func Apply(s State, ev Event, env Env) (State, []Effect, error) {
	t, ok := transitions[ev.Kind]
	if !ok {
		return s, nil, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
	return t(s, ev, env)
}

func startRound(s State, ev Event, env Env) (State, []Effect, error) {
	d := s.Settings.Difficulty
	if ev.Difficulty != "" {
		d = ev.Difficulty
	}
	lvl, ok := env.Rules.Level(d)
	if !ok {
		return s, nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, d)
	}

	s.Settings.Difficulty = d
	s.Rounds++
	s.Session = Session{
		ID:            s.Rounds,
		Difficulty:    d,
		SecretNumber:  env.draw(lvl.MaxRange),
		MaxRange:      lvl.MaxRange,
		TimeRemaining: lvl.TimeBudget,
		IsActive:      true,
	}
	s.Phase = PhaseActive
	s.Overlay = Overlay{}
	s.Feedback = Feedback{Status: StatusGuess, Hint: rangeHint(lvl.MaxRange)}

	effects := []Effect{
		{Kind: EffectCancelTimer},
		{Kind: EffectArmTimer, Round: s.Session.ID},
		{Kind: EffectClearInput},
	}
	return s, s.withSound(effects, SoundStart), nil
}

func submitGuess(s State, ev Event, env Env) (State, []Effect, error) {
	if s.Phase != PhaseActive || !s.Session.IsActive {
		return s, nil, ErrRoundNotActive
	}

	guess, err := strconv.Atoi(strings.TrimSpace(ev.Input))
	if err != nil || guess < 1 || guess > s.Session.MaxRange {
		s.Feedback.Hint = boundsHint(s.Session.MaxRange)
		return s, []Effect{{Kind: EffectShake}}, ErrGuessOutOfRange
	}

	s.Session.Attempts++
	s.Session.LastGuess = guess
	if guess == s.Session.SecretNumber {
		s, effects := win(s)
		return s, effects, nil
	}

	s.Feedback = feedbackFor(guess, s.Session.SecretNumber, s.Session.MaxRange, env.Rules)
	effects := s.withSound(nil, SoundError)
	effects = append(effects, Effect{Kind: EffectShake}, Effect{Kind: EffectClearInput})
	return s, effects, nil
}

func tick(s State, ev Event, _ Env) (State, []Effect, error) {
	if s.Phase != PhaseActive || !s.Session.IsActive || ev.Round != s.Session.ID {
		return s, nil, nil
	}
	s.Session.TimeRemaining--
	if s.Session.TimeRemaining <= 0 {
		s.Session.TimeRemaining = 0
		s, effects := timeout(s)
		return s, effects, nil
	}
	return s, nil, nil
}

func win(s State) (State, []Effect) {
	s, effects := endRound(s, OutcomeWin)
	d := s.Session.Difficulty
	s.Overlay.Title = TitleVictory

	if lb, updated := s.Leaderboard.Record(d, s.Session.Attempts); updated {
		s.Leaderboard = lb
		s.Overlay.NewHighScore = true
		s.Overlay.Subtitle = fmt.Sprintf("New %s High Score!", strings.ToUpper(string(d)))
		effects = append(effects, Effect{Kind: EffectPersistLeaderboard})
	} else {
		s.Overlay.Subtitle = fmt.Sprintf("Found %d in %d attempts.", s.Session.SecretNumber, s.Session.Attempts)
	}
	return s, s.withSound(effects, SoundClear)
}

func timeout(s State) (State, []Effect) {
	s, effects := endRound(s, OutcomeTimeout)
	s.Overlay.Title = TitleTimesUp
	s.Overlay.Subtitle = fmt.Sprintf("The number was %d", s.Session.SecretNumber)
	return s, s.withSound(effects, SoundLose)
}

func endRound(s State, outcome Outcome) (State, []Effect) {
	s.Session.IsActive = false
	s.Session.Outcome = outcome
	s.Phase = PhaseEnded
	s.Overlay = Overlay{Visible: true}
	return s, []Effect{{Kind: EffectCancelTimer}}
}

func returnToLobby(s State, _ Event, _ Env) (State, []Effect, error) {
	s.Session = Session{}
	s.Phase = PhaseLobby
	s.Overlay = Overlay{}
	s.Feedback = Feedback{}
	return s, []Effect{{Kind: EffectCancelTimer}}, nil
}

func selectDifficulty(s State, ev Event, env Env) (State, []Effect, error) {
	if s.Phase != PhaseLobby {
		return s, nil, ErrRoundInProgress
	}
	if _, ok := env.Rules.Level(ev.Difficulty); !ok {
		return s, nil, fmt.Errorf("%w: %q", ErrUnknownDifficulty, ev.Difficulty)
	}
	s.Settings.Difficulty = ev.Difficulty
	return s, nil, nil
}

func setVolume(s State, ev Event, _ Env) (State, []Effect, error) {
	if math.IsNaN(ev.Volume) {
		return s, nil, ErrInvalidVolume
	}
	v := lo.Clamp(ev.Volume, 0, 1)
	s.Settings.Volume = v

	effects := []Effect{
		{Kind: EffectPersistVolume},
		{Kind: EffectSetLevel, Level: v},
	}
	switch {
	case v == 0:
		s.MusicPlaying = false
		effects = append(effects, Effect{Kind: EffectPauseMusic})
	case s.AudioUnlocked && !s.MusicPlaying:
		s.MusicPlaying = true
		effects = append(effects, Effect{Kind: EffectPlayMusic, Track: s.MusicTrack})
	}
	return s, effects, nil
}

func selectTheme(s State, ev Event, _ Env) (State, []Effect, error) {
	if !ev.Theme.Valid() {
		return s, nil, fmt.Errorf("%w: %q", ErrUnknownTheme, ev.Theme)
	}
	s.Settings.Theme = ev.Theme
	effects := []Effect{{Kind: EffectPersistTheme}}

	track := ev.Theme.Track()
	if track == s.MusicTrack {
		return s, effects, nil
	}
	s.MusicTrack = track
	effects = append(effects, Effect{Kind: EffectLoadTrack, Track: track})
	if s.audible() {
		s.MusicPlaying = true
		effects = append(effects, Effect{Kind: EffectPlayMusic, Track: track})
	} else {
		s.MusicPlaying = false
	}
	return s, effects, nil
}

func interact(s State, _ Event, _ Env) (State, []Effect, error) {
	if s.AudioUnlocked {
		return s, nil, nil
	}
	s.AudioUnlocked = true
	if s.Settings.Volume <= 0 {
		return s, nil, nil
	}
	s.MusicPlaying = true
	return s, []Effect{{Kind: EffectPlayMusic, Track: s.MusicTrack}}, nil
}

func toggleSettings(s State, _ Event, _ Env) (State, []Effect, error) {
	s.SettingsOpen = !s.SettingsOpen
	return s, nil, nil
}

func dismissSettings(s State, _ Event, _ Env) (State, []Effect, error) {
	s.SettingsOpen = false
	return s, nil, nil
}

func clearLeaderboard(s State, ev Event, _ Env) (State, []Effect, error) {
	if s.Phase != PhaseLobby {
		return s, nil, ErrRoundInProgress
	}
	d := s.Settings.Difficulty
	if !ev.Confirmed {
		prompt := Effect{Kind: EffectPrompt, Message: fmt.Sprintf("Reset %s high score?", d)}
		return s, []Effect{prompt}, ErrConfirmationRequired
	}
	s.Leaderboard = s.Leaderboard.Reset(d)
	return s, []Effect{{Kind: EffectPersistLeaderboard}}, nil
}

// withSound appends a one-shot sound when the player can hear it.
func (s State) withSound(effects []Effect, sound Sound) []Effect {
	if !s.audible() {
		return effects
	}
	return append(effects, Effect{Kind: EffectPlaySound, Sound: sound, Level: s.Settings.Volume})
}
