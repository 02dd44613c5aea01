// Package profile reads and writes a player's persisted preferences and leaderboard
// through a storage.KV. Absent or malformed values fall back to defaults.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"guesser/internal/game"
	"guesser/internal/storage"
)

// Persisted keys.
const (
	KeyLeaderboard = "guessLeaderboard"
	KeyVolume      = "guessVolume"
	KeyTheme       = "guessTheme"
)

// Profile is the persisted part of a player's state.
type Profile struct {
	Settings    game.Settings
	Leaderboard game.Leaderboard
}

// Default is a profile for a player with nothing stored.
func Default() Profile {
	return Profile{
		Settings:    game.DefaultSettings(),
		Leaderboard: game.NewLeaderboard(),
	}
}

// Load reads the profile behind kv. It always returns a usable profile; the error only
// reports storage reads that failed and were replaced by defaults.
func Load(ctx context.Context, kv storage.KV) (Profile, error) {
	p := Default()
	var errs []error

	if raw, ok, err := kv.Get(ctx, KeyVolume); err != nil {
		errs = append(errs, fmt.Errorf("load volume: %w", err))
	} else if ok {
		p.Settings.Volume = DecodeVolume(raw)
	}

	if raw, ok, err := kv.Get(ctx, KeyTheme); err != nil {
		errs = append(errs, fmt.Errorf("load theme: %w", err))
	} else if ok {
		p.Settings.Theme = DecodeTheme(raw)
	}

	if raw, ok, err := kv.Get(ctx, KeyLeaderboard); err != nil {
		errs = append(errs, fmt.Errorf("load leaderboard: %w", err))
	} else if ok {
		p.Leaderboard = DecodeLeaderboard(raw)
	}

	return p, errors.Join(errs...)
}

// DecodeVolume parses stored volume text. Unparseable values yield the default and
// out-of-range values are clamped.
func DecodeVolume(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return game.DefaultVolume
	}
	return lo.Clamp(v, 0, 1)
}

func EncodeVolume(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DecodeTheme returns the stored theme, or the default preset if it is not one we know.
func DecodeTheme(raw string) game.Theme {
	t, err := game.ParseTheme(raw)
	if err != nil {
		return game.DefaultTheme
	}
	return t
}

// DecodeLeaderboard parses the stored record. Unknown difficulties are dropped and
// non-positive or fractional entries read as unset.
func DecodeLeaderboard(raw string) game.Leaderboard {
	lb := game.NewLeaderboard()
	var stored map[string]float64
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return lb
	}
	for _, d := range game.Difficulties {
		v, ok := stored[string(d)]
		if !ok || v < 1 || v != math.Trunc(v) || v > math.MaxInt32 {
			continue
		}
		lb[d] = int(v)
	}
	return lb
}

// EncodeLeaderboard writes every difficulty, unset ones as 0.
func EncodeLeaderboard(lb game.Leaderboard) (string, error) {
	record := lo.Associate(game.Difficulties, func(d game.Difficulty) (string, int) {
		best, _ := lb.Best(d)
		return string(d), best
	})
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal leaderboard: %w", err)
	}
	return string(data), nil
}

func SaveLeaderboard(ctx context.Context, kv storage.KV, lb game.Leaderboard) error {
	raw, err := EncodeLeaderboard(lb)
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, KeyLeaderboard, raw); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	return nil
}

func SaveVolume(ctx context.Context, kv storage.KV, v float64) error {
	if err := kv.Set(ctx, KeyVolume, EncodeVolume(v)); err != nil {
		return fmt.Errorf("save volume: %w", err)
	}
	return nil
}

func SaveTheme(ctx context.Context, kv storage.KV, t game.Theme) error {
	if err := kv.Set(ctx, KeyTheme, string(t)); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	return nil
}
