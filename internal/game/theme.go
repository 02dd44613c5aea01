package game

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Theme is one of the visual presets. Each preset carries its own background track.
type Theme string

const (
	ThemePastelBlue Theme = "pastel-blue"
	ThemeSageGreen  Theme = "sage-green"
	ThemeGreyWhite  Theme = "grey-white"
	ThemePastelPink Theme = "pastel-pink"
	ThemeDark       Theme = "dark"
)

const DefaultTheme = ThemeSageGreen

// Themes lists the presets in selector order.
var Themes = []Theme{ThemePastelBlue, ThemeSageGreen, ThemeGreyWhite, ThemePastelPink, ThemeDark}

var themeTracks = map[Theme]string{
	ThemePastelBlue: "blueAudio.mp3",
	ThemeSageGreen:  "greenAudio.mp3",
	ThemeGreyWhite:  "oysterAudio.mp3",
	ThemePastelPink: "pinkAudio.mp3",
	ThemeDark:       "darkAudio.mp3",
}

// ParseTheme validates a selector value.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
	}
	return t, nil
}

func (t Theme) Valid() bool {
	return lo.Contains(Themes, t)
}

// Track returns the background music asset for t.
func (t Theme) Track() string {
	return themeTracks[t]
}

// VolumeIcon is the speaker glyph state shown next to the slider.
type VolumeIcon string

const (
	IconMuted VolumeIcon = "muted"
	IconLow   VolumeIcon = "low"
	IconFull  VolumeIcon = "full"
)

// IconFor maps a volume to its icon state.
func IconFor(volume float64) VolumeIcon {
	switch {
	case volume <= 0:
		return IconMuted
	case volume < 0.5:
		return IconLow
	default:
		return IconFull
	}
}
