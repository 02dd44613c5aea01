package game

import (
	"crypto/rand"
	"log"
	"math/big"
)

// DrawFunc returns a number in [1, upper].
type DrawFunc func(upper int) int

// RandomDraw draws uniformly from [1, upper] with crypto/rand, falling back to the
// midpoint if the entropy source fails.
func RandomDraw(upper int) int {
	if upper < 1 {
		return 1
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(upper)))
	if err != nil {
		log.Printf("[WARN] Error generating random number: %v, using fallback", err)
		return (upper + 1) / 2
	}
	return int(n.Int64()) + 1
}

// FixedDraw always yields n, clamped into range. Useful for scripted rounds.
func FixedDraw(n int) DrawFunc {
	return func(upper int) int {
		return clampDraw(n, upper)
	}
}

func clampDraw(n, upper int) int {
	if upper < 1 {
		return 1
	}
	if n < 1 {
		return 1
	}
	if n > upper {
		return upper
	}
	return n
}
