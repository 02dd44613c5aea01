// Package game implements the number-guessing round lifecycle as a pure state machine.
//
// Every input is an Event. Apply looks the event up in a dispatch table and returns the
// next State together with the Effects the caller must carry out: arming or cancelling the
// countdown, persisting preferences or the leaderboard, and browser-side cues such as
// sounds. Nothing in this package performs I/O apart from RandomDraw.
package game
