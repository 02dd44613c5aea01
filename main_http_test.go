package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"guesser/internal/clock"
	"guesser/internal/config"
	"guesser/internal/game"
	"guesser/internal/storage"
)

// Test constants
const (
	TestSecret        = 27
	TestInvalidCookie = "../../etc/passwd"
)

type testServer struct {
	app    *App
	router *gin.Engine
	clock  *clock.Fake
	cookie *http.Cookie
}

// setupTestServer creates an app on in-memory storage and a fake clock with all routes.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		StoreBackend:   storage.KindMemory,
		SessionTimeout: time.Hour,
		CookieMaxAge:   365 * 24 * time.Hour,
		StaticCacheAge: time.Minute,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		TickInterval:   time.Second,
	}
	app := newApp(cfg, storage.NewMemory(), game.DefaultRules())
	fc := clock.NewFake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	app.Clock = fc
	app.Draw = game.FixedDraw(TestSecret)
	t.Cleanup(app.closeSessions)
	return &testServer{app: app, router: app.setupRouter("templates", "static"), clock: fc}
}

// do sends a request carrying the session cookie from earlier responses.
func (s *testServer) do(t *testing.T, method, path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, _ := http.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			s.cookie = c
		}
	}
	return w
}

func (s *testServer) state(t *testing.T) game.View {
	t.Helper()
	w := s.do(t, "GET", RouteAPIState, nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s returned status %d, want 200", RouteAPIState, w.Code)
	}
	var v game.View
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to unmarshal state: %v", err)
	}
	return v
}

type trigger struct {
	Effects     []game.Effect `json:"game-effects"`
	ServerError string        `json:"server_error"`
}

func parseTrigger(t *testing.T, w *httptest.ResponseRecorder) trigger {
	t.Helper()
	var tr trigger
	raw := w.Header().Get("HX-Trigger")
	if raw == "" {
		return tr
	}
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		t.Fatalf("HX-Trigger %q is not JSON: %v", raw, err)
	}
	return tr
}

func (tr trigger) has(kind game.EffectKind, sound game.Sound) bool {
	for _, e := range tr.Effects {
		if e.Kind == kind && (sound == "" || e.Sound == sound) {
			return true
		}
	}
	return false
}

// TestHomeHandler checks home page returns 200 and sets a session cookie
func TestHomeHandler(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, "GET", RouteHome, nil, false)
	if w.Code != http.StatusOK {
		t.Errorf("GET / returned status %d, want 200", w.Code)
	}
	if s.cookie == nil || len(s.cookie.Value) != 36 {
		t.Errorf("session cookie = %+v", s.cookie)
	}
	if !strings.Contains(w.Body.String(), "MEDIUM") {
		t.Error("lobby should show the default difficulty")
	}
	if w.Header().Get("Cache-Control") == "" {
		t.Error("Cache-Control header missing")
	}
}

func TestInvalidCookieReplaced(t *testing.T) {
	s := setupTestServer(t)
	s.cookie = &http.Cookie{Name: SessionCookieName, Value: TestInvalidCookie}
	s.do(t, "GET", RouteHome, nil, false)
	if s.cookie.Value == TestInvalidCookie {
		t.Error("unsafe session cookie should be replaced")
	}
}

func TestGuessFlow(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, "POST", RouteStart, url.Values{"difficulty": {"easy"}}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /start returned status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `placeholder="1 - 50"`) {
		t.Error("game fragment should show the easy range")
	}

	w = s.do(t, "POST", RouteGuess, url.Values{"guess": {"10"}}, true)
	tr := parseTrigger(t, w)
	if !tr.has(game.EffectShake, "") || !tr.has(game.EffectClearInput, "") {
		t.Errorf("wrong guess effects = %+v", tr.Effects)
	}
	if v := s.state(t); v.Attempts != 1 || v.Feedback.Status != game.StatusTooLow {
		t.Errorf("after wrong guess view = %+v", v)
	}

	s.do(t, "POST", RouteGuess, url.Values{"guess": {"27"}}, true)
	v := s.state(t)
	if v.Overlay.Title != game.TitleVictory || !v.Overlay.NewHighScore {
		t.Errorf("overlay = %+v", v.Overlay)
	}
	if v.Leaderboard[0].Difficulty != game.Easy || v.Leaderboard[0].Best != "2" {
		t.Errorf("leaderboard = %+v", v.Leaderboard)
	}
}

func TestGuessOutOfRange(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteStart, url.Values{"difficulty": {"easy"}}, true)
	w := s.do(t, "POST", RouteGuess, url.Values{"guess": {"51"}}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /guess returned status %d, want 200", w.Code)
	}
	tr := parseTrigger(t, w)
	if tr.ServerError != "Keep it between 1 - 50!" {
		t.Errorf("server_error = %q", tr.ServerError)
	}
	if v := s.state(t); v.Attempts != 0 {
		t.Errorf("out-of-range guess counted: %d", v.Attempts)
	}
}

func TestGuessWithoutRound(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, "POST", RouteGuess, url.Values{"guess": {"5"}}, false)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /guess returned status %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), ErrorRoundNotActive) {
		t.Error("full page should show the rejection")
	}
}

func TestNonHTMXRedirects(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, "POST", RouteLobby, url.Values{}, false)
	if w.Code != http.StatusSeeOther {
		t.Errorf("POST /lobby returned status %d, want 303", w.Code)
	}
}

func TestGuessHandler_InvalidMethod(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, "GET", RouteGuess, nil, false)
	if w.Code != http.StatusNotFound && w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /guess returned status %d, want 404 or 405", w.Code)
	}
}

func TestGameStateDeliversTimeout(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteInteract, url.Values{}, true)
	s.do(t, "POST", RouteStart, url.Values{"difficulty": {"easy"}}, true)

	s.clock.Advance(45 * time.Second)

	w := s.do(t, "GET", RouteGameState, nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /game-state returned status %d, want 200", w.Code)
	}
	if !parseTrigger(t, w).has(game.EffectPlaySound, game.SoundLose) {
		t.Errorf("HX-Trigger = %q, want lose sound", w.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(w.Body.String(), "The number was 27") {
		t.Error("fragment should reveal the secret after timeout")
	}
	if w = s.do(t, "GET", RouteGameState, nil, true); w.Header().Get("HX-Trigger") != "" {
		t.Error("timeout effects should be delivered once")
	}
}

func TestSettingsRoutes(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteVolume, url.Values{"volume": {"0"}}, true)
	w := s.do(t, "POST", RouteTheme, url.Values{"theme": {"dark"}}, true)
	if !parseTrigger(t, w).has(game.EffectLoadTrack, "") {
		t.Error("theme change should load the dark track")
	}
	v := s.state(t)
	if v.Volume != 0 || v.VolumeIcon != game.IconMuted || v.Theme != game.ThemeDark {
		t.Errorf("view = %+v", v)
	}

	w = s.do(t, "POST", RouteVolume, url.Values{"volume": {"loud"}}, true)
	if parseTrigger(t, w).ServerError != ErrorInvalidVolume {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
	w = s.do(t, "POST", RouteTheme, url.Values{"theme": {"neon"}}, true)
	if parseTrigger(t, w).ServerError != ErrorUnknownTheme {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}

	s.do(t, "POST", RouteSettingsToggle, url.Values{}, true)
	if !s.state(t).SettingsOpen {
		t.Error("settings should be open after toggle")
	}
	s.do(t, "POST", RouteSettingsDismiss, url.Values{}, true)
	if s.state(t).SettingsOpen {
		t.Error("settings should be closed after dismiss")
	}
}

func TestDifficultySelection(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteDifficulty, url.Values{"difficulty": {"hard"}}, true)
	if v := s.state(t); v.Difficulty != game.Hard {
		t.Errorf("difficulty = %s", v.Difficulty)
	}
	w := s.do(t, "POST", RouteDifficulty, url.Values{"difficulty": {"nightmare"}}, true)
	if parseTrigger(t, w).ServerError != ErrorUnknownDifficulty {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

func TestDifficultyLockedDuringRound(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteStart, url.Values{"difficulty": {"easy"}}, true)
	w := s.do(t, "POST", RouteDifficulty, url.Values{"difficulty": {"hard"}}, true)
	if parseTrigger(t, w).ServerError != ErrorRoundInProgress {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
	w = s.do(t, "POST", RouteLeaderboardClear, url.Values{"confirm": {"true"}}, true)
	if parseTrigger(t, w).ServerError != ErrorRoundInProgress {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
	if v := s.state(t); v.Difficulty != game.Easy {
		t.Errorf("difficulty = %s, want easy", v.Difficulty)
	}
}

func TestLeaderboardClear(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteStart, url.Values{"difficulty": {"medium"}}, true)
	s.do(t, "POST", RouteGuess, url.Values{"guess": {"27"}}, true)
	s.do(t, "POST", RouteLobby, url.Values{}, true)

	w := s.do(t, "POST", RouteLeaderboardClear, url.Values{}, true)
	tr := parseTrigger(t, w)
	if tr.ServerError != "" || !tr.has(game.EffectPrompt, "") {
		t.Errorf("unconfirmed clear trigger = %+v", tr)
	}
	if s.state(t).HighScore != "1" {
		t.Error("unconfirmed clear must not reset")
	}

	s.do(t, "POST", RouteLeaderboardClear, url.Values{"confirm": {"true"}}, true)
	if got := s.state(t).HighScore; got != game.UnsetScore {
		t.Errorf("high score after clear = %q", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := &App{LimiterMap: map[string]*clientLimiter{}, RateLimitRPS: 5, RateLimitBurst: 10}
	router := gin.New()
	router.Use(app.rateLimitMiddleware())
	router.GET("/limited", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	req, _ := http.NewRequest("GET", "/limited", nil)
	req.RemoteAddr = "127.0.0.1:12345"

	// First 10 requests should succeed
	for i := 0; i < 10; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, w.Code)
		}
	}

	// 11th request should be rate limited
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("11th request: expected 429 Too Many Requests, got %d", w.Code)
	}
	if w.Header().Get("HX-Trigger") != TriggerRateLimited {
		t.Errorf("HX-Trigger = %q", w.Header().Get("HX-Trigger"))
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	s := setupTestServer(t)
	req, _ := http.NewRequest("GET", RouteHealthz, nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "abc-123" {
		t.Errorf("X-Request-Id = %q, want echo", got)
	}
	w = s.do(t, "GET", RouteHealthz, nil, false)
	if len(w.Header().Get("X-Request-Id")) != 36 {
		t.Errorf("generated X-Request-Id = %q", w.Header().Get("X-Request-Id"))
	}
}

// TestHealthzHandler checks /healthz for required fields
func TestHealthzHandler(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "GET", RouteHome, nil, false)
	w := s.do(t, "GET", RouteHealthz, nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /healthz returned status %d, want 200", w.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal /healthz response: %v", err)
	}
	for _, field := range []string{"status", "env", "store", "active_sessions", "uptime", "timestamp"} {
		if _, ok := resp[field]; !ok {
			t.Errorf("Expected '%s' field in /healthz response", field)
		}
	}
	if resp["env"] != "development" || resp["active_sessions"] != float64(1) {
		t.Errorf("healthz = %v", resp)
	}
}

func TestSweepSessions(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteStart, url.Values{"difficulty": {"easy"}}, true)
	if n := s.app.sweepSessions(context.Background(), s.clock.Now()); n != 0 {
		t.Fatalf("fresh session swept: %d", n)
	}

	s.clock.Advance(2 * time.Hour)
	if n := s.app.sweepSessions(context.Background(), s.clock.Now()); n != 1 {
		t.Fatalf("sweepSessions removed %d, want 1", n)
	}
	if s.clock.Active() != 0 {
		t.Error("swept session should stop its countdown")
	}
	if v := s.state(t); v.Phase != game.PhaseLobby {
		t.Errorf("returning player should get a fresh controller, phase %s", v.Phase)
	}
}

func TestProfileSurvivesSweep(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, "POST", RouteStart, url.Values{"difficulty": {"easy"}}, true)
	s.do(t, "POST", RouteGuess, url.Values{"guess": {"27"}}, true)
	sessionID := s.cookie.Value

	// Far enough ahead that any stored profile would be past a cutoff.
	later := time.Now().Add(10 * 365 * 24 * time.Hour)
	if n := s.app.sweepSessions(context.Background(), later); n != 1 {
		t.Fatalf("sweepSessions removed %d, want 1", n)
	}

	w := s.do(t, "GET", RouteHome, nil, false)
	var reissued *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == SessionCookieName {
			reissued = c
		}
	}
	if reissued == nil || reissued.Value != sessionID || reissued.MaxAge <= 0 {
		t.Fatalf("cookie should be re-issued with the same ID, got %+v", reissued)
	}
	if v := s.state(t); v.Leaderboard[0].Best != "1" {
		t.Errorf("easy best after sweep = %q, want 1", v.Leaderboard[0].Best)
	}
}

func TestSweepPurgesProfilesWithRetention(t *testing.T) {
	s := setupTestServer(t)
	s.app.ProfileRetention = 365 * 24 * time.Hour
	s.do(t, "POST", RouteStart, url.Values{"difficulty": {"easy"}}, true)
	s.do(t, "POST", RouteGuess, url.Values{"guess": {"27"}}, true)

	s.app.sweepSessions(context.Background(), time.Now().Add(2*365*24*time.Hour))
	if v := s.state(t); v.Leaderboard[0].Best != game.UnsetScore {
		t.Errorf("profile past retention should be purged, best = %q", v.Leaderboard[0].Best)
	}
}

func TestSweepPrunesIdleLimiters(t *testing.T) {
	s := setupTestServer(t)
	now := time.Now()
	s.app.getLimiter("10.0.0.1", now)
	s.app.getLimiter("10.0.0.2", now.Add(90*time.Minute))

	s.app.sweepSessions(context.Background(), now.Add(2*time.Hour))
	s.app.LimiterMutex.Lock()
	defer s.app.LimiterMutex.Unlock()
	if _, ok := s.app.LimiterMap["10.0.0.1"]; ok {
		t.Error("idle limiter should be pruned")
	}
	if _, ok := s.app.LimiterMap["10.0.0.2"]; !ok {
		t.Error("recent limiter should be kept")
	}
}

func TestProductionCacheHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app := &App{IsProduction: true, StaticCacheAge: 5 * time.Minute}
	router := gin.New()
	router.Use(app.applyCacheHeaders)
	router.GET("/static/app.js", func(c *gin.Context) { c.String(http.StatusOK, "x") })
	router.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "x") })

	for path, want := range map[string]string{"/static/app.js": "max-age", "/": "no-store"} {
		req, _ := http.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if got := w.Header().Get("Cache-Control"); !strings.Contains(got, want) {
			t.Errorf("%s Cache-Control = %q, want %s", path, got, want)
		}
	}
}

func setupGzipTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(
		ginGzip.Gzip(ginGzip.DefaultCompression,
			ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif", ".mp3"}),
			ginGzip.WithExcludedPaths([]string{"/static/audio"})),
	)
	router.GET("/static/test.js", func(c *gin.Context) {
		c.Header("Content-Type", "application/javascript")
		c.String(http.StatusOK, strings.Repeat("var x = 1;", 50))
	})
	router.GET("/static/audio/start.mp3", func(c *gin.Context) {
		c.Header("Content-Type", "audio/mpeg")
		c.String(http.StatusOK, "ID3DATA")
	})
	return router
}

func TestGzipMiddleware_CompressesJS(t *testing.T) {
	router := setupGzipTestRouter()
	req, _ := http.NewRequest("GET", "/static/test.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("Expected gzip encoding for JS, got %q", w.Header().Get("Content-Encoding"))
	}
	gr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("Failed to create gzip reader: %v", err)
	}
	body, _ := io.ReadAll(gr)
	if !strings.HasPrefix(string(body), "var x = 1;") {
		t.Errorf("Unexpected JS body: %q", body)
	}
}

func TestGzipMiddleware_SkipsAudio(t *testing.T) {
	router := setupGzipTestRouter()
	req, _ := http.NewRequest("GET", "/static/audio/start.mp3", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Audio should not be gzipped")
	}
}
