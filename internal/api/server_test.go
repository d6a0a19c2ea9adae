package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/homeward/internal/engine"
	"github.com/talgya/homeward/internal/persistence"
	"github.com/talgya/homeward/internal/world"
)

// ringSession is a radius-2 grass island with the player at the origin and
// the exit at (2,0).
func ringSession(t *testing.T) *engine.Session {
	t.Helper()
	m := world.NewMap(5, 5)
	for q := -2; q <= 2; q++ {
		for r := -2; r <= 2; r++ {
			c := world.HexCoord{Q: q, R: r}
			if world.Distance(c, world.HexCoord{}) > 2 {
				continue
			}
			m.Set(world.Tile{Coord: c, Kind: world.TerrainGrass, Ground: world.TerrainGrass})
		}
	}
	require.NoError(t, m.MarkExit(world.HexCoord{Q: 2}))
	return engine.NewSessionFromMap(m,
		world.Placement{Spawn: world.HexCoord{}, Exit: world.HexCoord{Q: 2}},
		world.NewLayout(world.DefaultTileSize))
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(ringSession(t), func() (*engine.Session, error) {
		return ringSession(t), nil
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func postJSON(t *testing.T, url, body string, out any) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

type moveBody struct {
	Outcome  string            `json:"outcome"`
	Target   world.HexCoord    `json:"target"`
	Revealed int               `json:"revealed"`
	Won      bool              `json:"won"`
	Player   engine.PlayerView `json:"player"`
}

func TestStatus(t *testing.T) {
	_, ts := newTestServer(t)

	var body struct {
		Name    string            `json:"name"`
		Session engine.Status     `json:"session"`
		Player  engine.PlayerView `json:"player"`
	}
	resp := getJSON(t, ts.URL+"/api/v1/status", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Homeward", body.Name)
	assert.Equal(t, 19, body.Session.Tiles)
	assert.Equal(t, 7, body.Session.Revealed)
	assert.Equal(t, world.DrawOrderActor, body.Player.DrawOrder)
}

func TestMap_RevealedOnly(t *testing.T) {
	_, ts := newTestServer(t)

	var all, seen struct {
		Tiles []engine.TileView `json:"tiles"`
	}
	getJSON(t, ts.URL+"/api/v1/map", &all)
	getJSON(t, ts.URL+"/api/v1/map?revealed=1", &seen)

	assert.Len(t, all.Tiles, 19)
	assert.Len(t, seen.Tiles, 7)
	for _, tile := range seen.Tiles {
		assert.True(t, tile.Revealed)
	}
}

func TestMove_AcceptAndReject(t *testing.T) {
	_, ts := newTestServer(t)

	var far moveBody
	resp := postJSON(t, ts.URL+"/api/v1/move", `{"x": 24, "y": 16}`, &far)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "not_adjacent", far.Outcome)
	assert.Equal(t, world.HexCoord{Q: 2}, far.Target)
	assert.Equal(t, 0, far.Player.Q)

	var near moveBody
	postJSON(t, ts.URL+"/api/v1/move", `{"x": 12, "y": 8}`, &near)
	assert.Equal(t, "accepted", near.Outcome)
	assert.Equal(t, 1, near.Player.Q)
	assert.Equal(t, 12.0, near.Player.X)

	var home moveBody
	postJSON(t, ts.URL+"/api/v1/move", `{"x": 24, "y": 16}`, &home)
	assert.Equal(t, "accepted", home.Outcome)
	assert.True(t, home.Won)
}

func TestMove_ScreenCoordinates(t *testing.T) {
	_, ts := newTestServer(t)

	// Screen centre plus (48, 32) at scale 0.25 is world (12, 8): hex (1,0).
	body := `{"screen_x": 688, "screen_y": 392,
		"viewport": {"width": 1280, "height": 720, "camera_x": 0, "camera_y": 0, "scale": 0.25}}`
	var mv moveBody
	postJSON(t, ts.URL+"/api/v1/move", body, &mv)
	assert.Equal(t, "accepted", mv.Outcome)
	assert.Equal(t, world.HexCoord{Q: 1}, mv.Target)
}

func TestMove_BadRequests(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/move", `{nope`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/move", `{"x": 1}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = getJSON(t, ts.URL+"/api/v1/move", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestPreview(t *testing.T) {
	srv, ts := newTestServer(t)

	var p previewResponse
	getJSON(t, ts.URL+"/api/v1/preview?x=13&y=7", &p)
	assert.True(t, p.Show)
	assert.Equal(t, 1, p.Q)
	assert.Equal(t, 12.0, p.X)
	assert.Equal(t, 8.0, p.Y)

	getJSON(t, ts.URL+"/api/v1/preview?x=24&y=16", &p)
	assert.False(t, p.Show)

	srv.withSession(func(sess *engine.Session) {
		assert.Equal(t, world.HexCoord{}, sess.Player.Coord)
		assert.Equal(t, 0, sess.Moves)
	})

	resp := getJSON(t, ts.URL+"/api/v1/preview?x=a", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRegenerate(t *testing.T) {
	srv, ts := newTestServer(t)

	var before string
	srv.withSession(func(sess *engine.Session) { before = sess.ID })

	var st engine.Status
	resp := postJSON(t, ts.URL+"/api/v1/session", ``, &st)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEqual(t, before, st.ID)

	srv.withSession(func(sess *engine.Session) { assert.Equal(t, st.ID, sess.ID) })
}

func TestJournalEndpoints(t *testing.T) {
	srv, ts := newTestServer(t)

	resp := getJSON(t, ts.URL+"/api/v1/sessions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	db, err := persistence.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	srv.Journal = db

	postJSON(t, ts.URL+"/api/v1/session", ``, nil)
	postJSON(t, ts.URL+"/api/v1/move", `{"x": 12, "y": 8}`, nil)

	var sessions []struct {
		ID      string `json:"id"`
		Moves   int    `json:"moves"`
		Started string `json:"started"`
	}
	getJSON(t, ts.URL+"/api/v1/sessions", &sessions)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].Moves)
	assert.NotEmpty(t, sessions[0].Started)

	var moves []persistence.MoveRow
	getJSON(t, ts.URL+"/api/v1/moves", &moves)
	require.Len(t, moves, 1)
	assert.Equal(t, "accepted", moves[0].Outcome)
	assert.Equal(t, sessions[0].ID, moves[0].SessionID)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.CORSOrigins = []string{"https://renderer.example"}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/map", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://renderer.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://renderer.example", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestWebSocket_MoveAndHover(t *testing.T) {
	_, ts := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "hover", "payload": map[string]float64{"x": 12, "y": 8},
	}))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, MessageTypePreview, env.Type)
	var p previewResponse
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.True(t, p.Show)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"type": "move", "payload": map[string]float64{"x": 12, "y": 8},
	}))
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, MessageTypeUpdate, env.Type)
	var u struct {
		Result moveBody          `json:"result"`
		Player engine.PlayerView `json:"player"`
		Tiles  []engine.TileView `json:"tiles"`
	}
	require.NoError(t, json.Unmarshal(env.Payload, &u))
	assert.Equal(t, "accepted", u.Result.Outcome)
	assert.Equal(t, 1, u.Player.Q)
	assert.Len(t, u.Tiles, 10)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	require.NoError(t, conn.ReadJSON(&env))
	assert.Equal(t, MessageTypeError, env.Type)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.Equal(t, 61, rl.RetryAfter("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
}

func TestClientAddr(t *testing.T) {
	proxies, err := ParseProxies([]string{"10.0.0.0/8", "192.168.1.5"})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "203.0.113.9:5123"
	assert.Equal(t, "203.0.113.9", clientAddr(r, proxies))

	// A direct client cannot choose its own address.
	r.Header.Set("X-Forwarded-For", "1.2.3.4")
	assert.Equal(t, "203.0.113.9", clientAddr(r, proxies))
	assert.Equal(t, "203.0.113.9", clientAddr(r, nil))

	// Behind trusted proxies the nearest untrusted hop is the client.
	r.RemoteAddr = "10.0.0.7:5123"
	r.Header.Set("X-Forwarded-For", "6.6.6.6, 1.2.3.4, 192.168.1.5")
	assert.Equal(t, "1.2.3.4", clientAddr(r, proxies))

	r.Header.Del("X-Forwarded-For")
	assert.Equal(t, "10.0.0.7", clientAddr(r, proxies))
}

func TestParseProxies(t *testing.T) {
	list, err := ParseProxies([]string{"", " 127.0.0.1 ", "::1", "172.16.0.0/12"})
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.True(t, list.trusts("127.0.0.1"))
	assert.False(t, list.trusts("127.0.0.2"))
	assert.True(t, list.trusts("::1"))
	assert.True(t, list.trusts("172.31.255.1"))
	assert.False(t, list.trusts("not-an-ip"))

	_, err = ParseProxies([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = ParseProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

func TestRegenerate_ForwardedForDoesNotEvadeLimit(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	codes := make([]int, 0, 21)
	for i := 0; i < 21; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/session", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, http.StatusOK, codes[19])
	assert.Equal(t, http.StatusTooManyRequests, codes[20])
}

func TestRegenerate_DoesNotBlockReads(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := NewServer(ringSession(t), func() (*engine.Session, error) {
		close(started)
		<-release
		return ringSession(t), nil
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	done := make(chan int)
	go func() {
		resp, err := http.Post(ts.URL+"/api/v1/session", "application/json", nil)
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()
	<-started

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(ts.URL + "/api/v1/preview?x=12&y=8")
	require.NoError(t, err, "preview blocked while an island was being generated")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var mv moveBody
	postJSON(t, ts.URL+"/api/v1/move", `{"x": 12, "y": 8}`, &mv)
	assert.Equal(t, "accepted", mv.Outcome)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)

	srv.withSession(func(sess *engine.Session) {
		assert.Equal(t, world.HexCoord{}, sess.Player.Coord, "the new island starts fresh")
	})
}
