package handlers

import (
	"context"
	"errors"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/video-stream/captionsync/internal/playback"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// streamIn is a message from the player.
//
//	{"type":"time","time":12.3,"paused":false,"rate":1}
//	{"type":"seek","cue":4,"word":-1}
type streamIn struct {
	Type   string   `json:"type"`
	Time   *float64 `json:"time,omitempty"`
	Paused bool     `json:"paused,omitempty"`
	Rate   float64  `json:"rate,omitempty"`
	Cue    int      `json:"cue,omitempty"`
	Word   *int     `json:"word,omitempty"`
}

// streamOut is a message to the player.
type streamOut struct {
	Type     string           `json:"type"` // ready, sample, seek, error
	Sample   *playback.Sample `json:"sample,omitempty"`
	Time     *float64         `json:"time,omitempty"`
	CueCount int              `json:"cue_count,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// playerClock extrapolates the playback position between reports.
type playerClock struct {
	mu     sync.Mutex
	known  bool
	base   float64
	at     time.Time
	paused bool
	rate   float64
	now    func() time.Time
}

func newPlayerClock() *playerClock {
	return &playerClock{rate: 1, now: time.Now}
}

func (c *playerClock) report(t float64, paused bool, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		rate = 1
	}
	c.known = true
	c.base = t
	c.at = c.now()
	c.paused = paused
	c.rate = rate
}

// Now returns the estimated position, or -1 before the first report.
func (c *playerClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.known {
		return -1
	}
	if c.paused {
		return c.base
	}
	return c.base + c.now().Sub(c.at).Seconds()*c.rate
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) send(msg streamOut) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(msg)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func (h *SyncHandler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
}

func (h *SyncHandler) checkOrigin(r *http.Request) bool {
	return h.origins.Allowed(r.Header.Get("Origin"), r.Host)
}

// Stream drives a synchronizer for one player over a WebSocket. The player
// reports its clock; the server samples it every tick and pushes a message
// whenever the active cue or word changes.
func (h *SyncHandler) Stream(w http.ResponseWriter, r *http.Request) {
	bilingualID := r.URL.Query().Get("bilingual_id")
	track, err := h.svc.Track(bilingualID)
	if err != nil {
		dbError(w, "bilingual track", err)
		return
	}

	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[sync] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()
	out := &wsConn{conn: conn}

	engine := h.svc.Engine()
	s := playback.New(track, engine.SyncTolerance)
	clock := newPlayerClock()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := out.send(streamOut{Type: "ready", CueCount: track.Len()}); err != nil {
		return
	}
	log.Printf("[sync] stream opened for %s (%d cues, tick %s)", bilingualID, track.Len(), engine.SyncTick)

	go func() {
		defer cancel()
		h.readStream(conn, out, clock, track.CueStart, track.WordStart)
	}()
	go func() {
		ticker := time.NewTicker(wsPingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := out.ping(); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	sink := playback.OnChange(func(sm playback.Sample) error {
		return out.send(streamOut{Type: "sample", Sample: &sm})
	})
	err = playback.Drive(ctx, s, clock.Now, engine.SyncTick, sink)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[sync] stream for %s ended: %v", bilingualID, err)
		return
	}
	log.Printf("[sync] stream closed for %s", bilingualID)
}

// readStream consumes player messages until the connection closes.
func (h *SyncHandler) readStream(conn *websocket.Conn, out *wsConn, clock *playerClock,
	cueStart func(int) (float64, bool), wordStart func(int, int) (float64, bool)) {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var msg streamIn
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[sync] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsPongWait))

		switch msg.Type {
		case "time", "":
			if msg.Time == nil || math.IsNaN(*msg.Time) || math.IsInf(*msg.Time, 0) {
				out.send(streamOut{Type: "error", Error: "time must be a finite number"})
				continue
			}
			clock.report(*msg.Time, msg.Paused, msg.Rate)
		case "seek":
			var t float64
			var ok bool
			if msg.Word != nil && *msg.Word >= 0 {
				t, ok = wordStart(msg.Cue, *msg.Word)
			} else {
				t, ok = cueStart(msg.Cue)
			}
			if !ok {
				out.send(streamOut{Type: "error", Error: "cue or word out of range"})
				continue
			}
			out.send(streamOut{Type: "seek", Time: &t})
		default:
			out.send(streamOut{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}
