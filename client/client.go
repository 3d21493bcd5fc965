package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/example/collaborative-canvas/domain/canvas"
)

// Config configures a client connection.
type Config struct {
	URL              string // ws://host:port/ws
	Room             string
	Presence         canvas.Presence
	WatchdogInterval time.Duration
	StallThreshold   int
	StallTimeout     time.Duration
}

func (c *Config) withDefaults() {
	if c.Room == "" {
		c.Room = "default"
	}
	if c.WatchdogInterval <= 0 {
		c.WatchdogInterval = 600 * time.Millisecond
	}
	if c.StallThreshold <= 0 {
		c.StallThreshold = 300
	}
	if c.StallTimeout <= 0 {
		c.StallTimeout = time.Second
	}
}

// Client is a connected canvas participant.
type Client struct {
	cfg      Config
	conn     *websocket.Conn
	writeMu  sync.Mutex
	buf      *ReorderBuffer
	watchdog *Watchdog
	logger   *slog.Logger

	mu      sync.Mutex
	users   []canvas.Presence
	onReady chan struct{}
	ready   bool
}

// Dial connects to the canvas server and joins the configured room.
func Dial(ctx context.Context, cfg Config, renderer Renderer, logger *slog.Logger) (*Client, error) {
	cfg.withDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}
	q := u.Query()
	q.Set("room", cfg.Room)
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	c := &Client{
		cfg:     cfg,
		conn:    conn,
		buf:     NewReorderBuffer(renderer),
		logger:  logger.With("room", cfg.Room),
		onReady: make(chan struct{}),
	}
	c.watchdog = NewWatchdog(c.buf, cfg.WatchdogInterval, cfg.StallThreshold, cfg.StallTimeout, c.requestResync)
	return c, nil
}

// Run announces presence and processes server frames until ctx is done
// or the connection fails.
func (c *Client) Run(ctx context.Context) error {
	if err := c.send(canvas.TypePresence, c.cfg.Presence); err != nil {
		return fmt.Errorf("failed to send presence: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.readLoop()
	})
	g.Go(func() error {
		return c.watchdog.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return c.conn.Close()
	})

	err := g.Wait()
	if ctx.Err() != nil || errors.Is(err, errConnClosed) {
		return nil
	}
	return err
}

// errConnClosed stops the group when the server closes the connection.
var errConnClosed = errors.New("connection closed by server")

func (c *Client) readLoop() error {
	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errConnClosed
			}
			return fmt.Errorf("failed to read: %w", err)
		}
		c.handleFrame(frame)
	}
}

// handleFrame applies one server frame. Unknown or malformed frames are
// ignored.
func (c *Client) handleFrame(frame []byte) {
	var env canvas.Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		c.logger.Debug("dropping malformed frame", "err", err)
		return
	}

	switch env.Type {
	case canvas.TypeDraw:
		var seg canvas.Segment
		if err := json.Unmarshal(env.Data, &seg); err != nil {
			return
		}
		c.buf.OnSegment(seg)
	case canvas.TypeInit:
		var payload canvas.InitPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return
		}
		c.setUsers(payload.Users)
		c.buf.OnSnapshot(payload.Snapshot())
		c.markReady()
		c.logger.Info("joined room", "strokes", len(payload.Strokes), "users", len(payload.Users), "seq", payload.Seq)
	case canvas.TypeState:
		var snap canvas.Snapshot
		if err := json.Unmarshal(env.Data, &snap); err != nil {
			return
		}
		c.buf.OnSnapshot(snap)
		c.logger.Debug("applied snapshot", "strokes", len(snap.Strokes), "next_seq", c.buf.NextSeq())
	case canvas.TypeClear:
		c.buf.OnClear()
		c.logger.Info("canvas cleared")
	case canvas.TypeUsers:
		var users []canvas.Presence
		if err := json.Unmarshal(env.Data, &users); err != nil {
			return
		}
		c.setUsers(users)
	case canvas.TypeCursor:
		// Ephemeral, not part of the drawing log.
	default:
		c.logger.Debug("ignoring frame", "type", env.Type)
	}
}

func (c *Client) setUsers(users []canvas.Presence) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = users
}

func (c *Client) markReady() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ready {
		c.ready = true
		close(c.onReady)
	}
}

// Ready is closed once the init payload has been applied.
func (c *Client) Ready() <-chan struct{} {
	return c.onReady
}

// Users returns the last roster received.
func (c *Client) Users() []canvas.Presence {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]canvas.Presence, len(c.users))
	copy(out, c.users)
	return out
}

// Buffer returns the client's reorder buffer.
func (c *Client) Buffer() *ReorderBuffer {
	return c.buf
}

func (c *Client) requestResync() error {
	c.logger.Warn("reorder buffer stalled, requesting resync",
		"pending", c.buf.Pending(), "next_seq", c.buf.NextSeq())
	return c.send(canvas.TypeResync, nil)
}

func (c *Client) send(msgType string, payload any) error {
	frame, err := canvas.Encode(msgType, payload)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("failed to write %s: %w", msgType, err)
	}
	return nil
}

// ErrEmptyStroke is returned when a stroke operation has no stroke id.
var ErrEmptyStroke = errors.New("stroke id is required")

// BeginStroke opens a stroke with the given metadata.
func (c *Client) BeginStroke(strokeID string, meta canvas.StrokeMeta) error {
	if strokeID == "" {
		return ErrEmptyStroke
	}
	return c.send(canvas.TypeBeginStroke, canvas.BeginStrokeRequest{
		StrokeID: strokeID,
		UserID:   meta.UserID,
		Color:    meta.Color,
		Width:    meta.Width,
		Brush:    meta.Brush,
		Erase:    meta.Erase,
	})
}

// Draw proposes a segment. It is rendered once the server's sequenced copy
// comes back.
func (c *Client) Draw(seg canvas.Segment) error {
	if seg.StrokeID == "" {
		return ErrEmptyStroke
	}
	return c.send(canvas.TypeDraw, canvas.NewDrawRequest(seg))
}

// EndStroke marks the end of a gesture.
func (c *Client) EndStroke(strokeID string) error {
	return c.send(canvas.TypeEndStroke, canvas.EndStrokeRequest{StrokeID: strokeID})
}

// Undo asks the room to undo its most recent stroke.
func (c *Client) Undo() error { return c.send(canvas.TypeUndo, nil) }

// Redo asks the room to redo its most recently undone stroke.
func (c *Client) Redo() error { return c.send(canvas.TypeRedo, nil) }

// Clear asks the room to wipe the canvas.
func (c *Client) Clear() error { return c.send(canvas.TypeClear, nil) }

// Cursor publishes an ephemeral cursor position.
func (c *Client) Cursor(x, y float64, drawing bool) error {
	return c.send(canvas.TypeCursor, map[string]any{
		"id":      c.cfg.Presence.ID,
		"name":    c.cfg.Presence.Name,
		"color":   c.cfg.Presence.Color,
		"x":       x,
		"y":       y,
		"drawing": drawing,
		"ts":      time.Now().UnixMilli(),
	})
}

// Close closes the connection.
func (c *Client) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}
