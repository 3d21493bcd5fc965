// Command replica joins a canvas room as a headless participant and keeps
// an in-memory copy of the drawing.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/collaborative-canvas/client"
	"github.com/example/collaborative-canvas/config"
	"github.com/example/collaborative-canvas/domain/canvas"
)

const discoveryTimeout = 3 * time.Second

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := run(logger); err != nil {
		logger.Error("replica failed", "err", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg := config.LoadClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url := cfg.URL
	if url == "" || url == "auto" {
		found, err := client.Discover(ctx, discoveryTimeout)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return errors.New("no canvas server found on the local network")
		}
		url = found[0]
		logger.Info("discovered server", "url", url, "candidates", len(found))
	}

	replica := client.NewReplica()
	userID := uuid.NewString()
	c, err := client.Dial(ctx, client.Config{
		URL:  url,
		Room: cfg.Room,
		Presence: canvas.Presence{
			ID:    userID,
			Name:  cfg.Name,
			Color: "#1e90ff",
		},
		WatchdogInterval: cfg.WatchdogInterval,
		StallThreshold:   cfg.StallThreshold,
		StallTimeout:     cfg.StallTimeout,
	}, replica, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if cfg.DemoStroke {
		go func() {
			select {
			case <-c.Ready():
			case <-ctx.Done():
				return
			}
			if err := drawDemoStroke(c, userID); err != nil {
				logger.Warn("demo stroke failed", "err", err)
			}
		}()
	}

	go reportProgress(ctx, replica, c, logger)

	logger.Info("joining room", "url", url, "room", cfg.Room, "name", cfg.Name)
	return c.Run(ctx)
}

// drawDemoStroke draws a short zig-zag so a fresh room has something to show.
func drawDemoStroke(c *client.Client, userID string) error {
	strokeID := uuid.NewString()
	meta := canvas.StrokeMeta{UserID: userID, Color: "#1e90ff", Width: 4, Brush: "round"}
	if err := c.BeginStroke(strokeID, meta); err != nil {
		return err
	}
	x, y := 100.0, 100.0
	for i := 0; i < 10; i++ {
		dy := 40.0
		if i%2 == 1 {
			dy = -40
		}
		seg := canvas.Segment{
			StrokeID: strokeID,
			X0:       x, Y0: y, X1: x + 30, Y1: y + dy,
			Width: meta.Width, Color: meta.Color, Brush: meta.Brush,
		}
		if err := c.Draw(seg); err != nil {
			return fmt.Errorf("segment %d: %w", i, err)
		}
		x, y = seg.X1, seg.Y1
	}
	return c.EndStroke(strokeID)
}

func reportProgress(ctx context.Context, replica *client.Replica, c *client.Client, logger *slog.Logger) {
	t := time.NewTicker(5 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			buf := c.Buffer()
			logger.Info("replica state",
				"segments", len(replica.Segments()),
				"next_seq", buf.NextSeq(),
				"pending", buf.Pending(),
				"users", len(c.Users()))
		case <-ctx.Done():
			return
		}
	}
}
