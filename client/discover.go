package client

import (
	"context"
	"fmt"
	"time"

	"github.com/example/collaborative-canvas/modules/discovery"
)

// Discover browses the local network for canvas servers and returns their
// websocket endpoints.
func Discover(ctx context.Context, timeout time.Duration) ([]string, error) {
	servers, err := discovery.Browse(ctx, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to discover servers: %w", err)
	}
	urls := make([]string, 0, len(servers))
	for _, srv := range servers {
		urls = append(urls, "ws://"+srv.Addr+"/ws")
	}
	return urls, nil
}
