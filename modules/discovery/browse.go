package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/mdns"
)

// Server is a canvas server found on the local network.
type Server struct {
	Instance string
	Addr     string // host:port
}

// Browse queries the local network for canvas servers for up to timeout.
// The result is deduplicated by address.
func Browse(ctx context.Context, timeout time.Duration) ([]Server, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	found := make(chan []Server, 1)

	go func() {
		seen := make(map[string]bool)
		var servers []Server
		for e := range entries {
			srv, ok := toServer(e)
			if !ok || seen[srv.Addr] {
				continue
			}
			seen[srv.Addr] = true
			servers = append(servers, srv)
		}
		found <- servers
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout

	errCh := make(chan error, 1)
	go func() {
		errCh <- mdns.Query(params)
		close(entries)
	}()

	select {
	case err := <-errCh:
		servers := <-found
		if err != nil {
			return servers, fmt.Errorf("mDNS query failed: %w", err)
		}
		return servers, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func toServer(e *mdns.ServiceEntry) (Server, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Server{}, false
	}
	return Server{
		Instance: e.Name,
		Addr:     fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port),
	}, true
}
