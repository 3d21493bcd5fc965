package discovery

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-monolith/mono"
	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type advertised by canvas servers.
const ServiceType = "_canvas._tcp"

// Module advertises the canvas server on the local network.
type Module struct {
	enabled  bool
	instance string
	port     int
	server   *mdns.Server
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a discovery module for a server listening on port.
// A disabled module starts and stops without touching the network.
func NewModule(enabled bool, instance, port string) (*Module, error) {
	p, err := strconv.Atoi(port)
	if err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("invalid port %q", port)
	}
	if instance == "" {
		instance, _ = os.Hostname()
	}
	return &Module{
		enabled:  enabled,
		instance: instance,
		port:     p,
	}, nil
}

// Name returns the module name.
func (m *Module) Name() string {
	return "discovery"
}

// Start registers the mDNS service.
func (m *Module) Start(_ context.Context) error {
	if !m.enabled {
		log.Println("[discovery] mDNS advertisement disabled")
		return nil
	}

	service, err := mdns.NewMDNSService(
		m.instance,
		ServiceType,
		"",
		"",
		m.port,
		nil,
		[]string{"collaborative-canvas", "path=/ws"},
	)
	if err != nil {
		return fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to start mDNS server: %w", err)
	}
	m.server = server

	log.Printf("[discovery] Advertising %s as %q on port %d", ServiceType, m.instance, m.port)
	return nil
}

// Stop withdraws the mDNS service.
func (m *Module) Stop(_ context.Context) error {
	if m.server == nil {
		return nil
	}
	if err := m.server.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop mDNS server: %w", err)
	}
	m.server = nil
	log.Println("[discovery] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: !m.enabled || m.server != nil,
		Message: "operational",
		Details: map[string]any{
			"enabled":  m.enabled,
			"instance": m.instance,
			"port":     m.port,
		},
	}
}
