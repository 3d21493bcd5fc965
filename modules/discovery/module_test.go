package discovery

import (
	"context"
	"net"
	"testing"

	"github.com/hashicorp/mdns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModule_ValidatesPort(t *testing.T) {
	_, err := NewModule(true, "box", "http")
	assert.Error(t, err)

	_, err = NewModule(true, "box", "70000")
	assert.Error(t, err)

	m, err := NewModule(false, "", "3000")
	require.NoError(t, err)
	assert.Equal(t, 3000, m.port)
	assert.Equal(t, "discovery", m.Name())
}

func TestModule_DisabledIsNoop(t *testing.T) {
	m, err := NewModule(false, "box", "3000")
	require.NoError(t, err)

	require.NoError(t, m.Start(context.Background()))
	assert.Nil(t, m.server)
	assert.True(t, m.Health(context.Background()).Healthy)
	require.NoError(t, m.Stop(context.Background()))
}

func TestToServer(t *testing.T) {
	_, ok := toServer(nil)
	assert.False(t, ok)

	_, ok = toServer(&mdns.ServiceEntry{Port: 3000})
	assert.False(t, ok, "no IPv4 address")

	srv, ok := toServer(&mdns.ServiceEntry{
		Name:   "box._canvas._tcp.local.",
		AddrV4: net.IPv4(192, 168, 1, 20),
		Port:   3000,
	})
	require.True(t, ok)
	assert.Equal(t, "192.168.1.20:3000", srv.Addr)
}
