package discovery

import (
	"net"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparkdeploy/spark/log"
)

func TestMain(m *testing.M) {
	err := log.InitLog(log.DefaultConfig)
	if err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestServerRespondsToProbe(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	// pick a free port first, then hand it to the server
	probe, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(err)
	defer probe.Close()

	srvConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(err)
	srvPort := srvConn.LocalAddr().(*net.UDPAddr).Port
	srvConn.Close()

	go func() { _ = RunServer(srvPort) }()
	time.Sleep(50 * time.Millisecond)

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: srvPort}
	_, err = probe.WriteTo([]byte("SPARK_DISCOVER"), dst)
	require.NoError(err)

	require.NoError(probe.SetReadDeadline(time.Now().Add(2 * time.Second)))
	buf := make([]byte, 1024)
	n, _, err := probe.ReadFrom(buf)
	require.NoError(err)
	assert.Equal("SPARK_HERE", string(buf[:n]))
}

func TestServerIgnoresUnknownPayload(t *testing.T) {
	require := require.New(t)

	probe, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(err)
	defer probe.Close()

	srvConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(err)
	srvPort := srvConn.LocalAddr().(*net.UDPAddr).Port
	srvConn.Close()

	go func() { _ = RunServer(srvPort) }()
	time.Sleep(50 * time.Millisecond)

	dst := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: srvPort}
	_, err = probe.WriteTo([]byte("HELLO"), dst)
	require.NoError(err)

	require.NoError(probe.SetReadDeadline(time.Now().Add(200 * time.Millisecond)))
	buf := make([]byte, 1024)
	_, _, err = probe.ReadFrom(buf)
	require.Error(err) // deadline, no reply for junk
}

func TestDiscoverTimeout(t *testing.T) {
	// nothing listening: the probe must come back with a deadline error
	// instead of hanging
	srvConn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	unusedPort := srvConn.LocalAddr().(*net.UDPAddr).Port
	srvConn.Close()

	_, err = Discover(unusedPort, 200*time.Millisecond)
	assert.Error(t, err)
}
