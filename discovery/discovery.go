package discovery

import (
	"bytes"
	"fmt"
	"net"
	"time"

	"github.com/sparkdeploy/spark/log"
)

// wire literals
var (
	requestPayload  = []byte("SPARK_DISCOVER")
	responsePayload = []byte("SPARK_HERE")
)

// DefaultPort is the UDP broadcast port daemons listen on.
const DefaultPort = 7001

// RunServer answers discovery broadcasts until the socket fails. It should
// run as a background task alongside the TCP deploy listener.
func RunServer(port int) error {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf("0.0.0.0:%d", port))
	if err != nil {
		return err
	}
	defer conn.Close()

	log.LogAccess.Infof("listening for discovery on UDP %d", port)

	buf := make([]byte, 1024)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return err
		}
		if !bytes.Equal(buf[:n], requestPayload) {
			continue
		}
		log.LogAccess.Debugf("discovery ping from %s", addr)
		if _, err := conn.WriteTo(responsePayload, addr); err != nil {
			return err
		}
	}
}

// Discover broadcasts one probe and waits up to timeout for the first
// daemon to answer, returning its address.
func Discover(port int, timeout time.Duration) (net.Addr, error) {
	conn, err := net.ListenPacket("udp4", "0.0.0.0:0")
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	dst := &net.UDPAddr{IP: net.IPv4bcast, Port: port}
	if _, err := conn.WriteTo(requestPayload, dst); err != nil {
		return nil, err
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	buf := make([]byte, 1024)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(buf[:n], responsePayload) {
			return addr, nil
		}
	}
}
