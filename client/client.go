// Package client implements the control side of the deploy protocol: one
// TLS connection, one framed request, one framed tagged result.
package client

import (
	"crypto/tls"
	"fmt"
	"net"
	"time"

	"github.com/sparkdeploy/spark/protocol"
	"github.com/sparkdeploy/spark/secure"
)

// DefaultPort is the daemon's TCP deploy port.
const DefaultPort = 7530

const dialTimeout = 10 * time.Second

// Deploy sends one deploy request to the daemon at host:port and waits for
// its response. The connection always runs TLS; certificate verification is
// skipped for local-network targets per the secure package policy.
func Deploy(host string, port int, msg *protocol.DeployRequest) (protocol.Result, error) {
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return protocol.Result{}, err
	}
	defer conn.Close()

	tlsConn := tls.Client(conn, secure.ClientTLSConfig(host))
	if err := tlsConn.Handshake(); err != nil {
		return protocol.Result{}, fmt.Errorf("TLS handshake: %w", err)
	}

	if err := protocol.WriteDeployRequest(tlsConn, msg); err != nil {
		return protocol.Result{}, err
	}
	clientLogger.Infof("deploy request sent for %s", msg.Repo)

	res, err := protocol.RecvResult(tlsConn)
	if err != nil {
		return protocol.Result{}, err
	}
	clientLogger.Infof("daemon response: %s", res.Message)
	return res, nil
}
