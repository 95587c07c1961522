package main

import (
	"crypto/tls"
	"fmt"
	"net"

	"github.com/sparkdeploy/spark/deploy"
	"github.com/sparkdeploy/spark/gateway"
	"github.com/sparkdeploy/spark/log"
	"github.com/sparkdeploy/spark/secure"
)

// RunDeployServer accepts deploy connections and runs one session per
// connection. A failed TLS handshake drops the connection, never the
// listener.
func RunDeployServer(address string, port int, routes *gateway.Routes) error {
	tlsConf, err := secure.ServerTLSConfig()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", address, port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.LogAccess.Infof("deploy server listening on %s", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			return err
		}
		log.LogAccess.Debugf("connection from %s", conn.RemoteAddr())

		go func(conn net.Conn) {
			defer conn.Close()

			tlsConn := tls.Server(conn, tlsConf)
			if err := tlsConn.Handshake(); err != nil {
				log.LogError.Errorf("TLS handshake failed: %v", err)
				return
			}
			deploy.NewSession(routes).Handle(tlsConn)
		}(conn)
	}
}
