package secure

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/sparkdeploy/spark/log"
)

// Environment variables for daemon TLS credentials, checked in order.
const (
	EnvCertPEM  = "SPARK_TLS_CERT"
	EnvKeyPEM   = "SPARK_TLS_KEY"
	EnvCertFile = "SPARK_TLS_CERT_FILE"
	EnvKeyFile  = "SPARK_TLS_KEY_FILE"
)

// Well-known certificate location used when no environment override is set.
const (
	defaultCertPath = "/etc/letsencrypt/live/sparkle/fullchain.pem"
	defaultKeyPath  = "/etc/letsencrypt/live/sparkle/privkey.pem"
)

var localPrefixes = []string{
	"127.", "10.", "192.168.",
	"172.16.", "172.17.", "172.18.", "172.19.",
	"172.20.", "172.21.", "172.22.", "172.23.",
	"172.24.", "172.25.", "172.26.", "172.27.",
	"172.28.", "172.29.", "172.30.", "172.31.",
}

// IsLocalNetwork reports whether host is loopback, a private-range address
// or the literal "localhost".
func IsLocalNetwork(host string) bool {
	if host == "localhost" {
		return true
	}
	for _, prefix := range localPrefixes {
		if strings.HasPrefix(host, prefix) {
			return true
		}
	}
	return false
}

// ClientTLSConfig returns the TLS config a control client uses for host.
// Local targets skip certificate verification (trust-on-first-use posture
// for LAN daemons running self-signed certs); everything else verifies
// against the system root store.
func ClientTLSConfig(host string) *tls.Config {
	if IsLocalNetwork(host) {
		log.LogAccess.Debug("TLS without verification (local network)")
		return &tls.Config{
			ServerName:         host,
			InsecureSkipVerify: true,
		}
	}
	log.LogAccess.Debug("TLS with full verification")
	return &tls.Config{ServerName: host}
}

// ServerTLSConfig loads the daemon certificate. Credential priority: inline
// PEM from environment, file paths from environment, the well-known
// letsencrypt path, and finally a transient self-signed certificate for
// localhost. The last step means a dev daemon never fails closed.
func ServerTLSConfig() (*tls.Config, error) {
	certPEM, keyPEM, err := loadCustomCerts()
	if err == nil {
		log.LogAccess.Info("using custom TLS certificates")
	} else {
		log.LogAccess.Info("generating self-signed certificate")
		certPEM, keyPEM, err = generateSelfSigned()
		if err != nil {
			return nil, err
		}
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, err
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}, nil
}

var errNoCustomCerts = errors.New("no custom certificates configured")

func loadCustomCerts() (certPEM, keyPEM []byte, err error) {
	if cert, key := os.Getenv(EnvCertPEM), os.Getenv(EnvKeyPEM); cert != "" && key != "" {
		return []byte(cert), []byte(key), nil
	}

	if certPath, keyPath := os.Getenv(EnvCertFile), os.Getenv(EnvKeyFile); certPath != "" && keyPath != "" {
		cert, cerr := os.ReadFile(certPath)
		key, kerr := os.ReadFile(keyPath)
		if cerr == nil && kerr == nil {
			return cert, key, nil
		}
	}

	cert, cerr := os.ReadFile(defaultCertPath)
	key, kerr := os.ReadFile(defaultKeyPath)
	if cerr == nil && kerr == nil {
		return cert, key, nil
	}

	return nil, nil, errNoCustomCerts
}

func generateSelfSigned() (certPEM, keyPEM []byte, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}

	template := x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: "localhost"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return nil, nil, err
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, nil, err
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
	return certPEM, keyPEM, nil
}
