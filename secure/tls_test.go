package secure

import (
	"crypto/tls"
	"os"
	"testing"

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

func TestIsLocalNetwork(t *testing.T) {
	assert := assert.New(t)

	local := []string{
		"localhost",
		"127.0.0.1",
		"10.0.0.5",
		"172.16.0.1",
		"172.31.255.254",
		"192.168.1.100",
	}
	for _, host := range local {
		assert.True(IsLocalNetwork(host), host)
	}

	remote := []string{
		"8.8.8.8",
		"172.32.0.1",
		"172.15.0.1",
		"example.com",
		"193.168.1.1",
	}
	for _, host := range remote {
		assert.False(IsLocalNetwork(host), host)
	}
}

func TestClientTLSConfig(t *testing.T) {
	assert := assert.New(t)

	cfg := ClientTLSConfig("192.168.1.10")
	assert.True(cfg.InsecureSkipVerify)

	cfg = ClientTLSConfig("deploy.example.com")
	assert.False(cfg.InsecureSkipVerify)
	assert.Equal("deploy.example.com", cfg.ServerName)
}

func TestServerTLSConfigSelfSigned(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)

	// no env overrides: fall through to a generated certificate
	t.Setenv(EnvCertPEM, "")
	t.Setenv(EnvKeyPEM, "")
	t.Setenv(EnvCertFile, "")
	t.Setenv(EnvKeyFile, "")

	cfg, err := ServerTLSConfig()
	require.NoError(err)
	require.Len(cfg.Certificates, 1)
	assert.NotEmpty(cfg.Certificates[0].Certificate)
}

func TestServerTLSConfigInlinePEM(t *testing.T) {
	require := require.New(t)

	certPEM, keyPEM, err := generateSelfSigned()
	require.NoError(err)
	_, err = tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(err)

	t.Setenv(EnvCertPEM, string(certPEM))
	t.Setenv(EnvKeyPEM, string(keyPEM))

	cfg, err := ServerTLSConfig()
	require.NoError(err)
	require.Len(cfg.Certificates, 1)
}
