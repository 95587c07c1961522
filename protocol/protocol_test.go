package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	payloads := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0xab}, 1<<16),
	}
	for _, payload := range payloads {
		var buf bytes.Buffer
		require.NoError(SendMessage(&buf, payload))

		got, err := RecvMessage(&buf)
		require.NoError(err)
		assert.Equal(payload, got)
	}
}

func TestRecvMessageTruncated(t *testing.T) {
	assert := assert.New(t)

	// prefix announces 5 bytes, stream carries 2
	data := []byte{0, 0, 0, 5, 'h', 'i'}
	_, err := RecvMessage(bytes.NewReader(data))
	assert.ErrorIs(err, io.ErrUnexpectedEOF)

	// stream ends inside the prefix itself
	_, err = RecvMessage(bytes.NewReader([]byte{0, 0}))
	assert.ErrorIs(err, io.ErrUnexpectedEOF)
}

func TestRecvMessageTooLarge(t *testing.T) {
	assert := assert.New(t)

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], MaxFrameSize+1)
	_, err := RecvMessage(bytes.NewReader(lenBuf[:]))
	assert.ErrorIs(err, ErrFrameTooLarge)
}

func TestDeployRequestRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	msg := &DeployRequest{
		Repo:         "acme/site",
		Forge:        "http://forge.local",
		AuthUser:     "bob",
		AuthPassword: "secret",
		AutoHealth:   true,
	}
	var buf bytes.Buffer
	require.NoError(WriteDeployRequest(&buf, msg))

	got, err := ReadDeployRequest(&buf)
	require.NoError(err)
	assert.Equal(msg, got)
}

func TestReadDeployRequestMalformed(t *testing.T) {
	assert := assert.New(t)

	var buf bytes.Buffer
	assert.NoError(SendMessage(&buf, []byte("{not json")))
	_, err := ReadDeployRequest(&buf)
	assert.Error(err)
}

func TestResultTagging(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	var buf bytes.Buffer
	require.NoError(SendResult(&buf, Result{OK: true, Message: "Deployed to /tmp/apps/acme_site"}))
	res, err := RecvResult(&buf)
	require.NoError(err)
	assert.True(res.OK)
	assert.Equal("Deployed to /tmp/apps/acme_site", res.Message)

	buf.Reset()
	require.NoError(SendResult(&buf, Result{OK: false, Message: "Download failed"}))
	res, err = RecvResult(&buf)
	require.NoError(err)
	assert.False(res.OK)
	assert.Equal("Download failed", res.Message)
}
