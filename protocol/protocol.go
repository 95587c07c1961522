package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxFrameSize is the largest payload accepted from a peer. Only control
// messages transit this channel (requests and response strings, never
// archives), so the cap is deliberately small to bound allocation against a
// corrupt or hostile peer.
const MaxFrameSize = 16 << 20

// ErrFrameTooLarge is returned when a peer announces a frame above MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// errorPrefix tags error responses on the wire.
const errorPrefix = "Error: "

// DeployRequest is the single message a control client sends to start a
// deploy session.
type DeployRequest struct {
	Repo         string `json:"repo"`
	Forge        string `json:"forge"`
	AuthUser     string `json:"auth_user,omitempty"`
	AuthPassword string `json:"auth_password,omitempty"`
	AutoHealth   bool   `json:"auto_health"`
}

// Result is the daemon's tagged reply to a deploy session.
type Result struct {
	OK      bool
	Message string
}

// SendMessage writes data as one length-prefixed frame.
//
// Wire format: [4 bytes: length (uint32, big-endian)][N bytes: payload].
func SendMessage(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

// RecvMessage reads one length-prefixed frame. A stream that ends inside the
// prefix or the payload yields an unexpected EOF.
func RecvMessage(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadDeployRequest decodes one framed JSON deploy request.
func ReadDeployRequest(r io.Reader) (*DeployRequest, error) {
	data, err := RecvMessage(r)
	if err != nil {
		return nil, err
	}
	var msg DeployRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed deploy request: %w", err)
	}
	return &msg, nil
}

// WriteDeployRequest encodes and frames a deploy request.
func WriteDeployRequest(w io.Writer, msg *DeployRequest) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return SendMessage(w, data)
}

// SendResult frames a deploy result, prefixing errors for the client.
func SendResult(w io.Writer, res Result) error {
	s := res.Message
	if !res.OK {
		s = errorPrefix + s
	}
	return SendMessage(w, []byte(s))
}

// RecvResult reads one framed response and tags it by the error prefix.
func RecvResult(r io.Reader) (Result, error) {
	data, err := RecvMessage(r)
	if err != nil {
		return Result{}, err
	}
	s := string(data)
	if strings.HasPrefix(s, errorPrefix) {
		return Result{OK: false, Message: strings.TrimPrefix(s, errorPrefix)}, nil
	}
	return Result{OK: true, Message: s}, nil
}
