package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

const (
	HandshakeMagic = "pBR1\x00"
	NonceSize      = 32
	authContext    = "padbridge-auth-v1"

	replyOK     = "OK\x00"
	replyDenied = "NO\x00"
)

// ErrUnauthorized is returned by both sides when the client proof does not match.
var ErrUnauthorized = errors.New("auth: invalid password")

func proof(key, clientNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(authContext))
	_, _ = mac.Write(clientNonce)
	return mac.Sum(nil)
}

// IsAuthHandshake reports whether the next bytes in r are the handshake magic.
func IsAuthHandshake(r *bufio.Reader) (bool, error) {
	b, err := r.Peek(len(HandshakeMagic))
	if err != nil {
		return false, err
	}
	return string(b) == HandshakeMagic, nil
}

// ClientHandshake sends magic + client nonce + proof and waits for
// "OK\0" + server nonce.
func ClientHandshake(r io.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if r == nil || w == nil {
		return nil, nil, fmt.Errorf("handshake: nil stream")
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}

	clientNonce = make([]byte, NonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, nil, fmt.Errorf("generate client nonce: %w", err)
	}

	msg := append([]byte(HandshakeMagic), clientNonce...)
	msg = append(msg, proof(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return nil, nil, fmt.Errorf("write handshake: %w", err)
	}

	reply := make([]byte, len(replyOK))
	if _, err := io.ReadFull(r, reply); err != nil {
		return nil, nil, fmt.Errorf("read handshake response: %w", err)
	}
	switch string(reply) {
	case replyOK:
	case replyDenied:
		return nil, nil, ErrUnauthorized
	default:
		return nil, nil, fmt.Errorf("invalid handshake response from server: %q", reply)
	}

	serverNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, nil, fmt.Errorf("read server nonce: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// ServerHandshake consumes the client hello, checks the proof and replies.
// A bad proof is answered with "NO\0" before ErrUnauthorized is returned.
func ServerHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if r == nil || w == nil {
		return nil, nil, fmt.Errorf("handshake: nil stream")
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}

	magic := make([]byte, len(HandshakeMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, nil, fmt.Errorf("read handshake magic: %w", err)
	}
	if string(magic) != HandshakeMagic {
		return nil, nil, fmt.Errorf("handshake: bad magic %q", magic)
	}

	clientNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, clientNonce); err != nil {
		return nil, nil, fmt.Errorf("read client nonce: %w", err)
	}
	clientAuth := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, clientAuth); err != nil {
		return nil, nil, fmt.Errorf("read client auth: %w", err)
	}

	if !hmac.Equal(clientAuth, proof(key, clientNonce)) {
		_, _ = w.Write([]byte(replyDenied))
		return nil, nil, ErrUnauthorized
	}

	serverNonce = make([]byte, NonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return nil, nil, fmt.Errorf("generate server nonce: %w", err)
	}
	if _, err := w.Write(append([]byte(replyOK), serverNonce...)); err != nil {
		return nil, nil, fmt.Errorf("write response: %w", err)
	}
	return clientNonce, serverNonce, nil
}
