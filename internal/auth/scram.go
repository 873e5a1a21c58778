// Package auth implements the client side of a SCRAM-SHA-256 (RFC 7677)
// authentication handshake. Nothing else in the repository calls it: feed
// sessions subscribe without an authentication step.
package auth

import (
	"fmt"

	"github.com/xdg-go/scram"
)

// Exchange drives a single SCRAM-SHA-256 client/server handshake. It wraps
// github.com/xdg-go/scram, the same SCRAM implementation already pulled in
// transitively by the Mongo driver, rather than hand-rolling the
// HMAC/PBKDF2 plumbing.
type Exchange struct {
	conv *scram.ClientConversation
}

// NewExchange begins a SCRAM-SHA-256 exchange for username/password. nonceFn,
// if non-nil, overrides the client nonce generator — tests use this to
// reproduce a fixed RFC 7677 vector; production code should leave it nil so
// the library's crypto/rand generator is used.
func NewExchange(username, password string, nonceFn func() string) (*Exchange, error) {
	client, err := scram.SHA256.NewClient(username, password, "")
	if err != nil {
		return nil, fmt.Errorf("auth: new scram client: %w", err)
	}
	if nonceFn != nil {
		client = client.WithNonceGenerator(nonceFn)
	}
	return &Exchange{conv: client.NewConversation()}, nil
}

// FirstMessage returns the client-first-message to send to the server.
func (e *Exchange) FirstMessage() (string, error) {
	return e.conv.Step("")
}

// Challenge feeds the server's challenge (client-first response or the
// final server verification message) to the conversation and returns the
// next message to send, if any. Once Done reports true, the returned string
// is empty and need not be sent.
func (e *Exchange) Challenge(serverMsg string) (string, error) {
	return e.conv.Step(serverMsg)
}

// Done reports whether the exchange has completed.
func (e *Exchange) Done() bool { return e.conv.Done() }

// Valid reports whether the exchange completed successfully. Only
// meaningful once Done is true.
func (e *Exchange) Valid() bool { return e.conv.Valid() }
