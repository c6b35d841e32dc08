package nonce

import "errors"

var (
	// ErrLeaseExpired is returned by GetNonce once the distributed lease
	// has been lost, either to renewal failure or an explicit Close.
	ErrLeaseExpired = errors.New("nonce: lease expired")

	// ErrClosed is returned by GetNonce, together with ErrLeaseExpired,
	// once the Provider has moved to the terminal Closed state.
	ErrClosed = errors.New("nonce: provider closed")

	// ErrNoRecord is returned by Store.Load when no document exists yet
	// for the (account, exchange) pair; callers treat it as a persisted
	// nonce of zero.
	ErrNoRecord = errors.New("nonce: no persisted record")
)
