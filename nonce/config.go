package nonce

import (
	"time"

	"github.com/orderflow-labs/relayer/config/encoding"
)

const namedLogger = "nonce"

// Config is the nonce package's slice of the top-level Config.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// LeaseTTL is the distributed lease lock's TTL, per SPEC_FULL.md §4.4.
	LeaseTTL encoding.Duration `long:"lease-ttl"`

	// LeaseRenewEvery is how often the lease holder refreshes the lock,
	// well inside LeaseTTL so a single missed renewal doesn't lose it.
	LeaseRenewEvery encoding.Duration `long:"lease-renew-every"`

	// DebounceInterval is how long GetNonce coalesces successive
	// allocations into a single persisted write.
	DebounceInterval encoding.Duration `long:"debounce-interval"`
}

// NewDefaultConfig returns the package defaults: a 15s lease TTL renewed
// every 5s, and a 100ms debounced save.
func NewDefaultConfig() Config {
	return Config{
		LeaseTTL:         encoding.Duration{Duration: 15 * time.Second},
		LeaseRenewEvery:  encoding.Duration{Duration: 5 * time.Second},
		DebounceInterval: encoding.Duration{Duration: 100 * time.Millisecond},
	}
}
