package execution

import (
	"time"

	"github.com/orderflow-labs/relayer/config/encoding"
)

const namedLogger = "execution"

// RPCRetry configures the backoff/v4 retry policy wrapped around chain
// reads the execution engine treats as ChainRpcError (SPEC_FULL.md §7):
// the watermark lookup. Header and gas price reads are not retried.
type RPCRetry struct {
	MaxAttempts     uint              `long:"max-attempts"`
	InitialInterval encoding.Duration `long:"initial-interval"`
}

// Config is the execution package's slice of the top-level Config.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// TargetBlockOffset is how many blocks ahead of current the
	// broadcaster is asked to land a submission, per SPEC_FULL.md §4.3.
	TargetBlockOffset uint64 `long:"target-block-offset"`

	// GasLimit is the fixed gas limit attached to every execution
	// transaction; real marketplace calldata sizes vary, but the exchange
	// contract's execute() entrypoint has a bounded worst case.
	GasLimit uint64 `long:"gas-limit"`

	RPCRetry RPCRetry `group:"RPCRetry" namespace:"rpc-retry"`
}

// NewDefaultConfig returns the package defaults: a two-block submission
// target, a 300k gas limit, and three retries starting at 200ms.
func NewDefaultConfig() Config {
	return Config{
		TargetBlockOffset: 2,
		GasLimit:          300_000,
		RPCRetry: RPCRetry{
			MaxAttempts:     3,
			InitialInterval: encoding.Duration{Duration: 200 * time.Millisecond},
		},
	}
}
