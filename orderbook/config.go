package orderbook

import "github.com/orderflow-labs/relayer/config/encoding"

const namedLogger = "orderbook"

// Config is the orderbook package's slice of the top-level Config,
// matching the teacher's per-package Config/NewDefaultConfig convention.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
}

// NewDefaultConfig returns the package defaults.
func NewDefaultConfig() Config {
	return Config{}
}
