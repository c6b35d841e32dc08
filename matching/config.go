package matching

import "github.com/orderflow-labs/relayer/config/encoding"

const namedLogger = "matching"

// Config is the matching engine's slice of the top-level Config.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// CandidateCap bounds how many opposite-side candidates a single
	// MatchOrder call will inspect: "scanning stops when ... a per-call
	// candidate cap is reached (default 50)".
	CandidateCap int64 `long:"candidate-cap"`
}

// NewDefaultConfig returns the package defaults.
func NewDefaultConfig() Config {
	return Config{
		CandidateCap: 50,
	}
}
