package httpapi

import "github.com/orderflow-labs/relayer/config/encoding"

const namedLogger = "httpapi"

// Config is the httpapi package's slice of the top-level Config.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// ListenAddr is the TCP address the control surface binds to.
	ListenAddr string `long:"listen-addr"`
}

// NewDefaultConfig returns the package defaults.
func NewDefaultConfig() Config {
	return Config{ListenAddr: ":8080"}
}
