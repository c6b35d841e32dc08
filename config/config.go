// Package config defines the relayer's configuration surface: the
// recognized options from SPEC_FULL.md §6. Config is decoded from
// relayer.toml with BurntSushi/toml by Watcher and validated here. The
// go-flags tags name each option, but cmd/relayer does not parse Config
// from its command line.
package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orderflow-labs/relayer/config/encoding"
	"github.com/orderflow-labs/relayer/execution"
	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/matching"
	"github.com/orderflow-labs/relayer/nonce"
	"github.com/orderflow-labs/relayer/orderbook"
)

// Mode selects between production and fork/dev behavior, per SPEC_FULL.md
// §9's resolution of the broadcaster open question.
type Mode string

const (
	ModeDev  Mode = "dev"
	ModeProd Mode = "prod"
)

// Config ties together every package-level Config, matching the
// teacher's top-level Config-of-Configs composition.
type Config struct {
	ChainID uint64 `long:"chain-id" description:"EVM chain id the relayer trades on" required:"true"`

	HTTPRPCURL string `long:"http-rpc-url" description:"JSON-RPC endpoint used for direct submission and chain reads"`
	WSRPCURL   string `long:"ws-rpc-url" description:"websocket RPC endpoint; no relayer component reads it"`

	InitiatorPrivateKey   string `long:"initiator-private-key" description:"hex-encoded private key used to sign submitted transactions"`
	MatchExecutorAddress  string `long:"match-executor-address" description:"address of the on-chain match executor contract"`
	FlashbotsAuthSignerKey string `long:"flashbots-auth-signer-key" description:"private key used to authenticate bundles with the private relay; enables the private-relay broadcaster when set"`

	RedisURL string `long:"redis-url" description:"redis connection string backing the orderbook index and the nonce lease lock"`

	Mode Mode `long:"mode" choice:"dev" choice:"prod" description:"dev forces the direct-RPC broadcaster regardless of flashbots config"`

	EnableForking encoding.Bool `long:"enable-forking" description:"when set, HTTPRPCURL must resolve to loopback"`
	Debug         encoding.Bool `long:"debug" description:"enable debug-level logging"`

	Logging   encoding.LogLevel `long:"log-level"`
	Orderbook orderbook.Config  `group:"Orderbook" namespace:"orderbook"`
	Matching  matching.Config   `group:"Matching" namespace:"matching"`
	Execution execution.Config  `group:"Execution" namespace:"execution"`
	Nonce     nonce.Config      `group:"Nonce" namespace:"nonce"`
}

// NewDefaultConfig returns the defaults for every embedded package
// config, matching the teacher's NewDefaultConfig composition pattern.
func NewDefaultConfig() Config {
	return Config{
		Mode:      ModeDev,
		Logging:   encoding.LogLevel{Level: logging.InfoLevel},
		Orderbook: orderbook.NewDefaultConfig(),
		Matching:  matching.NewDefaultConfig(),
		Execution: execution.NewDefaultConfig(),
		Nonce:     nonce.NewDefaultConfig(),
	}
}

// Validate enforces the Fatal-on-startup-only checks from SPEC_FULL.md §7:
// a non-loopback HTTP URL while forking is enabled aborts the process.
func (c Config) Validate() error {
	if c.ChainID == 0 {
		return fmt.Errorf("chain-id is required")
	}
	if bool(c.EnableForking) && !isLoopback(c.HTTPRPCURL) {
		return fmt.Errorf("enable-forking requires http-rpc-url to resolve to loopback, got %q", c.HTTPRPCURL)
	}
	if c.MatchExecutorAddress != "" && !common.IsHexAddress(c.MatchExecutorAddress) {
		return fmt.Errorf("match-executor-address is not a valid address: %q", c.MatchExecutorAddress)
	}
	return nil
}

// UsesPrivateRelay reports whether the configured mode resolves to the
// private-relay broadcaster: production mode with a flashbots signer key
// configured (SPEC_FULL.md §9).
func (c Config) UsesPrivateRelay() bool {
	return c.Mode == ModeProd && c.FlashbotsAuthSignerKey != ""
}

func isLoopback(rawURL string) bool {
	for _, host := range []string{"127.0.0.1", "localhost", "::1"} {
		if strings.Contains(rawURL, host) {
			return true
		}
	}
	return false
}
