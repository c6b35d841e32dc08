package marketplaces

import (
	"context"
	"fmt"

	"github.com/orderflow-labs/relayer/types"
)

// Builder encodes a matched (sell, buy) pair into the calldata a
// marketplace's exchange contract expects. Real marketplace SDKs are an
// external collaborator (spec.md §1); this package ships the dispatch
// table and stub builders, not production calldata encoders.
type Builder interface {
	BuildTransaction(ctx context.Context, match types.Match, sell, buy *types.Order) ([]byte, error)
}

// Registry is the Builders map[Marketplace]map[OrderKind]Builder capability
// table referenced in SPEC_FULL.md §4.3.
type Registry map[Marketplace]map[OrderKind]Builder

// NewDefaultRegistry registers the stub builder for every variant the
// default EnablementTable turns on (seaport:single-token).
func NewDefaultRegistry() Registry {
	return Registry{
		Seaport: {
			SingleToken: PassthroughBuilder{},
		},
	}
}

// PassthroughBuilder hands the listing's raw signed payload straight
// through, standing in for a real marketplace SDK's calldata encoder.
type PassthroughBuilder struct{}

func (PassthroughBuilder) BuildTransaction(_ context.Context, _ types.Match, sell, _ *types.Order) ([]byte, error) {
	return sell.RawPayload, nil
}

// Dispatcher resolves a Builder for (marketplace, kind), consulting both
// the enablement table and the builder registry.
type Dispatcher struct {
	table    EnablementTable
	registry Registry
}

// NewDispatcher builds a Dispatcher over the given table and registry.
func NewDispatcher(table EnablementTable, registry Registry) *Dispatcher {
	return &Dispatcher{table: table, registry: registry}
}

// Dispatch returns the Builder for (marketplace, kind), or
// ErrUnsupportedOrderKind if the pair is not both enabled and registered.
func (d *Dispatcher) Dispatch(m Marketplace, k OrderKind) (Builder, error) {
	if !d.table.IsEnabled(m, k) {
		return nil, fmt.Errorf("%w: %s:%s is not enabled", ErrUnsupportedOrderKind, m, k)
	}
	kinds, ok := d.registry[m]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s has no registered builder", ErrUnsupportedOrderKind, m, k)
	}
	builder, ok := kinds[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%s has no registered builder", ErrUnsupportedOrderKind, m, k)
	}
	return builder, nil
}

// CheckExhaustiveness panics-worthy-by-caller-convention: it returns an
// error (rather than panicking itself, so cmd/relayer controls the
// panic) naming the first enabled (marketplace, kind) pair missing a
// registered builder. This is the startup-time stand-in for the
// compile-time exhaustiveness check Go cannot express, per spec.md §9.
func (d *Dispatcher) CheckExhaustiveness() error {
	for _, m := range AllMarketplaces {
		row, ok := d.table[m]
		if !ok || !row.Enabled {
			continue
		}
		for _, k := range AllKinds {
			if !row.Kinds[k].Enabled {
				continue
			}
			if _, err := d.Dispatch(m, k); err != nil {
				return fmt.Errorf("marketplaces: enablement table is not exhaustive: %w", err)
			}
		}
	}
	return nil
}
