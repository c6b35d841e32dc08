package marketplaces_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow-labs/relayer/marketplaces"
	"github.com/orderflow-labs/relayer/types"
)

func TestDefaultEnablementTable_SeaportSingleTokenEnabled(t *testing.T) {
	table := marketplaces.DefaultEnablementTable()
	assert.True(t, table.IsEnabled(marketplaces.Seaport, marketplaces.SingleToken))
	assert.False(t, table.IsEnabled(marketplaces.Seaport, marketplaces.ContractWide))
}

func TestDefaultEnablementTable_InfinityPresentButDisabled(t *testing.T) {
	table := marketplaces.DefaultEnablementTable()
	row, ok := table[marketplaces.Infinity]
	require.True(t, ok)
	assert.False(t, row.Enabled)
	for _, k := range marketplaces.AllKinds {
		assert.False(t, row.Kinds[k].Enabled)
	}
}

func TestDefaultEnablementTable_EveryOtherMarketplaceDisabled(t *testing.T) {
	table := marketplaces.DefaultEnablementTable()
	for _, m := range marketplaces.AllMarketplaces {
		if m == marketplaces.Seaport {
			continue
		}
		assert.False(t, table[m].Enabled, "marketplace %s should be disabled by default", m)
	}
}

func TestDispatcher_Dispatch(t *testing.T) {
	d := marketplaces.NewDispatcher(marketplaces.DefaultEnablementTable(), marketplaces.NewDefaultRegistry())

	builder, err := d.Dispatch(marketplaces.Seaport, marketplaces.SingleToken)
	require.NoError(t, err)

	sell := &types.Order{RawPayload: []byte("sell-payload")}
	buf, err := builder.BuildTransaction(context.Background(), types.Match{}, sell, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("sell-payload"), buf)
}

func TestDispatcher_UnsupportedReturnsErrUnsupportedOrderKind(t *testing.T) {
	d := marketplaces.NewDispatcher(marketplaces.DefaultEnablementTable(), marketplaces.NewDefaultRegistry())

	_, err := d.Dispatch(marketplaces.X2Y2, marketplaces.SingleToken)
	assert.ErrorIs(t, err, marketplaces.ErrUnsupportedOrderKind)

	_, err = d.Dispatch(marketplaces.Infinity, marketplaces.SingleToken)
	assert.ErrorIs(t, err, marketplaces.ErrUnsupportedOrderKind)
}

func TestDispatcher_CheckExhaustiveness(t *testing.T) {
	d := marketplaces.NewDispatcher(marketplaces.DefaultEnablementTable(), marketplaces.NewDefaultRegistry())
	assert.NoError(t, d.CheckExhaustiveness())

	gap := marketplaces.DefaultEnablementTable()
	row := gap[marketplaces.X2Y2]
	row.Enabled = true
	row.Kinds[marketplaces.SingleToken] = marketplaces.KindEnablement{Enabled: true}
	gap[marketplaces.X2Y2] = row

	dGap := marketplaces.NewDispatcher(gap, marketplaces.NewDefaultRegistry())
	assert.Error(t, dGap.CheckExhaustiveness())
}
