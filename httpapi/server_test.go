package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderflow-labs/relayer/httpapi"
	"github.com/orderflow-labs/relayer/logging"
	"github.com/orderflow-labs/relayer/marketplaces"
	"github.com/orderflow-labs/relayer/matching"
	"github.com/orderflow-labs/relayer/orderbook"
)

func TestPipelines_StartStopStatus(t *testing.T) {
	p := httpapi.NewPipelines()
	collection := common.HexToAddress("0x1111111111111111111111111111111111111111")

	assert.False(t, p.IsActive(collection))
	p.Start(collection)
	assert.True(t, p.IsActive(collection))
	p.Stop(collection)
	assert.False(t, p.IsActive(collection))
}

func TestServer_StartStopStatusEndpoints(t *testing.T) {
	// Exercises the router wiring directly, bypassing net.Listen.
	p := httpapi.NewPipelines()
	collection := common.HexToAddress("0x2222222222222222222222222222222222222222")

	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	srv := httpapi.NewServer(log, httpapi.NewDefaultConfig(), p)
	mux := srv.Handler()

	req := httptest.NewRequest(http.MethodPost, "/collections/"+collection.Hex()+"/start", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, p.IsActive(collection))

	req = httptest.NewRequest(http.MethodGet, "/collections/"+collection.Hex()+"/status", nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active":true`)
}

func TestServer_SubmitOrderRejectsUnsupportedMarketplaceBeforeSaving(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	store := orderbook.NewStorage(log, client, 1)
	matchingEngine := matching.NewEngine(log, store, matching.NewDefaultConfig())
	dispatcher := marketplaces.NewDispatcher(marketplaces.DefaultEnablementTable(), marketplaces.NewDefaultRegistry())

	srv := httpapi.NewServer(log, httpapi.NewDefaultConfig(), httpapi.NewPipelines()).
		WithOrderIngestion(store, matchingEngine, dispatcher)
	mux := srv.Handler()

	body, err := json.Marshal(map[string]any{
		"chainId":       1,
		"side":          0,
		"scope":         0,
		"marketplace":   "x2y2",
		"kind":          "single-token",
		"collection":    "0x1111111111111111111111111111111111111111",
		"tokenId":       "7",
		"complication":  "0x2222222222222222222222222222222222222222",
		"currency":      "0x0000000000000000000000000000000000000000",
		"startPriceEth": "1.5",
		"startTime":     1000,
		"endTime":       2000,
		"signer":        "0x3333333333333333333333333333333333333333",
		"nonce":         1,
		"rawPayload":    "payload",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported order kind")

	// Rejected before any state mutation: no match was ever persisted.
	ids, err := store.MatchesByGasPriceDesc(req.Context(), 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
