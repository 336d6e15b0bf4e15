package exchange

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*IndodaxClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	nonces, err := NewNonceSequencer(context.Background(), nil)
	require.NoError(t, err)

	client := NewIndodaxClient("test-key", "test-secret", server.URL, nonces, zap.NewNop())
	return client, server
}

func TestPrivatePostSignsRequest(t *testing.T) {
	var (
		mu      sync.Mutex
		gotKey  string
		gotSign string
		gotBody string
	)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		mu.Lock()
		gotKey = r.Header.Get("Key")
		gotSign = r.Header.Get("Sign")
		gotBody = r.PostForm.Encode()
		mu.Unlock()
		w.Write([]byte(`{"success":1,"return":{"balance":{"idr":"1500000","btc":0.5},"balance_hold":{"idr":"0","btc":0}}}`))
	})

	balances, err := client.GetBalance(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotKey)

	// The Sign header must be the HMAC of exactly the body that was sent.
	expected, err := NewSigner("test-secret").Sign(gotBody)
	require.NoError(t, err)
	assert.Equal(t, expected, gotSign)

	require.Contains(t, balances, "idr")
	assert.Equal(t, 1500000.0, balances["idr"].Available)
	assert.Equal(t, 0.5, balances["btc"].Available)
}

func TestPrivatePostExchangeErrorNotRetried(t *testing.T) {
	attempts := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.Write([]byte(`{"success":0,"error":"Insufficient balance.","error_code":"insufficient_fund"}`))
	})

	_, err := client.GetBalance(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1, attempts, "business rejections must not be retried")
	assert.True(t, errors.Is(err, domain.ErrInsufficientFunds))

	var ee *domain.ExchangeError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "Insufficient balance.", ee.Message, "exchange message must survive verbatim")
}

func TestPrivatePostTransportFailureRetriedWithFreshNonce(t *testing.T) {
	var (
		mu     sync.Mutex
		nonces []int64
	)

	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		n, err := strconv.ParseInt(r.PostForm.Get("timestamp"), 10, 64)
		require.NoError(t, err)
		mu.Lock()
		nonces = append(nonces, n)
		mu.Unlock()
		w.Write([]byte("gateway exploded")) // not JSON
	})

	_, err := client.GetBalance(context.Background())

	var te *domain.TransportError
	require.True(t, errors.As(err, &te), "expected TransportError, got %v", err)

	require.Len(t, nonces, defaultMaxAttempts, "transport failures retry up to the bound")
	for i := 1; i < len(nonces); i++ {
		assert.Greater(t, nonces[i], nonces[i-1], "every retry must carry a fresh, larger nonce")
	}
}

func TestPrivatePostConnectionFailure(t *testing.T) {
	nonces, err := NewNonceSequencer(context.Background(), nil)
	require.NoError(t, err)

	// Nothing listens here.
	client := NewIndodaxClient("k", "s", "http://127.0.0.1:1", nonces, zap.NewNop())
	client.client.Timeout = time.Second

	_, err = client.GetBalance(context.Background())
	var te *domain.TransportError
	require.True(t, errors.As(err, &te))
}

func TestGetTicker(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ticker/btc_idr", r.URL.Path)
		w.Write([]byte(`{"ticker":{"high":"1690000000","low":"1625000000","vol_btc":"12.3","vol_idr":"20400000000","last":"1680000000","buy":"1679000000","sell":"1681000000","server_time":1700000000}}`))
	})

	ticker, err := client.GetTicker(context.Background(), domain.NewPair("btc", "idr"))
	require.NoError(t, err)

	assert.Equal(t, 1680000000.0, ticker.Last)
	assert.Equal(t, 1679000000.0, ticker.Buy)
	assert.Equal(t, 1681000000.0, ticker.Sell)
	assert.Equal(t, int64(1700000000), ticker.ServerTime.Unix())
}

func TestGetTickerInvalidPair(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Invalid pair","error_code":"invalid_pair"}`))
	})

	_, err := client.GetTicker(context.Background(), domain.NewPair("nope", "idr"))
	assert.True(t, errors.Is(err, domain.ErrInvalidPair))
}

func TestCreateOrderBuySizedInQuote(t *testing.T) {
	var form map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(`{"success":1,"return":{"order_id":59632,"receive_btc":"0.00059","spend_rp":1000000,"remain_rp":0,"fee":"3000"}}`))
	})

	order, err := client.CreateOrder(context.Background(), domain.OrderRequest{
		Pair:          domain.NewPair("btc", "idr"),
		Side:          domain.SideBuy,
		SizingMode:    domain.SizeByQuote,
		Amount:        1000000,
		Price:         1681000000,
		ClientOrderID: "coid-1",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"trade"}, form["method"])
	assert.Equal(t, []string{"btc_idr"}, form["pair"])
	assert.Equal(t, []string{"buy"}, form["type"])
	assert.Equal(t, []string{"1000000"}, form["idr"], "buys are sized by the quote currency parameter")
	assert.Equal(t, []string{"coid-1"}, form["client_order_id"])

	assert.Equal(t, "59632", order.ID)
	assert.Equal(t, domain.StatusFilled, order.Status, "zero remainder means a full fill")
}

func TestCreateOrderSellSizedInBase(t *testing.T) {
	var form map[string][]string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Write([]byte(`{"success":1,"return":{"order_id":"59640","remain_btc":"0.01000000"}}`))
	})

	order, err := client.CreateOrder(context.Background(), domain.OrderRequest{
		Pair:       domain.NewPair("btc", "idr"),
		Side:       domain.SideSell,
		SizingMode: domain.SizeByBase,
		Amount:     0.01,
		Price:      1679000000,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"0.01"}, form["btc"], "sells are sized by the coin parameter")
	assert.Equal(t, domain.StatusOpen, order.Status)
	assert.Equal(t, 0.01, order.Remaining)
}

func TestGetOpenOrdersSinglePair(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":1,"return":{"orders":[
			{"order_id":"101","submit_time":"1700000100","price":"1680000000","type":"buy","order_idr":"500000","remain_idr":"250000"},
			{"order_id":"102","submit_time":"1700000200","price":"1700000000","type":"sell","order_btc":"0.02","remain_btc":"0.02"}
		]}}`))
	})

	orders, err := client.GetOpenOrders(context.Background(), domain.NewPair("btc", "idr"))
	require.NoError(t, err)
	require.Len(t, orders, 2)

	buy := orders[0]
	assert.Equal(t, domain.SideBuy, buy.Side)
	assert.Equal(t, domain.SizeByQuote, buy.SizingMode)
	assert.Equal(t, 500000.0, buy.Amount)
	assert.Equal(t, domain.StatusPartiallyFilled, buy.Status)

	sell := orders[1]
	assert.Equal(t, domain.SizeByBase, sell.SizingMode)
	assert.Equal(t, domain.StatusOpen, sell.Status)
}

func TestGetOpenOrdersAllPairs(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Empty(t, r.PostForm.Get("pair"))
		w.Write([]byte(`{"success":1,"return":{"orders":{
			"btc_idr":[{"order_id":"201","submit_time":"1700000100","price":"1680000000","type":"buy","order_idr":"500000","remain_idr":"500000"}],
			"sol_idr":[{"order_id":"202","submit_time":"1700000200","price":"2500000","type":"sell","order_sol":"3","remain_sol":"3"}]
		}}}`))
	})

	orders, err := client.GetOpenOrders(context.Background(), domain.Pair{})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	pairs := map[string]bool{}
	for _, o := range orders {
		pairs[o.Pair.String()] = true
	}
	assert.True(t, pairs["btc_idr"])
	assert.True(t, pairs["sol_idr"])
}

func TestCancelOrderNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":0,"error":"Order not found","error_code":"order_not_found"}`))
	})

	err := client.CancelOrder(context.Background(), domain.NewPair("btc", "idr"), "999", domain.SideBuy)
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound),
		"missing order must classify as ErrOrderNotFound, got %v", err)
}

func TestGetTradeHistoryAscendingWithCoinKeyedAmount(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":1,"return":{"trades":[
			{"trade_id":"2","order_id":"12","type":"sell","price":"2600000","fee":"780","sol":"1.5","trade_time":"1700000400"},
			{"trade_id":"1","order_id":"11","type":"buy","price":"2500000","fee":"750","sol":"2.0","trade_time":"1700000100"}
		]}}`))
	})

	trades, err := client.GetTradeHistory(context.Background(), domain.NewPair("sol", "idr"), 100)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "1", trades[0].TradeID, "history must be oldest first")
	assert.Equal(t, 2.0, trades[0].BaseAmount, "amount comes from the coin-named field")
	assert.Equal(t, 2500000.0*2.0, trades[0].QuoteAmount)
	assert.Equal(t, domain.SideSell, trades[1].Side)
}
