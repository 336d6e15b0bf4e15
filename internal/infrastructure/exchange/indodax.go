package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Angga2076/Bot-Railway01/internal/domain"
)

const (
	IndodaxBaseURL = "https://indodax.com"

	tapiPath   = "/tapi"
	recvWindow = "5000"

	// Transport failures are retried with a fresh nonce each attempt; a
	// nonce is burned even when the request may have landed server-side.
	defaultMaxAttempts = 3
)

// IndodaxClient speaks Indodax's REST API: unsigned GETs against the public
// /api endpoints and signed form-encoded POSTs against /tapi. Exchange
// business rejections surface as *domain.ExchangeError with the exchange's
// message kept verbatim; network and parse failures as *domain.TransportError.
type IndodaxClient struct {
	apiKey      string
	signer      *Signer
	nonces      *NonceSequencer
	baseURL     string
	client      *http.Client
	maxAttempts int
	logger      *zap.Logger
}

func NewIndodaxClient(apiKey, secretKey, baseURL string, nonces *NonceSequencer, logger *zap.Logger) *IndodaxClient {
	if baseURL == "" {
		baseURL = IndodaxBaseURL
	}
	return &IndodaxClient{
		apiKey:      apiKey,
		signer:      NewSigner(secretKey),
		nonces:      nonces,
		baseURL:     strings.TrimRight(baseURL, "/"),
		client:      &http.Client{Timeout: 15 * time.Second},
		maxAttempts: defaultMaxAttempts,
		logger:      logger,
	}
}

// envelope is the /tapi response contract: success flag plus either a result
// payload or an error message.
type envelope struct {
	Success   int             `json:"success"`
	Error     string          `json:"error"`
	ErrorCode string          `json:"error_code"`
	Return    json.RawMessage `json:"return"`
}

// publicGet issues an unsigned GET and decodes the JSON body into out.
func (c *IndodaxClient) publicGet(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &domain.TransportError{Op: path, Err: err}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: path, Err: err}
	}

	// Public endpoints report bad input inside a JSON error body.
	var probe struct {
		Error     string `json:"error"`
		ErrorCode string `json:"error_code"`
	}
	if json.Unmarshal(body, &probe) == nil && probe.Error != "" {
		return &domain.ExchangeError{Code: probe.ErrorCode, Message: probe.Error}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &domain.TransportError{Op: path, Err: fmt.Errorf("non-JSON response: %w", err)}
	}
	return nil
}

// privatePost issues a signed /tapi call. Transport failures are retried up
// to maxAttempts, each attempt re-signed with a fresh nonce; exchange
// rejections are returned immediately.
func (c *IndodaxClient) privatePost(ctx context.Context, method string, params url.Values, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return &domain.TransportError{Op: method, Err: err}
		}

		err := c.privatePostOnce(ctx, method, params, out)
		if err == nil {
			return nil
		}
		var te *domain.TransportError
		if !errors.As(err, &te) {
			return err
		}
		lastErr = err
		c.logger.Warn("transport failure, retrying with fresh nonce",
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return lastErr
}

func (c *IndodaxClient) privatePostOnce(ctx context.Context, method string, params url.Values, out interface{}) error {
	p := url.Values{}
	for k, vs := range params {
		p[k] = vs
	}
	p.Set("method", method)
	p.Set("timestamp", strconv.FormatInt(c.nonces.Next(), 10))
	p.Set("recvWindow", recvWindow)

	body := CanonicalBody(p)
	signature, err := c.signer.Sign(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tapiPath, strings.NewReader(body))
	if err != nil {
		return &domain.TransportError{Op: method, Err: err}
	}
	req.Header.Set("Key", c.apiKey)
	req.Header.Set("Sign", signature)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return &domain.TransportError{Op: method, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &domain.TransportError{Op: method, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &domain.TransportError{Op: method, Err: fmt.Errorf("non-JSON response: %w", err)}
	}
	if env.Success != 1 {
		return &domain.ExchangeError{Code: env.ErrorCode, Message: env.Error}
	}
	if out != nil && len(env.Return) > 0 {
		if err := json.Unmarshal(env.Return, out); err != nil {
			return &domain.TransportError{Op: method, Err: fmt.Errorf("malformed result payload: %w", err)}
		}
	}
	return nil
}

// --- Public market data ---

// tickerPayload matches Indodax's ticker object; all prices are strings.
type tickerPayload struct {
	High       string `json:"high"`
	Low        string `json:"low"`
	Last       string `json:"last"`
	Buy        string `json:"buy"`
	Sell       string `json:"sell"`
	VolIDR     string `json:"vol_idr"`
	ServerTime int64  `json:"server_time"`
}

func (t tickerPayload) toDomain(pair domain.Pair) domain.Ticker {
	return domain.Ticker{
		Pair:       pair,
		Last:       parseFloat(t.Last),
		Buy:        parseFloat(t.Buy),
		Sell:       parseFloat(t.Sell),
		High:       parseFloat(t.High),
		Low:        parseFloat(t.Low),
		VolumeIDR:  parseFloat(t.VolIDR),
		ServerTime: time.Unix(t.ServerTime, 0),
	}
}

func (c *IndodaxClient) GetTicker(ctx context.Context, pair domain.Pair) (*domain.Ticker, error) {
	var result struct {
		Ticker tickerPayload `json:"ticker"`
	}
	if err := c.publicGet(ctx, "/api/ticker/"+pair.String(), &result); err != nil {
		return nil, err
	}
	ticker := result.Ticker.toDomain(pair)
	return &ticker, nil
}

func (c *IndodaxClient) GetAllTickers(ctx context.Context) (map[string]domain.Ticker, error) {
	var result struct {
		Tickers map[string]tickerPayload `json:"tickers"`
	}
	if err := c.publicGet(ctx, "/api/ticker_all", &result); err != nil {
		return nil, err
	}

	tickers := make(map[string]domain.Ticker, len(result.Tickers))
	for id, payload := range result.Tickers {
		pair, err := domain.ParsePair(id)
		if err != nil {
			continue
		}
		tickers[id] = payload.toDomain(pair)
	}
	return tickers, nil
}

func (c *IndodaxClient) GetPairs(ctx context.Context) ([]domain.PairInfo, error) {
	var raw []struct {
		TickerID     string      `json:"ticker_id"`
		Traded       string      `json:"traded_currency"`
		Base         string      `json:"base_currency"`
		TradeMinBase json.Number `json:"trade_min_base_currency"`
	}
	if err := c.publicGet(ctx, "/api/pairs", &raw); err != nil {
		return nil, err
	}

	pairs := make([]domain.PairInfo, 0, len(raw))
	for _, p := range raw {
		minQuote, _ := p.TradeMinBase.Float64()
		pairs = append(pairs, domain.PairInfo{
			ID:           strings.ToLower(p.TickerID),
			Base:         strings.ToLower(p.Traded),
			Quote:        strings.ToLower(p.Base),
			MinQuoteSize: minQuote,
		})
	}
	return pairs, nil
}

// --- Private account / trading ---

func (c *IndodaxClient) GetBalance(ctx context.Context) (map[string]domain.Balance, error) {
	var result struct {
		Balance     map[string]interface{} `json:"balance"`
		BalanceHold map[string]interface{} `json:"balance_hold"`
	}
	if err := c.privatePost(ctx, "getInfo", nil, &result); err != nil {
		return nil, err
	}

	balances := make(map[string]domain.Balance)
	for asset, v := range result.Balance {
		available := asFloat(v)
		hold := asFloat(result.BalanceHold[asset])
		if available == 0 && hold == 0 {
			continue
		}
		balances[strings.ToLower(asset)] = domain.Balance{
			Asset:     strings.ToLower(asset),
			Available: available,
			Hold:      hold,
		}
	}
	return balances, nil
}

func (c *IndodaxClient) CreateOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error) {
	params := url.Values{}
	params.Set("pair", req.Pair.String())
	params.Set("type", string(req.Side))
	params.Set("price", formatAmount(req.Price))
	if req.ClientOrderID != "" {
		params.Set("client_order_id", req.ClientOrderID)
	}

	// Buys are sized in the quote currency, sells in the base coin; the
	// sizing parameter is named after the currency it is denominated in.
	switch req.SizingMode {
	case domain.SizeByQuote:
		params.Set(req.Pair.Quote, formatAmount(req.Amount))
	case domain.SizeByBase:
		params.Set(req.Pair.Base, formatAmount(req.Amount))
	default:
		return nil, &domain.ValidationError{Field: "sizingMode", Reason: "must be quote or base"}
	}

	var result map[string]interface{}
	if err := c.privatePost(ctx, "trade", params, &result); err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:            asString(result["order_id"]),
		ClientOrderID: req.ClientOrderID,
		Pair:          req.Pair,
		Side:          req.Side,
		SizingMode:    req.SizingMode,
		Amount:        req.Amount,
		Price:         req.Price,
		Status:        domain.StatusOpen,
		SubmitTime:    time.Now(),
	}

	// remain_rp / remain_<coin> report the unfilled part of the submission.
	var remainKey string
	if req.SizingMode == domain.SizeByQuote {
		remainKey = "remain_rp"
	} else {
		remainKey = "remain_" + req.Pair.Base
	}
	if v, ok := result[remainKey]; ok {
		order.Remaining = asFloat(v)
		if order.Remaining == 0 {
			order.Status = domain.StatusFilled
		}
	}
	return order, nil
}

// GetOpenOrders lists open orders for one pair, or for every pair when pair
// is zero. The exchange returns an array in the first case and a pair-keyed
// object in the second.
func (c *IndodaxClient) GetOpenOrders(ctx context.Context, pair domain.Pair) ([]domain.Order, error) {
	params := url.Values{}
	if !pair.IsZero() {
		params.Set("pair", pair.String())
	}

	var result struct {
		Orders json.RawMessage `json:"orders"`
	}
	if err := c.privatePost(ctx, "openOrders", params, &result); err != nil {
		return nil, err
	}
	if len(result.Orders) == 0 {
		return nil, nil
	}

	var orders []domain.Order
	if !pair.IsZero() {
		var rawOrders []map[string]interface{}
		if err := json.Unmarshal(result.Orders, &rawOrders); err != nil {
			return nil, &domain.TransportError{Op: "openOrders", Err: err}
		}
		for _, raw := range rawOrders {
			orders = append(orders, parseOpenOrder(pair, raw))
		}
		return orders, nil
	}

	var byPair map[string][]map[string]interface{}
	if err := json.Unmarshal(result.Orders, &byPair); err != nil {
		return nil, &domain.TransportError{Op: "openOrders", Err: err}
	}
	for id, rawOrders := range byPair {
		p, err := domain.ParsePair(id)
		if err != nil {
			continue
		}
		for _, raw := range rawOrders {
			orders = append(orders, parseOpenOrder(p, raw))
		}
	}
	return orders, nil
}

func parseOpenOrder(pair domain.Pair, raw map[string]interface{}) domain.Order {
	order := domain.Order{
		ID:            asString(raw["order_id"]),
		ClientOrderID: asString(raw["client_order_id"]),
		Pair:          pair,
		Side:          domain.Side(asString(raw["type"])),
		Price:         asFloat(raw["price"]),
		Status:        domain.StatusOpen,
		SubmitTime:    time.Unix(int64(asFloat(raw["submit_time"])), 0),
	}

	// Open buys carry order_idr/remain_idr, sells order_<coin>/remain_<coin>.
	if v, ok := raw["order_"+pair.Quote]; ok {
		order.SizingMode = domain.SizeByQuote
		order.Amount = asFloat(v)
		order.Remaining = asFloat(raw["remain_"+pair.Quote])
	} else if v, ok := raw["order_"+pair.Base]; ok {
		order.SizingMode = domain.SizeByBase
		order.Amount = asFloat(v)
		order.Remaining = asFloat(raw["remain_"+pair.Base])
	}
	if order.Remaining > 0 && order.Remaining < order.Amount {
		order.Status = domain.StatusPartiallyFilled
	}
	return order
}

func (c *IndodaxClient) CancelOrder(ctx context.Context, pair domain.Pair, orderID string, side domain.Side) error {
	params := url.Values{}
	params.Set("pair", pair.String())
	params.Set("order_id", orderID)
	params.Set("type", string(side))

	return c.privatePost(ctx, "cancelOrder", params, nil)
}

func (c *IndodaxClient) GetTradeHistory(ctx context.Context, pair domain.Pair, limit int) ([]domain.Trade, error) {
	params := url.Values{}
	params.Set("pair", pair.String())
	if limit > 0 {
		params.Set("count", strconv.Itoa(limit))
	}

	var result struct {
		Trades []map[string]interface{} `json:"trades"`
	}
	if err := c.privatePost(ctx, "tradeHistory", params, &result); err != nil {
		return nil, err
	}

	trades := make([]domain.Trade, 0, len(result.Trades))
	for _, raw := range result.Trades {
		price := asFloat(raw["price"])

		// The fill amount is keyed by the coin name ("btc": "0.001").
		amount := asFloat(raw[pair.Base])
		if amount == 0 {
			amount = asFloat(raw["amount"])
		}

		trades = append(trades, domain.Trade{
			TradeID:     asString(raw["trade_id"]),
			OrderID:     asString(raw["order_id"]),
			Pair:        pair,
			Side:        domain.Side(asString(raw["type"])),
			Price:       price,
			BaseAmount:  amount,
			QuoteAmount: price * amount,
			FeeQuote:    asFloat(raw["fee"]),
			Time:        time.Unix(int64(asFloat(raw["trade_time"])), 0),
		})
	}

	// The exchange returns newest first; history consumers want ascending.
	sort.Slice(trades, func(i, j int) bool {
		return trades[i].Time.Before(trades[j].Time)
	})
	return trades, nil
}

// --- conversion helpers ---

// Indodax mixes number and string encodings for numeric fields.
func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case json.Number:
		f, _ := t.Float64()
		return f
	}
	return 0
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
