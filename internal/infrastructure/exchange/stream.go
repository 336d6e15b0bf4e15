package exchange

import (
	"encoding/json"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const IndodaxWSURL = "wss://ws3.indodax.com/ws/"

// Stream consumes Indodax's public websocket (Centrifugo protocol) and fans
// market summary ticks out to registered callbacks. Display-only: trading
// always goes through the REST client.
type Stream struct {
	wsURL     string
	authToken string
	logger    *zap.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	callbacks []func(pair string, last float64)
	nextID    int
}

func NewStream(wsURL, authToken string, logger *zap.Logger) *Stream {
	if wsURL == "" {
		wsURL = IndodaxWSURL
	}
	return &Stream{wsURL: wsURL, authToken: authToken, logger: logger, nextID: 1}
}

// OnTick registers a callback for price updates. Register before Connect.
func (s *Stream) OnTick(callback func(pair string, last float64)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callbacks = append(s.callbacks, callback)
}

// Connect dials the stream, authenticates and subscribes to the 24h market
// summary channel.
func (s *Stream) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL, nil)
	if err != nil {
		return err
	}
	s.conn = conn

	if err := s.send(map[string]interface{}{
		"params": map[string]interface{}{"token": s.authToken},
	}); err != nil {
		conn.Close()
		s.conn = nil
		return err
	}
	if err := s.send(map[string]interface{}{
		"method": 1,
		"params": map[string]interface{}{"channel": "market:summary-24h"},
	}); err != nil {
		conn.Close()
		s.conn = nil
		return err
	}

	go s.readLoop(conn)
	return nil
}

func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// send must be called with s.mu held.
func (s *Stream) send(frame map[string]interface{}) error {
	frame["id"] = s.nextID
	s.nextID++
	return s.conn.WriteJSON(frame)
}

func (s *Stream) readLoop(conn *websocket.Conn) {
	defer func() {
		conn.Close()
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			s.logger.Warn("price stream closed", zap.Error(err))
			return
		}

		ticks := parseSummaryTicks(message)
		if len(ticks) == 0 {
			continue
		}

		s.mu.Lock()
		callbacks := make([]func(string, float64), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()

		for _, tick := range ticks {
			for _, cb := range callbacks {
				cb(tick.pair, tick.last)
			}
		}
	}
}

type summaryTick struct {
	pair string
	last float64
}

// parseSummaryTicks extracts price updates from one stream frame. Frames from
// other channels, control frames and malformed rows yield nothing.
func parseSummaryTicks(message []byte) []summaryTick {
	var event struct {
		Result struct {
			Channel string `json:"channel"`
			Data    struct {
				Data json.RawMessage `json:"data"`
			} `json:"data"`
		} `json:"result"`
	}
	if err := json.Unmarshal(message, &event); err != nil {
		return nil
	}
	if event.Result.Channel != "market:summary-24h" || len(event.Result.Data.Data) == 0 {
		return nil
	}

	// Summary rows: [pair, high, low, vol_base, vol_quote, last, ...].
	var rows [][]interface{}
	if err := json.Unmarshal(event.Result.Data.Data, &rows); err != nil {
		return nil
	}

	var ticks []summaryTick
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		pair, ok := row[0].(string)
		if !ok {
			continue
		}
		last := summaryFloat(row[5])
		if last == 0 {
			continue
		}
		ticks = append(ticks, summaryTick{pair: pair, last: last})
	}
	return ticks
}

func summaryFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	}
	return 0
}
