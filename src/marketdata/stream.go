package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"reversionbot/src/model"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"
)

// klineEvent is the exchange's combined-stream kline payload. Only the
// fields the strategy needs are mapped.
type klineEvent struct {
	Data struct {
		Symbol string `json:"s"`
		Kline  struct {
			Start  int64  `json:"t"`
			Open   string `json:"o"`
			High   string `json:"h"`
			Low    string `json:"l"`
			Close  string `json:"c"`
			Volume string `json:"v"`
			Closed bool   `json:"x"`
		} `json:"k"`
	} `json:"data"`
}

// LiveSource subscribes to kline streams for every configured symbol and
// delivers only closed candles. The read loop reconnects on failure.
type LiveSource struct {
	cfg     *Config
	symbols map[string]string // stream symbol -> canonical symbol
	log     *logger.Entry
	bars    chan model.Bar
}

func NewLiveSource(cfg *Config, symbols []string, log *logger.Entry) *LiveSource {
	if log == nil {
		log = logger.NewEntry(logger.StandardLogger())
	}

	mapped := make(map[string]string, len(symbols))
	for _, s := range symbols {
		mapped[strings.ReplaceAll(s, "_", "")] = s
	}

	return &LiveSource{
		cfg:     cfg,
		symbols: mapped,
		log:     log,
		bars:    make(chan model.Bar, 64),
	}
}

// Start runs the read loop until the context is cancelled. It must be
// called exactly once, before the first Next.
func (s *LiveSource) Start(ctx context.Context) {
	go s.readLoop(ctx)
}

func (s *LiveSource) Next(ctx context.Context) (model.Bar, error) {
	select {
	case <-ctx.Done():
		return model.Bar{}, ctx.Err()
	case bar, ok := <-s.bars:
		if !ok {
			return model.Bar{}, ErrExhausted
		}
		return bar, nil
	}
}

func (s *LiveSource) readLoop(ctx context.Context) {
	defer close(s.bars)

	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return
		}

		err := s.consumeOnce(ctx)
		if err != nil && ctx.Err() == nil {
			s.log.WithError(err).Warn("kline stream dropped, reconnecting")
		}

		attempts++
		if s.cfg.MaxReconnects > 0 && attempts >= s.cfg.MaxReconnects {
			s.log.WithField("attempts", attempts).Error("kline stream gave up reconnecting")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.ReconnectDelay):
		}
	}
}

func (s *LiveSource) consumeOnce(ctx context.Context) error {
	streams := make([]string, 0, len(s.symbols))
	for streamSymbol := range s.symbols {
		streams = append(streams, strings.ToLower(streamSymbol)+"@kline_5m")
	}

	wsURL := fmt.Sprintf("%s/stream?streams=%s",
		strings.TrimRight(s.cfg.StreamBaseURL, "/"),
		strings.Join(streams, "/"))

	dialer := websocket.Dialer{
		HandshakeTimeout:  15 * time.Second,
		EnableCompression: true,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws dial failed: %w", err)
	}
	defer conn.Close()

	s.log.WithField("streams", len(streams)).Info("kline stream connected")

	// unblock the blocking read when the context goes away
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ws read failed: %w", err)
		}

		bar, ok, err := s.parseEvent(msg)
		if err != nil {
			s.log.WithError(err).Warn("skipping malformed kline event")
			continue
		}
		if !ok {
			continue // candle still open
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case s.bars <- bar:
		}
	}
}

func (s *LiveSource) parseEvent(msg []byte) (model.Bar, bool, error) {
	var event klineEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return model.Bar{}, false, fmt.Errorf("unmarshal kline event: %w", err)
	}

	k := event.Data.Kline
	if !k.Closed {
		return model.Bar{}, false, nil
	}

	symbol, known := s.symbols[event.Data.Symbol]
	if !known {
		return model.Bar{}, false, fmt.Errorf("event for unknown symbol %q", event.Data.Symbol)
	}

	open, err := parsePrice(k.Open)
	if err != nil {
		return model.Bar{}, false, err
	}
	high, err := parsePrice(k.High)
	if err != nil {
		return model.Bar{}, false, err
	}
	low, err := parsePrice(k.Low)
	if err != nil {
		return model.Bar{}, false, err
	}
	closePrice, err := parsePrice(k.Close)
	if err != nil {
		return model.Bar{}, false, err
	}
	volume, err := parsePrice(k.Volume)
	if err != nil {
		return model.Bar{}, false, err
	}

	return model.Bar{
		Symbol:   symbol,
		Datetime: time.UnixMilli(k.Start).UTC(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
	}, true, nil
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad kline price %q: %w", s, err)
	}
	return v, nil
}
