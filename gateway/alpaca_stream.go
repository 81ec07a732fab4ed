package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
)

// TradeTick 是行情流推送的单笔成交。
type TradeTick struct {
	Symbol string
	Price  float64
	Ts     time.Time
}

// TradeHandler 逐笔接收行情流成交。
type TradeHandler interface {
	OnTrade(t TradeTick)
}

// StreamClient 连接行情 WS 流，认证后订阅 trades，断线按指数退避重连。
type StreamClient struct {
	Endpoint  string
	APIKey    string
	APISecret string
	Dialer    *websocket.Dialer

	OnConnect    func()
	OnDisconnect func(err error)

	symbols []string
	backoff *backoff.Backoff
}

func NewStreamClient(endpoint, apiKey, apiSecret string) *StreamClient {
	return &StreamClient{
		Endpoint:  endpoint,
		APIKey:    apiKey,
		APISecret: apiSecret,
		Dialer:    websocket.DefaultDialer,
		backoff: &backoff.Backoff{
			Min:    time.Second,
			Max:    30 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
}

// Subscribe 登记需要订阅的交易对；需在 Run 之前调用。
func (s *StreamClient) Subscribe(symbols ...string) {
	s.symbols = append(s.symbols, symbols...)
}

type streamAction struct {
	Action string   `json:"action"`
	Key    string   `json:"key,omitempty"`
	Secret string   `json:"secret,omitempty"`
	Trades []string `json:"trades,omitempty"`
}

// Run 维持连接直到 ctx 取消。每条消息解析出的 tick 逐个交给 handler；
// 连接失败或读错误时通知 OnDisconnect 并退避重连。
func (s *StreamClient) Run(ctx context.Context, handler TradeHandler) error {
	if len(s.symbols) == 0 {
		return fmt.Errorf("no symbols subscribed")
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.runOnce(ctx, handler)
		if err != nil {
			if s.OnDisconnect != nil {
				s.OnDisconnect(err)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff.Duration()):
			}
			continue
		}
		return nil
	}
}

func (s *StreamClient) runOnce(ctx context.Context, handler TradeHandler) error {
	conn, _, err := s.Dialer.DialContext(ctx, s.Endpoint, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.WriteJSON(streamAction{Action: "auth", Key: s.APIKey, Secret: s.APISecret}); err != nil {
		return err
	}
	if err := conn.WriteJSON(streamAction{Action: "subscribe", Trades: s.symbols}); err != nil {
		return err
	}
	s.backoff.Reset()
	if s.OnConnect != nil {
		s.OnConnect()
	}

	// Reader goroutine so ctx cancellation can close the connection.
	done := make(chan error, 1)
	go func() {
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				done <- err
				return
			}
			ticks, err := ParseTrades(raw)
			if err != nil {
				// 非成交消息（订阅确认等）直接跳过。
				continue
			}
			for _, t := range ticks {
				handler.OnTrade(t)
			}
		}
	}()

	select {
	case <-ctx.Done():
		_ = conn.Close()
		<-done
		return nil
	case err := <-done:
		return err
	}
}

// ParseTrades 解析一帧流消息，提取其中的成交 tick。
func ParseTrades(raw []byte) ([]TradeTick, error) {
	var msgs []struct {
		Type   string    `json:"T"`
		Symbol string    `json:"S"`
		Price  float64   `json:"p"`
		Ts     time.Time `json:"t"`
	}
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, err
	}
	ticks := make([]TradeTick, 0, len(msgs))
	for _, m := range msgs {
		if m.Type != "t" {
			continue
		}
		ticks = append(ticks, TradeTick{Symbol: m.Symbol, Price: m.Price, Ts: m.Ts})
	}
	return ticks, nil
}
