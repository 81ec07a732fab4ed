package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ErrBrokerage 标记券商 API 错误（非 2xx 或响应不可解析）。
var ErrBrokerage = errors.New("brokerage api error")

// AlpacaRESTClient 券商 REST 客户端；HTTPClient 可注入 httptest，Limiter
// 控制请求速率避免触发限流。
type AlpacaRESTClient struct {
	BaseURL    string // 交易 API，如 https://paper-api.alpaca.markets
	DataURL    string // 行情 API，如 https://data.alpaca.markets
	APIKey     string
	APISecret  string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// OrderStatus 查单响应的核心字段。
type OrderStatus struct {
	Status    string
	Qty       float64
	FilledQty float64
}

// BarData is one historical bar from the data API.
type BarData struct {
	Ts     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

type orderResp struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Qty       string `json:"qty"`
	FilledQty string `json:"filled_qty"`
}

type submitReq struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

// SubmitOrder 提交市价单（GTC），返回券商订单 ID。
func (c *AlpacaRESTClient) SubmitOrder(ctx context.Context, symbol string, qty float64, side string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	body, err := json.Marshal(submitReq{
		Symbol:        symbol,
		Qty:           decimal.NewFromFloat(qty).String(),
		Side:          strings.ToLower(side),
		Type:          "market",
		TimeInForce:   "gtc",
		ClientOrderID: uuid.NewString(),
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v2/orders", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	var resp orderResp
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("%w: empty order id", ErrBrokerage)
	}
	return resp.ID, nil
}

// GetOrder 查询订单状态与累计成交数量。
func (c *AlpacaRESTClient) GetOrder(ctx context.Context, orderID string) (OrderStatus, error) {
	if err := c.wait(ctx); err != nil {
		return OrderStatus{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.BaseURL+"/v2/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return OrderStatus{}, err
	}
	var resp orderResp
	if err := c.do(req, &resp); err != nil {
		return OrderStatus{}, err
	}
	qty, err := parseQty(resp.Qty)
	if err != nil {
		return OrderStatus{}, fmt.Errorf("%w: qty %q", ErrBrokerage, resp.Qty)
	}
	filled, err := parseQty(resp.FilledQty)
	if err != nil {
		return OrderStatus{}, fmt.Errorf("%w: filled_qty %q", ErrBrokerage, resp.FilledQty)
	}
	return OrderStatus{Status: resp.Status, Qty: qty, FilledQty: filled}, nil
}

type barsResp struct {
	Bars []struct {
		T time.Time `json:"t"`
		O float64   `json:"o"`
		H float64   `json:"h"`
		L float64   `json:"l"`
		C float64   `json:"c"`
		V int64     `json:"v"`
	} `json:"bars"`
	NextPageToken string `json:"next_page_token"`
}

// GetMinuteBars 拉取一个交易对的分钟线，自动翻页。
func (c *AlpacaRESTClient) GetMinuteBars(ctx context.Context, symbol string, start, end time.Time) ([]BarData, error) {
	base := c.DataURL
	if base == "" {
		base = c.BaseURL
	}
	var out []BarData
	pageToken := ""
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		q := url.Values{}
		q.Set("timeframe", "1Min")
		q.Set("start", start.UTC().Format(time.RFC3339))
		q.Set("end", end.UTC().Format(time.RFC3339))
		q.Set("limit", "10000")
		if pageToken != "" {
			q.Set("page_token", pageToken)
		}
		endpoint := base + "/v2/stocks/" + url.PathEscape(symbol) + "/bars?" + q.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		var resp barsResp
		if err := c.do(req, &resp); err != nil {
			return nil, err
		}
		for _, b := range resp.Bars {
			out = append(out, BarData{Ts: b.T, Open: b.O, High: b.H, Low: b.L, Close: b.C, Volume: b.V})
		}
		if resp.NextPageToken == "" {
			return out, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *AlpacaRESTClient) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}

func (c *AlpacaRESTClient) do(req *http.Request, out interface{}) error {
	if c.HTTPClient == nil {
		return fmt.Errorf("http client not set")
	}
	req.Header.Set("APCA-API-KEY-ID", c.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", c.APISecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrokerage, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrBrokerage, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrBrokerage, err)
	}
	return nil
}

// parseQty 解析券商的字符串数量字段，避免 float 解析误差。
func parseQty(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

// NewDefaultHTTPClient 提供一个带超时的 http.Client。
func NewDefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
