// Package venue implements the exchange connectivity layer for one leg:
// REST queries for metadata, balances and orders, plus an optional
// websocket top-of-book feed.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"arb_go/internal/domain"
	"arb_go/internal/infra"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Client talks to one venue's REST API and populates its VenueState.
// It implements domain.Connector.
type Client struct {
	cfg    infra.VenueConfig
	state  *domain.VenueState
	http   *resty.Client
	signer *Signer
	books  *BookWorker // nil when the venue has no WS feed configured
	logger *slog.Logger
}

// NewClient creates a connector for one venue leg.
func NewClient(cfg infra.VenueConfig) *Client {
	state := &domain.VenueState{
		ID:     cfg.ID,
		Symbol: cfg.Symbol,
		Capability: domain.Capability{
			SupportsShort: cfg.SupportsShort,
			UsesMargin:    cfg.UsesMargin,
		},
		LongFee:  cfg.LongFee,
		ShortFee: cfg.ShortFee,
	}

	c := &Client{
		cfg:   cfg,
		state: state,
		http: resty.New().
			SetBaseURL(cfg.RestURL).
			SetTimeout(restTimeout).
			SetRetryCount(2).
			SetRetryWaitTime(200 * time.Millisecond),
		signer: NewSigner(cfg.AccessKey, cfg.SecretKey, cfg.Passphrase),
		logger: slog.Default().With("venue", cfg.ID),
	}
	if cfg.WSURL != "" {
		c.books = NewBookWorker(cfg.WSURL, cfg.Symbol, c.logger)
	}
	return c
}

// State returns the venue state this connector populates.
func (c *Client) State() *domain.VenueState {
	return c.state
}

// StartFeed connects the websocket book feed when one is configured.
func (c *Client) StartFeed(ctx context.Context) {
	if c.books != nil {
		c.books.Connect(ctx)
	}
}

// StopFeed disconnects the websocket book feed.
func (c *Client) StopFeed() {
	if c.books != nil {
		c.books.Disconnect()
	}
}

// LoadMarkets resolves price precision and minimum order size for the
// instrument. Failure here is fatal at startup.
func (c *Client) LoadMarkets(ctx context.Context) error {
	var out marketMetaResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", c.cfg.Symbol).
		SetResult(&out).
		Get("/api/v1/market/meta")
	if err != nil {
		return domain.NewFatalVenueError(c.cfg.ID, "load_markets", err)
	}
	if resp.IsError() || out.Code != successCode {
		return domain.NewFatalVenueError(c.cfg.ID, "load_markets",
			fmt.Errorf("status=%d code=%s msg=%s", resp.StatusCode(), out.Code, out.Msg))
	}

	minQty, err := decimal.NewFromString(out.Data.MinOrderQty)
	if err != nil {
		return domain.NewFatalVenueError(c.cfg.ID, "load_markets", fmt.Errorf("bad minOrderQty: %w", err))
	}
	c.state.PricePrecision = out.Data.PricePrecision
	c.state.MinOrderQty = minQty
	return nil
}

// FetchBalance refreshes free/used balances for the base and quote assets.
func (c *Client) FetchBalance(ctx context.Context) error {
	var out balanceResponse
	path := "/api/v1/account/balances"
	headers := c.signer.GenerateHeaders("GET", path, "", "")

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetResult(&out).
		Get(path)
	if err != nil {
		return domain.NewVenueError(c.cfg.ID, "fetch_balance", err)
	}
	if resp.IsError() || out.Code != successCode {
		return domain.NewVenueError(c.cfg.ID, "fetch_balance",
			fmt.Errorf("status=%d code=%s msg=%s", resp.StatusCode(), out.Code, out.Msg))
	}

	for _, b := range out.Data {
		free, ferr := decimal.NewFromString(b.Free)
		used, uerr := decimal.NewFromString(b.Used)
		if ferr != nil || uerr != nil {
			continue
		}
		switch b.Asset {
		case c.cfg.BaseAsset:
			c.state.BaseFree = free
			c.state.BaseUsed = used
		case c.cfg.QuoteAsset:
			c.state.QuoteFree = free
			c.state.QuoteUsed = used
		}
	}
	return nil
}

// FetchOrderBook refreshes the best bid/ask and book timestamp. The WS
// feed's latest snapshot is preferred; without one the REST depth endpoint
// is queried directly.
func (c *Client) FetchOrderBook(ctx context.Context) error {
	if c.books != nil {
		if snap, ok := c.books.Snapshot(); ok {
			c.state.BidPrice = snap.BidPrice
			c.state.BidQty = snap.BidQty
			c.state.AskPrice = snap.AskPrice
			c.state.AskQty = snap.AskQty
			c.state.BookTime = snap.At
			return nil
		}
	}

	var out depthResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("symbol", c.cfg.Symbol).
		SetQueryParam("limit", "1").
		SetResult(&out).
		Get("/api/v1/market/depth")
	if err != nil {
		return domain.NewVenueError(c.cfg.ID, "fetch_order_book", err)
	}
	if resp.IsError() || out.Code != successCode {
		return domain.NewVenueError(c.cfg.ID, "fetch_order_book",
			fmt.Errorf("status=%d code=%s msg=%s", resp.StatusCode(), out.Code, out.Msg))
	}
	if len(out.Data.Bids) == 0 || len(out.Data.Asks) == 0 {
		return domain.NewVenueError(c.cfg.ID, "fetch_order_book", fmt.Errorf("empty book"))
	}

	bidPrice, err1 := decimal.NewFromString(out.Data.Bids[0][0])
	bidQty, err2 := decimal.NewFromString(out.Data.Bids[0][1])
	askPrice, err3 := decimal.NewFromString(out.Data.Asks[0][0])
	askQty, err4 := decimal.NewFromString(out.Data.Asks[0][1])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return domain.NewVenueError(c.cfg.ID, "fetch_order_book", fmt.Errorf("malformed book levels"))
	}

	c.state.BidPrice = bidPrice
	c.state.BidQty = bidQty
	c.state.AskPrice = askPrice
	c.state.AskQty = askQty
	c.state.BookTime = time.UnixMilli(out.Data.Ts)
	return nil
}

// CreateOrder places a market order for qty base units.
func (c *Client) CreateOrder(ctx context.Context, side string, qty decimal.Decimal) (domain.OrderResult, error) {
	reqBody := placeOrderRequest{
		Symbol:    c.cfg.Symbol,
		Side:      apiSide(side),
		OrderType: "market",
		Size:      qty.String(),
	}
	if c.cfg.UsesMargin {
		reqBody.Leverage = "1"
	}

	path := "/api/v1/trade/order"
	body, err := jsonBody(reqBody)
	if err != nil {
		return domain.OrderResult{}, err
	}
	headers := c.signer.GenerateHeaders("POST", path, "", body)

	var out orderResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		SetResult(&out).
		Post(path)
	if err != nil {
		return domain.OrderResult{}, domain.NewVenueError(c.cfg.ID, "create_order", err)
	}
	if resp.IsError() || out.Code != successCode {
		return domain.OrderResult{}, domain.NewVenueError(c.cfg.ID, "create_order",
			fmt.Errorf("status=%d code=%s msg=%s", resp.StatusCode(), out.Code, out.Msg))
	}

	filled, ferr := decimal.NewFromString(out.Data.Filled)
	remaining, rerr := decimal.NewFromString(out.Data.Remaining)
	if ferr != nil || rerr != nil {
		return domain.OrderResult{}, domain.NewVenueError(c.cfg.ID, "create_order",
			fmt.Errorf("malformed fill amounts: filled=%q remaining=%q", out.Data.Filled, out.Data.Remaining))
	}

	result := domain.OrderResult{
		ID:        out.Data.OrderID,
		Status:    mapStatus(out.Data.Status),
		Filled:    filled,
		Remaining: remaining,
	}
	c.logger.Info("order placed",
		slog.String("order_id", result.ID),
		slog.String("side", side),
		slog.String("filled", result.Filled.String()),
		slog.String("remaining", result.Remaining.String()))
	return result, nil
}

// CancelOrder cancels the unfilled remainder of an order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	path := "/api/v1/trade/cancel"
	body, err := jsonBody(map[string]string{
		"symbol":  c.cfg.Symbol,
		"orderId": orderID,
	})
	if err != nil {
		return err
	}
	headers := c.signer.GenerateHeaders("POST", path, "", body)

	var out apiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetBody(body).
		SetResult(&out).
		Post(path)
	if err != nil {
		return domain.NewVenueError(c.cfg.ID, "cancel_order", err)
	}
	if resp.IsError() || out.Code != successCode {
		return domain.NewVenueError(c.cfg.ID, "cancel_order",
			fmt.Errorf("status=%d code=%s msg=%s", resp.StatusCode(), out.Code, out.Msg))
	}
	return nil
}

// jsonBody marshals the request body once so the exact signed bytes are
// also the bytes sent.
func jsonBody(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func apiSide(side string) string {
	if side == domain.SideSell {
		return "sell"
	}
	return "buy"
}

// mapStatus maps the venue's order status strings onto the fixed domain set.
func mapStatus(s string) string {
	switch s {
	case "new", "live":
		return domain.OrderStatusNew
	case "partial", "partially_filled":
		return domain.OrderStatusPartiallyFilled
	case "filled", "full_fill":
		return domain.OrderStatusFilled
	case "canceled", "cancelled":
		return domain.OrderStatusCanceled
	default:
		return domain.OrderStatusRejected
	}
}
