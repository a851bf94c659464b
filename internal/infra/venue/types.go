package venue

import "time"

const (
	maxRetries   = 10
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second

	restTimeout = 10 * time.Second

	successCode = "0"
)

// apiResponse is the common envelope of the venue REST APIs.
type apiResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type marketMetaResponse struct {
	apiResponse
	Data struct {
		Symbol         string `json:"symbol"`
		PricePrecision int32  `json:"pricePrecision"`
		MinOrderQty    string `json:"minOrderQty"`
	} `json:"data"`
}

type balanceResponse struct {
	apiResponse
	Data []struct {
		Asset string `json:"asset"`
		Free  string `json:"free"`
		Used  string `json:"used"`
	} `json:"data"`
}

type depthResponse struct {
	apiResponse
	Data struct {
		Bids [][2]string `json:"bids"` // [price, qty]
		Asks [][2]string `json:"asks"`
		Ts   int64       `json:"ts"` // milliseconds
	} `json:"data"`
}

type orderResponse struct {
	apiResponse
	Data struct {
		OrderID   string `json:"orderId"`
		Status    string `json:"status"`
		Filled    string `json:"filled"`
		Remaining string `json:"remaining"`
	} `json:"data"`
}

// placeOrderRequest is the JSON body for order placement.
type placeOrderRequest struct {
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`      // buy, sell
	OrderType string `json:"orderType"` // market
	Size      string `json:"size"`
	Leverage  string `json:"leverage,omitempty"` // margin venues only
}

// WS subscribe structures
type subscribeRequest struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

// bookMessage is a top-of-book push on the "books1" channel.
type bookMessage struct {
	Arg  subscribeArg `json:"arg"`
	Data []struct {
		Bids [][2]string `json:"bids"`
		Asks [][2]string `json:"asks"`
		Ts   int64       `json:"ts"`
	} `json:"data"`
}
