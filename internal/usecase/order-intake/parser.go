package orderintake

import (
	"math"
	"strconv"
	"strings"

	orderbookv1 "github.com/murphylee10/trading-engine/internal/domain/orderbook/v1"
	"github.com/murphylee10/trading-engine/pkg/errors"
)

// Wire format, one order per line:
//
//	orderId,accountId,symbol,side,type,price,quantity,timestamp
//
// side is 0/BUY or 1/SELL, type is 0/LIMIT, 1/MARKET or 2/CANCEL, price is
// ignored for MARKET and CANCEL, timestamp is ns since epoch.
const fieldCount = 8

// ErrMalformedLine is returned when a line does not have exactly eight fields.
var ErrMalformedLine = errors.NewTracer("malformed order line")

// ParseOrder decodes one wire line into an Order. Malformed input is a
// boundary concern: the caller logs and drops it, it never reaches the
// matching core.
func ParseOrder(line string) (*orderbookv1.Order, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != fieldCount {
		return nil, ErrMalformedLine
	}

	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return nil, errors.NewTracer("invalid orderId").Wrap(err)
	}
	accountID, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return nil, errors.NewTracer("invalid accountId").Wrap(err)
	}

	symbol := fields[2]
	if symbol == "" {
		return nil, errors.NewTracer("empty symbol")
	}

	side, err := parseSide(fields[3])
	if err != nil {
		return nil, err
	}
	orderType, err := parseType(fields[4])
	if err != nil {
		return nil, err
	}

	price, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return nil, errors.NewTracer("invalid price").Wrap(err)
	}
	// ParseFloat accepts NaN and Inf, which are not prices. A NaN map key
	// would corrupt a book permanently.
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return nil, errors.NewTracer("non-finite price")
	}
	quantity, err := strconv.ParseUint(fields[6], 10, 64)
	if err != nil {
		return nil, errors.NewTracer("invalid quantity").Wrap(err)
	}
	if quantity == 0 && orderType != orderbookv1.OrderTypeCancel {
		return nil, errors.NewTracer("zero quantity")
	}

	timestamp, err := strconv.ParseInt(fields[7], 10, 64)
	if err != nil {
		return nil, errors.NewTracer("invalid timestamp").Wrap(err)
	}

	return &orderbookv1.Order{
		ID:        id,
		AccountID: accountID,
		Symbol:    symbol,
		Side:      side,
		Type:      orderType,
		Price:     price,
		Quantity:  quantity,
		Timestamp: timestamp,
	}, nil
}

func parseSide(s string) (orderbookv1.Side, error) {
	switch s {
	case "0", "BUY":
		return orderbookv1.SideBuy, nil
	case "1", "SELL":
		return orderbookv1.SideSell, nil
	}
	return 0, errors.NewTracer("invalid side")
}

func parseType(s string) (orderbookv1.OrderType, error) {
	switch s {
	case "0", "LIMIT":
		return orderbookv1.OrderTypeLimit, nil
	case "1", "MARKET":
		return orderbookv1.OrderTypeMarket, nil
	case "2", "CANCEL":
		return orderbookv1.OrderTypeCancel, nil
	}
	return 0, errors.NewTracer("invalid order type")
}
