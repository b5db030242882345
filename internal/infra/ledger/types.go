// Package ledger ingests exchange contract events from an EVM node. It is
// the only component that talks to the chain; everything downstream works
// on normalized RawEvents.
package ledger

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"dexview/internal/domain"
)

// exchangeABI covers the three lifecycle events and the cancel entrypoint
// of the exchange contract. The contract stamps its own block timestamp
// into each event, so no header lookups are needed during backfill.
const exchangeABI = `[
  {"type":"event","name":"Order","anonymous":false,"inputs":[
    {"name":"id","type":"uint256","indexed":false},
    {"name":"user","type":"address","indexed":false},
    {"name":"tokenGet","type":"address","indexed":false},
    {"name":"amountGet","type":"uint256","indexed":false},
    {"name":"tokenGive","type":"address","indexed":false},
    {"name":"amountGive","type":"uint256","indexed":false},
    {"name":"timestamp","type":"uint256","indexed":false}]},
  {"type":"event","name":"Cancel","anonymous":false,"inputs":[
    {"name":"id","type":"uint256","indexed":false},
    {"name":"user","type":"address","indexed":false},
    {"name":"tokenGet","type":"address","indexed":false},
    {"name":"amountGet","type":"uint256","indexed":false},
    {"name":"tokenGive","type":"address","indexed":false},
    {"name":"amountGive","type":"uint256","indexed":false},
    {"name":"timestamp","type":"uint256","indexed":false}]},
  {"type":"event","name":"Trade","anonymous":false,"inputs":[
    {"name":"id","type":"uint256","indexed":false},
    {"name":"user","type":"address","indexed":false},
    {"name":"tokenGet","type":"address","indexed":false},
    {"name":"amountGet","type":"uint256","indexed":false},
    {"name":"tokenGive","type":"address","indexed":false},
    {"name":"amountGive","type":"uint256","indexed":false},
    {"name":"userFill","type":"address","indexed":false},
    {"name":"timestamp","type":"uint256","indexed":false}]},
  {"type":"function","name":"cancelOrder","stateMutability":"nonpayable",
   "inputs":[{"name":"id","type":"uint256"}],"outputs":[]}
]`

// mustParseABI panics on a malformed ABI literal; the literal is a compile
// constant, so this can only fail in development.
func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(exchangeABI))
	if err != nil {
		panic("ledger: bad exchange ABI: " + err.Error())
	}
	return parsed
}

// orderLog is the unpacked layout shared by Order and Cancel events.
type orderLog struct {
	Id         *big.Int
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	Timestamp  *big.Int
}

// tradeLog adds the filling account. The contract emits the order maker as
// user and the transaction sender as userFill.
type tradeLog struct {
	Id         *big.Int
	User       common.Address
	TokenGet   common.Address
	AmountGet  *big.Int
	TokenGive  common.Address
	AmountGive *big.Int
	UserFill   common.Address
	Timestamp  *big.Int
}

// decodeLog normalizes one contract log into a RawEvent.
func (c *Client) decodeLog(lg types.Log) (domain.RawEvent, error) {
	if len(lg.Topics) == 0 {
		return domain.RawEvent{}, domain.ErrUnknownEventKind
	}

	switch lg.Topics[0] {
	case c.abi.Events["Order"].ID:
		var ev orderLog
		if err := c.abi.UnpackIntoInterface(&ev, "Order", lg.Data); err != nil {
			return domain.RawEvent{}, err
		}
		return normalize(domain.KindOrder, ev, common.Address{}, lg.BlockNumber), nil

	case c.abi.Events["Cancel"].ID:
		var ev orderLog
		if err := c.abi.UnpackIntoInterface(&ev, "Cancel", lg.Data); err != nil {
			return domain.RawEvent{}, err
		}
		return normalize(domain.KindCancel, ev, common.Address{}, lg.BlockNumber), nil

	case c.abi.Events["Trade"].ID:
		var ev tradeLog
		if err := c.abi.UnpackIntoInterface(&ev, "Trade", lg.Data); err != nil {
			return domain.RawEvent{}, err
		}
		base := orderLog{
			Id: ev.Id, User: ev.User,
			TokenGet: ev.TokenGet, AmountGet: ev.AmountGet,
			TokenGive: ev.TokenGive, AmountGive: ev.AmountGive,
			Timestamp: ev.Timestamp,
		}
		return normalize(domain.KindTrade, base, ev.UserFill, lg.BlockNumber), nil
	}

	return domain.RawEvent{}, domain.ErrUnknownEventKind
}

func normalize(kind domain.EventKind, ev orderLog, taker common.Address, block uint64) domain.RawEvent {
	out := domain.RawEvent{
		Kind:      kind,
		ID:        ev.Id.Uint64(),
		Maker:     strings.ToLower(ev.User.Hex()),
		GiveAsset: strings.ToLower(ev.TokenGive.Hex()),
		GiveAmt:   decimal.NewFromBigInt(ev.AmountGive, 0),
		GetAsset:  strings.ToLower(ev.TokenGet.Hex()),
		GetAmt:    decimal.NewFromBigInt(ev.AmountGet, 0),
		Timestamp: ev.Timestamp.Int64(),
		Block:     block,
	}
	if taker != (common.Address{}) {
		out.Taker = strings.ToLower(taker.Hex())
	}
	return out
}
