package ledger

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"dexview/internal/domain"
	"dexview/internal/infra"
)

const (
	cancelGasLimit = 250000
	maxRetries     = 10
	baseDelay      = 1 * time.Second
	maxDelay       = 60 * time.Second
)

// Client reads exchange contract events from an EVM node. Dial it with a
// websocket endpoint when live subscriptions are needed; plain HTTP only
// supports Backfill.
type Client struct {
	eth      *ethclient.Client
	abi      abi.ABI
	contract common.Address

	// Optional signing key for CancelOrder. The projection core never
	// submits transactions; this exists for the cancel command the UI
	// delegates to the ledger.
	key *ecdsa.PrivateKey

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewClient dials the node and prepares the contract ABI.
func NewClient(ctx context.Context, rpcURL, contractHex, privKeyHex string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, domain.NewTransportError("dial", err)
	}

	c := &Client{
		eth:      eth,
		abi:      mustParseABI(),
		contract: common.HexToAddress(contractHex),
	}

	if privKeyHex != "" {
		key, err := crypto.HexToECDSA(privKeyHex)
		if err != nil {
			return nil, &domain.ConfigError{Field: "private_key", Err: err}
		}
		c.key = key
	}

	return c, nil
}

// Backfill fetches the historical event range from fromBlock onward in one
// filter pass. Callers with a journal pass their highest journaled block to
// skip the range already cached; the boundary block is re-fetched whole and
// overlap collapses under the store's id dedupe.
//
// Results are all-or-nothing: any fetch or decode failure returns a
// TransportError and no events, so a caller can never mistake a partial
// range for a ready store. Logs arrive in emission order from the node and
// are kept that way.
func (c *Client) Backfill(ctx context.Context, fromBlock uint64) ([]domain.RawEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		Addresses: []common.Address{c.contract},
		Topics: [][]common.Hash{{
			c.abi.Events["Order"].ID,
			c.abi.Events["Cancel"].ID,
			c.abi.Events["Trade"].ID,
		}},
	}

	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, domain.NewTransportError("backfill", err)
	}

	events := make([]domain.RawEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		ev, err := c.decodeLog(lg)
		if err != nil {
			return nil, domain.NewFatalTransportError("backfill decode", err)
		}
		events = append(events, ev)
	}

	slog.Info("Ledger backfill fetched",
		slog.Int("events", len(events)),
		slog.Uint64("from_block", fromBlock),
	)
	return events, nil
}

// SubscribeCancels starts a live subscription on the Cancel topic and
// forwards each decoded event to the sink. New orders and trades reach the
// store through the relay feed instead; the chain subscription only covers
// withdrawals.
//
// The subscription loop reconnects with exponential backoff, the same way
// the relay worker does; the caller only sees events, never the gaps.
func (c *Client) SubscribeCancels(ctx context.Context, sink chan<- domain.RawEvent) error {
	ctx, c.cancel = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.subscriptionLoop(ctx, sink)
	return nil
}

func (c *Client) subscriptionLoop(ctx context.Context, sink chan<- domain.RawEvent) {
	defer c.wg.Done()

	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			slog.Info("Ledger subscription loop stopped")
			return
		default:
		}

		err := c.streamCancels(ctx, sink)
		if err == nil || ctx.Err() != nil {
			continue
		}

		slog.Warn("Ledger subscription dropped",
			slog.Any("error", err),
			slog.Int("retry", retryCount),
		)

		delay := calculateBackoff(retryCount)
		retryCount++
		if retryCount > maxRetries {
			slog.Error("Ledger subscription max retries exceeded, resetting counter")
			retryCount = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// streamCancels holds one subscription open until it errors or the context
// ends.
func (c *Client) streamCancels(ctx context.Context, sink chan<- domain.RawEvent) error {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{c.contract},
		Topics:    [][]common.Hash{{c.abi.Events["Cancel"].ID}},
	}

	logs := make(chan types.Log, 64)
	sub, err := c.eth.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return domain.NewTransportError("subscribe", err)
	}
	defer sub.Unsubscribe()

	infra.GlobalMetrics.IncrementConnections()
	defer infra.GlobalMetrics.DecrementConnections()
	slog.Info("Ledger Cancel subscription established")

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return domain.NewTransportError("subscription", err)
		case lg := <-logs:
			if lg.Removed {
				continue
			}
			ev, err := c.decodeLog(lg)
			if err != nil {
				infra.GlobalMetrics.RecordError()
				slog.Warn("Undecodable Cancel log", slog.Any("error", err))
				continue
			}
			select {
			case sink <- ev:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func calculateBackoff(retryCount int) time.Duration {
	delay := baseDelay * time.Duration(math.Pow(2, float64(retryCount)))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// CancelOrder submits a cancel transaction for one of the key holder's own
// orders. The store is untouched here; the open set shrinks only when the
// resulting Cancel event comes back through the subscription.
func (c *Client) CancelOrder(ctx context.Context, orderID uint64) (string, error) {
	if c.key == nil {
		return "", &domain.ConfigError{Field: "private_key", Err: fmt.Errorf("no signing key configured")}
	}

	data, err := c.abi.Pack("cancelOrder", new(big.Int).SetUint64(orderID))
	if err != nil {
		return "", err
	}

	from := crypto.PubkeyToAddress(c.key.PublicKey)
	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", domain.NewTransportError("nonce", err)
	}
	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", domain.NewTransportError("gas price", err)
	}
	chainID, err := c.eth.NetworkID(ctx)
	if err != nil {
		return "", domain.NewTransportError("chain id", err)
	}

	tx := types.NewTransaction(nonce, c.contract, big.NewInt(0), cancelGasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(chainID), c.key)
	if err != nil {
		return "", err
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return "", domain.NewTransportError("send cancel", err)
	}

	slog.Info("Cancel transaction submitted",
		slog.Uint64("order_id", orderID),
		slog.String("tx", signedTx.Hash().Hex()),
	)
	return signedTx.Hash().Hex(), nil
}

// Close stops the subscription loop and releases the node connection.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.eth.Close()
}
