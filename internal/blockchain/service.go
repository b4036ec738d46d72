// internal/blockchain/service.go

// Package blockchain talks to the AaaS payment-link contract on Arc
// Testnet: waiting for transaction confirmation and decoding the
// PaymentLinkCreated / PaymentReceived event logs.
package blockchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"

	"github.com/c13agent/aaas-backend/internal/config"
)

var (
	// ErrEventNotFound means a confirmed receipt carried no matching
	// event from the configured contract.
	ErrEventNotFound = errors.New("expected contract event not found in receipt")

	// ErrTxFailed means the transaction was mined but reverted.
	ErrTxFailed = errors.New("transaction reverted on chain")

	// ErrPaymentNotFound means no PaymentReceived event matched the
	// expected link id and buyer.
	ErrPaymentNotFound = errors.New("payment event not found in receipt")

	// ErrMalformedEvent means a matching event carried data the contract
	// could not have emitted, such as a link id beyond int64 range.
	ErrMalformedEvent = errors.New("malformed contract event")
)

// FallbackLinkID is the legacy default applied when an activation receipt
// contains no PaymentLinkCreated event and fallback is enabled. A missing
// event should arguably be a hard error; the fallback exists for
// compatibility and is always logged as a warning.
const FallbackLinkID = 1

// Event topics, keccak256 of the canonical signatures.
var (
	paymentLinkCreatedTopic = crypto.Keccak256Hash([]byte("PaymentLinkCreated(uint256,address,uint256,string)"))
	paymentReceivedTopic    = crypto.Keccak256Hash([]byte("PaymentReceived(uint256,address,address,uint256,uint256)"))
)

// ReceiptSource is the slice of the RPC client the service needs;
// *ethclient.Client satisfies it.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type Service struct {
	client   ReceiptSource
	contract common.Address
	cfg      config.BlockchainConfig
}

func NewService(cfg config.BlockchainConfig) (*Service, error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("blockchain RPC URL is not configured")
	}

	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC node: %w", err)
	}

	return NewServiceWithClient(client, cfg), nil
}

// NewServiceWithClient injects the receipt source directly; used by tests
// and by callers that manage the RPC connection themselves.
func NewServiceWithClient(client ReceiptSource, cfg config.BlockchainConfig) *Service {
	return &Service{
		client:   client,
		contract: common.HexToAddress(cfg.ContractAddress),
		cfg:      cfg,
	}
}

// WaitForReceipt polls until the transaction is mined. The wait is
// bounded only by ctx; an unconfirmed transaction simply waits.
func (s *Service) WaitForReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	hash := common.HexToHash(txHash)
	interval := time.Duration(s.cfg.ConfirmPollMillis) * time.Millisecond
	if interval <= 0 {
		interval = 2 * time.Second
	}

	for {
		receipt, err := s.client.TransactionReceipt(ctx, hash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return nil, ErrTxFailed
			}
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("failed to fetch receipt for %s: %w", txHash, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

// ExtractLinkID scans a receipt for the PaymentLinkCreated event emitted
// by the configured contract and returns the indexed link id.
func (s *Service) ExtractLinkID(receipt *types.Receipt) (int64, error) {
	for _, log := range receipt.Logs {
		if log.Address != s.contract {
			continue
		}
		if len(log.Topics) < 2 || log.Topics[0] != paymentLinkCreatedTopic {
			continue
		}
		linkID := new(big.Int).SetBytes(log.Topics[1].Bytes())
		if !linkID.IsInt64() {
			return 0, fmt.Errorf("link id %s overflows int64: %w", linkID, ErrMalformedEvent)
		}
		return linkID.Int64(), nil
	}

	return 0, ErrEventNotFound
}

// ConfirmActivation waits for the activation transaction and returns the
// link id assigned by the contract. A receipt without the creation event
// is an explicit branch: with fallback enabled the legacy default link id
// is applied and a warning logged; otherwise the caller gets
// ErrEventNotFound.
func (s *Service) ConfirmActivation(ctx context.Context, txHash string) (int64, error) {
	receipt, err := s.WaitForReceipt(ctx, txHash)
	if err != nil {
		return 0, err
	}

	linkID, err := s.ExtractLinkID(receipt)
	if err == nil {
		return linkID, nil
	}
	if !errors.Is(err, ErrEventNotFound) {
		return 0, err
	}

	if !s.cfg.AllowLinkFallback {
		return 0, fmt.Errorf("activation tx %s: %w", txHash, err)
	}

	logrus.WithFields(logrus.Fields{
		"tx_hash":  txHash,
		"contract": s.contract.Hex(),
		"fallback": FallbackLinkID,
	}).Warn("PaymentLinkCreated event missing from activation receipt, applying fallback link id")

	return FallbackLinkID, nil
}

// VerifyPayment waits for the payment transaction and checks that it
// emitted PaymentReceived for the expected link id and buyer wallet.
func (s *Service) VerifyPayment(ctx context.Context, txHash string, linkID int64, buyerWallet string) error {
	receipt, err := s.WaitForReceipt(ctx, txHash)
	if err != nil {
		return err
	}

	buyer := common.HexToAddress(buyerWallet)
	want := big.NewInt(linkID)

	for _, log := range receipt.Logs {
		if log.Address != s.contract {
			continue
		}
		if len(log.Topics) < 3 || log.Topics[0] != paymentReceivedTopic {
			continue
		}

		gotLink := new(big.Int).SetBytes(log.Topics[1].Bytes())
		gotBuyer := common.BytesToAddress(log.Topics[2].Bytes())

		if gotLink.Cmp(want) == 0 && strings.EqualFold(gotBuyer.Hex(), buyer.Hex()) {
			return nil
		}
	}

	return ErrPaymentNotFound
}
