package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/liganite/liganite/crypto"
)

// TxType identifies the kind of operation a transaction performs.
type TxType string

const (
	TxTransfer          TxType = "transfer"
	TxSetDeposit        TxType = "set_deposit"
	TxRegisterPublisher TxType = "register_publisher"
	TxPublishGame       TxType = "publish_game"
	TxPurchaseGame      TxType = "purchase_game"
	TxCancelOrder       TxType = "cancel_order"
	TxFulfillOrder      TxType = "fulfill_order"
)

// ErrMissingFrom is returned by Verify for an unsigned envelope.
var ErrMissingFrom = errors.New("missing from field")

// Transaction is a signed call into the marketplace. From is the caller's
// account id; the signature proves the caller controls it.
type Transaction struct {
	ID        string          `json:"id"`
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      AccountID       `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// signingBody holds the fields that are covered by the signature.
type signingBody struct {
	ChainID   string          `json:"chain_id"`
	Type      TxType          `json:"type"`
	From      AccountID       `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Hash returns a deterministic hash of the transaction without its signature.
func (tx *Transaction) Hash() string {
	data, err := json.Marshal(signingBody{
		ChainID:   tx.ChainID,
		Type:      tx.Type,
		From:      tx.From,
		Nonce:     tx.Nonce,
		Timestamp: tx.Timestamp,
		Payload:   tx.Payload,
	})
	if err != nil {
		return ""
	}
	return crypto.Hash(data)
}

// Sign sets ID and Signature using priv.
func (tx *Transaction) Sign(priv crypto.PrivateKey) {
	tx.ID = tx.Hash()
	tx.Signature = priv.Sign([]byte(tx.ID))
}

// Verify checks that From is a valid public key and that it signed the
// transaction.
func (tx *Transaction) Verify() error {
	if tx.From == "" {
		return ErrMissingFrom
	}
	pub, err := crypto.PublicKeyFromHex(string(tx.From))
	if err != nil {
		return fmt.Errorf("invalid from: %w", err)
	}
	return pub.Verify([]byte(tx.Hash()), tx.Signature)
}

// NewTransaction creates an unsigned transaction stamped with the current time.
func NewTransaction(chainID string, typ TxType, from AccountID, nonce uint64, payload any) (*Transaction, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return &Transaction{
		ChainID:   chainID,
		Type:      typ,
		From:      from,
		Nonce:     nonce,
		Timestamp: time.Now().UnixNano(),
		Payload:   raw,
	}, nil
}

// ---- Payload types ----

// TransferPayload moves spendable balance to another account.
type TransferPayload struct {
	To     AccountID `json:"to"`
	Amount uint64    `json:"amount"`
}

// SetDepositPayload changes the publisher registration deposit.
type SetDepositPayload struct {
	Amount uint64 `json:"amount"`
}

// RegisterPublisherPayload registers the caller as a publisher.
type RegisterPublisherPayload struct {
	Details PublisherDetails `json:"details"`
}

// PublishGamePayload lists a game under the caller's publisher account.
type PublishGamePayload struct {
	GameID  GameID      `json:"game_id"`
	Details GameDetails `json:"details"`
}

// PurchaseGamePayload buys a listed game for the caller.
type PurchaseGamePayload struct {
	Publisher AccountID `json:"publisher"`
	GameID    GameID    `json:"game_id"`
}

// CancelOrderPayload cancels the caller's pending order.
type CancelOrderPayload struct {
	Publisher AccountID `json:"publisher"`
	GameID    GameID    `json:"game_id"`
}

// FulfillOrderPayload settles a pending order on one of the caller's games.
type FulfillOrderPayload struct {
	GameID GameID    `json:"game_id"`
	Buyer  AccountID `json:"buyer"`
}
