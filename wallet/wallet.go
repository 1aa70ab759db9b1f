package wallet

import (
	"github.com/liganite/liganite/core"
	"github.com/liganite/liganite/crypto"
)

// Wallet holds a key pair and builds signed marketplace transactions for a
// single chain.
type Wallet struct {
	priv    crypto.PrivateKey
	pub     crypto.PublicKey
	chainID string
}

// New creates a Wallet from an existing private key.
func New(priv crypto.PrivateKey, chainID string) *Wallet {
	return &Wallet{priv: priv, pub: priv.Public(), chainID: chainID}
}

// Generate creates a Wallet with a freshly generated key pair.
func Generate(chainID string) (*Wallet, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return New(priv, chainID), nil
}

// PrivKey returns the raw private key (handle with care).
func (w *Wallet) PrivKey() crypto.PrivateKey {
	return w.priv
}

// Account returns the account id the wallet signs for.
func (w *Wallet) Account() core.AccountID {
	return core.AccountID(w.pub.Hex())
}

// NewTx creates a signed transaction. nonce should match the account's
// current nonce.
func (w *Wallet) NewTx(typ core.TxType, nonce uint64, payload any) (*core.Transaction, error) {
	tx, err := core.NewTransaction(w.chainID, typ, w.Account(), nonce, payload)
	if err != nil {
		return nil, err
	}
	tx.Sign(w.priv)
	return tx, nil
}

// Transfer moves spendable balance to another account.
func (w *Wallet) Transfer(to core.AccountID, amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxTransfer, nonce, core.TransferPayload{To: to, Amount: amount})
}

// SetDeposit changes the publisher deposit. Only the admin account succeeds.
func (w *Wallet) SetDeposit(amount, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxSetDeposit, nonce, core.SetDepositPayload{Amount: amount})
}

// RegisterPublisher registers the wallet's account as a publisher.
func (w *Wallet) RegisterPublisher(name, url string, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxRegisterPublisher, nonce, core.RegisterPublisherPayload{
		Details: core.PublisherDetails{Name: name, URL: url},
	})
}

// PublishGame lists a game under the wallet's publisher account.
func (w *Wallet) PublishGame(id core.GameID, details core.GameDetails, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxPublishGame, nonce, core.PublishGamePayload{GameID: id, Details: details})
}

// PurchaseGame buys publisher's game id.
func (w *Wallet) PurchaseGame(publisher core.AccountID, id core.GameID, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxPurchaseGame, nonce, core.PurchaseGamePayload{Publisher: publisher, GameID: id})
}

// CancelOrder cancels the wallet's pending order on publisher's game id.
func (w *Wallet) CancelOrder(publisher core.AccountID, id core.GameID, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxCancelOrder, nonce, core.CancelOrderPayload{Publisher: publisher, GameID: id})
}

// FulfillOrder settles buyer's order on one of the wallet's games.
func (w *Wallet) FulfillOrder(id core.GameID, buyer core.AccountID, nonce uint64) (*core.Transaction, error) {
	return w.NewTx(core.TxFulfillOrder, nonce, core.FulfillOrderPayload{GameID: id, Buyer: buyer})
}
