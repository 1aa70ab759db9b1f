package core

// State is the full marketplace state interface. Implementations must be
// snapshot-able so the executor can roll back failed transactions.
//
// Order rows are only reachable through PutOrder/RemoveOrder, which write
// the buyer-side and publisher-side indexes together.
type State interface {
	// Accounts
	GetAccount(id AccountID) (*Account, error)
	SetAccount(acc *Account) error

	// Publishers
	GetPublisherDeposit() (uint64, error)
	SetPublisherDeposit(amount uint64) error
	GetPublisher(id AccountID) (*PublisherDetails, error)
	HasPublisher(id AccountID) (bool, error)
	SetPublisher(id AccountID, d *PublisherDetails) error

	// Tags are read-only after genesis.
	GetTag(id TagID) (string, error)
	HasTag(id TagID) (bool, error)

	// Catalog
	GetGame(g GlobalGameID) (*GameDetails, error)
	HasGame(g GlobalGameID) (bool, error)
	SetGame(g GlobalGameID, d *GameDetails) error

	// Orders
	GetOrder(buyer AccountID, g GlobalGameID) (*OrderDetails, error)
	HasOrder(buyer AccountID, g GlobalGameID) (bool, error)
	HasPublisherOrder(g GlobalGameID, buyer AccountID) (bool, error)
	PutOrder(buyer AccountID, g GlobalGameID, o *OrderDetails) error
	RemoveOrder(buyer AccountID, g GlobalGameID) error
	BuyerOrders(buyer AccountID) ([]Order, error)
	PublisherOrders(publisher AccountID) ([]Order, error)

	// Ownership
	IsOwned(buyer AccountID, g GlobalGameID) (bool, error)
	SetOwned(buyer AccountID, g GlobalGameID) error

	// Snapshot / rollback / commit
	Snapshot() (int, error)
	RevertToSnapshot(id int) error
	// ComputeRoot returns the deterministic state root from the current write
	// buffer without flushing.
	ComputeRoot() string
	// Commit flushes the write buffer to the underlying DB and clears it.
	Commit() error
}
