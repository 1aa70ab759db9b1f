package core

import "fmt"

// Size limits for user-supplied fields.
const (
	MaxNameSize    = 128
	MaxURLSize     = 128
	MaxCIDSize     = 128
	MaxTagSize     = 50
	MaxTagsPerGame = 20
)

// AccountID is the hex-encoded ed25519 public key of an account. Publishers
// and buyers are both plain accounts.
type AccountID string

// GameID identifies a game within the scope of its publisher.
type GameID uint16

// TagID references an entry of the genesis tag vocabulary.
type TagID uint16

// GlobalGameID identifies a game across all publishers.
type GlobalGameID struct {
	Publisher AccountID `json:"publisher"`
	Game      GameID    `json:"game_id"`
}

func (g GlobalGameID) String() string {
	return fmt.Sprintf("%s/%d", g.Publisher, g.Game)
}

// HoldReason tags funds held on an account so that independent holds never
// mix.
type HoldReason string

const (
	HoldPublisherDeposit HoldReason = "publisher_deposit"
	HoldGamePayment      HoldReason = "game_payment"
)

// Account holds a participant's spendable balance, held balances per reason,
// and replay-protection nonce.
type Account struct {
	Address AccountID             `json:"address"`
	Free    uint64                `json:"free"`
	Holds   map[HoldReason]uint64 `json:"holds,omitempty"`
	Nonce   uint64                `json:"nonce"`
}

// Held returns the amount held under reason.
func (a *Account) Held(reason HoldReason) uint64 {
	return a.Holds[reason]
}

// TotalHeld sums every hold on the account.
func (a *Account) TotalHeld() uint64 {
	var total uint64
	for _, v := range a.Holds {
		total += v
	}
	return total
}

// PublisherDetails is the public profile stored when a publisher registers.
type PublisherDetails struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IsValid reports whether the name is a non-empty UTF-8 string and the URL
// is an absolute URL, both within their size limits.
func (d PublisherDetails) IsValid() bool {
	return IsNonEmptyString(d.Name, MaxNameSize) && IsURL(d.URL)
}

// DistributionKind selects how a listed game becomes owned.
type DistributionKind string

const (
	// DistributionFree hands the game out at no cost.
	DistributionFree DistributionKind = "free"
	// DistributionInstant moves the price to the publisher and grants the
	// game in one step.
	DistributionInstant DistributionKind = "instant"
	// DistributionIndividual holds the price and opens an order that the
	// publisher fulfills later.
	DistributionIndividual DistributionKind = "individual"
)

// Distribution is the per-game distribution policy. Only the fields relevant
// to Kind are meaningful: Free uses CID, Instant uses Price and CID,
// Individual uses Price.
type Distribution struct {
	Kind  DistributionKind `json:"kind"`
	Price uint64           `json:"price,omitempty"`
	CID   string           `json:"cid,omitempty"`
}

// Free builds a free distribution policy.
func Free(cid string) Distribution {
	return Distribution{Kind: DistributionFree, CID: cid}
}

// Instant builds an instant-purchase distribution policy.
func Instant(price uint64, cid string) Distribution {
	return Distribution{Kind: DistributionInstant, Price: price, CID: cid}
}

// Individual builds an order-based distribution policy.
func Individual(price uint64) Distribution {
	return Distribution{Kind: DistributionIndividual, Price: price}
}

// IsValid checks the fields required by the policy kind. Unknown kinds are
// never valid.
func (d Distribution) IsValid() bool {
	switch d.Kind {
	case DistributionFree:
		return IsCID(d.CID)
	case DistributionInstant:
		return d.Price > 0 && IsCID(d.CID)
	case DistributionIndividual:
		return d.Price > 0
	default:
		return false
	}
}

// GameDetails describes a published game.
type GameDetails struct {
	Name         string       `json:"name"`
	Tags         []TagID      `json:"tags"`
	Distribution Distribution `json:"distribution"`
}

// IsValid reports whether the details can be published. validTag decides
// whether a tag reference exists in the vocabulary.
func (d GameDetails) IsValid(validTag func(TagID) bool) bool {
	if !IsNonEmptyString(d.Name, MaxNameSize) {
		return false
	}
	if len(d.Tags) > MaxTagsPerGame {
		return false
	}
	if !d.Distribution.IsValid() {
		return false
	}
	for _, t := range d.Tags {
		if !validTag(t) {
			return false
		}
	}
	return true
}

// OrderDetails records the deposit held from a buyer for a pending order.
type OrderDetails struct {
	Deposit uint64 `json:"deposit"`
}

// Order is a fully-keyed pending order as seen from either index.
type Order struct {
	Buyer   AccountID    `json:"buyer"`
	Game    GlobalGameID `json:"game"`
	Deposit uint64       `json:"deposit"`
}
