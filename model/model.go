// Package model defines the ledger's durable entities. Field tags export
// the exact wire-facing JSON shape rather than inferring it from Go field
// names.
package model

import "time"

// Address is a ledger account. PrivateKeyHash is omitted from JSON;
// it is an internal auth secret, never surfaced over the API.
type Address struct {
	Address        string    `json:"address"`
	Balance        uint64    `json:"balance"`
	TotalIn        uint64    `json:"totalin"`
	TotalOut       uint64    `json:"totalout"`
	Stake          uint64    `json:"stake"`
	Penalty        uint64    `json:"penalty"`
	StakeActive    bool      `json:"stake_active"`
	Locked         bool      `json:"locked"`
	PrivateKeyHash string    `json:"-"`
	FirstSeen      time.Time `json:"firstseen"`
}

// Block is a single produced block. Hash is nil for legacy rows with no
// recorded hash; non-null hashes are unique.
type Block struct {
	ID         uint64    `json:"height"`
	Hash       *string   `json:"hash"`
	Address    string    `json:"address"`
	Nonce      []byte    `json:"-"`
	Time       time.Time `json:"time"`
	Difficulty uint64    `json:"difficulty"`
	Value      uint32    `json:"value"`
	UserAgent  string    `json:"useragent,omitempty"`
	Origin     string    `json:"origin,omitempty"`
}

// Transaction is an append-only value-movement record.
type Transaction struct {
	ID           uint64    `json:"id"`
	From         *string   `json:"from"`
	To           string    `json:"to"`
	Value        uint64    `json:"value"`
	Time         time.Time `json:"time"`
	Name         *string   `json:"name,omitempty"`
	Op           *string   `json:"metadata,omitempty"`
	SentMetaname *string   `json:"sent_metaname,omitempty"`
	SentName     *string   `json:"sent_name,omitempty"`
	UserAgent    string    `json:"useragent,omitempty"`
	Origin       string    `json:"origin,omitempty"`
	Type         string    `json:"type"`
}

// Classify derives Type from the row's from/to/name fields. Mined rows
// have no sender; "staking", "name" and "a" are reserved pseudo-recipients.
func (t *Transaction) Classify() {
	switch {
	case t.From == nil:
		t.Type = "mined"
	case (t.From != nil && *t.From == "staking") || t.To == "staking":
		t.Type = "staking"
	case t.Name != nil && t.To == "name":
		t.Type = "name_purchase"
	case t.Name != nil && t.To == "a":
		t.Type = "name_a_record"
	case t.Name != nil:
		t.Type = "name_transfer"
	default:
		t.Type = "transfer"
	}
}

// Name is a purchasable, transferable human-readable alias.
type Name struct {
	Name          string    `json:"name"`
	Owner         string    `json:"owner"`
	OriginalOwner string    `json:"original_owner"`
	Registered    time.Time `json:"registered"`
	Updated       time.Time `json:"updated"`
	A             *string   `json:"a"`
	Unpaid        uint32    `json:"unpaid"`
}

// AuthLogEntry records an authentication or mining attempt, pruned after
// 30 days by the scheduler.
type AuthLogEntry struct {
	ID        uint64    `json:"id"`
	IP        string    `json:"ip"`
	Address   string    `json:"address"`
	Time      time.Time `json:"time"`
	Type      string    `json:"type"` // "auth" | "mining"
	UserAgent string    `json:"useragent,omitempty"`
	Origin    string    `json:"origin,omitempty"`
}
