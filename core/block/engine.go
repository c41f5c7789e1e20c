// Package block implements the block engine and mining gate: submission
// validation, reward computation, work retargeting, and the per-block
// unpaid-names decrement.
package block

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/allymonies/tenebra/core/address"
	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/events"
	"github.com/allymonies/tenebra/faststate"
	"github.com/allymonies/tenebra/hashutil"
	"github.com/allymonies/tenebra/model"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

type Config struct {
	NonceMaxSize    int
	MinWork         uint64
	MaxWork         uint64
	WorkFactor      float64
	SecondsPerBlock int
	FreeNonceSubmission bool
}

type Engine struct {
	store   *store.Store
	fast    *faststate.FastState
	ledger  *address.Ledger
	bus     *events.Bus
	cfg     Config
	logger  ulogger.Logger
}

func New(s *store.Store, fast *faststate.FastState, ledger *address.Ledger, bus *events.Bus, cfg Config, logger ulogger.Logger) *Engine {
	return &Engine{store: s, fast: fast, ledger: ledger, bus: bus, cfg: cfg, logger: logger}
}

const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// GenerateGenesis inserts block id=1 if the chain is empty (GEN_GENESIS).
func (e *Engine) GenerateGenesis(ctx context.Context) error {
	if e.fast.GenesisGenned() {
		return nil
	}
	_, err := e.store.GetLastBlock(ctx)
	if err == nil {
		e.fast.SetGenesisGenned(true)
		return nil
	}
	if err != sql.ErrNoRows {
		return err
	}

	now := time.Now().UTC()
	err = e.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.InsertBlock(ctx, 1, genesisHash, "0000000000", nil, now, e.cfg.MaxWork, 0)
	})
	if err != nil {
		return err
	}
	e.fast.SetGenesisGenned(true)
	return nil
}

func baseBlockValue(id uint64) uint32 {
	if id < 325 {
		return 25
	}
	return 1
}

// retarget nudges work toward the observed block interval. When seconds
// equals secondsPerBlock the result is unchanged.
func retarget(w uint64, seconds float64, secondsPerBlock int, factor float64, minWork, maxWork uint64) uint64 {
	target := seconds * float64(w) / float64(secondsPerBlock)
	nw := math.Round(float64(w) + (target-float64(w))*factor)
	if nw < float64(minWork) {
		nw = float64(minWork)
	}
	if nw > float64(maxWork) {
		nw = float64(maxWork)
	}
	return uint64(nw)
}

// Submit validates a block solution, produces the block and its reward
// under one transaction, retargets work, and broadcasts the result.
func (e *Engine) Submit(ctx context.Context, ip, address string, nonce []byte, userAgent, origin string) (*model.Block, uint64, error) {
	if !e.fast.MiningEnabled() && !e.fast.StakingEnabled() {
		return nil, 0, errors.New(errors.ERR_MINING_DISABLED, "mining and staking are both disabled")
	}
	if !hashutil.IsV2Address(address) {
		return nil, 0, errors.New(errors.ERR_INVALID_PARAMETER, "address must be a v2 address")
	}
	if len(nonce) < 1 || len(nonce) > e.cfg.NonceMaxSize {
		return nil, 0, errors.New(errors.ERR_LARGE_PARAMETER, "nonce length out of range")
	}

	last, err := e.store.GetLastBlock(ctx)
	if err != nil {
		return nil, 0, errors.New(errors.ERR_SERVER_ERROR, "get last block: %v", err)
	}

	last12 := ""
	if last.Hash != nil && len(*last.Hash) >= 12 {
		last12 = (*last.Hash)[:12]
	}

	h := hashutil.Sha256Bytes(append([]byte(address+last12), nonce...))
	w := e.fast.Work()
	leading := hexPrefixToUint(h[:12])

	powOK := e.fast.MiningEnabled() && (leading <= w || e.cfg.FreeNonceSubmission)
	posOK := e.fast.StakingEnabled() && address == e.fast.Validator()

	if !powOK && !posOK {
		e.ledger.VerifyMining(ctx, ip, address, false)
		if e.fast.StakingEnabled() {
			return nil, 0, errors.New(errors.ERR_UNSELECTED_VALIDATOR, "address is not the current validator")
		}
		return nil, 0, errors.New(errors.ERR_SOLUTION_INCORRECT, "solution does not meet required work")
	}

	now := time.Now().UTC()
	seconds := now.Sub(last.Time).Seconds()
	newWork := retarget(w, seconds, e.cfg.SecondsPerBlock, e.cfg.WorkFactor, e.cfg.MinWork, e.cfg.MaxWork)

	var produced *model.Block
	var value uint32

	err = e.store.WithTx(ctx, func(storeTx *store.Tx) error {
		unpaidNames, err := storeTx.CountUnpaidNames(ctx)
		if err != nil {
			return err
		}
		unpaidPenalties, err := storeTx.CountPenalizedAddresses(ctx)
		if err != nil {
			return err
		}
		value = baseBlockValue(last.ID) + uint32(unpaidNames) + uint32(unpaidPenalties)

		if err := storeTx.InsertBlock(ctx, last.ID+1, h, address, nonce, now, w, value); err != nil {
			if store.IsUniqueViolation(err) {
				return errors.New(errors.ERR_SOLUTION_DUPLICATE, "block hash already submitted")
			}
			return err
		}

		mined := &model.Transaction{To: address, Value: uint64(value), Time: now}
		if _, err := storeTx.InsertTransaction(ctx, mined); err != nil {
			return err
		}

		if err := storeTx.DecrementUnpaidNames(ctx); err != nil {
			return err
		}
		if err := storeTx.Credit(ctx, address, uint64(value), now); err != nil {
			return err
		}

		hashCopy := h
		produced = &model.Block{
			ID: last.ID + 1, Hash: &hashCopy, Address: address, Nonce: nonce,
			Time: now, Difficulty: w, Value: value, UserAgent: userAgent, Origin: origin,
		}
		return nil
	})
	if err != nil {
		if ee, ok := err.(*errors.Error); ok {
			return nil, 0, ee
		}
		return nil, 0, errors.New(errors.ERR_SERVER_ERROR, "submit block: %v", err)
	}

	e.fast.SetWork(newWork)
	if posOK {
		// The validator has produced its block for this epoch; clearing it
		// keeps the next selection tick from penalising it.
		e.fast.SetValidator("")
	}
	e.ledger.VerifyMining(ctx, ip, address, true)

	e.bus.Broadcast(events.Event{Type: "event", Event: "block", Data: blockBroadcast{Block: produced, NewWork: newWork}})

	return produced, newWork, nil
}

type blockBroadcast struct {
	Block   *model.Block `json:"block"`
	NewWork uint64       `json:"new_work"`
}

func hexPrefixToUint(hexStr string) uint64 {
	var v uint64
	for i := 0; i < len(hexStr); i++ {
		c := hexStr[i]
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		default:
			d = 0
		}
		v = v*16 + d
	}
	return v
}

func (e *Engine) Get(ctx context.Context, height uint64) (*model.Block, error) {
	b, err := e.store.GetBlock(ctx, height)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ERR_BLOCK_NOT_FOUND, "block not found")
	}
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "get block: %v", err)
	}
	return b, nil
}

func (e *Engine) Last(ctx context.Context) (*model.Block, error) {
	b, err := e.store.GetLastBlock(ctx)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ERR_BLOCK_NOT_FOUND, "no blocks yet")
	}
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "get last block: %v", err)
	}
	return b, nil
}

// RewardBreakdown is the composition of the next block's reward.
type RewardBreakdown struct {
	Base            uint32 `json:"base_value"`
	UnpaidNames     int    `json:"unpaid_names"`
	UnpaidPenalties int    `json:"unpaid_penalties"`
	Total           uint32 `json:"total"`
}

// NextReward computes what the next produced block would be worth right
// now: the base value plus one unit per unpaid name and per penalized
// address.
func (e *Engine) NextReward(ctx context.Context) (*RewardBreakdown, error) {
	last, err := e.store.GetLastBlock(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "get last block: %v", err)
	}
	var lastID uint64
	if last != nil {
		lastID = last.ID
	}

	unpaidNames, err := e.store.CountUnpaidNames(ctx)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "count unpaid names: %v", err)
	}
	unpaidPenalties, err := e.store.CountPenalizedAddresses(ctx)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "count penalties: %v", err)
	}

	base := baseBlockValue(lastID)
	return &RewardBreakdown{
		Base:            base,
		UnpaidNames:     unpaidNames,
		UnpaidPenalties: unpaidPenalties,
		Total:           base + uint32(unpaidNames) + uint32(unpaidPenalties),
	}, nil
}

func (e *Engine) List(ctx context.Context, limit, offset int) ([]*model.Block, error) {
	rows, err := e.store.ListBlocks(ctx, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list blocks: %v", err)
	}
	return rows, nil
}
