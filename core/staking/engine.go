// Package staking implements the staking engine: deposit/withdraw,
// penalties, and the weighted-lottery validator selection tick.
package staking

import (
	"context"
	"database/sql"
	"math/rand"
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

type Engine struct {
	store            *store.Store
	ledger           *address.Ledger
	fast             *faststate.FastState
	bus              *events.Bus
	validatorPenalty uint64
	logger           ulogger.Logger

	rand *rand.Rand
}

func New(s *store.Store, ledger *address.Ledger, fast *faststate.FastState, bus *events.Bus, validatorPenalty uint64, logger ulogger.Logger) *Engine {
	return &Engine{
		store: s, ledger: ledger, fast: fast, bus: bus,
		validatorPenalty: validatorPenalty, logger: logger,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Deposit moves amount from balance to stake and marks the stake active.
func (e *Engine) Deposit(ctx context.Context, ip, privateKey string, amount uint64) (*model.Address, error) {
	if amount < 1 {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "amount must be >= 1")
	}

	sender, err := e.authenticatedSender(ctx, ip, privateKey)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var result *model.Address
	var tx *model.Transaction

	err = e.store.WithTx(ctx, func(storeTx *store.Tx) error {
		row, err := storeTx.GetAddress(ctx, sender)
		if err != nil {
			return err
		}
		if row.Balance < amount {
			return errors.New(errors.ERR_INSUFFICIENT_FUNDS, "insufficient funds")
		}

		if err := storeTx.AdjustBalanceForStake(ctx, sender, -int64(amount)); err != nil {
			return err
		}
		if err := storeTx.AdjustStake(ctx, sender, int64(amount), true); err != nil {
			return err
		}

		t := &model.Transaction{From: strPtr("staking"), To: sender, Value: amount, Time: now}
		if _, err := storeTx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		tx = t

		updated, err := storeTx.GetAddress(ctx, sender)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, asEngineErr(err, "deposit stake")
	}

	e.bus.Broadcast(events.Event{Type: "event", Event: "transaction", Data: tx, From: "staking", To: sender})
	e.bus.Broadcast(events.Event{Type: "event", Event: "stake", Data: result})

	return result, nil
}

// Withdraw moves amount back from stake to balance; the stake stays
// active only while some stake remains.
func (e *Engine) Withdraw(ctx context.Context, ip, privateKey string, amount uint64) (*model.Address, error) {
	if amount < 1 {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "amount must be >= 1")
	}

	sender, err := e.authenticatedSender(ctx, ip, privateKey)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var result *model.Address
	var tx *model.Transaction

	err = e.store.WithTx(ctx, func(storeTx *store.Tx) error {
		row, err := storeTx.GetAddress(ctx, sender)
		if err != nil {
			return err
		}
		if row.Stake < amount {
			return errors.New(errors.ERR_INSUFFICIENT_FUNDS, "insufficient stake")
		}

		active := row.Stake-amount > 0
		if err := storeTx.AdjustBalanceForStake(ctx, sender, int64(amount)); err != nil {
			return err
		}
		if err := storeTx.AdjustStake(ctx, sender, -int64(amount), active); err != nil {
			return err
		}

		t := &model.Transaction{From: &sender, To: "staking", Value: amount, Time: now}
		if _, err := storeTx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		tx = t

		updated, err := storeTx.GetAddress(ctx, sender)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, asEngineErr(err, "withdraw stake")
	}

	e.bus.Broadcast(events.Event{Type: "event", Event: "transaction", Data: tx, From: sender, To: "staking"})
	e.bus.Broadcast(events.Event{Type: "event", Event: "stake", Data: result})

	return result, nil
}

// penalize slashes a validator that failed to produce its block. Called
// only by the validator-selection tick, never directly over HTTP.
func (e *Engine) penalize(ctx context.Context, staker string) error {
	var result *model.Address

	err := e.store.WithTx(ctx, func(storeTx *store.Tx) error {
		row, err := storeTx.GetAddress(ctx, staker)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		p := e.validatorPenalty
		if row.Stake < p {
			p = row.Stake
		}
		if p == 0 {
			return nil
		}

		if err := storeTx.AdjustStake(ctx, staker, -int64(p), false); err != nil {
			return err
		}
		if err := storeTx.AdjustPenalty(ctx, staker, p); err != nil {
			return err
		}

		updated, err := storeTx.GetAddress(ctx, staker)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return err
	}
	if result != nil {
		e.bus.Broadcast(events.Event{Type: "event", Event: "stake", Data: result})
	}
	return nil
}

// Tick penalises the previous validator if it produced no block, then
// elects the next one by stake-weighted lottery. Called by the scheduler
// every seconds_per_block while staking is enabled.
func (e *Engine) Tick(ctx context.Context) error {
	previous := e.fast.Validator()
	if previous != "" {
		if err := e.penalize(ctx, previous); err != nil {
			return err
		}
	}

	var stakers []*model.Address
	err := e.store.WithTx(ctx, func(storeTx *store.Tx) error {
		rows, err := storeTx.ListStakers(ctx)
		if err != nil {
			return err
		}
		stakers = rows
		return nil
	})
	if err != nil {
		return err
	}

	var total uint64
	for _, s := range stakers {
		total += s.Stake
	}

	chosen := ""
	if total > 0 {
		r := uint64(e.rand.Int63n(int64(total)))
		var cum uint64
		for _, s := range stakers {
			cum += s.Stake
			if cum > r {
				chosen = s.Address
				break
			}
		}
	}

	e.fast.SetValidator(chosen)
	e.bus.Broadcast(events.Event{Type: "event", Event: "validator", Data: map[string]string{"address": chosen}})

	return nil
}

func (e *Engine) authenticatedSender(ctx context.Context, ip, privateKey string) (string, error) {
	sender, _, err := e.deriveAndVerify(ctx, ip, privateKey)
	return sender, err
}

func (e *Engine) deriveAndVerify(ctx context.Context, ip, privateKey string) (string, *model.Address, error) {
	sender := hashutil.MakeV2Address(privateKey)
	authed, row, err := e.ledger.Verify(ctx, ip, sender, privateKey)
	if err != nil {
		return "", nil, err
	}
	if !authed {
		return "", nil, errors.New(errors.ERR_AUTH_FAILED, "authentication failed")
	}
	return sender, row, nil
}

func (e *Engine) Get(ctx context.Context, addr string) (*model.Address, error) {
	row, err := e.store.GetAddress(ctx, addr)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ERR_ADDRESS_NOT_FOUND, "address not found")
	}
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "get staker: %v", err)
	}
	return row, nil
}

func (e *Engine) Validator() string { return e.fast.Validator() }

// Stake satisfies events.StakeReader for the websocket "stake" message.
func (e *Engine) Stake(ctx context.Context, addr string) (uint64, error) {
	row, err := e.Get(ctx, addr)
	if err != nil {
		return 0, err
	}
	return row.Stake, nil
}

// Penalties lists addresses currently carrying a nonzero penalty.
func (e *Engine) Penalties(ctx context.Context, limit, offset int) ([]*model.Address, error) {
	rows, err := e.store.ListPenalized(ctx, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list penalties: %v", err)
	}
	return rows, nil
}

// Stakers lists every active staker (GET /staking).
func (e *Engine) Stakers(ctx context.Context, limit, offset int) ([]*model.Address, error) {
	var out []*model.Address
	err := e.store.WithTx(ctx, func(storeTx *store.Tx) error {
		rows, err := storeTx.ListStakers(ctx)
		if err != nil {
			return err
		}
		if offset < len(rows) {
			end := offset + limit
			if end > len(rows) || limit <= 0 {
				end = len(rows)
			}
			out = rows[offset:end]
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list stakers: %v", err)
	}
	return out, nil
}

func asEngineErr(err error, op string) error {
	if ee, ok := err.(*errors.Error); ok {
		return ee
	}
	return errors.New(errors.ERR_SERVER_ERROR, "%s: %v", op, err)
}

func strPtr(s string) *string { return &s }
