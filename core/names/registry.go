// Package names implements the name registry: purchase, transfer,
// A-record update, and the per-block unpaid-count decay.
package names

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/allymonies/tenebra/config"
	"github.com/allymonies/tenebra/core/address"
	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/events"
	"github.com/allymonies/tenebra/hashutil"
	"github.com/allymonies/tenebra/model"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

type Registry struct {
	store   *store.Store
	ledger  *address.Ledger
	bus     *events.Bus
	cfg     config.Constants
	logger  ulogger.Logger
}

func New(s *store.Store, ledger *address.Ledger, bus *events.Bus, cfg config.Constants, logger ulogger.Logger) *Registry {
	return &Registry{store: s, ledger: ledger, bus: bus, cfg: cfg, logger: logger}
}

// StripSuffix removes a trailing ".tst" when parsing queries.
func (r *Registry) StripSuffix(name string) string {
	return strings.TrimSuffix(name, "."+r.cfg.NameSuffix)
}

func (r *Registry) Get(ctx context.Context, name string) (*model.Name, error) {
	name = r.StripSuffix(strings.ToLower(name))
	n, err := r.store.GetName(ctx, name)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ERR_NAME_NOT_FOUND, "name not found")
	}
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "get name: %v", err)
	}
	return n, nil
}

func (r *Registry) List(ctx context.Context, limit, offset int) ([]*model.Name, int, error) {
	rows, err := r.store.ListNames(ctx, limit, offset)
	if err != nil {
		return nil, 0, errors.New(errors.ERR_SERVER_ERROR, "list names: %v", err)
	}
	total, err := r.store.CountNames(ctx)
	if err != nil {
		return nil, 0, errors.New(errors.ERR_SERVER_ERROR, "count names: %v", err)
	}
	return rows, total, nil
}

// Cost returns the configured name cost.
func (r *Registry) Cost() uint64 { return r.cfg.NameCost }

// Bonus returns the current name bonus: the count of names with
// unpaid > 0.
func (r *Registry) Bonus(ctx context.Context) (int, error) {
	n, err := r.store.CountUnpaidNames(ctx)
	if err != nil {
		return 0, errors.New(errors.ERR_SERVER_ERROR, "count unpaid names: %v", err)
	}
	return n, nil
}

// CountOwned returns how many names the given address owns, for the
// GET /addresses/:a?fetchNames join.
func (r *Registry) CountOwned(ctx context.Context, owner string) (int, error) {
	n, err := r.store.CountNamesByOwner(ctx, owner)
	if err != nil {
		return 0, errors.New(errors.ERR_SERVER_ERROR, "count owned names: %v", err)
	}
	return n, nil
}

// Purchase validates and authenticates, then debits the sender by the
// name cost and registers the name under one transaction.
func (r *Registry) Purchase(ctx context.Context, ip, privateKey, name string) (*model.Name, error) {
	name = strings.ToLower(name)
	if !hashutil.IsValidName(name) {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "invalid name")
	}

	sender := hashutil.MakeV2Address(privateKey)
	authed, senderRow, err := r.ledger.Verify(ctx, ip, sender, privateKey)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, errors.New(errors.ERR_AUTH_FAILED, "authentication failed")
	}

	if _, err := r.store.GetName(ctx, name); err == nil {
		return nil, errors.New(errors.ERR_NAME_TAKEN, "name already registered")
	} else if err != sql.ErrNoRows {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "check name: %v", err)
	}

	cost := r.cfg.NameCost
	if senderRow.Balance < cost {
		return nil, errors.New(errors.ERR_INSUFFICIENT_FUNDS, "insufficient funds")
	}

	now := time.Now().UTC()
	var tx *model.Transaction

	err = r.store.WithTx(ctx, func(storeTx *store.Tx) error {
		if _, err := storeTx.GetName(ctx, name); err == nil {
			return errors.New(errors.ERR_NAME_TAKEN, "name already registered")
		} else if err != sql.ErrNoRows {
			return err
		}

		if err := storeTx.Debit(ctx, sender, cost); err != nil {
			return err
		}
		if err := storeTx.InsertName(ctx, name, sender, now, uint32(cost)); err != nil {
			if store.IsUniqueViolation(err) {
				return errors.New(errors.ERR_NAME_TAKEN, "name already registered")
			}
			return err
		}

		nameCopy := name
		t := &model.Transaction{From: &sender, To: "name", Value: cost, Time: now, Name: &nameCopy}
		if _, err := storeTx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		tx = t
		return nil
	})
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e
		}
		return nil, errors.New(errors.ERR_SERVER_ERROR, "purchase name: %v", err)
	}

	r.bus.Broadcast(events.Event{Type: "event", Event: "transaction", Data: tx, From: sender, To: tx.To})
	n := &model.Name{Name: name, Owner: sender, OriginalOwner: sender, Registered: now, Updated: now, Unpaid: uint32(cost)}
	r.bus.Broadcast(events.Event{Type: "event", Event: "name", Data: n})

	return n, nil
}

// Transfer moves ownership of a name to another address. Only the current
// owner may transfer.
func (r *Registry) Transfer(ctx context.Context, ip, privateKey, name, to string) (*model.Name, error) {
	name = r.StripSuffix(strings.ToLower(name))
	if !hashutil.IsAnyAddress(to) {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "invalid recipient address")
	}

	sender := hashutil.MakeV2Address(privateKey)
	authed, _, err := r.ledger.Verify(ctx, ip, sender, privateKey)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, errors.New(errors.ERR_AUTH_FAILED, "authentication failed")
	}

	now := time.Now().UTC()
	var updated *model.Name
	var tx *model.Transaction

	err = r.store.WithTx(ctx, func(storeTx *store.Tx) error {
		n, err := storeTx.GetName(ctx, name)
		if err == sql.ErrNoRows {
			return errors.New(errors.ERR_NAME_NOT_FOUND, "name not found")
		}
		if err != nil {
			return err
		}
		if n.Owner != sender {
			return errors.New(errors.ERR_NOT_NAME_OWNER, "not the name owner")
		}

		if err := storeTx.TransferName(ctx, name, to, now); err != nil {
			return err
		}

		nameCopy := name
		t := &model.Transaction{From: &sender, To: to, Value: 0, Time: now, Name: &nameCopy}
		if _, err := storeTx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		tx = t

		n.Owner = to
		n.Updated = now
		updated = n
		return nil
	})
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e
		}
		return nil, errors.New(errors.ERR_SERVER_ERROR, "transfer name: %v", err)
	}

	r.bus.Broadcast(events.Event{Type: "event", Event: "transaction", Data: tx, From: sender, To: to})
	r.bus.Broadcast(events.Event{Type: "event", Event: "name", Data: updated})

	return updated, nil
}

// UpdateA sets a name's A record. Only the current owner may update.
func (r *Registry) UpdateA(ctx context.Context, ip, privateKey, name, a string) (*model.Name, error) {
	name = r.StripSuffix(strings.ToLower(name))
	if a != "" && !hashutil.IsValidARecord(a) {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "invalid A record")
	}

	sender := hashutil.MakeV2Address(privateKey)
	authed, _, err := r.ledger.Verify(ctx, ip, sender, privateKey)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, errors.New(errors.ERR_AUTH_FAILED, "authentication failed")
	}

	now := time.Now().UTC()
	var updated *model.Name
	var tx *model.Transaction

	err = r.store.WithTx(ctx, func(storeTx *store.Tx) error {
		n, err := storeTx.GetName(ctx, name)
		if err == sql.ErrNoRows {
			return errors.New(errors.ERR_NAME_NOT_FOUND, "name not found")
		}
		if err != nil {
			return err
		}
		if n.Owner != sender {
			return errors.New(errors.ERR_NOT_NAME_OWNER, "not the name owner")
		}

		if err := storeTx.UpdateNameA(ctx, name, a, now); err != nil {
			return err
		}

		nameCopy, op := name, a
		t := &model.Transaction{From: &sender, To: "a", Value: 0, Time: now, Name: &nameCopy, Op: &op}
		if _, err := storeTx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		tx = t

		n.A = &a
		n.Updated = now
		updated = n
		return nil
	})
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e
		}
		return nil, errors.New(errors.ERR_SERVER_ERROR, "update A record: %v", err)
	}

	r.bus.Broadcast(events.Event{Type: "event", Event: "transaction", Data: tx, From: sender, To: "a"})
	r.bus.Broadcast(events.Event{Type: "event", Event: "name", Data: updated})

	return updated, nil
}

// ResolvePaymentTarget detects the literal form [metaname@]name.tst and
// resolves it to the name's current owner. It returns (ownerAddress,
// metaname, name, matched).
func (r *Registry) ResolvePaymentTarget(ctx context.Context, target string) (string, string, string, bool, error) {
	suffix := "." + r.cfg.NameSuffix
	if !strings.HasSuffix(target, suffix) {
		return "", "", "", false, nil
	}

	body := strings.TrimSuffix(target, suffix)
	metaname, name := "", body
	if idx := strings.Index(body, "@"); idx >= 0 {
		metaname, name = body[:idx], body[idx+1:]
	}

	n, err := r.store.GetName(ctx, name)
	if err == sql.ErrNoRows {
		return "", "", "", true, errors.New(errors.ERR_NAME_NOT_FOUND, "name not found")
	}
	if err != nil {
		return "", "", "", true, errors.New(errors.ERR_SERVER_ERROR, "resolve name: %v", err)
	}

	return n.Owner, metaname, name, true, nil
}
