// Package tx implements the transaction engine: atomic value movement,
// transaction classification, and name-aware routing.
package tx

import (
	"context"
	"database/sql"
	"time"

	"github.com/allymonies/tenebra/core/address"
	"github.com/allymonies/tenebra/core/names"
	"github.com/allymonies/tenebra/errors"
	"github.com/allymonies/tenebra/events"
	"github.com/allymonies/tenebra/hashutil"
	"github.com/allymonies/tenebra/model"
	"github.com/allymonies/tenebra/store"
	"github.com/allymonies/tenebra/ulogger"
)

type Engine struct {
	store  *store.Store
	ledger *address.Ledger
	names  *names.Registry
	bus    *events.Bus
	logger ulogger.Logger
}

func New(s *store.Store, ledger *address.Ledger, names *names.Registry, bus *events.Bus, logger ulogger.Logger) *Engine {
	return &Engine{store: s, ledger: ledger, names: names, bus: bus, logger: logger}
}

// Send authenticates the sender from a raw private key, resolves a
// name-payment target if present, and pushes the transaction.
func (e *Engine) Send(ctx context.Context, ip, privateKey, to string, amount uint64, metadata string) (*model.Transaction, error) {
	if amount < 1 {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "amount must be >= 1")
	}
	if metadata != "" && !hashutil.IsValidMetadata(metadata) {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "invalid metadata")
	}

	sender := hashutil.MakeV2Address(privateKey)
	authed, _, err := e.ledger.Verify(ctx, ip, sender, privateKey)
	if err != nil {
		return nil, err
	}
	if !authed {
		return nil, errors.New(errors.ERR_AUTH_FAILED, "authentication failed")
	}

	recipient, sentMetaname, sentName := to, "", ""
	var nameRef *string

	owner, metaname, name, matched, rerr := e.names.ResolvePaymentTarget(ctx, to)
	if rerr != nil {
		return nil, rerr
	}
	if matched {
		recipient = owner
		sentMetaname, sentName = metaname, name
	} else if !hashutil.IsAnyAddress(to) {
		return nil, errors.New(errors.ERR_INVALID_PARAMETER, "invalid recipient address")
	}

	return e.Push(ctx, sender, recipient, amount, metadata, nameRef, sentMetaname, sentName)
}

// Push fails on insufficient funds, otherwise moves value atomically and
// broadcasts the committed transaction.
func (e *Engine) Push(ctx context.Context, sender, recipient string, amount uint64, metadata string, name *string, sentMetaname, sentName string) (*model.Transaction, error) {
	now := time.Now().UTC()
	var t *model.Transaction

	err := e.store.WithTx(ctx, func(storeTx *store.Tx) error {
		senderRow, err := storeTx.GetAddress(ctx, sender)
		if err == sql.ErrNoRows {
			return errors.New(errors.ERR_ADDRESS_NOT_FOUND, "sender not found")
		}
		if err != nil {
			return err
		}
		if senderRow.Balance < amount {
			return errors.New(errors.ERR_INSUFFICIENT_FUNDS, "insufficient funds")
		}

		if err := storeTx.Debit(ctx, sender, amount); err != nil {
			return err
		}
		if err := storeTx.Credit(ctx, recipient, amount, now); err != nil {
			return err
		}

		row := &model.Transaction{
			From:  &sender,
			To:    recipient,
			Value: amount,
			Time:  now,
			Name:  name,
		}
		if metadata != "" {
			row.Op = &metadata
		}
		if sentMetaname != "" {
			row.SentMetaname = &sentMetaname
		}
		if sentName != "" {
			row.SentName = &sentName
		}

		if _, err := storeTx.InsertTransaction(ctx, row); err != nil {
			return err
		}
		t = row
		return nil
	})
	if err != nil {
		if e, ok := err.(*errors.Error); ok {
			return nil, e
		}
		return nil, errors.New(errors.ERR_SERVER_ERROR, "push transaction: %v", err)
	}

	e.bus.Broadcast(events.Event{Type: "event", Event: "transaction", Data: t, From: sender, To: recipient})

	return t, nil
}

func (e *Engine) Get(ctx context.Context, id uint64) (*model.Transaction, error) {
	t, err := e.store.GetTransaction(ctx, id)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ERR_TRANSACTION_NOT_FOUND, "transaction not found")
	}
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "get transaction: %v", err)
	}
	return t, nil
}

func (e *Engine) List(ctx context.Context, limit, offset int) ([]*model.Transaction, error) {
	rows, err := e.store.ListTransactions(ctx, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list transactions: %v", err)
	}
	return rows, nil
}

func (e *Engine) ListForAddress(ctx context.Context, addr string, limit, offset int) ([]*model.Transaction, error) {
	rows, err := e.store.ListTransactionsForAddress(ctx, addr, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list transactions for address: %v", err)
	}
	return rows, nil
}

func (e *Engine) CountForAddress(ctx context.Context, addr string) (int, error) {
	n, err := e.store.CountTransactionsForAddress(ctx, addr)
	if err != nil {
		return 0, errors.New(errors.ERR_SERVER_ERROR, "count transactions for address: %v", err)
	}
	return n, nil
}

func (e *Engine) ListByName(ctx context.Context, name string, limit, offset int) ([]*model.Transaction, error) {
	rows, err := e.store.ListTransactionsByName(ctx, name, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list transactions by name: %v", err)
	}
	return rows, nil
}

func (e *Engine) CountByName(ctx context.Context, name string) (int, error) {
	n, err := e.store.CountTransactionsByName(ctx, name)
	if err != nil {
		return 0, errors.New(errors.ERR_SERVER_ERROR, "count transactions by name: %v", err)
	}
	return n, nil
}

func (e *Engine) ListByMetadata(ctx context.Context, query string, limit, offset int) ([]*model.Transaction, error) {
	rows, err := e.store.ListTransactionsByMetadata(ctx, query, limit, offset)
	if err != nil {
		return nil, errors.New(errors.ERR_SERVER_ERROR, "list transactions by metadata: %v", err)
	}
	return rows, nil
}

func (e *Engine) CountByMetadata(ctx context.Context, query string) (int, error) {
	n, err := e.store.CountTransactionsByMetadata(ctx, query)
	if err != nil {
		return 0, errors.New(errors.ERR_SERVER_ERROR, "count transactions by metadata: %v", err)
	}
	return n, nil
}
