package item

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/naughtygopher/errors"
)

const (
	queryList        = `SELECT id, name, price FROM item ORDER BY id`
	queryByID        = `SELECT id, name, price FROM item WHERE id = $1`
	queryInsert      = `INSERT INTO item (name, price) VALUES ($1, $2) RETURNING id`
	queryLockByID    = `SELECT id FROM item WHERE id = $1 FOR UPDATE`
	queryUpdate      = `UPDATE item SET name = $1, price = $2 WHERE id = $3 RETURNING id, name, price`
	queryDeleteByID  = `DELETE FROM item WHERE id = $1`
	defaultListAlloc = 16
)

type persistentStore interface {
	ListItems(ctx context.Context) ([]Item, error)
	Item(ctx context.Context, id int64) (*Item, error)
	InsertItem(ctx context.Context, item Item) (*Item, error)
	UpdateItem(ctx context.Context, item Item) (*Item, error)
	DeleteItem(ctx context.Context, id int64) error
}

// pgxDB is satisfied by *pgxpool.Pool. Every call borrows a connection from the pool
// and returns it once the call (or the transaction) is done.
type pgxDB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type pgItemStore struct {
	db pgxDB
}

func NewPostgresPersistentStore(db pgxDB) (*pgItemStore, error) { //nolint:revive // it is ok to return unexported type in this case, ensures controlled access
	if db == nil {
		return nil, errors.New("postgres connection pool is required")
	}
	return &pgItemStore{db: db}, nil
}

func scanItem(row pgx.CollectableRow) (Item, error) {
	it := Item{}
	err := row.Scan(&it.ID, &it.Name, &it.Price)
	return it, err
}

func (pst *pgItemStore) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := pst.db.Query(ctx, queryList)
	if err != nil {
		return nil, errors.Wrap(err, "could not fetch items")
	}

	list, err := pgx.AppendRows(make([]Item, 0, defaultListAlloc), rows, scanItem)
	if err != nil {
		return nil, errors.Wrap(err, "could not read items")
	}

	return list, nil
}

func (pst *pgItemStore) Item(ctx context.Context, id int64) (*Item, error) {
	it := new(Item)
	err := pst.db.QueryRow(ctx, queryByID, id).Scan(&it.ID, &it.Name, &it.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed getting item")
	}

	return it, nil
}

func (pst *pgItemStore) InsertItem(ctx context.Context, it Item) (*Item, error) {
	err := pst.db.QueryRow(ctx, queryInsert, it.Name, it.Price).Scan(&it.ID)
	if err != nil {
		return nil, errors.Wrap(err, "could not save the item")
	}

	return &it, nil
}

func (pst *pgItemStore) UpdateItem(ctx context.Context, it Item) (*Item, error) {
	updated := new(Item)
	err := pst.withTx(ctx, func(tx pgx.Tx) error {
		err := lockItem(ctx, tx, it.ID)
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx, queryUpdate, it.Name, it.Price, it.ID).Scan(
			&updated.ID,
			&updated.Name,
			&updated.Price,
		)
		if err != nil {
			return errors.Wrap(err, "could not update the item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (pst *pgItemStore) DeleteItem(ctx context.Context, id int64) error {
	return pst.withTx(ctx, func(tx pgx.Tx) error {
		err := lockItem(ctx, tx, id)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, queryDeleteByID, id)
		if err != nil {
			return errors.Wrap(err, "could not delete the item")
		}
		return nil
	})
}

// lockItem is the existence check preceding a mutation. The row stays locked till the
// transaction ends, so a concurrent update/delete of the same item waits for it.
func lockItem(ctx context.Context, tx pgx.Tx, id int64) error {
	var lockedID int64
	err := tx.QueryRow(ctx, queryLockByID, id).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return errors.Wrap(err, "failed getting item")
	}
	return nil
}

// withTx holds a single connection for the lifetime of fn. The transaction is committed
// only if fn succeeds, and rolled back on every other path (including panics).
func (pst *pgItemStore) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := pst.db.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	err = fn(tx)
	if err != nil {
		return err
	}

	err = tx.Commit(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	committed = true

	return nil
}
