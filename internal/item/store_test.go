package item

import (
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/naughtygopher/errors"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*pgItemStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	store, err := NewPostgresPersistentStore(mock)
	require.NoError(t, err)

	return store, mock
}

func TestPgStoreList(t *testing.T) {
	requirer := require.New(t)
	asserter := assert.New(t)
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryList)).WillReturnRows(
		pgxmock.NewRows([]string{"id", "name", "price"}).
			AddRow(int64(1), "Monitor", 300.0).
			AddRow(int64(2), "Keyboard", 49.5),
	)

	list, err := store.ListItems(t.Context())
	requirer.NoError(err)
	asserter.Equal([]Item{
		{ID: 1, Name: "Monitor", Price: 300},
		{ID: 2, Name: "Keyboard", Price: 49.5},
	}, list)
	requirer.NoError(mock.ExpectationsWereMet())

	t.Run("storage failure is propagated", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(queryList)).WillReturnError(errors.New("connection refused"))
		_, err := store.ListItems(t.Context())
		require.Error(t, err)
		require.NotErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgStoreItem(t *testing.T) {
	requirer := require.New(t)
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryByID)).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price"}).AddRow(int64(7), "Monitor", 300.0))

	it, err := store.Item(t.Context(), 7)
	requirer.NoError(err)
	requirer.Equal(&Item{ID: 7, Name: "Monitor", Price: 300}, it)

	mock.ExpectQuery(regexp.QuoteMeta(queryByID)).
		WithArgs(int64(8)).
		WillReturnError(pgx.ErrNoRows)

	_, err = store.Item(t.Context(), 8)
	requirer.ErrorIs(err, ErrNotFound)
	requirer.NoError(mock.ExpectationsWereMet())
}

func TestPgStoreInsert(t *testing.T) {
	requirer := require.New(t)
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(queryInsert)).
		WithArgs("Monitor", 300.0).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	it, err := store.InsertItem(t.Context(), Item{Name: "Monitor", Price: 300})
	requirer.NoError(err)
	requirer.Equal(&Item{ID: 42, Name: "Monitor", Price: 300}, it)
	requirer.NoError(mock.ExpectationsWereMet())
}

func TestPgStoreUpdate(t *testing.T) {
	t.Run("existing item is updated within a transaction", func(t *testing.T) {
		requirer := require.New(t)
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(queryLockByID)).
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
		mock.ExpectQuery(regexp.QuoteMeta(queryUpdate)).
			WithArgs("Gaming Laptop", 2000.0, int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"id", "name", "price"}).AddRow(int64(3), "Gaming Laptop", 2000.0))
		mock.ExpectCommit()

		it, err := store.UpdateItem(t.Context(), Item{ID: 3, Name: "Gaming Laptop", Price: 2000})
		requirer.NoError(err)
		requirer.Equal(&Item{ID: 3, Name: "Gaming Laptop", Price: 2000}, it)
		requirer.NoError(mock.ExpectationsWereMet())
	})

	t.Run("missing item is rolled back without updating", func(t *testing.T) {
		requirer := require.New(t)
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(queryLockByID)).
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		_, err := store.UpdateItem(t.Context(), Item{ID: 99, Name: "Gaming Laptop", Price: 2000})
		requirer.ErrorIs(err, ErrNotFound)
		requirer.NoError(mock.ExpectationsWereMet())
	})
}

func TestPgStoreDelete(t *testing.T) {
	t.Run("existing item is deleted within a transaction", func(t *testing.T) {
		requirer := require.New(t)
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(queryLockByID)).
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
		mock.ExpectExec(regexp.QuoteMeta(queryDeleteByID)).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectCommit()

		requirer.NoError(store.DeleteItem(t.Context(), 3))
		requirer.NoError(mock.ExpectationsWereMet())
	})

	t.Run("missing item is rolled back without deleting", func(t *testing.T) {
		requirer := require.New(t)
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(queryLockByID)).
			WithArgs(int64(99)).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := store.DeleteItem(t.Context(), 99)
		requirer.ErrorIs(err, ErrNotFound)
		requirer.NoError(mock.ExpectationsWereMet())
	})
}
