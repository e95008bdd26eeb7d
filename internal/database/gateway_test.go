package database

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockGateway(t *testing.T) (*Gateway, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres"), zap.NewNop()), mock
}

func TestParseTable(t *testing.T) {
	for _, name := range []string{"roles", "users", "genres", "games", "sales"} {
		table, err := ParseTable(name)
		require.NoError(t, err)
		assert.Equal(t, name, table.String())
	}

	_, err := ParseTable("games; DROP TABLE users")
	assert.ErrorIs(t, err, ErrInvalidTable)

	_, err = ParseTable("Games")
	assert.ErrorIs(t, err, ErrInvalidTable)
}

func TestFetchAll_PreservesColumnAndRowOrder(t *testing.T) {
	gw, mock := newMockGateway(t)

	rows := sqlmock.NewRows([]string{"title", "genre_id", "sales"}).
		AddRow("Alpha", 1, 10).
		AddRow([]byte("Beta"), 2, []byte("20.50"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM games")).WillReturnRows(rows)

	got, err := gw.FetchAll(context.Background(), TableGames)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, []string{"title", "genre_id", "sales"}, got[0].Columns)
	assert.Equal(t, "Alpha", got[0].Get("title"))
	assert.Equal(t, "Beta", got[1].Get("title"))
	assert.Equal(t, "20.50", got[1].Get("sales"))
	assert.Nil(t, got[1].Get("missing"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAll_EmptyTable(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM sales")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := gw.FetchAll(context.Background(), TableSales)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFetchAll_InvalidTableNeverTouchesConnection(t *testing.T) {
	gw, mock := newMockGateway(t)

	_, err := gw.FetchAll(context.Background(), Table("invoices"))

	var invalid *InvalidTableError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "invoices", invalid.Table)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAll_QueryFailure(t *testing.T) {
	gw, mock := newMockGateway(t)
	driverErr := errors.New("relation does not exist")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM genres")).WillReturnError(driverErr)

	_, err := gw.FetchAll(context.Background(), TableGenres)

	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, TableGenres, qerr.Table)
	assert.ErrorIs(t, err, driverErr)
}

func TestFetch_WithoutConnection(t *testing.T) {
	gw := New(nil, nil)

	_, err := gw.FetchAll(context.Background(), TableGames)
	assert.ErrorIs(t, err, ErrNoConnection)

	_, err = gw.FetchColumns(context.Background(), TableGames)
	assert.ErrorIs(t, err, ErrNoConnection)

	_, err = gw.FetchModel(context.Background(), TableGames)
	assert.ErrorIs(t, err, ErrNoConnection)

	assert.False(t, gw.Connected())
	assert.ErrorIs(t, gw.Ping(context.Background()), ErrNoConnection)
}

func TestFetch_InvalidTableBeforeConnectionCheck(t *testing.T) {
	gw := New(nil, nil)

	_, err := gw.FetchAll(context.Background(), Table("ventas"))
	assert.ErrorIs(t, err, ErrInvalidTable)
	assert.NotErrorIs(t, err, ErrNoConnection)
}

func TestFetchColumns(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name")).
		WithArgs("games").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).
			AddRow("game_id").AddRow("title").AddRow("genre_id"))

	cols, err := gw.FetchColumns(context.Background(), TableGames)
	require.NoError(t, err)
	assert.Equal(t, []string{"game_id", "title", "genre_id"}, cols)
}

func TestFetchModel(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name")).
		WithArgs("genres").
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("genre_id").AddRow("genre_name"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM genres")).
		WillReturnRows(sqlmock.NewRows([]string{"genre_id", "genre_name"}).AddRow(1, "RPG"))

	model, err := gw.FetchModel(context.Background(), TableGenres)
	require.NoError(t, err)
	assert.Equal(t, []string{"genre_id", "genre_name"}, model.Columns)
	require.Len(t, model.Rows, 1)
	assert.Equal(t, "RPG", model.Rows[0].Get("genre_name"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchModel_ColumnFailureStops(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT column_name")).
		WillReturnError(errors.New("catalog unavailable"))

	_, err := gw.FetchModel(context.Background(), TableGames)

	var qerr *QueryError
	assert.ErrorAs(t, err, &qerr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClose(t *testing.T) {
	gw, mock := newMockGateway(t)
	mock.ExpectClose()

	require.NoError(t, gw.Close())
	assert.False(t, gw.Connected())

	_, err := gw.FetchAll(context.Background(), TableGames)
	assert.ErrorIs(t, err, ErrNoConnection)
	assert.NoError(t, gw.Close())
}
