package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metro-research/venuescout/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_CreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "running", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), model.RunParams{
		TargetCategory: "Mediterranean Restaurant",
		RadiusM:        400,
		Limit:          100,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.Equal(t, "Mediterranean Restaurant", run.Params.TargetCategory)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	report := []byte(`{"total_enriched":5}`)
	mock.ExpectExec(`UPDATE runs SET status = \$1, report = \$2`).
		WithArgs("complete", report, pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.CompleteRun(context.Background(), "run-1", report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CompleteRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status = \$1, report = \$2`).
		WithArgs("complete", []byte(`{}`), pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FailRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status = \$1, error = \$2`).
		WithArgs("failed", "search unavailable", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.FailRun(context.Background(), "run-1", "search unavailable"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	params := []byte(`{"target_category":"Mediterranean Restaurant","radius_m":400,"limit":100}`)
	report := []byte(`{"total_enriched":3}`)
	errMsg := "boom"

	mock.ExpectQuery(`SELECT id, status, params, report, error, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "params", "report", "error", "created_at", "updated_at"}).
			AddRow("run-1", model.RunStatusFailed, params, report, &errMsg, now, now))

	run, err := s.GetRun(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, "Mediterranean Restaurant", run.Params.TargetCategory)
	assert.Equal(t, json.RawMessage(report), run.Report)
	assert.Equal(t, "boom", run.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetRun_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, status, params, report, error, created_at, updated_at FROM runs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	params := []byte(`{"target_category":"Pizza Place"}`)

	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT 1`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "params", "report", "error", "created_at", "updated_at"}).
			AddRow("run-9", model.RunStatusComplete, params, []byte(nil), (*string)(nil), now, now))

	run, err := s.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-9", run.ID)
	assert.Empty(t, run.Report)
	assert.Empty(t, run.Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveEnriched(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	rows := []model.EnrichedVenue{
		{Borough: "Bronx", Neighborhood: "Wakefield", VenueID: "v1", Name: "Balade", Likes: 124, Rating: 8.9, Tips: 47, HadData: true},
		{Borough: "Queens", Neighborhood: "Astoria", VenueID: "v2", Name: "Lost"},
	}

	mock.ExpectExec(`INSERT INTO enriched_venues`).
		WithArgs(pgxmock.AnyArg(), "run-1", 0, "Bronx", "Wakefield", "v1", "Balade", 124.0, 8.9, 47.0, true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO enriched_venues`).
		WithArgs(pgxmock.AnyArg(), "run-1", 1, "Queens", "Astoria", "v2", "Lost", 0.0, 0.0, 0.0, false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveEnriched(context.Background(), "run-1", rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListEnriched(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM enriched_venues WHERE run_id = \$1 ORDER BY position`).
		WithArgs("run-1").
		WillReturnRows(pgxmock.NewRows([]string{"borough", "neighborhood", "venue_id", "name", "likes", "rating", "tips", "had_data"}).
			AddRow("Bronx", "Wakefield", "v1", "Balade", 124.0, 8.9, 47.0, true).
			AddRow("Queens", "Astoria", "v2", "Lost", 0.0, 0.0, 0.0, false))

	out, err := s.ListEnriched(context.Background(), "run-1")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "v1", out[0].VenueID)
	assert.True(t, out[0].HadData)
	assert.False(t, out[1].HadData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS runs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
