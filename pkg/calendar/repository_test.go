package calendar

import (
	"context"
	"errors"
	"flag"
	"os"
	"testing"
	"time"

	"github.com/daypane/daypane/internal/test_utils"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl) {
	if pgContainer == nil {
		t.Skip("postgres container not started in short mode")
	}
	ctx := context.Background()
	db := openDb()
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, NewRepository(db)
}

func storedEvent(title string, start, end time.Time) Event {
	return Event{
		Title:     title,
		StartTime: start,
		EndTime:   end,
		Color:     defaultColor,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func assertEventEqual(t *testing.T, expected, actual Event) {
	t.Helper()
	assert.Equal(t, expected.Id, actual.Id)
	assert.Equal(t, expected.Title, actual.Title)
	assert.Equal(t, expected.Description, actual.Description)
	assert.True(t, expected.StartTime.Equal(actual.StartTime), "start %v != %v", expected.StartTime, actual.StartTime)
	assert.True(t, expected.EndTime.Equal(actual.EndTime), "end %v != %v", expected.EndTime, actual.EndTime)
	assert.Equal(t, expected.Color, actual.Color)
	assert.True(t, expected.CreatedAt.Equal(actual.CreatedAt))
	assert.True(t, expected.UpdatedAt.Equal(actual.UpdatedAt))
}

func TestRepositoryImpl_StoreEvent(t *testing.T) {
	t.Run("should store and read back an event", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		event := storedEvent("Standup", at(9, 0), at(9, 15))
		event.Description = "Daily sync"

		// when
		stored, err := repo.StoreEvent(ctx, event)
		require.NoError(t, err)
		fetched, err := repo.GetEvent(ctx, stored.Id)

		// then
		require.NoError(t, err)
		assert.NotZero(t, stored.Id)
		assertEventEqual(t, stored, fetched)
	})

	t.Run("should keep empty description and color empty", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		event := storedEvent("Bare", at(9, 0), at(10, 0))
		event.Color = ""

		// when
		stored, err := repo.StoreEvent(ctx, event)
		require.NoError(t, err)
		fetched, err := repo.GetEvent(ctx, stored.Id)

		// then
		require.NoError(t, err)
		assert.Empty(t, fetched.Description)
		assert.Empty(t, fetched.Color)
	})

	t.Run("should reject an inverted range at the database level", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)

		// when
		_, err := repo.StoreEvent(ctx, storedEvent("Inverted", at(10, 0), at(9, 0)))

		// then
		assert.Error(t, err)
	})
}

func TestRepositoryImpl_GetEvent(t *testing.T) {
	t.Run("should return not found for unknown id", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)

		// when
		_, err := repo.GetEvent(ctx, 999)

		// then
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestRepositoryImpl_GetEvents(t *testing.T) {
	t.Run("should apply filters and order by start time", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		late, err := repo.StoreEvent(ctx, storedEvent("Late", at(15, 0), at(16, 0)))
		require.NoError(t, err)
		early, err := repo.StoreEvent(ctx, storedEvent("Early", at(8, 0), at(9, 0)))
		require.NoError(t, err)
		tomorrow, err := repo.StoreEvent(ctx, storedEvent("Tomorrow", at(24+8, 0), at(24+9, 0)))
		require.NoError(t, err)
		dayStart := at(0, 0)
		dayEnd := at(24, 0)
		until := at(12, 0)

		// when
		all, err := repo.GetEvents(ctx, Filter{})
		require.NoError(t, err)
		day, err := repo.GetEvents(ctx, Filter{StartFrom: &dayStart, StartBefore: &dayEnd})
		require.NoError(t, err)
		morning, err := repo.GetEvents(ctx, Filter{EndUntil: &until})
		require.NoError(t, err)

		// then
		require.Len(t, all, 3)
		assert.Equal(t, []int{early.Id, late.Id, tomorrow.Id}, eventIds(all))
		assert.Equal(t, []int{early.Id, late.Id}, eventIds(day))
		assert.Equal(t, []int{early.Id}, eventIds(morning))
	})

	t.Run("should return an empty slice when nothing matches", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)

		// when
		events, err := repo.GetEvents(ctx, Filter{})

		// then
		require.NoError(t, err)
		assert.NotNil(t, events)
		assert.Empty(t, events)
	})
}

func TestRepositoryImpl_UpdateEvent(t *testing.T) {
	t.Run("should update all columns", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		stored, err := repo.StoreEvent(ctx, storedEvent("Call", at(9, 0), at(10, 0)))
		require.NoError(t, err)
		stored.Title = "Long call"
		stored.Description = "Moved"
		stored.EndTime = at(11, 0)
		stored.UpdatedAt = now.Add(time.Hour)

		// when
		ok, err := repo.UpdateEvent(ctx, stored)

		// then
		require.NoError(t, err)
		assert.True(t, ok)
		fetched, err := repo.GetEvent(ctx, stored.Id)
		require.NoError(t, err)
		assertEventEqual(t, stored, fetched)
	})

	t.Run("should report missing row", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)

		// when
		ok, err := repo.UpdateEvent(ctx, storedEvent("Ghost", at(9, 0), at(10, 0)))

		// then
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRepositoryImpl_DeleteEvent(t *testing.T) {
	t.Run("should delete once", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		stored, err := repo.StoreEvent(ctx, storedEvent("Call", at(9, 0), at(10, 0)))
		require.NoError(t, err)

		// when
		first, err := repo.DeleteEvent(ctx, stored.Id)
		require.NoError(t, err)
		second, err := repo.DeleteEvent(ctx, stored.Id)
		require.NoError(t, err)

		// then
		assert.True(t, first)
		assert.False(t, second)
		_, err = repo.GetEvent(ctx, stored.Id)
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}

func TestRepositoryImpl_WithTransaction(t *testing.T) {
	t.Run("should commit changes", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		stored, err := repo.StoreEvent(ctx, storedEvent("Call", at(9, 0), at(10, 0)))
		require.NoError(t, err)

		// when
		err = repo.WithTransaction(ctx, func(tx Repository) error {
			event, err := tx.GetEvent(ctx, stored.Id)
			if err != nil {
				return err
			}
			event.Title = "Committed"
			_, err = tx.UpdateEvent(ctx, event)
			return err
		})

		// then
		require.NoError(t, err)
		fetched, err := repo.GetEvent(ctx, stored.Id)
		require.NoError(t, err)
		assert.Equal(t, "Committed", fetched.Title)
	})

	t.Run("should roll back on error", func(t *testing.T) {
		// given
		ctx, repo := setupTestRepository(t)
		stored, err := repo.StoreEvent(ctx, storedEvent("Call", at(9, 0), at(10, 0)))
		require.NoError(t, err)
		failure := errors.New("abort")

		// when
		err = repo.WithTransaction(ctx, func(tx Repository) error {
			event, err := tx.GetEvent(ctx, stored.Id)
			if err != nil {
				return err
			}
			event.Title = "Rolled back"
			if _, err := tx.UpdateEvent(ctx, event); err != nil {
				return err
			}
			return failure
		})

		// then
		assert.ErrorIs(t, err, failure)
		fetched, err := repo.GetEvent(ctx, stored.Id)
		require.NoError(t, err)
		assert.Equal(t, "Call", fetched.Title)
	})
}

func eventIds(events []Event) []int {
	ids := make([]int, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.Id)
	}
	return ids
}
