package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	StoreEvent(ctx context.Context, event Event) (Event, error)
	// GetEvent locks the row when called inside a transaction.
	GetEvent(ctx context.Context, id int) (Event, error)
	GetEvents(ctx context.Context, filter Filter) ([]Event, error)
	UpdateEvent(ctx context.Context, event Event) (bool, error)
	DeleteEvent(ctx context.Context, id int) (bool, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const eventColumns = `id, title, description, start_time, end_time, color, created_at, updated_at`

// getQueryer returns the appropriate database interface for queries (either tx or db)
func (r *RepositoryImpl) getQueryer() interface {
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// The Rollback will be a no-op if the transaction was already committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	txRepo := &RepositoryImpl{db: r.db, tx: tx}
	if err := fn(txRepo); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) StoreEvent(ctx context.Context, event Event) (Event, error) {
	query := `INSERT INTO calendar_event (
                            title,
                            description,
                            start_time,
                            end_time,
                            color,
                            created_at,
                            updated_at
						) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`

	err := r.getQueryer().QueryRow(ctx, query,
		event.Title,
		nullString(event.Description),
		event.StartTime,
		event.EndTime,
		nullString(event.Color),
		event.CreatedAt,
		event.UpdatedAt,
	).Scan(&event.Id)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, id int) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event WHERE id = $1`
	if r.tx != nil {
		query += ` FOR UPDATE`
	}

	event, err := scanEvent(r.getQueryer().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		err := fmt.Errorf("could not query calendar event: %w", err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

func (r *RepositoryImpl) GetEvents(ctx context.Context, filter Filter) ([]Event, error) {
	var conditions []string
	var args []any
	if filter.StartFrom != nil {
		args = append(args, *filter.StartFrom)
		conditions = append(conditions, fmt.Sprintf("start_time >= $%d", len(args)))
	}
	if filter.StartBefore != nil {
		args = append(args, *filter.StartBefore)
		conditions = append(conditions, fmt.Sprintf("start_time < $%d", len(args)))
	}
	if filter.EndUntil != nil {
		args = append(args, *filter.EndUntil)
		conditions = append(conditions, fmt.Sprintf("end_time <= $%d", len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM calendar_event`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_time, id`

	rows, err := r.getQueryer().Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 16)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, event Event) (bool, error) {
	query := `UPDATE calendar_event
				SET title = $1, description = $2, start_time = $3, end_time = $4, color = $5, updated_at = $6
				WHERE id = $7`
	tag, err := r.getQueryer().Exec(ctx, query,
		event.Title,
		nullString(event.Description),
		event.StartTime,
		event.EndTime,
		nullString(event.Color),
		event.UpdatedAt,
		event.Id,
	)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RepositoryImpl) DeleteEvent(ctx context.Context, id int) (bool, error) {
	tag, err := r.getQueryer().Exec(ctx, `DELETE FROM calendar_event WHERE id = $1`, id)
	if err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanEvent(row pgx.Row) (Event, error) {
	var event Event
	var description, color sql.NullString
	err := row.Scan(
		&event.Id,
		&event.Title,
		&description,
		&event.StartTime,
		&event.EndTime,
		&color,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return Event{}, err
	}
	event.Description = description.String
	event.Color = color.String
	return event, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
