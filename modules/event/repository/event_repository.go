package repository

import (
	"context"
	"database/sql"
	"strings"

	"calchat/core/database"
	coreErrors "calchat/core/errors"
	"calchat/core/logger"
	"calchat/modules/event/entity"

	"github.com/google/uuid"
)

type EventRepository interface {
	RecordCreated(ctx context.Context, event *entity.CalendarEvent) (*entity.CalendarEvent, error)
	FindByGoogleEventID(ctx context.Context, googleEventID string) (*entity.CalendarEvent, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.CalendarEvent, error)
	ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.CalendarEvent, int, error)
	SearchByTitle(ctx context.Context, userID uuid.UUID, query string) ([]entity.CalendarEvent, error)
	RecordUpdated(ctx context.Context, id uuid.UUID, patch entity.EventPatch) (*entity.CalendarEvent, error)
	RecordDeleted(ctx context.Context, id uuid.UUID) error
}

type eventRepository struct {
	db database.IDatabase
}

func NewEventRepository(db database.IDatabase) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) RecordCreated(ctx context.Context, event *entity.CalendarEvent) (*entity.CalendarEvent, error) {
	existing, err := r.FindByGoogleEventID(ctx, event.GoogleEventID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, coreErrors.NewAppError(coreErrors.ErrAlreadyExists, "event already cached", nil)
	}

	query := `
		INSERT INTO calendar_events (user_id, google_event_id, title, description, start_date_time, end_date_time, calendar_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRowContext(ctx, query,
		event.UserID, event.GoogleEventID, event.Title, event.Description,
		event.StartDateTime, event.EndDateTime, event.CalendarID,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		logger.Error("EventRepository:RecordCreated:Error", "error", err, "google_event_id", event.GoogleEventID)
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) FindByGoogleEventID(ctx context.Context, googleEventID string) (*entity.CalendarEvent, error) {
	var event entity.CalendarEvent
	query := `SELECT * FROM calendar_events WHERE google_event_id = $1 AND deleted_at IS NULL`
	err := r.db.GetContext(ctx, &event, query, googleEventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:FindByGoogleEventID:Error", "error", err)
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]entity.CalendarEvent, error) {
	var events []entity.CalendarEvent
	query := `
		SELECT * FROM calendar_events
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY start_date_time ASC
	`
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		logger.Error("EventRepository:FindByUserID:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return events, nil
}

// ListByUserID returns one page of the user's cached events plus the total
// live count.
func (r *eventRepository) ListByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.CalendarEvent, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM calendar_events WHERE user_id = $1 AND deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		logger.Error("EventRepository:ListByUserID:Count:Error", "error", err, "user_id", userID)
		return nil, 0, err
	}

	var events []entity.CalendarEvent
	query := `
		SELECT * FROM calendar_events
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY start_date_time ASC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &events, query, userID, limit, offset); err != nil {
		logger.Error("EventRepository:ListByUserID:Error", "error", err, "user_id", userID)
		return nil, 0, err
	}
	return events, total, nil
}

// SearchByTitle returns non-deleted events whose title contains the query,
// most recent start first. Identical starts keep insertion order so
// disambiguation stays deterministic.
func (r *eventRepository) SearchByTitle(ctx context.Context, userID uuid.UUID, query string) ([]entity.CalendarEvent, error) {
	var events []entity.CalendarEvent
	sqlQuery := `
		SELECT * FROM calendar_events
		WHERE user_id = $1
		AND title ILIKE $2
		AND deleted_at IS NULL
		ORDER BY start_date_time DESC, created_at ASC
	`
	pattern := "%" + strings.TrimSpace(query) + "%"
	if err := r.db.SelectContext(ctx, &events, sqlQuery, userID, pattern); err != nil {
		logger.Error("EventRepository:SearchByTitle:Error", "error", err, "user_id", userID)
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) RecordUpdated(ctx context.Context, id uuid.UUID, patch entity.EventPatch) (*entity.CalendarEvent, error) {
	query := `
		UPDATE calendar_events SET
			title = COALESCE($1, title),
			description = COALESCE($2, description),
			start_date_time = COALESCE($3, start_date_time),
			end_date_time = COALESCE($4, end_date_time),
			updated_at = NOW()
		WHERE id = $5 AND deleted_at IS NULL
	`
	err := r.db.ExecContext(ctx, query,
		patch.Title, patch.Description, patch.StartDateTime, patch.EndDateTime, id,
	)
	if err != nil {
		logger.Error("EventRepository:RecordUpdated:Error", "error", err, "id", id)
		return nil, err
	}

	var event entity.CalendarEvent
	err = r.db.GetContext(ctx, &event, `SELECT * FROM calendar_events WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, coreErrors.NewAppError(coreErrors.ErrNotFound, "cached event not found", nil)
		}
		return nil, err
	}
	return &event, nil
}

// RecordDeleted soft-deletes; deleting an already-deleted row is a no-op.
func (r *eventRepository) RecordDeleted(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE calendar_events SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	if err := r.db.ExecContext(ctx, query, id); err != nil {
		logger.Error("EventRepository:RecordDeleted:Error", "error", err, "id", id)
		return err
	}
	return nil
}
