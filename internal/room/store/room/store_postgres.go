package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"atrium/internal/room/models"
	id "atrium/pkg/domain"
	"atrium/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// Postgres persists rooms in the rooms table.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const roomColumns = `id, tenant_id, name, capacity, location, available_from, available_to, timezone, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, room *models.Room) error {
	query := `
		INSERT INTO rooms (` + roomColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		room.ID.String(), room.TenantID.String(), room.Name, room.Capacity, room.Location,
		room.AvailableFrom, room.AvailableTo, room.Timezone, room.CreatedAt, room.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, roomID id.RoomID) (*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`
	return scanRoom(s.db.QueryRowContext(ctx, query, roomID.String()))
}

func (s *Postgres) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]*models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE tenant_id = $1 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, tenantID.String())
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var out []*models.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, room)
	}
	return out, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, room *models.Room) error {
	query := `
		UPDATE rooms
		SET name = $2, capacity = $3, location = $4, available_from = $5,
		    available_to = $6, timezone = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		room.ID.String(), room.Name, room.Capacity, room.Location,
		room.AvailableFrom, room.AvailableTo, room.Timezone, room.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update room: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, roomID id.RoomID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, roomID.String())
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*models.Room, error) {
	var (
		rawID     string
		rawTenant string
		room      models.Room
	)
	err := row.Scan(&rawID, &rawTenant, &room.Name, &room.Capacity, &room.Location,
		&room.AvailableFrom, &room.AvailableTo, &room.Timezone, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan room: %w", err)
	}

	parsedID, err := id.ParseRoomID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse room id: %w", err)
	}
	parsedTenant, err := id.ParseTenantID(rawTenant)
	if err != nil {
		return nil, fmt.Errorf("parse room tenant id: %w", err)
	}
	room.ID = parsedID
	room.TenantID = parsedTenant
	return &room, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
