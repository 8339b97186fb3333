package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type pgParkingSessionRepository struct {
	db *sql.DB
}

func NewPgParkingSessionRepository(db *sql.DB) repository.ParkingSessionRepository {
	return &pgParkingSessionRepository{db: db}
}

const sessionColumns = `id, device_id, lot_id, checked_in_at, checked_out_at,
	reminder_sent, created_at, updated_at`

func scanSession(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.ParkingSession, error) {
	s := &domain.ParkingSession{}
	err := scanner.Scan(
		&s.ID, &s.DeviceID, &s.LotID, &s.CheckedInAt, &s.CheckedOutAt,
		&s.ReminderSent, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CheckedInAt = s.CheckedInAt.In(time.UTC)
	if s.CheckedOutAt.Valid {
		s.CheckedOutAt.Time = s.CheckedOutAt.Time.In(time.UTC)
	}
	s.CreatedAt = s.CreatedAt.In(time.UTC)
	s.UpdatedAt = s.UpdatedAt.In(time.UTC)
	return s, nil
}

func (r *pgParkingSessionRepository) Open(ctx context.Context, deviceID, lotID int, at time.Time) (*domain.ParkingSession, error) {
	query := `INSERT INTO parking_sessions (device_id, lot_id, checked_in_at)
	          VALUES ($1, $2, $3)
	          RETURNING ` + sessionColumns

	var session *domain.ParkingSession
	err := withRetry(ctx, func() error {
		var scanErr error
		session, scanErr = scanSession(r.db.QueryRowContext(ctx, query, deviceID, lotID, at))
		return scanErr
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Open: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) SwitchLot(ctx context.Context, deviceID, lotID int, at time.Time) (*domain.ParkingSession, error) {
	// Close-then-open is one transaction so two racing check-ins for the
	// same device cannot leave two active sessions; the partial unique index
	// rejects the loser.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.SwitchLot (begin): %w", err)
	}
	defer tx.Rollback()

	closeQuery := `UPDATE parking_sessions
	               SET checked_out_at = $1, updated_at = CURRENT_TIMESTAMP
	               WHERE device_id = $2 AND checked_out_at IS NULL`
	if _, err := tx.ExecContext(ctx, closeQuery, at, deviceID); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.SwitchLot (close): %w", err)
	}

	openQuery := `INSERT INTO parking_sessions (device_id, lot_id, checked_in_at)
	              VALUES ($1, $2, $3)
	              RETURNING ` + sessionColumns
	session, err := scanSession(tx.QueryRowContext(ctx, openQuery, deviceID, lotID, at))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("ParkingSessionRepository.SwitchLot (open): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.SwitchLot (commit): %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) CloseActive(ctx context.Context, deviceID int, at time.Time) (*domain.ParkingSession, error) {
	query := `UPDATE parking_sessions
	          SET checked_out_at = $1, updated_at = CURRENT_TIMESTAMP
	          WHERE device_id = $2 AND checked_out_at IS NULL
	          RETURNING ` + sessionColumns

	var session *domain.ParkingSession
	err := withRetry(ctx, func() error {
		var scanErr error
		session, scanErr = scanSession(r.db.QueryRowContext(ctx, query, at, deviceID))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("ParkingSessionRepository.CloseActive: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindActiveByDevice(ctx context.Context, deviceID int) (*domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + `
	          FROM parking_sessions
	          WHERE device_id = $1 AND checked_out_at IS NULL`

	var session *domain.ParkingSession
	err := withRetry(ctx, func() error {
		var scanErr error
		session, scanErr = scanSession(r.db.QueryRowContext(ctx, query, deviceID))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoActiveSession
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindActiveByDevice: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindActiveByLot(ctx context.Context, lotID int) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + `
	          FROM parking_sessions
	          WHERE lot_id = $1 AND checked_out_at IS NULL
	          ORDER BY checked_in_at DESC`

	var sessions []domain.ParkingSession
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query, lotID)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		sessions = sessions[:0]
		for rows.Next() {
			s, scanErr := scanSession(rows)
			if scanErr != nil {
				return scanErr
			}
			sessions = append(sessions, *s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.FindActiveByLot: %w", err)
	}
	return sessions, nil
}

func (r *pgParkingSessionRepository) CountActiveByLot(ctx context.Context, lotID int) (int, error) {
	query := `SELECT COUNT(*) FROM parking_sessions WHERE lot_id = $1 AND checked_out_at IS NULL`

	var count int
	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, lotID).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("ParkingSessionRepository.CountActiveByLot: %w", err)
	}
	return count, nil
}

func (r *pgParkingSessionRepository) FindByDevice(ctx context.Context, deviceID int, limit int) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + `
	          FROM parking_sessions
	          WHERE device_id = $1
	          ORDER BY checked_in_at DESC
	          LIMIT $2`

	var sessions []domain.ParkingSession
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query, deviceID, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		sessions = sessions[:0]
		for rows.Next() {
			s, scanErr := scanSession(rows)
			if scanErr != nil {
				return scanErr
			}
			sessions = append(sessions, *s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.FindByDevice: %w", err)
	}
	return sessions, nil
}

func (r *pgParkingSessionRepository) FindReminderDue(ctx context.Context, cutoff time.Time) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + `
	          FROM parking_sessions
	          WHERE checked_out_at IS NULL
	            AND checked_in_at <= $1
	            AND reminder_sent = FALSE
	          ORDER BY checked_in_at`

	var sessions []domain.ParkingSession
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query, cutoff)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		sessions = sessions[:0]
		for rows.Next() {
			s, scanErr := scanSession(rows)
			if scanErr != nil {
				return scanErr
			}
			sessions = append(sessions, *s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.FindReminderDue: %w", err)
	}
	return sessions, nil
}

func (r *pgParkingSessionRepository) ClaimReminder(ctx context.Context, sessionID int) (bool, error) {
	// The WHERE clause is the idempotence gate: concurrent scan runs race on
	// this update and exactly one of them sees a row change.
	query := `UPDATE parking_sessions
	          SET reminder_sent = TRUE, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND reminder_sent = FALSE`

	var claimed bool
	err := withRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, query, sessionID)
		if execErr != nil {
			return execErr
		}
		n, raErr := res.RowsAffected()
		if raErr != nil {
			return raErr
		}
		claimed = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ParkingSessionRepository.ClaimReminder: %w", err)
	}
	return claimed, nil
}
