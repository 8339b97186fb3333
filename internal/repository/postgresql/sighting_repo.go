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

type pgSightingRepository struct {
	db *sql.DB
}

func NewPgSightingRepository(db *sql.DB) repository.SightingRepository {
	return &pgSightingRepository{db: db}
}

const sightingColumns = `s.id, s.lot_id, s.reporter_device_id, s.reported_at, s.notes, l.name, l.code`

func scanSighting(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Sighting, error) {
	s := &domain.Sighting{}
	err := scanner.Scan(&s.ID, &s.LotID, &s.ReporterDeviceID, &s.ReportedAt, &s.Notes, &s.LotName, &s.LotCode)
	if err != nil {
		return nil, err
	}
	s.ReportedAt = s.ReportedAt.In(time.UTC)
	return s, nil
}

func (r *pgSightingRepository) Create(ctx context.Context, sighting *domain.Sighting) (*domain.Sighting, error) {
	query := `INSERT INTO sightings (lot_id, reporter_device_id, reported_at, notes)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`

	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query,
			sighting.LotID, sighting.ReporterDeviceID, sighting.ReportedAt, sighting.Notes,
		).Scan(&sighting.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("SightingRepository.Create: %w", err)
	}
	return sighting, nil
}

func (r *pgSightingRepository) FindByID(ctx context.Context, id int) (*domain.Sighting, error) {
	query := `SELECT ` + sightingColumns + `
	          FROM sightings s JOIN parking_lots l ON l.id = s.lot_id
	          WHERE s.id = $1`

	var sighting *domain.Sighting
	err := withRetry(ctx, func() error {
		var scanErr error
		sighting, scanErr = scanSighting(r.db.QueryRowContext(ctx, query, id))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SightingRepository.FindByID: %w", err)
	}
	return sighting, nil
}

func (r *pgSightingRepository) FindSince(ctx context.Context, lotID *int, cutoff time.Time, limit int) ([]domain.Sighting, error) {
	query := `SELECT ` + sightingColumns + `
	          FROM sightings s JOIN parking_lots l ON l.id = s.lot_id
	          WHERE s.reported_at >= $1`
	args := []interface{}{cutoff}
	if lotID != nil {
		query += ` AND s.lot_id = $2`
		args = append(args, *lotID)
	}
	query += fmt.Sprintf(` ORDER BY s.reported_at DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	var sightings []domain.Sighting
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		sightings = sightings[:0]
		for rows.Next() {
			s, scanErr := scanSighting(rows)
			if scanErr != nil {
				return scanErr
			}
			sightings = append(sightings, *s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("SightingRepository.FindSince: %w", err)
	}
	return sightings, nil
}

func (r *pgSightingRepository) FindLatestByLot(ctx context.Context, lotID int) (*domain.Sighting, error) {
	query := `SELECT ` + sightingColumns + `
	          FROM sightings s JOIN parking_lots l ON l.id = s.lot_id
	          WHERE s.lot_id = $1
	          ORDER BY s.reported_at DESC
	          LIMIT 1`

	var sighting *domain.Sighting
	err := withRetry(ctx, func() error {
		var scanErr error
		sighting, scanErr = scanSighting(r.db.QueryRowContext(ctx, query, lotID))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("SightingRepository.FindLatestByLot: %w", err)
	}
	return sighting, nil
}

func (r *pgSightingRepository) ExistsByReporterSince(ctx context.Context, deviceID, lotID int, since time.Time) (bool, error) {
	query := `SELECT EXISTS (
	              SELECT 1 FROM sightings
	              WHERE reporter_device_id = $1 AND lot_id = $2 AND reported_at >= $3
	          )`

	var exists bool
	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, deviceID, lotID, since).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("SightingRepository.ExistsByReporterSince: %w", err)
	}
	return exists, nil
}

func (r *pgSightingRepository) CountByLotSince(ctx context.Context, lotID int, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sightings WHERE lot_id = $1 AND reported_at >= $2`

	var count int
	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, lotID, since).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("SightingRepository.CountByLotSince: %w", err)
	}
	return count, nil
}

func (r *pgSightingRepository) CountByLotWeekdaySince(ctx context.Context, lotID int, weekday time.Weekday, since time.Time) (int, error) {
	// EXTRACT(DOW ...) yields 0 = Sunday, matching time.Weekday.
	query := `SELECT COUNT(*) FROM sightings
	          WHERE lot_id = $1 AND reported_at >= $2
	            AND EXTRACT(DOW FROM reported_at AT TIME ZONE 'UTC') = $3`

	var count int
	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, lotID, since, int(weekday)).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("SightingRepository.CountByLotWeekdaySince: %w", err)
	}
	return count, nil
}

func (r *pgSightingRepository) BusiestLotWeekdayCountSince(ctx context.Context, weekday time.Weekday, since time.Time) (int, error) {
	query := `SELECT COALESCE(MAX(cnt), 0) FROM (
	              SELECT COUNT(*) AS cnt FROM sightings
	              WHERE reported_at >= $1
	                AND EXTRACT(DOW FROM reported_at AT TIME ZONE 'UTC') = $2
	              GROUP BY lot_id
	          ) lot_counts`

	var count int
	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, since, int(weekday)).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("SightingRepository.BusiestLotWeekdayCountSince: %w", err)
	}
	return count, nil
}
