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

type pgParkingLotRepository struct {
	db *sql.DB
}

func NewPgParkingLotRepository(db *sql.DB) repository.ParkingLotRepository {
	return &pgParkingLotRepository{db: db}
}

const lotColumns = `id, name, code, latitude, longitude, is_active, created_at`

func (r *pgParkingLotRepository) FindByID(ctx context.Context, id int) (*domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE id = $1`
	lot := &domain.ParkingLot{}

	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, id).Scan(
			&lot.ID, &lot.Name, &lot.Code, &lot.Latitude, &lot.Longitude, &lot.IsActive, &lot.CreatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByID: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindByCode(ctx context.Context, code string) (*domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE code = $1`
	lot := &domain.ParkingLot{}

	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, code).Scan(
			&lot.ID, &lot.Name, &lot.Code, &lot.Latitude, &lot.Longitude, &lot.IsActive, &lot.CreatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingLotRepository.FindByCode: %w", err)
	}
	lot.CreatedAt = lot.CreatedAt.In(time.UTC)
	return lot, nil
}

func (r *pgParkingLotRepository) FindAllActive(ctx context.Context) ([]domain.ParkingLot, error) {
	query := `SELECT ` + lotColumns + ` FROM parking_lots WHERE is_active = TRUE ORDER BY name`

	var lots []domain.ParkingLot
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		lots = lots[:0]
		for rows.Next() {
			var lot domain.ParkingLot
			if scanErr := rows.Scan(
				&lot.ID, &lot.Name, &lot.Code, &lot.Latitude, &lot.Longitude, &lot.IsActive, &lot.CreatedAt,
			); scanErr != nil {
				return scanErr
			}
			lot.CreatedAt = lot.CreatedAt.In(time.UTC)
			lots = append(lots, lot)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("ParkingLotRepository.FindAllActive: %w", err)
	}
	return lots, nil
}
