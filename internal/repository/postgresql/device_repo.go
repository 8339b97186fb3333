package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type pgDeviceRepository struct {
	db *sql.DB
}

func NewPgDeviceRepository(db *sql.DB) repository.DeviceRepository {
	return &pgDeviceRepository{db: db}
}

const deviceColumns = `id, device_uid, email_verified, push_token, push_enabled,
	verification_code_hash, verification_expires, created_at, last_seen_at`

func scanDevice(row *sql.Row) (*domain.Device, error) {
	d := &domain.Device{}
	err := row.Scan(
		&d.ID, &d.DeviceUID, &d.EmailVerified, &d.PushToken, &d.PushEnabled,
		&d.VerificationCodeHash, &d.VerificationExpires, &d.CreatedAt, &d.LastSeenAt,
	)
	if err != nil {
		return nil, err
	}
	d.CreatedAt = d.CreatedAt.In(time.UTC)
	d.LastSeenAt = d.LastSeenAt.In(time.UTC)
	return d, nil
}

func (r *pgDeviceRepository) GetOrCreate(ctx context.Context, deviceUID string, pushToken null.String) (*domain.Device, error) {
	// Upsert keyed on the client UID: a re-register refreshes the push token
	// and last-seen stamp without losing verification state.
	query := `INSERT INTO devices (device_uid, push_token, push_enabled)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (device_uid) DO UPDATE
	              SET push_token = COALESCE(EXCLUDED.push_token, devices.push_token),
	                  push_enabled = devices.push_enabled OR EXCLUDED.push_enabled,
	                  last_seen_at = CURRENT_TIMESTAMP
	          RETURNING ` + deviceColumns

	var device *domain.Device
	err := withRetry(ctx, func() error {
		var scanErr error
		device, scanErr = scanDevice(r.db.QueryRowContext(ctx, query, deviceUID, pushToken, pushToken.Valid))
		return scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("DeviceRepository.GetOrCreate: %w", err)
	}
	return device, nil
}

func (r *pgDeviceRepository) FindByUID(ctx context.Context, deviceUID string) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE device_uid = $1`

	var device *domain.Device
	err := withRetry(ctx, func() error {
		var scanErr error
		device, scanErr = scanDevice(r.db.QueryRowContext(ctx, query, deviceUID))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("DeviceRepository.FindByUID: %w", err)
	}
	return device, nil
}

func (r *pgDeviceRepository) FindByID(ctx context.Context, id int) (*domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1`

	var device *domain.Device
	err := withRetry(ctx, func() error {
		var scanErr error
		device, scanErr = scanDevice(r.db.QueryRowContext(ctx, query, id))
		return scanErr
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("DeviceRepository.FindByID: %w", err)
	}
	return device, nil
}

func (r *pgDeviceRepository) SetVerificationChallenge(ctx context.Context, id int, codeHash string, expires time.Time) error {
	query := `UPDATE devices
	          SET verification_code_hash = $1, verification_expires = $2
	          WHERE id = $3`

	err := withRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, query, codeHash, expires, id)
		if execErr != nil {
			return execErr
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("DeviceRepository.SetVerificationChallenge: %w", err)
	}
	return nil
}

func (r *pgDeviceRepository) MarkEmailVerified(ctx context.Context, id int) error {
	query := `UPDATE devices
	          SET email_verified = TRUE, verification_code_hash = NULL, verification_expires = NULL
	          WHERE id = $1`

	err := withRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, query, id)
		if execErr != nil {
			return execErr
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return fmt.Errorf("DeviceRepository.MarkEmailVerified: %w", err)
	}
	return nil
}

func (r *pgDeviceRepository) TouchLastSeen(ctx context.Context, id int, at time.Time) error {
	query := `UPDATE devices SET last_seen_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("DeviceRepository.TouchLastSeen: %w", err)
	}
	return nil
}
