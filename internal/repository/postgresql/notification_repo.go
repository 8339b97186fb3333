package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type pgNotificationRepository struct {
	db *sql.DB
}

func NewPgNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &pgNotificationRepository{db: db}
}

const notificationColumns = `id, device_id, notification_type, title, message,
	lot_id, sighting_id, created_at, read_at`

func scanNotification(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Notification, error) {
	n := &domain.Notification{}
	err := scanner.Scan(
		&n.ID, &n.DeviceID, &n.Type, &n.Title, &n.Message,
		&n.LotID, &n.SightingID, &n.CreatedAt, &n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.In(time.UTC)
	if n.ReadAt.Valid {
		n.ReadAt.Time = n.ReadAt.Time.In(time.UTC)
	}
	return n, nil
}

func (r *pgNotificationRepository) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	query := `INSERT INTO notifications (device_id, notification_type, title, message, lot_id, sighting_id)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`

	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query,
			n.DeviceID, n.Type, n.Title, n.Message, n.LotID, n.SightingID,
		).Scan(&n.ID, &n.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("NotificationRepository.Create: %w", err)
	}
	n.CreatedAt = n.CreatedAt.In(time.UTC)
	return n, nil
}

func (r *pgNotificationRepository) FindUnreadByDevice(ctx context.Context, deviceID, limit int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
	          FROM notifications
	          WHERE device_id = $1 AND read_at IS NULL
	          ORDER BY created_at DESC
	          LIMIT $2`

	var notifications []domain.Notification
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query, deviceID, limit)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		notifications = notifications[:0]
		for rows.Next() {
			n, scanErr := scanNotification(rows)
			if scanErr != nil {
				return scanErr
			}
			notifications = append(notifications, *n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("NotificationRepository.FindUnreadByDevice: %w", err)
	}
	return notifications, nil
}

func (r *pgNotificationRepository) FindByDevice(ctx context.Context, deviceID, limit, offset int) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + `
	          FROM notifications
	          WHERE device_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`

	var notifications []domain.Notification
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query, deviceID, limit, offset)
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		notifications = notifications[:0]
		for rows.Next() {
			n, scanErr := scanNotification(rows)
			if scanErr != nil {
				return scanErr
			}
			notifications = append(notifications, *n)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("NotificationRepository.FindByDevice: %w", err)
	}
	return notifications, nil
}

func (r *pgNotificationRepository) CountByDevice(ctx context.Context, deviceID int) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE read_at IS NULL)
	          FROM notifications WHERE device_id = $1`

	var total, unread int
	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, deviceID).Scan(&total, &unread)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("NotificationRepository.CountByDevice: %w", err)
	}
	return total, unread, nil
}

func (r *pgNotificationRepository) MarkRead(ctx context.Context, deviceID int, ids []int, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	// Scoped to the device so one client cannot acknowledge another's rows.
	query := `UPDATE notifications
	          SET read_at = $1
	          WHERE device_id = $2 AND id = ANY($3) AND read_at IS NULL`

	idArgs := make([]int64, len(ids))
	for i, id := range ids {
		idArgs[i] = int64(id)
	}

	var marked int
	err := withRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, query, at, deviceID, pq.Array(idArgs))
		if execErr != nil {
			return execErr
		}
		n, raErr := res.RowsAffected()
		if raErr != nil {
			return raErr
		}
		marked = int(n)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("NotificationRepository.MarkRead: %w", err)
	}
	return marked, nil
}
