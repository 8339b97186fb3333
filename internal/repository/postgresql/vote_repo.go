package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

type pgVoteRepository struct {
	db *sql.DB
}

func NewPgVoteRepository(db *sql.DB) repository.VoteRepository {
	return &pgVoteRepository{db: db}
}

func (r *pgVoteRepository) Create(ctx context.Context, vote *domain.Vote) (*domain.Vote, error) {
	query := `INSERT INTO votes (device_id, sighting_id, vote_type)
	          VALUES ($1, $2, $3)
	          RETURNING id, created_at, updated_at`

	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, vote.DeviceID, vote.SightingID, vote.VoteType).
			Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, repository.ErrDuplicateEntry
		}
		return nil, fmt.Errorf("VoteRepository.Create: %w", err)
	}
	vote.CreatedAt = vote.CreatedAt.In(time.UTC)
	vote.UpdatedAt = vote.UpdatedAt.In(time.UTC)
	return vote, nil
}

func (r *pgVoteRepository) FindBySightingAndDevice(ctx context.Context, sightingID, deviceID int) (*domain.Vote, error) {
	query := `SELECT id, device_id, sighting_id, vote_type, created_at, updated_at
	          FROM votes
	          WHERE sighting_id = $1 AND device_id = $2`
	vote := &domain.Vote{}

	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, sightingID, deviceID).Scan(
			&vote.ID, &vote.DeviceID, &vote.SightingID, &vote.VoteType, &vote.CreatedAt, &vote.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("VoteRepository.FindBySightingAndDevice: %w", err)
	}
	vote.CreatedAt = vote.CreatedAt.In(time.UTC)
	vote.UpdatedAt = vote.UpdatedAt.In(time.UTC)
	return vote, nil
}

func (r *pgVoteRepository) UpdateType(ctx context.Context, id int, voteType domain.VoteType, at time.Time) error {
	query := `UPDATE votes SET vote_type = $1, updated_at = $2 WHERE id = $3`

	err := withRetry(ctx, func() error {
		res, execErr := r.db.ExecContext(ctx, query, voteType, at, id)
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
		return fmt.Errorf("VoteRepository.UpdateType: %w", err)
	}
	return nil
}

func (r *pgVoteRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM votes WHERE id = $1`

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
		return fmt.Errorf("VoteRepository.Delete: %w", err)
	}
	return nil
}

func (r *pgVoteRepository) CountBySighting(ctx context.Context, sightingID int) (int, int, error) {
	query := `SELECT
	              COUNT(*) FILTER (WHERE vote_type = 'upvote'),
	              COUNT(*) FILTER (WHERE vote_type = 'downvote')
	          FROM votes WHERE sighting_id = $1`

	var upvotes, downvotes int
	err := withRetry(ctx, func() error {
		return r.db.QueryRowContext(ctx, query, sightingID).Scan(&upvotes, &downvotes)
	})
	if err != nil {
		return 0, 0, fmt.Errorf("VoteRepository.CountBySighting: %w", err)
	}
	return upvotes, downvotes, nil
}

func (r *pgVoteRepository) FindTypesForDevice(ctx context.Context, sightingIDs []int, deviceID int) (map[int]domain.VoteType, error) {
	if len(sightingIDs) == 0 {
		return map[int]domain.VoteType{}, nil
	}

	query := `SELECT sighting_id, vote_type FROM votes
	          WHERE device_id = $1 AND sighting_id = ANY($2)`

	ids := make([]int64, len(sightingIDs))
	for i, id := range sightingIDs {
		ids[i] = int64(id)
	}

	votes := make(map[int]domain.VoteType, len(sightingIDs))
	err := withRetry(ctx, func() error {
		rows, queryErr := r.db.QueryContext(ctx, query, deviceID, pq.Array(ids))
		if queryErr != nil {
			return queryErr
		}
		defer rows.Close()

		clear(votes)
		for rows.Next() {
			var sightingID int
			var voteType domain.VoteType
			if scanErr := rows.Scan(&sightingID, &voteType); scanErr != nil {
				return scanErr
			}
			votes[sightingID] = voteType
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("VoteRepository.FindTypesForDevice: %w", err)
	}
	return votes, nil
}
