package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

const feedLimit = 100

type FeedService struct {
	sightingRepo repository.SightingRepository
	voteRepo     repository.VoteRepository
	lotRepo      repository.ParkingLotRepository
	window       time.Duration
	logger       *zap.Logger
}

func NewFeedService(
	sightingRepo repository.SightingRepository,
	voteRepo repository.VoteRepository,
	lotRepo repository.ParkingLotRepository,
	window time.Duration,
	logger *zap.Logger,
) *FeedService {
	return &FeedService{
		sightingRepo: sightingRepo,
		voteRepo:     voteRepo,
		lotRepo:      lotRepo,
		window:       window,
		logger:       logger,
	}
}

// LotFeed returns the windowed sighting feed for one lot, each entry carrying
// its vote tally and the viewing device's own vote. Newest first by default;
// ranked orders by net score instead. A non-positive window means the
// configured default.
func (s *FeedService) LotFeed(ctx context.Context, device *domain.Device, lotID int, window time.Duration, ranked bool) (*domain.LotFeed, error) {
	lot, err := s.lotRepo.FindByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("looking up lot: %w", err)
	}

	entries, err := s.feedEntries(ctx, device, &lot.ID, window, ranked)
	if err != nil {
		return nil, err
	}

	return &domain.LotFeed{
		LotID:          lot.ID,
		LotName:        lot.Name,
		LotCode:        lot.Code,
		Sightings:      entries,
		TotalSightings: len(entries),
	}, nil
}

// AllFeeds returns the windowed feed for every active lot.
func (s *FeedService) AllFeeds(ctx context.Context, device *domain.Device, window time.Duration, ranked bool) (*domain.AllFeeds, error) {
	lots, err := s.lotRepo.FindAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing lots: %w", err)
	}

	result := &domain.AllFeeds{Feeds: make([]domain.LotFeed, 0, len(lots))}
	for _, lot := range lots {
		entries, err := s.feedEntries(ctx, device, &lot.ID, window, ranked)
		if err != nil {
			return nil, err
		}
		result.Feeds = append(result.Feeds, domain.LotFeed{
			LotID:          lot.ID,
			LotName:        lot.Name,
			LotCode:        lot.Code,
			Sightings:      entries,
			TotalSightings: len(entries),
		})
		result.TotalSightings += len(entries)
	}
	return result, nil
}

func (s *FeedService) feedEntries(ctx context.Context, device *domain.Device, lotID *int, window time.Duration, ranked bool) ([]domain.FeedSighting, error) {
	if window <= 0 {
		window = s.window
	}
	if window > 24*time.Hour {
		window = 24 * time.Hour
	}

	now := domain.Now()
	sightings, err := s.sightingRepo.FindSince(ctx, lotID, now.Add(-window), feedLimit)
	if err != nil {
		return nil, fmt.Errorf("listing sightings: %w", err)
	}

	ids := make([]int, len(sightings))
	for i, sighting := range sightings {
		ids[i] = sighting.ID
	}
	userVotes, err := s.voteRepo.FindTypesForDevice(ctx, ids, device.ID)
	if err != nil {
		return nil, fmt.Errorf("loading own votes: %w", err)
	}

	entries := make([]domain.FeedSighting, 0, len(sightings))
	for _, sighting := range sightings {
		upvotes, downvotes, err := s.voteRepo.CountBySighting(ctx, sighting.ID)
		if err != nil {
			return nil, fmt.Errorf("counting votes: %w", err)
		}

		entry := domain.FeedSighting{
			ID:         sighting.ID,
			LotID:      sighting.LotID,
			LotName:    sighting.LotName,
			LotCode:    sighting.LotCode,
			ReportedAt: sighting.ReportedAt,
			Notes:      sighting.Notes,
			Upvotes:    upvotes,
			Downvotes:  downvotes,
			NetScore:   upvotes - downvotes,
			MinutesAgo: int(now.Sub(sighting.ReportedAt).Minutes()),
		}
		if voteType, ok := userVotes[sighting.ID]; ok {
			vt := voteType
			entry.UserVote = &vt
		}
		entries = append(entries, entry)
	}

	if ranked {
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].NetScore != entries[j].NetScore {
				return entries[i].NetScore > entries[j].NetScore
			}
			return entries[i].ReportedAt.After(entries[j].ReportedAt)
		})
	}
	return entries, nil
}

// Vote applies a toggle vote on a sighting: no prior vote creates one, the
// same type again removes it, the opposite type replaces it.
func (s *FeedService) Vote(ctx context.Context, device *domain.Device, sightingID int, voteType domain.VoteType) (*domain.VoteResultDTO, error) {
	if !voteType.Valid() {
		return nil, ErrInvalidVote
	}
	if _, err := s.sightingRepo.FindByID(ctx, sightingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("looking up sighting: %w", err)
	}

	existing, err := s.voteRepo.FindBySightingAndDevice(ctx, sightingID, device.ID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		vote := &domain.Vote{
			DeviceID:   device.ID,
			SightingID: sightingID,
			VoteType:   voteType,
		}
		if _, createErr := s.voteRepo.Create(ctx, vote); createErr != nil {
			// Lost a race with our own concurrent request.
			if errors.Is(createErr, repository.ErrDuplicateEntry) {
				return nil, repository.ErrDuplicateEntry
			}
			return nil, fmt.Errorf("creating vote: %w", createErr)
		}
		return &domain.VoteResultDTO{Success: true, Action: domain.VoteApplied, VoteType: &voteType}, nil

	case err != nil:
		return nil, fmt.Errorf("looking up vote: %w", err)

	case existing.VoteType == voteType:
		if deleteErr := s.voteRepo.Delete(ctx, existing.ID); deleteErr != nil {
			return nil, fmt.Errorf("removing vote: %w", deleteErr)
		}
		return &domain.VoteResultDTO{Success: true, Action: domain.VoteRemoved, VoteType: nil}, nil

	default:
		if updateErr := s.voteRepo.UpdateType(ctx, existing.ID, voteType, domain.Now()); updateErr != nil {
			return nil, fmt.Errorf("replacing vote: %w", updateErr)
		}
		return &domain.VoteResultDTO{Success: true, Action: domain.VoteReplaced, VoteType: &voteType}, nil
	}
}
