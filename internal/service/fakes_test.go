package service

import (
	"context"
	"sort"
	"time"

	"gopkg.in/guregu/null.v4"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
	"github.com/sathvikparasa/warnabrotha/internal/repository"
)

// In-memory repository fakes. Each mirrors the postgres behavior the services
// rely on, including the sentinel errors and the uniqueness guarantees.

type fakeLotRepo struct {
	lots map[int]domain.ParkingLot
}

func newFakeLotRepo(lots ...domain.ParkingLot) *fakeLotRepo {
	r := &fakeLotRepo{lots: make(map[int]domain.ParkingLot)}
	for _, lot := range lots {
		r.lots[lot.ID] = lot
	}
	return r
}

func (r *fakeLotRepo) FindByID(_ context.Context, id int) (*domain.ParkingLot, error) {
	lot, ok := r.lots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &lot, nil
}

func (r *fakeLotRepo) FindByCode(_ context.Context, code string) (*domain.ParkingLot, error) {
	for _, lot := range r.lots {
		if lot.Code == code {
			return &lot, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeLotRepo) FindAllActive(_ context.Context) ([]domain.ParkingLot, error) {
	var lots []domain.ParkingLot
	for _, lot := range r.lots {
		if lot.IsActive {
			lots = append(lots, lot)
		}
	}
	sort.Slice(lots, func(i, j int) bool { return lots[i].Name < lots[j].Name })
	return lots, nil
}

type fakeSessionRepo struct {
	sessions []*domain.ParkingSession
	nextID   int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{nextID: 1}
}

func (r *fakeSessionRepo) activeFor(deviceID int) *domain.ParkingSession {
	for _, s := range r.sessions {
		if s.DeviceID == deviceID && s.IsActive() {
			return s
		}
	}
	return nil
}

func (r *fakeSessionRepo) Open(_ context.Context, deviceID, lotID int, at time.Time) (*domain.ParkingSession, error) {
	if r.activeFor(deviceID) != nil {
		return nil, repository.ErrDuplicateEntry
	}
	s := &domain.ParkingSession{
		ID:          r.nextID,
		DeviceID:    deviceID,
		LotID:       lotID,
		CheckedInAt: at,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	r.nextID++
	r.sessions = append(r.sessions, s)
	out := *s
	return &out, nil
}

func (r *fakeSessionRepo) SwitchLot(ctx context.Context, deviceID, lotID int, at time.Time) (*domain.ParkingSession, error) {
	if active := r.activeFor(deviceID); active != nil {
		active.CheckedOutAt = null.TimeFrom(at)
		active.UpdatedAt = at
	}
	return r.Open(ctx, deviceID, lotID, at)
}

func (r *fakeSessionRepo) CloseActive(_ context.Context, deviceID int, at time.Time) (*domain.ParkingSession, error) {
	active := r.activeFor(deviceID)
	if active == nil {
		return nil, repository.ErrNoActiveSession
	}
	active.CheckedOutAt = null.TimeFrom(at)
	active.UpdatedAt = at
	out := *active
	return &out, nil
}

func (r *fakeSessionRepo) FindActiveByDevice(_ context.Context, deviceID int) (*domain.ParkingSession, error) {
	active := r.activeFor(deviceID)
	if active == nil {
		return nil, repository.ErrNoActiveSession
	}
	out := *active
	return &out, nil
}

func (r *fakeSessionRepo) FindActiveByLot(_ context.Context, lotID int) ([]domain.ParkingSession, error) {
	var out []domain.ParkingSession
	for _, s := range r.sessions {
		if s.LotID == lotID && s.IsActive() {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) CountActiveByLot(ctx context.Context, lotID int) (int, error) {
	sessions, _ := r.FindActiveByLot(ctx, lotID)
	return len(sessions), nil
}

func (r *fakeSessionRepo) FindByDevice(_ context.Context, deviceID int, limit int) ([]domain.ParkingSession, error) {
	var out []domain.ParkingSession
	for _, s := range r.sessions {
		if s.DeviceID == deviceID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckedInAt.After(out[j].CheckedInAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSessionRepo) FindReminderDue(_ context.Context, cutoff time.Time) ([]domain.ParkingSession, error) {
	var out []domain.ParkingSession
	for _, s := range r.sessions {
		if s.IsActive() && !s.ReminderSent && !s.CheckedInAt.After(cutoff) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) ClaimReminder(_ context.Context, sessionID int) (bool, error) {
	for _, s := range r.sessions {
		if s.ID == sessionID {
			if s.ReminderSent {
				return false, nil
			}
			s.ReminderSent = true
			return true, nil
		}
	}
	return false, nil
}

type fakeSightingRepo struct {
	sightings []*domain.Sighting
	nextID    int
}

func newFakeSightingRepo() *fakeSightingRepo {
	return &fakeSightingRepo{nextID: 1}
}

func (r *fakeSightingRepo) Create(_ context.Context, sighting *domain.Sighting) (*domain.Sighting, error) {
	sighting.ID = r.nextID
	r.nextID++
	stored := *sighting
	r.sightings = append(r.sightings, &stored)
	return sighting, nil
}

func (r *fakeSightingRepo) FindByID(_ context.Context, id int) (*domain.Sighting, error) {
	for _, s := range r.sightings {
		if s.ID == id {
			out := *s
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeSightingRepo) FindSince(_ context.Context, lotID *int, cutoff time.Time, limit int) ([]domain.Sighting, error) {
	var out []domain.Sighting
	for _, s := range r.sightings {
		if s.ReportedAt.Before(cutoff) {
			continue
		}
		if lotID != nil && s.LotID != *lotID {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeSightingRepo) FindLatestByLot(_ context.Context, lotID int) (*domain.Sighting, error) {
	var latest *domain.Sighting
	for _, s := range r.sightings {
		if s.LotID != lotID {
			continue
		}
		if latest == nil || s.ReportedAt.After(latest.ReportedAt) {
			latest = s
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (r *fakeSightingRepo) ExistsByReporterSince(_ context.Context, deviceID, lotID int, since time.Time) (bool, error) {
	for _, s := range r.sightings {
		if s.ReporterDeviceID == deviceID && s.LotID == lotID && !s.ReportedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSightingRepo) CountByLotSince(_ context.Context, lotID int, since time.Time) (int, error) {
	count := 0
	for _, s := range r.sightings {
		if s.LotID == lotID && !s.ReportedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSightingRepo) CountByLotWeekdaySince(_ context.Context, lotID int, weekday time.Weekday, since time.Time) (int, error) {
	count := 0
	for _, s := range r.sightings {
		if s.LotID == lotID && s.ReportedAt.Weekday() == weekday && !s.ReportedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeSightingRepo) BusiestLotWeekdayCountSince(ctx context.Context, weekday time.Weekday, since time.Time) (int, error) {
	counts := make(map[int]int)
	for _, s := range r.sightings {
		if s.ReportedAt.Weekday() == weekday && !s.ReportedAt.Before(since) {
			counts[s.LotID]++
		}
	}
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return max, nil
}

type fakeVoteRepo struct {
	votes  []*domain.Vote
	nextID int
}

func newFakeVoteRepo() *fakeVoteRepo {
	return &fakeVoteRepo{nextID: 1}
}

func (r *fakeVoteRepo) Create(_ context.Context, vote *domain.Vote) (*domain.Vote, error) {
	for _, v := range r.votes {
		if v.DeviceID == vote.DeviceID && v.SightingID == vote.SightingID {
			return nil, repository.ErrDuplicateEntry
		}
	}
	vote.ID = r.nextID
	r.nextID++
	stored := *vote
	r.votes = append(r.votes, &stored)
	return vote, nil
}

func (r *fakeVoteRepo) FindBySightingAndDevice(_ context.Context, sightingID, deviceID int) (*domain.Vote, error) {
	for _, v := range r.votes {
		if v.SightingID == sightingID && v.DeviceID == deviceID {
			out := *v
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeVoteRepo) UpdateType(_ context.Context, id int, voteType domain.VoteType, at time.Time) error {
	for _, v := range r.votes {
		if v.ID == id {
			v.VoteType = voteType
			v.UpdatedAt = at
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeVoteRepo) Delete(_ context.Context, id int) error {
	for i, v := range r.votes {
		if v.ID == id {
			r.votes = append(r.votes[:i], r.votes[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeVoteRepo) CountBySighting(_ context.Context, sightingID int) (int, int, error) {
	up, down := 0, 0
	for _, v := range r.votes {
		if v.SightingID != sightingID {
			continue
		}
		if v.VoteType == domain.Upvote {
			up++
		} else {
			down++
		}
	}
	return up, down, nil
}

func (r *fakeVoteRepo) FindTypesForDevice(_ context.Context, sightingIDs []int, deviceID int) (map[int]domain.VoteType, error) {
	wanted := make(map[int]bool, len(sightingIDs))
	for _, id := range sightingIDs {
		wanted[id] = true
	}
	out := make(map[int]domain.VoteType)
	for _, v := range r.votes {
		if v.DeviceID == deviceID && wanted[v.SightingID] {
			out[v.SightingID] = v.VoteType
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	notifications []*domain.Notification
	nextID        int
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{nextID: 1}
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	n.ID = r.nextID
	r.nextID++
	if n.CreatedAt.IsZero() {
		n.CreatedAt = domain.Now()
	}
	stored := *n
	r.notifications = append(r.notifications, &stored)
	return n, nil
}

func (r *fakeNotificationRepo) FindUnreadByDevice(_ context.Context, deviceID, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.notifications {
		if n.DeviceID == deviceID && !n.IsRead() {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) FindByDevice(_ context.Context, deviceID, limit, offset int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range r.notifications {
		if n.DeviceID == deviceID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountByDevice(_ context.Context, deviceID int) (int, int, error) {
	total, unread := 0, 0
	for _, n := range r.notifications {
		if n.DeviceID != deviceID {
			continue
		}
		total++
		if !n.IsRead() {
			unread++
		}
	}
	return total, unread, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, deviceID int, ids []int, at time.Time) (int, error) {
	wanted := make(map[int]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	marked := 0
	for _, n := range r.notifications {
		if n.DeviceID == deviceID && wanted[n.ID] && !n.IsRead() {
			n.ReadAt = null.TimeFrom(at)
			marked++
		}
	}
	return marked, nil
}

func (r *fakeNotificationRepo) forDevice(deviceID int) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range r.notifications {
		if n.DeviceID == deviceID {
			out = append(out, n)
		}
	}
	return out
}

type fakeDeviceRepo struct {
	devices map[int]*domain.Device
	nextID  int
}

func newFakeDeviceRepo(devices ...*domain.Device) *fakeDeviceRepo {
	r := &fakeDeviceRepo{devices: make(map[int]*domain.Device), nextID: 1}
	for _, d := range devices {
		r.devices[d.ID] = d
		if d.ID >= r.nextID {
			r.nextID = d.ID + 1
		}
	}
	return r
}

func (r *fakeDeviceRepo) GetOrCreate(_ context.Context, deviceUID string, pushToken null.String) (*domain.Device, error) {
	for _, d := range r.devices {
		if d.DeviceUID == deviceUID {
			if pushToken.Valid {
				d.PushToken = pushToken
				d.PushEnabled = true
			}
			d.LastSeenAt = domain.Now()
			out := *d
			return &out, nil
		}
	}
	d := &domain.Device{
		ID:          r.nextID,
		DeviceUID:   deviceUID,
		PushToken:   pushToken,
		PushEnabled: pushToken.Valid,
		CreatedAt:   domain.Now(),
		LastSeenAt:  domain.Now(),
	}
	r.nextID++
	r.devices[d.ID] = d
	out := *d
	return &out, nil
}

func (r *fakeDeviceRepo) FindByUID(_ context.Context, deviceUID string) (*domain.Device, error) {
	for _, d := range r.devices {
		if d.DeviceUID == deviceUID {
			out := *d
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDeviceRepo) FindByID(_ context.Context, id int) (*domain.Device, error) {
	d, ok := r.devices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *d
	return &out, nil
}

func (r *fakeDeviceRepo) SetVerificationChallenge(_ context.Context, id int, codeHash string, expires time.Time) error {
	d, ok := r.devices[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.VerificationCodeHash = null.StringFrom(codeHash)
	d.VerificationExpires = null.TimeFrom(expires)
	return nil
}

func (r *fakeDeviceRepo) MarkEmailVerified(_ context.Context, id int) error {
	d, ok := r.devices[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.EmailVerified = true
	d.VerificationCodeHash = null.String{}
	d.VerificationExpires = null.Time{}
	return nil
}

func (r *fakeDeviceRepo) TouchLastSeen(_ context.Context, id int, at time.Time) error {
	if d, ok := r.devices[id]; ok {
		d.LastSeenAt = at
	}
	return nil
}

// fakeDispatcher records deliveries; UIDs in fail report a delivery error.
type fakeDispatcher struct {
	delivered []string
	fail      map[string]bool
}

func (d *fakeDispatcher) Deliver(_ context.Context, device *domain.Device, _ *domain.Notification) error {
	if d.fail[device.DeviceUID] {
		return context.DeadlineExceeded
	}
	d.delivered = append(d.delivered, device.DeviceUID)
	return nil
}

// capturedEmail records what the auth service tried to send.
type fakeEmailSender struct {
	email string
	code  string
}

func (s *fakeEmailSender) SendVerificationCode(_ context.Context, email, code string) error {
	s.email = email
	s.code = code
	return nil
}
