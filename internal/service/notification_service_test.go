package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sathvikparasa/warnabrotha/internal/domain"
)

func newNotificationFixture(devices ...*domain.Device) (*fakeNotificationRepo, *NotificationService) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, newFakeSessionRepo(), newFakeDeviceRepo(devices...), &fakeDispatcher{}, zap.NewNop())
	return repo, svc
}

func TestUnreadAndMarkRead(t *testing.T) {
	ctx := context.Background()
	clock := setupClock(t)
	me := testDevice(1, "me")
	other := testDevice(2, "other")
	repo, svc := newNotificationFixture(me, other)

	seed := func(deviceID int) *domain.Notification {
		n, err := repo.Create(ctx, &domain.Notification{
			DeviceID: deviceID,
			Type:     domain.NotificationSightingAlert,
			Title:    "TAPS spotted!",
		})
		require.NoError(t, err)
		clock.Advance(time.Minute)
		return n
	}

	mine := seed(me.ID)
	theirs := seed(other.ID)
	second := seed(me.ID)

	unread, err := svc.Unread(ctx, me, 50)
	require.NoError(t, err)
	require.Len(t, unread, 2)
	// Newest first.
	assert.Equal(t, second.ID, unread[0].ID)
	assert.Equal(t, mine.ID, unread[1].ID)

	// Marking is scoped to the caller's rows; the foreign ID is ignored.
	marked, err := svc.MarkRead(ctx, me, []int{mine.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	unread, err = svc.Unread(ctx, me, 50)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, second.ID, unread[0].ID)

	otherUnread, err := svc.Unread(ctx, other, 50)
	require.NoError(t, err)
	assert.Len(t, otherUnread, 1)

	// Marking the same row twice is a no-op the second time.
	marked, err = svc.MarkRead(ctx, me, []int{mine.ID})
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestListWithCounts(t *testing.T) {
	ctx := context.Background()
	clock := setupClock(t)
	me := testDevice(1, "me")
	repo, svc := newNotificationFixture(me)

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, &domain.Notification{
			DeviceID: me.ID,
			Type:     domain.NotificationSightingAlert,
			Title:    "TAPS spotted!",
		})
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}

	list, err := svc.List(ctx, me, 2, 0)
	require.NoError(t, err)
	assert.Len(t, list.Notifications, 2)
	assert.Equal(t, 3, list.TotalCount)
	assert.Equal(t, 3, list.UnreadCount)

	rest, err := svc.List(ctx, me, 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest.Notifications, 1)
}
