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

type reminderFixture struct {
	sessions      *fakeSessionRepo
	notifications *fakeNotificationRepo
	dispatcher    *fakeDispatcher
	svc           *ReminderService
}

func newReminderFixture(lotRepo *fakeLotRepo, devices ...*domain.Device) *reminderFixture {
	f := &reminderFixture{
		sessions:      newFakeSessionRepo(),
		notifications: newFakeNotificationRepo(),
		dispatcher:    &fakeDispatcher{},
	}
	notificationSvc := NewNotificationService(f.notifications, f.sessions, newFakeDeviceRepo(devices...), f.dispatcher, zap.NewNop())
	f.svc = NewReminderService(f.sessions, lotRepo, notificationSvc, 3*time.Hour, zap.NewNop())
	return f
}

func TestProcessPending(t *testing.T) {
	ctx := context.Background()

	t.Run("reminds sessions open past the threshold, exactly once", func(t *testing.T) {
		clock := setupClock(t)
		lotRepo, hutch, _ := testLots()
		parked := testDevice(1, "parked")
		f := newReminderFixture(lotRepo, parked)

		_, err := f.sessions.Open(ctx, parked.ID, hutch.ID, domain.Now())
		require.NoError(t, err)

		clock.Advance(4 * time.Hour)
		sent, err := f.svc.ProcessPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)

		stored := f.notifications.forDevice(parked.ID)
		require.Len(t, stored, 1)
		assert.Equal(t, domain.NotificationCheckoutReminder, stored[0].Type)
		assert.Equal(t, []string{"parked"}, f.dispatcher.delivered)

		// The claim in storage keeps the next scan from repeating it.
		sent, err = f.svc.ProcessPending(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Len(t, f.notifications.forDevice(parked.ID), 1)
	})

	t.Run("fresh sessions are left alone", func(t *testing.T) {
		clock := setupClock(t)
		lotRepo, hutch, _ := testLots()
		parked := testDevice(1, "parked")
		f := newReminderFixture(lotRepo, parked)

		_, err := f.sessions.Open(ctx, parked.ID, hutch.ID, domain.Now())
		require.NoError(t, err)

		clock.Advance(1 * time.Hour)
		sent, err := f.svc.ProcessPending(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Empty(t, f.notifications.forDevice(parked.ID))
	})

	t.Run("checked-out sessions are not reminded", func(t *testing.T) {
		clock := setupClock(t)
		lotRepo, hutch, _ := testLots()
		parked := testDevice(1, "parked")
		f := newReminderFixture(lotRepo, parked)

		_, err := f.sessions.Open(ctx, parked.ID, hutch.ID, domain.Now())
		require.NoError(t, err)
		clock.Advance(2 * time.Hour)
		_, err = f.sessions.CloseActive(ctx, parked.ID, domain.Now())
		require.NoError(t, err)

		clock.Advance(3 * time.Hour)
		sent, err := f.svc.ProcessPending(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent)
	})

	t.Run("only overdue sessions in a mixed batch are reminded", func(t *testing.T) {
		clock := setupClock(t)
		lotRepo, hutch, mu := testLots()
		overdue := testDevice(1, "overdue")
		fresh := testDevice(2, "fresh")
		f := newReminderFixture(lotRepo, overdue, fresh)

		_, err := f.sessions.Open(ctx, overdue.ID, hutch.ID, domain.Now())
		require.NoError(t, err)
		clock.Advance(3*time.Hour + 30*time.Minute)
		_, err = f.sessions.Open(ctx, fresh.ID, mu.ID, domain.Now())
		require.NoError(t, err)

		sent, err := f.svc.ProcessPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, f.notifications.forDevice(overdue.ID), 1)
		assert.Contains(t, f.notifications.forDevice(overdue.ID)[0].Message, "Hutchinson")
		assert.Empty(t, f.notifications.forDevice(fresh.ID))
	})

	t.Run("reminder still lands when the live push fails", func(t *testing.T) {
		clock := setupClock(t)
		lotRepo, hutch, _ := testLots()
		parked := testDevice(1, "parked")
		f := newReminderFixture(lotRepo, parked)
		f.dispatcher.fail = map[string]bool{"parked": true}

		_, err := f.sessions.Open(ctx, parked.ID, hutch.ID, domain.Now())
		require.NoError(t, err)

		clock.Advance(4 * time.Hour)
		sent, err := f.svc.ProcessPending(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sent)
		require.Len(t, f.notifications.forDevice(parked.ID), 1)
	})
}
