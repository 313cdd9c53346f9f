package rentbot_test

import (
	"context"
	"encoding/base64"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/propertytek/rentbot"
	"github.com/propertytek/rentbot/internal/config"
	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

type delivery struct {
	channel, to, body string
}

type recordingDeliverer struct {
	mu   sync.Mutex
	sent []delivery
}

func (d *recordingDeliverer) Deliver(_ context.Context, channel, to, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, delivery{channel, to, body})
	return nil
}

func (d *recordingDeliverer) channels() map[string]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]string)
	for _, s := range d.sent {
		out[s.channel] = s.to
	}
	return out
}

func newApp(t *testing.T, cfg *config.Config, opts ...rentbot.Option) *rentbot.App {
	t.Helper()
	opts = append([]rentbot.Option{
		rentbot.WithLogger(logging.NewNop()),
		rentbot.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	app, err := rentbot.New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func say(t *testing.T, app *rentbot.App, user, query string) *domain.Reply {
	t.Helper()
	reply, err := app.Handle(context.Background(), domain.Turn{UserID: user, Query: query})
	require.NoError(t, err)
	return reply
}

func ptr(s string) *string { return &s }

func TestNew_Defaults(t *testing.T) {
	app := newApp(t, nil)

	assert.Nil(t, app.Ledger)
	assert.Equal(t, market.Supported(), app.Gate.Markets())

	reply := say(t, app, "u1", "2 bedroom in Austin")
	require.NotEmpty(t, reply.Properties)
	for _, c := range reply.Properties {
		require.NotNil(t, c.Property)
		assert.Equal(t, 2, c.Property.Bedrooms)
	}

	s, err := app.Sessions.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Austin", s.Criteria.City)

	msgs, err := app.History.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "etcd"

	_, err := rentbot.New(context.Background(), cfg, rentbot.WithLogger(logging.NewNop()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestNew_UnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := config.Default()
	cfg.Store.Backend = "redis"
	cfg.Redis.Addr = addr

	_, err := rentbot.New(context.Background(), cfg, rentbot.WithLogger(logging.NewNop()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach redis")
}

func TestNew_RedisEncryptedAndLocked(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Store.Backend = "redis"
	cfg.Redis.Addr = mr.Addr()
	cfg.Store.DistributedLock = true
	cfg.Security.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	app := newApp(t, cfg)
	reply := say(t, app, "u1", "2 bedroom in Austin")
	require.NotEmpty(t, reply.Properties)

	raw, err := mr.Get(cfg.Redis.Prefix + "u1")
	require.NoError(t, err)
	assert.NotContains(t, raw, "Austin", "criteria are sealed at rest")

	ids, err := app.Sessions.List(context.Background())
	require.NoError(t, err)
	assert.Contains(t, ids, "u1")

	// A second replica with the same key sees the same conversation.
	replica := newApp(t, cfg)
	s, err := replica.Sessions.Load(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Austin", s.Criteria.City)

	msgs, err := replica.History.Recent(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.NotEmpty(t, msgs)
}

func TestApp_BookingReachesEverySink(t *testing.T) {
	cfg := config.Default()
	cfg.Booking.LedgerPath = filepath.Join(t.TempDir(), "appointments.db")
	cfg.Booking.OfficePhone = "+15550000000"

	rec := &recordingDeliverer{}
	app := newApp(t, cfg, rentbot.WithDeliverer(rec))
	require.NotNil(t, app.Ledger)
	ctx := context.Background()

	act := func(turn domain.Turn) *domain.Reply {
		t.Helper()
		turn.UserID = "u1"
		reply, err := app.Handle(ctx, turn)
		require.NoError(t, err)
		return reply
	}

	details := act(domain.Turn{ActionType: domain.ActionInquire, PropertyID: ptr("7")})
	require.NotNil(t, details.PropertyDetails)

	offer := act(domain.Turn{ActionType: domain.ActionBookSchedule})
	require.NotEmpty(t, offer.AvailableSlots)

	picked := act(domain.Turn{ActionType: domain.ActionSelectSlot, SelectedSlot: ptr(offer.AvailableSlots[0].ID)})
	assert.True(t, picked.RequiresUserInfo)

	done := act(domain.Turn{
		ActionType: domain.ActionProvideInfo,
		UserInfo: &domain.Contact{
			Name:  "Jane Doe",
			Email: "jane@example.com",
			Phone: "+15551234567",
			Pets:  "one cat",
		},
	})
	require.NotNil(t, done.Appointment)
	assert.Equal(t, domain.StepBookingComplete, *done.CurrentStep)

	stored, err := app.Ledger.Get(ctx, done.Appointment.ID)
	require.NoError(t, err)
	assert.Equal(t, "7", stored.PropertyID)
	assert.Equal(t, "jane@example.com", stored.Contact.Email)
	assert.Equal(t, offer.AvailableSlots[0].ID, stored.Slot.ID)

	list, err := app.Ledger.List(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	channels := rec.channels()
	assert.Equal(t, "jane@example.com", channels["calendar"])
	assert.Equal(t, "+15551234567", channels["sms"])
}

func TestApp_RedactsFinishedBookings(t *testing.T) {
	cfg := config.Default()
	cfg.Security.Redact = true
	app := newApp(t, cfg)
	ctx := context.Background()

	_, err := app.Handle(ctx, domain.Turn{UserID: "u1", ActionType: domain.ActionBookSchedule, PropertyID: ptr("1")})
	require.NoError(t, err)
	s, err := app.Sessions.Load(ctx, "u1")
	require.NoError(t, err)
	require.NotEmpty(t, s.Booking.OfferedSlots)

	for _, turn := range []domain.Turn{
		{ActionType: domain.ActionSelectSlot, SelectedSlot: ptr(s.Booking.OfferedSlots[0].ID)},
		{ActionType: domain.ActionProvideInfo, UserInfo: &domain.Contact{Name: "Jane Doe", Email: "jane@example.com", Phone: "+15551234567", Pets: "one cat"}},
	} {
		turn.UserID = "u1"
		_, err := app.Handle(ctx, turn)
		require.NoError(t, err)
	}

	s, err = app.Sessions.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.BookingComplete, s.Booking.State)
	require.NotNil(t, s.Booking.Intake)
	assert.NotEqual(t, "jane@example.com", s.Booking.Intake.Contact.Email)
}

func TestApp_RunStopsWithContext(t *testing.T) {
	app := newApp(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}
