package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
	"github.com/lunari-bot/lunari-telegram-bot/internal/registry"
)

type sent struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	msgs []sent
	fail map[int64]error
}

func (f *fakeSender) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[chatID]; err != nil {
		return err
	}
	f.msgs = append(f.msgs, sent{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) messages() []sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sent, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func (f *fakeSender) recipients() map[int64]int {
	out := make(map[int64]int)
	for _, m := range f.messages() {
		out[m.chatID]++
	}
	return out
}

// fakeLookup serves texts by "sign|date"; errs and panics are keyed by sign.
type fakeLookup struct {
	texts  map[string]string
	errs   map[domain.Sign]error
	panics map[domain.Sign]bool
}

func (f fakeLookup) Lookup(_ context.Context, sign domain.Sign, date string) (string, error) {
	if f.panics[sign] {
		panic("lookup exploded")
	}
	if err := f.errs[sign]; err != nil {
		return "", err
	}
	if text, ok := f.texts[string(sign)+"|"+date]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s %s", domain.ErrNotFound, sign, date)
}

func newTestScheduler(t *testing.T, reg *registry.Registry, l fakeLookup, sender *fakeSender) *Scheduler {
	t.Helper()
	s := New(reg, l, sender, zap.NewNop(), Config{Workers: 3})
	s.startWorkers()
	return s
}

func stop(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func subscribe(t *testing.T, reg *registry.Registry, id int64, sign, at string) {
	t.Helper()
	reg.Subscribe(id)
	if sign != "" {
		_, err := reg.SetZodiacSign(id, sign)
		require.NoError(t, err)
	}
	if at != "" {
		_, err := reg.SetDeliveryTime(id, at)
		require.NoError(t, err)
	}
}

func TestTick_MatchesOnlyFullyConfiguredSubscribersAtMinute(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 1, "Лев", "08:30")  // due
	subscribe(t, reg, 2, "Рак", "08:30")  // unsubscribed below
	subscribe(t, reg, 3, "Дева", "")      // no time
	subscribe(t, reg, 4, "Весы", "08:31") // other minute
	subscribe(t, reg, 5, "", "08:30")     // no sign
	subscribe(t, reg, 6, "Рыбы", "08:30") // due
	subscribe(t, reg, 7, "", "08:30")     // unsubscribed below, no sign
	reg.Unsubscribe(2)
	reg.Unsubscribe(7)

	sender := &fakeSender{}
	s := newTestScheduler(t, reg, fakeLookup{}, sender)
	noSign := testutil.ToFloat64(skippedTotal.WithLabelValues("no_sign"))

	now := time.Date(2024, time.June, 1, 8, 30, 42, 0, time.Local)
	n := s.Tick(context.Background(), now)
	stop(t, s)

	assert.Equal(t, 2, n)
	assert.Equal(t, map[int64]int{1: 1, 6: 1}, sender.recipients())
	assert.Equal(t, noSign+1, testutil.ToFloat64(skippedTotal.WithLabelValues("no_sign")))
}

func TestTick_UsesSubscriberDueAt(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 1, "Лев", "23:59")
	subscribe(t, reg, 2, "Рак", "00:00")

	at := domain.TimeOfDay{Hour: 23, Minute: 59}
	for _, id := range []int64{1, 2} {
		sub, ok := reg.Get(id)
		require.True(t, ok)

		sender := &fakeSender{}
		s := newTestScheduler(t, reg, fakeLookup{}, sender)
		s.Tick(context.Background(), time.Date(2024, time.June, 1, 23, 59, 0, 0, time.Local))
		stop(t, s)

		_, got := sender.recipients()[id]
		assert.Equal(t, sub.DueAt(at), got, "chat %d", id)
	}
}

func TestTick_EndToEnd(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 100, "Лев", "09:15")

	l := fakeLookup{texts: map[string]string{"Лев|2024-06-01": "Сегодня удачный день"}}
	sender := &fakeSender{}
	s := newTestScheduler(t, reg, l, sender)

	ctx := context.Background()
	assert.Equal(t, 1, s.Tick(ctx, time.Date(2024, time.June, 1, 9, 15, 0, 0, time.Local)))
	assert.Equal(t, 0, s.Tick(ctx, time.Date(2024, time.June, 1, 9, 16, 0, 0, time.Local)))
	stop(t, s)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(100), msgs[0].chatID)
	assert.Contains(t, msgs[0].text, "Лев")
	assert.Contains(t, msgs[0].text, "1 июня")
	assert.Contains(t, msgs[0].text, "Сегодня удачный день")
}

func TestTick_LookupFailureIsolated(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 1, "Овен", "07:00")
	subscribe(t, reg, 2, "Телец", "07:00")
	subscribe(t, reg, 3, "Близнецы", "07:00")

	l := fakeLookup{
		texts: map[string]string{
			"Телец|2024-03-10":    "текст",
			"Близнецы|2024-03-10": "текст",
		},
		errs:   map[domain.Sign]error{domain.Aries: errors.New("storage down")},
		panics: map[domain.Sign]bool{domain.Gemini: true},
	}
	sender := &fakeSender{}
	s := newTestScheduler(t, reg, l, sender)

	s.Tick(context.Background(), time.Date(2024, time.March, 10, 7, 0, 0, 0, time.Local))
	stop(t, s)

	assert.Equal(t, map[int64]int{2: 1}, sender.recipients())
}

func TestTick_SendFailureIsolated(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 1, "Лев", "21:05")
	subscribe(t, reg, 2, "Лев", "21:05")

	sender := &fakeSender{fail: map[int64]error{1: errors.New("bot was blocked by the user")}}
	s := newTestScheduler(t, reg, fakeLookup{}, sender)

	s.Tick(context.Background(), time.Date(2024, time.June, 1, 21, 5, 0, 0, time.Local))
	stop(t, s)

	assert.Equal(t, map[int64]int{2: 1}, sender.recipients())
}

func TestTick_MissingHoroscopeSendsPlaceholder(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 1, "Козерог", "00:00")

	sender := &fakeSender{}
	s := newTestScheduler(t, reg, fakeLookup{}, sender)

	s.Tick(context.Background(), time.Date(2025, time.January, 2, 0, 0, 0, 0, time.Local))
	stop(t, s)

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].text, "Извините, гороскоп на 2025-01-02 для Козерог не найден.")
	assert.Contains(t, msgs[0].text, "2 января")
}

func TestTick_AfterStopIsNoop(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 1, "Лев", "10:00")
	sender := &fakeSender{}
	s := newTestScheduler(t, reg, fakeLookup{}, sender)
	stop(t, s)

	assert.Equal(t, 0, s.Tick(context.Background(), time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local)))
	assert.Empty(t, sender.messages())
}

func TestStartStop_NoTicksAfterStop(t *testing.T) {
	reg := registry.New()
	subscribe(t, reg, 1, "Лев", "12:00")

	sender := &fakeSender{}
	s := New(reg, fakeLookup{}, sender, zap.NewNop(), Config{
		Spec:  "@every 1s",
		Clock: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local) },
	})
	require.NoError(t, s.Start())

	require.Eventually(t, func() bool { return len(sender.messages()) > 0 }, 5*time.Second, 50*time.Millisecond)
	stop(t, s)

	count := len(sender.messages())
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, count, len(sender.messages()))
}

func TestStart_InvalidSpec(t *testing.T) {
	s := New(registry.New(), fakeLookup{}, &fakeSender{}, zap.NewNop(), Config{Spec: "not a cron"})
	assert.Error(t, s.Start())
}
