package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
)

func TestSubscribe_Idempotent(t *testing.T) {
	r := New()
	r.Subscribe(1)
	r.Subscribe(1)

	assert.True(t, r.IsSubscribed(1))
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []int64{1}, r.AllSubscribedUsers())
}

func TestUnsubscribe_UnknownIsNoop(t *testing.T) {
	r := New()
	r.Unsubscribe(42)

	assert.False(t, r.IsSubscribed(42))
	assert.Equal(t, 0, r.Len())
}

func TestResubscribe_RestoresPreferences(t *testing.T) {
	r := New()
	r.Subscribe(7)
	_, err := r.SetZodiacSign(7, "Дева")
	require.NoError(t, err)
	_, err = r.SetDeliveryTime(7, "07:45")
	require.NoError(t, err)

	r.Unsubscribe(7)
	assert.False(t, r.IsSubscribed(7))
	assert.Empty(t, r.AllSubscribedUsers())

	r.Subscribe(7)
	sign, ok := r.ZodiacSign(7)
	require.True(t, ok)
	assert.Equal(t, domain.Virgo, sign)
	at, ok := r.DeliveryTime(7)
	require.True(t, ok)
	assert.Equal(t, domain.TimeOfDay{Hour: 7, Minute: 45}, at)
}

func TestSetDeliveryTime_InvalidKeepsPrevious(t *testing.T) {
	r := New()
	_, err := r.SetDeliveryTime(1, "08:30")
	require.NoError(t, err)

	for _, in := range []string{"25:00", "8:30am", "", "12:60"} {
		_, err := r.SetDeliveryTime(1, in)
		require.ErrorIs(t, err, domain.ErrInvalidInput, in)
	}

	at, ok := r.DeliveryTime(1)
	require.True(t, ok)
	assert.Equal(t, "08:30", at.String())
}

func TestSetDeliveryTime_InvalidOnFreshUserStoresNothing(t *testing.T) {
	r := New()
	_, err := r.SetDeliveryTime(1, "99:99")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, ok := r.DeliveryTime(1)
	assert.False(t, ok)
}

func TestSetZodiacSign_InvalidKeepsPrevious(t *testing.T) {
	r := New()
	_, err := r.SetZodiacSign(1, "Лев")
	require.NoError(t, err)

	_, err = r.SetZodiacSign(1, "Дракон")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	sign, ok := r.ZodiacSign(1)
	require.True(t, ok)
	assert.Equal(t, domain.Leo, sign)
}

func TestReads_UnsetReturnAbsent(t *testing.T) {
	r := New()
	r.Subscribe(3)

	_, ok := r.ZodiacSign(3)
	assert.False(t, ok)
	_, ok = r.DeliveryTime(3)
	assert.False(t, ok)
	_, ok = r.Get(99)
	assert.False(t, ok)
}

func TestGet_ReturnsCopy(t *testing.T) {
	r := New()
	_, _ = r.SetZodiacSign(1, "Рак")
	s := mustGet(t, r, 1)
	*s.Sign = domain.Leo

	assert.Equal(t, domain.Cancer, *mustGet(t, r, 1).Sign)
}

func TestDueAt(t *testing.T) {
	leo := domain.Leo
	at := domain.TimeOfDay{Hour: 8, Minute: 30}
	tests := []struct {
		name string
		s    Subscriber
		want bool
	}{
		{name: "all set", s: Subscriber{Subscribed: true, Sign: &leo, DeliveryTime: &at}, want: true},
		{name: "unsubscribed", s: Subscriber{Subscribed: false, Sign: &leo, DeliveryTime: &at}},
		{name: "no sign", s: Subscriber{Subscribed: true, DeliveryTime: &at}},
		{name: "no time", s: Subscriber{Subscribed: true, Sign: &leo}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.s.DueAt(at))
		})
	}
	s := Subscriber{Subscribed: true, Sign: &leo, DeliveryTime: &at}
	assert.False(t, s.DueAt(domain.TimeOfDay{Hour: 8, Minute: 31}))

	noSign := Subscriber{Subscribed: true, DeliveryTime: &at}
	assert.True(t, noSign.ScheduledAt(at))
	assert.False(t, noSign.DueAt(at))
}

func TestConcurrentAccess(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(id int64) {
			defer wg.Done()
			r.Subscribe(id)
			_, _ = r.SetZodiacSign(id, "Весы")
			_, _ = r.SetDeliveryTime(id, fmt.Sprintf("%02d:00", id%24))
		}(int64(i))
		go func() {
			defer wg.Done()
			for _, id := range r.AllSubscribedUsers() {
				_, _ = r.Get(id)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.AllSubscribedUsers(), 50)
}

func mustGet(t *testing.T, r *Registry, id int64) Subscriber {
	t.Helper()
	s, ok := r.Get(id)
	require.True(t, ok)
	return s
}
