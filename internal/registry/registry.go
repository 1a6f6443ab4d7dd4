// Package registry keeps per-user subscription state in process memory.
package registry

import (
	"sort"
	"sync"

	"github.com/lunari-bot/lunari-telegram-bot/internal/domain"
)

// Subscriber is a point-in-time copy of one user's settings.
type Subscriber struct {
	ID           int64
	Subscribed   bool
	Sign         *domain.Sign
	DeliveryTime *domain.TimeOfDay
}

// ScheduledAt reports whether a subscribed user picked t as delivery time.
func (s Subscriber) ScheduledAt(t domain.TimeOfDay) bool {
	return s.Subscribed && s.DeliveryTime != nil && *s.DeliveryTime == t
}

// DueAt reports whether the subscriber should receive a delivery at t.
// Unsubscribed users, and users missing a time or a sign, are never due.
func (s Subscriber) DueAt(t domain.TimeOfDay) bool {
	return s.ScheduledAt(t) && s.Sign != nil
}

// entry guards one subscriber's field group.
type entry struct {
	mu         sync.Mutex
	subscribed bool
	sign       *domain.Sign
	at         *domain.TimeOfDay
}

// Registry maps user ids to subscribers. Entries are never removed.
type Registry struct {
	mu      sync.RWMutex
	entries map[int64]*entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[int64]*entry)}
}

func (r *Registry) lookup(id int64) *entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

func (r *Registry) ensure(id int64) *entry {
	if e := r.lookup(id); e != nil {
		return e
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	return e
}

// Subscribe marks the user as subscribed, creating the entry if needed.
func (r *Registry) Subscribe(id int64) {
	e := r.ensure(id)
	e.mu.Lock()
	e.subscribed = true
	e.mu.Unlock()
}

// Unsubscribe clears the subscription flag but keeps sign and time.
func (r *Registry) Unsubscribe(id int64) {
	e := r.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	e.subscribed = false
	e.mu.Unlock()
}

// SetZodiacSign validates raw and stores it. On error the previous sign is kept.
func (r *Registry) SetZodiacSign(id int64, raw string) (domain.Sign, error) {
	sign, err := domain.ParseSign(raw)
	if err != nil {
		return "", err
	}
	e := r.ensure(id)
	e.mu.Lock()
	e.sign = &sign
	e.mu.Unlock()
	return sign, nil
}

// SetDeliveryTime validates an "HH:MM" string and stores it.
// On error the previous time is kept.
func (r *Registry) SetDeliveryTime(id int64, raw string) (domain.TimeOfDay, error) {
	at, err := domain.ParseTimeOfDay(raw)
	if err != nil {
		return domain.TimeOfDay{}, err
	}
	e := r.ensure(id)
	e.mu.Lock()
	e.at = &at
	e.mu.Unlock()
	return at, nil
}

// ZodiacSign returns the stored sign, if any.
func (r *Registry) ZodiacSign(id int64) (domain.Sign, bool) {
	s, ok := r.Get(id)
	if !ok || s.Sign == nil {
		return "", false
	}
	return *s.Sign, true
}

// DeliveryTime returns the stored delivery time, if any.
func (r *Registry) DeliveryTime(id int64) (domain.TimeOfDay, bool) {
	s, ok := r.Get(id)
	if !ok || s.DeliveryTime == nil {
		return domain.TimeOfDay{}, false
	}
	return *s.DeliveryTime, true
}

// IsSubscribed reports the subscription flag; unknown users are not subscribed.
func (r *Registry) IsSubscribed(id int64) bool {
	s, ok := r.Get(id)
	return ok && s.Subscribed
}

// Get returns a consistent copy of the subscriber's fields.
func (r *Registry) Get(id int64) (Subscriber, bool) {
	e := r.lookup(id)
	if e == nil {
		return Subscriber{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Subscriber{ID: id, Subscribed: e.subscribed}
	if e.sign != nil {
		sign := *e.sign
		s.Sign = &sign
	}
	if e.at != nil {
		at := *e.at
		s.DeliveryTime = &at
	}
	return s, true
}

// AllSubscribedUsers returns ids subscribed at the moment of the call, ascending.
func (r *Registry) AllSubscribedUsers() []int64 {
	r.mu.RLock()
	snapshot := make(map[int64]*entry, len(r.entries))
	for id, e := range r.entries {
		snapshot[id] = e
	}
	r.mu.RUnlock()

	ids := make([]int64, 0, len(snapshot))
	for id, e := range snapshot {
		e.mu.Lock()
		ok := e.subscribed
		e.mu.Unlock()
		if ok {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of known users, subscribed or not.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
