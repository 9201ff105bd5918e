package board

import "time"

// Debouncer rate-limits repeated events per key. The last-call map lives on
// the struct and is passed around explicitly by whoever owns the debounce
// domain; nothing is keyed on process-global state.
type Debouncer struct {
	interval time.Duration
	last     map[string]time.Time
	clock    func() time.Time
}

// NewDebouncer constructs a debouncer with the given minimum interval.
func NewDebouncer(interval time.Duration, clock func() time.Time) *Debouncer {
	if clock == nil {
		clock = time.Now
	}
	return &Debouncer{
		interval: interval,
		last:     make(map[string]time.Time),
		clock:    clock,
	}
}

// Allow reports whether the event keyed by key may fire now, recording the
// call time when it may.
func (d *Debouncer) Allow(key string) bool {
	now := d.clock()
	if last, ok := d.last[key]; ok && now.Sub(last) < d.interval {
		return false
	}
	d.last[key] = now
	return true
}

// Reset forgets the last call for a key, so the next event fires.
func (d *Debouncer) Reset(key string) {
	delete(d.last, key)
}
