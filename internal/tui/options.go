package tui

import (
	"time"

	"github.com/revisjon/tavle/internal/board"
)

// Option configures the model at construction time.
type Option func(*Model)

// WithSensor overrides the drag activation thresholds.
func WithSensor(sensor board.Sensor) Option {
	return func(m *Model) {
		m.sensor = sensor
	}
}

// WithShowWIPWarnings toggles the over-limit warning line in column headers.
func WithShowWIPWarnings(show bool) Option {
	return func(m *Model) {
		m.showWIPWarnings = show
	}
}

// WithDropDebounce sets the minimum interval between commits for one task.
func WithDropDebounce(interval time.Duration) Option {
	return func(m *Model) {
		m.dropDebounce = interval
	}
}

// WithClock injects a deterministic clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Model) {
		m.clock = clock
	}
}

// WithClipboard injects the clipboard writer, so tests avoid the system
// clipboard.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		m.writeClipboard = write
	}
}
