// Package dashboard renders a live terminal view of an engine run: cycle,
// phase, stride and input-read counts, and per-activity
// coordinated-omission delay, scraped straight off a pkg/metrics.Set.
package dashboard

import (
	"time"

	ui "github.com/gizak/termui/v3"
)

// Panel is one widget in the dashboard grid.
type Panel interface {
	Update(series map[string]*Series)
	Draw() ui.Drawable
	Name() string
}

// Series is a time-windowed ring of samples for one scraped metric name.
type Series struct {
	points []point
}

type point struct {
	t time.Time
	v float64
}

// Append records a sample, dropping points older than window.
func (s *Series) Append(t time.Time, v float64, window time.Duration) {
	cutoff := t.Add(-window)
	s.points = append(s.points, point{t, v})
	for len(s.points) > 0 && s.points[0].t.Before(cutoff) {
		s.points = s.points[1:]
	}
}

func (s *Series) pts() []float64 {
	out := make([]float64, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, p.v)
	}
	return out
}

func (s *Series) last() (float64, time.Time, bool) {
	if len(s.points) == 0 {
		return 0, time.Time{}, false
	}
	p := s.points[len(s.points)-1]
	return p.v, p.t, true
}

func safeData(pts []float64) []float64 {
	if len(pts) < 2 {
		return []float64{0, 0}
	}
	return pts
}
