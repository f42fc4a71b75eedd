package dashboard

import (
	"testing"
	"time"
)

func TestSeriesAppendDropsOutsideWindow(t *testing.T) {
	var s Series
	base := time.Unix(1000, 0)

	s.Append(base, 1, time.Second)
	s.Append(base.Add(500*time.Millisecond), 2, time.Second)
	s.Append(base.Add(3*time.Second), 3, time.Second)

	pts := s.pts()
	if len(pts) != 1 || pts[0] != 3 {
		t.Fatalf("expected only the most recent in-window sample, got %v", pts)
	}
}

func TestSeriesLastReportsMostRecentSample(t *testing.T) {
	var s Series
	now := time.Now()
	if _, _, ok := s.last(); ok {
		t.Fatalf("expected no last sample on an empty series")
	}
	s.Append(now, 42, time.Minute)
	v, _, ok := s.last()
	if !ok || v != 42 {
		t.Fatalf("expected last sample 42, got %v ok=%v", v, ok)
	}
}

func TestSafeDataPadsSinglePointSeries(t *testing.T) {
	if got := safeData([]float64{5}); len(got) != 2 {
		t.Fatalf("expected a padded two-point series, got %v", got)
	}
	if got := safeData([]float64{1, 2, 3}); len(got) != 3 {
		t.Fatalf("expected an untouched series, got %v", got)
	}
}

func TestInfoPanelUpdateFormatsLatestSamples(t *testing.T) {
	p := NewInfoPanel([]string{"cycles_count"})
	series := map[string]*Series{
		"cycles_count": {},
	}
	series["cycles_count"].Append(time.Now(), 7, time.Minute)

	p.Update(series)
	if p.p.Text == "" {
		t.Fatalf("expected non-empty rendered text after update")
	}
}
