package ratespec

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		r       RateSpec
		wantErr bool
	}{
		{"ok", RateSpec{OpsPerSec: 1000, Strictness: 1.0}, false},
		{"zero rate", RateSpec{OpsPerSec: 0, Strictness: 1.0}, true},
		{"negative rate", RateSpec{OpsPerSec: -5, Strictness: 1.0}, true},
		{"over max", RateSpec{OpsPerSec: MaxOpsPerSec + 1, Strictness: 1.0}, true},
		{"strictness too low", RateSpec{OpsPerSec: 1000, Strictness: -0.1}, true},
		{"strictness too high", RateSpec{OpsPerSec: 1000, Strictness: 1.1}, true},
		{"strictness boundary zero", RateSpec{OpsPerSec: 1000, Strictness: 0}, false},
		{"strictness boundary one", RateSpec{OpsPerSec: 1000, Strictness: 1}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.r.Validate()
			if c.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !c.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestOpNanos(t *testing.T) {
	r := RateSpec{OpsPerSec: 1000}
	if got := r.OpNanos(); got != 1_000_000 {
		t.Fatalf("OpNanos() = %d, want 1000000", got)
	}
}

func TestEquals(t *testing.T) {
	a := RateSpec{OpsPerSec: 10, Strictness: 0.5, ReportCODelay: true}
	b := RateSpec{OpsPerSec: 10, Strictness: 0.5, ReportCODelay: true}
	c := RateSpec{OpsPerSec: 10, Strictness: 0.6, ReportCODelay: true}
	if !a.Equals(b) {
		t.Fatalf("expected a.Equals(b)")
	}
	if a.Equals(c) {
		t.Fatalf("expected a not to equal c")
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in      string
		want    RateSpec
		wantErr bool
	}{
		{"1000", RateSpec{OpsPerSec: 1000, Strictness: 1.0, ReportCODelay: false}, false},
		{"1000,0.5", RateSpec{OpsPerSec: 1000, Strictness: 0.5, ReportCODelay: false}, false},
		{"1000,0.5,report", RateSpec{OpsPerSec: 1000, Strictness: 0.5, ReportCODelay: true}, false},
		{"", RateSpec{}, true},
		{"abc", RateSpec{}, true},
		{"1000,xyz", RateSpec{}, true},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			got, err := Parse(c.in)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", c.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equals(c.want) {
				t.Fatalf("Parse(%q) = %+v, want %+v", c.in, got, c.want)
			}
		})
	}
}
