package handler

import (
	"net/http/httptest"
	"testing"
	"time"

	"parkease/internal/timepolicy"
)

func TestParseWindow(t *testing.T) {
	h := &AvailabilityHandler{policy: timepolicy.Policy{DefaultViewWindow: time.Hour}}

	tests := []struct {
		name        string
		url         string
		wantDefault bool
	}{
		{"explicit window", "/api/v1/areas/area-1/slots?start=2026-08-31T10:00:00Z&end=2026-08-31T12:00:00Z", false},
		{"no parameters", "/api/v1/areas/area-1/slots", true},
		{"missing end", "/api/v1/areas/area-1/slots?start=2026-08-31T10:00:00Z", true},
		{"unparsable start", "/api/v1/areas/area-1/slots?start=tomorrow&end=2026-08-31T12:00:00Z", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := time.Now().UTC()
			window := h.parseWindow(httptest.NewRequest("GET", tt.url, nil))

			if tt.wantDefault {
				if window.Start.Before(before) || window.Start.After(time.Now().UTC()) {
					t.Errorf("default window start = %v, want about now", window.Start)
				}
				if got := window.End.Sub(window.Start); got != time.Hour {
					t.Errorf("default window length = %v, want 1h", got)
				}
				return
			}
			wantStart := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
			wantEnd := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
			if !window.Start.Equal(wantStart) || !window.End.Equal(wantEnd) {
				t.Errorf("window = [%v, %v), want [%v, %v)", window.Start, window.End, wantStart, wantEnd)
			}
		})
	}
}
