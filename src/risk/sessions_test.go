package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func utcDate(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func TestCalculateSizeBySession(t *testing.T) {
	baseSize := decimal.NewFromFloat(1.0)

	cfg := SessionSizeConfig{
		AsianMultiplier:    decimal.RequireFromString("1.5"),
		LondonMultiplier:   decimal.RequireFromString("1.0"),
		OverlapMultiplier:  decimal.RequireFromString("0.7"),
		NewYorkMultiplier:  decimal.RequireFromString("0.8"),
		OffHoursMultiplier: decimal.RequireFromString("1.5"),
		MinMultiplier:      decimal.RequireFromString("0.5"),
		MaxMultiplier:      decimal.RequireFromString("2.0"),
	}

	tests := []struct {
		name        string
		at          time.Time
		wantSession Session
		wantSize    decimal.Decimal
	}{
		{
			name:        "Asian session Tuesday 02.00 UTC",
			at:          utcDate(2025, time.March, 4, 2),
			wantSession: SessionAsian,
			wantSize:    decimal.RequireFromString("1.5"),
		},
		{
			name:        "London session Tuesday 10.00 UTC",
			at:          utcDate(2025, time.March, 4, 10),
			wantSession: SessionLondon,
			wantSize:    decimal.RequireFromString("1"),
		},
		{
			name:        "London wins the Asian tail at 08.00 UTC",
			at:          utcDate(2025, time.March, 4, 8),
			wantSession: SessionLondon,
			wantSize:    decimal.RequireFromString("1"),
		},
		{
			name:        "Overlap Tuesday 14.00 UTC",
			at:          utcDate(2025, time.March, 4, 14),
			wantSession: SessionOverlap,
			wantSize:    decimal.RequireFromString("0.7"),
		},
		{
			name:        "New York Tuesday 18.00 UTC",
			at:          utcDate(2025, time.March, 4, 18),
			wantSession: SessionNewYork,
			wantSize:    decimal.RequireFromString("0.8"),
		},
		{
			name:        "Off hours Tuesday 23.00 UTC",
			at:          utcDate(2025, time.March, 4, 23),
			wantSession: SessionOffHours,
			wantSize:    decimal.RequireFromString("1.5"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSize, gotSession := CalculateSizeBySession(baseSize, tt.at, cfg)

			if gotSession != tt.wantSession {
				t.Fatalf("session mismatch. got=%s want=%s", gotSession, tt.wantSession)
			}
			if !gotSize.Equal(tt.wantSize) {
				t.Fatalf("size mismatch. got=%s want=%s", gotSize.String(), tt.wantSize.String())
			}
		})
	}
}

func TestCalculateSizeBySession_ClampsMultiplier(t *testing.T) {
	cfg := DefaultSessionSizeConfig()
	cfg.AsianMultiplier = decimal.RequireFromString("5.0")

	gotSize, gotSession := CalculateSizeBySession(decimal.NewFromFloat(1.0), utcDate(2025, time.March, 4, 2), cfg)

	if gotSession != SessionAsian {
		t.Fatalf("session mismatch. got=%s want=%s", gotSession, SessionAsian)
	}
	if !gotSize.Equal(decimal.RequireFromString("2.0")) {
		t.Fatalf("multiplier not clamped. got=%s want=2.0", gotSize.String())
	}
}

func TestCalculateSizeBySession_BaseSizeZero(t *testing.T) {
	cfg := DefaultSessionSizeConfig()

	gotSize, gotSession := CalculateSizeBySession(decimal.Zero, utcDate(2025, time.March, 4, 10), cfg)

	if !gotSize.Equal(decimal.Zero) {
		t.Fatalf("expected size zero for baseSize<=0. got=%s", gotSize.String())
	}
	if gotSession != SessionLondon {
		t.Fatalf("expected session still detected when baseSize<=0. got=%s", gotSession)
	}
}
