package volume

import (
	"testing"
	"time"
)

func TestEncodeExpiry(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		ttl  uint32
		want string
	}{
		{"seven days", day("2024-01-01"), 7, "exp_20240108"},
		{"zero days", day("2024-01-01"), 0, "exp_20240101"},
		{"month rollover", day("2024-01-30"), 3, "exp_20240202"},
		{"leap day", day("2024-02-28"), 1, "exp_20240229"},
		{"year rollover", day("2023-12-31"), 1, "exp_20240101"},
		{"time of day ignored", time.Date(2024, 1, 1, 23, 59, 59, 0, time.UTC), 7, "exp_20240108"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EncodeExpiry(tt.now, tt.ttl); got != tt.want {
				t.Errorf("EncodeExpiry() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExpiryRoundTrip(t *testing.T) {
	start := time.Date(2023, 11, 5, 13, 45, 0, 0, time.UTC)
	for offset := 0; offset < 400; offset += 17 {
		now := start.AddDate(0, 0, offset).Add(time.Duration(offset) * time.Minute)
		for _, ttl := range []uint32{0, 1, 7, 30, 365} {
			label := EncodeExpiry(now, ttl)
			got, ok := DecodeExpiry(label)
			if !ok {
				t.Fatalf("DecodeExpiry(%q) failed", label)
			}
			want := TruncateDay(now).AddDate(0, 0, int(ttl))
			if !got.Equal(want) {
				t.Errorf("DecodeExpiry(EncodeExpiry(%v, %d)) = %v, want %v", now, ttl, got, want)
			}
		}
	}
}

func TestDecodeExpiryRejectsNames(t *testing.T) {
	names := []string{
		"",
		"EncryptedScratchpad",
		"taxes_2024",
		"exp",
		"exp_",
		"exp_2024010",
		"exp_202401081",
		"exp_2024o108",
		"exp_20241301",
		"exp_20240230",
		"exp_20240100",
		"EXP_20240108",
		"exp-20240108",
		"my_exp_20240108",
		"exp_20240108_backup",
		"20240108",
	}

	for _, name := range names {
		if got, ok := DecodeExpiry(name); ok {
			t.Errorf("DecodeExpiry(%q) = %v, want no expiry", name, got)
		}
	}
}

func TestExpiryEncodable(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		ttl  uint32
		want bool
	}{
		{"a week", day("2024-01-01"), 7, true},
		{"last day of 9999", day("2024-01-01"), 2_913_173, true},
		{"first day of 10000", day("2024-01-01"), 2_913_174, false},
		{"max ttl", day("2024-01-01"), ^uint32(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExpiryEncodable(tt.now, tt.ttl); got != tt.want {
				t.Fatalf("ExpiryEncodable() = %v, want %v", got, tt.want)
			}
			if !tt.want {
				return
			}
			label := EncodeExpiry(tt.now, tt.ttl)
			if _, ok := DecodeExpiry(label); !ok {
				t.Errorf("DecodeExpiry(%q) failed for an encodable expiry", label)
			}
		})
	}
}

func TestTruncateDayUsesUTC(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	local := time.Date(2024, 1, 2, 5, 0, 0, 0, zone) // 2024-01-01 19:00 UTC
	got := TruncateDay(local)
	want := day("2024-01-01")
	if !got.Equal(want) {
		t.Errorf("TruncateDay() = %v, want %v", got, want)
	}
}
