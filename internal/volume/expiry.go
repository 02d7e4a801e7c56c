package volume

import (
	"strings"
	"time"
)

// expiryPrefix marks machine generated labels. Display names go through
// SanitizeName, and names that would decode are refused by the Creator, so
// a named volume never carries this pattern.
const (
	expiryPrefix = "exp_"
	expiryLayout = "20060102"
)

// TruncateDay returns midnight UTC of the calendar day t falls on in UTC.
func TruncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// EncodeExpiry produces the label for a volume created at now that should
// live for ttlDays days.
func EncodeExpiry(now time.Time, ttlDays uint32) string {
	return FormatExpiry(TruncateDay(now).AddDate(0, 0, int(ttlDays)))
}

// lastExpiryDay is the latest day an eight digit label can carry.
var lastExpiryDay = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// ExpiryEncodable reports whether the label for (now, ttlDays) decodes
// back to its expiry.
func ExpiryEncodable(now time.Time, ttlDays uint32) bool {
	expiry := TruncateDay(now).AddDate(0, 0, int(ttlDays))
	return !expiry.After(lastExpiryDay)
}

// FormatExpiry returns the label for an absolute expiry day.
func FormatExpiry(expiry time.Time) string {
	return expiryPrefix + TruncateDay(expiry).Format(expiryLayout)
}

// DecodeExpiry returns the expiry instant embedded in label. The second
// result is false when label is not a machine generated expiry label;
// such volumes are treated as named, never as expired.
func DecodeExpiry(label string) (time.Time, bool) {
	if !strings.HasPrefix(label, expiryPrefix) {
		return time.Time{}, false
	}
	digits := label[len(expiryPrefix):]
	if len(digits) != len(expiryLayout) {
		return time.Time{}, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return time.Time{}, false
		}
	}

	t, err := time.ParseInLocation(expiryLayout, digits, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
