package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCurrentStreak(t *testing.T) {
	jan1to5 := []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 2).Add(14 * time.Hour),
		day(2024, time.January, 3),
		day(2024, time.January, 3).Add(20 * time.Hour),
		day(2024, time.January, 4),
		day(2024, time.January, 5).Add(23 * time.Hour),
	}

	tests := []struct {
		name  string
		dates []time.Time
		asOf  time.Time
		want  int
	}{
		{name: "no records", dates: nil, asOf: day(2024, time.January, 5), want: 0},
		{name: "five consecutive days", dates: jan1to5, asOf: day(2024, time.January, 5), want: 5},
		{name: "as-of time of day ignored", dates: jan1to5, asOf: day(2024, time.January, 5).Add(6 * time.Hour), want: 5},
		{name: "two day gap before as-of", dates: jan1to5, asOf: day(2024, time.January, 7), want: 0},
		{name: "mid-run as-of", dates: jan1to5, asOf: day(2024, time.January, 3), want: 3},
		{
			name:  "future records ignored",
			dates: append([]time.Time{day(2024, time.January, 6), day(2024, time.January, 8)}, jan1to5...),
			asOf:  day(2024, time.January, 5),
			want:  5,
		},
		{
			name:  "gap caps the streak",
			dates: []time.Time{day(2024, time.January, 1), day(2024, time.January, 3), day(2024, time.January, 4)},
			asOf:  day(2024, time.January, 4),
			want:  2,
		},
		{
			name:  "streak crosses month boundary",
			dates: []time.Time{day(2024, time.February, 28), day(2024, time.February, 29), day(2024, time.March, 1)},
			asOf:  day(2024, time.March, 1),
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CurrentStreak(tt.dates, tt.asOf))
		})
	}
}

func TestCurrentStreak_Monotonic(t *testing.T) {
	var dates []time.Time
	asOf := day(2024, time.June, 30)
	for k := 1; k <= 40; k++ {
		dates = append(dates, asOf.AddDate(0, 0, -(k-1)))
		assert.Equal(t, k, CurrentStreak(dates, asOf))
	}
}

func TestCurrentStreak_UsesAsOfLocation(t *testing.T) {
	newYork := time.FixedZone("EST", -5*60*60)
	// 2024-01-02 03:00 UTC is still January 1st in New York.
	dates := []time.Time{time.Date(2024, time.January, 2, 3, 0, 0, 0, time.UTC)}
	assert.Equal(t, 1, CurrentStreak(dates, time.Date(2024, time.January, 1, 22, 0, 0, 0, newYork)))
	assert.Equal(t, 0, CurrentStreak(dates, time.Date(2024, time.January, 2, 22, 0, 0, 0, newYork)))
}

func TestLongestStreak(t *testing.T) {
	assert.Zero(t, LongestStreak(nil, time.UTC))
	assert.Equal(t, 1, LongestStreak([]time.Time{day(2024, time.January, 1)}, time.UTC))

	dates := []time.Time{
		day(2024, time.January, 10),
		day(2024, time.January, 1),
		day(2024, time.January, 2),
		day(2024, time.January, 2).Add(time.Hour),
		day(2024, time.January, 11),
		day(2024, time.January, 12),
		day(2024, time.January, 13),
	}
	assert.Equal(t, 4, LongestStreak(dates, time.UTC))
}

func TestLongestStreak_UsesGivenLocation(t *testing.T) {
	newYork := time.FixedZone("EST", -5*60*60)

	// 03-01 21:00, 03-02 10:00 and 03-03 10:00 in New York, stored as UTC.
	dates := []time.Time{
		time.Date(2025, time.March, 2, 2, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 2, 15, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 3, 15, 0, 0, 0, time.UTC),
	}
	asOf := time.Date(2025, time.March, 3, 12, 0, 0, 0, newYork)

	assert.Equal(t, 3, CurrentStreak(dates, asOf))
	assert.Equal(t, 3, LongestStreak(dates, newYork))
	assert.Equal(t, 2, LongestStreak(dates, time.UTC))
}
