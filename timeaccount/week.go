package timeaccount

import (
	"slices"
	"strings"

	"github.com/warp/timebank/calendar"
)

// =============================================================================
// WEEK BUCKETER
// =============================================================================

// BucketByISOWeek partitions entries by the ISO week of their spent date.
// Buckets are sorted by week key; entries keep their input order.
func BucketByISOWeek(entries []TimeEntry) []WeekBucket {
	index := make(map[string]int)
	var buckets []WeekBucket
	for _, entry := range entries {
		key := entry.SpentDate.WeekKey()
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, newWeekBucket(entry.SpentDate))
		}
		buckets[i].Entries = append(buckets[i].Entries, entry)
	}
	sortBuckets(buckets)
	return buckets
}

// WeeksInRange returns an empty bucket for every ISO week that overlaps p.
func WeeksInRange(p calendar.Period) []WeekBucket {
	var buckets []WeekBucket
	for monday := p.Start.StartOfISOWeek(); monday.BeforeOrEqual(p.End); monday = monday.AddDays(7) {
		buckets = append(buckets, newWeekBucket(monday))
	}
	return buckets
}

// BucketPeriod drops entries outside p, buckets the rest, and adds empty
// buckets for weeks in p with no entries so the result covers the whole range.
func BucketPeriod(entries []TimeEntry, p calendar.Period) []WeekBucket {
	buckets := BucketByISOWeek(FilterPeriod(entries, p))

	present := make(map[string]bool, len(buckets))
	for _, b := range buckets {
		present[b.WeekKey] = true
	}
	for _, b := range WeeksInRange(p) {
		if !present[b.WeekKey] {
			buckets = append(buckets, b)
		}
	}
	sortBuckets(buckets)
	return buckets
}

// FilterPeriod returns the entries whose spent date is within p.
func FilterPeriod(entries []TimeEntry, p calendar.Period) []TimeEntry {
	var out []TimeEntry
	for _, entry := range entries {
		if p.Contains(entry.SpentDate) {
			out = append(out, entry)
		}
	}
	return out
}

func newWeekBucket(member calendar.Date) WeekBucket {
	return WeekBucket{
		WeekKey:   member.WeekKey(),
		WeekStart: member.StartOfISOWeek(),
		WeekEnd:   member.FridayOfISOWeek(),
	}
}

func sortBuckets(buckets []WeekBucket) {
	slices.SortFunc(buckets, func(a, b WeekBucket) int {
		return strings.Compare(a.WeekKey, b.WeekKey)
	})
}
