package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/numeric"
)

// Bucket is the time grain of UsageByPeriod.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// ParseBucket falls back to daily buckets for anything unrecognised.
func ParseBucket(s string) Bucket {
	switch Bucket(strings.ToLower(strings.TrimSpace(s))) {
	case BucketWeek:
		return BucketWeek
	case BucketMonth:
		return BucketMonth
	default:
		return BucketDay
	}
}

// Key formats t into the bucket label. Weeks are numbered Monday-first;
// days before the first Monday of the year fall in week 00.
func (b Bucket) Key(t time.Time) string {
	switch b {
	case BucketWeek:
		yday := t.YearDay() - 1
		mondayIndex := (int(t.Weekday()) + 6) % 7
		week := (yday + 7 - mondayIndex) / 7
		return fmt.Sprintf("%d-W%02d", t.Year(), week)
	case BucketMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// UsageAnalytics aggregates the mesh usage log. It holds no state beyond the
// clock; every call works on the events it is given.
type UsageAnalytics struct {
	now func() time.Time
}

func New(now func() time.Time) *UsageAnalytics {
	if now == nil {
		now = time.Now
	}
	return &UsageAnalytics{now: now}
}

// Since returns the cutoff for a trailing window of days.
func (a *UsageAnalytics) Since(days int) time.Time {
	return a.now().AddDate(0, 0, -days)
}

func (a *UsageAnalytics) window(events []domain.UsageEvent, days int) []domain.UsageEvent {
	if days <= 0 {
		return nil
	}
	cutoff := a.Since(days)
	out := make([]domain.UsageEvent, 0, len(events))
	for _, e := range events {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// UsageByPeriod sums metres per bucket over the trailing window, ordered by
// bucket key.
func (a *UsageAnalytics) UsageByPeriod(events []domain.UsageEvent, days int, bucket Bucket) []domain.PeriodUsage {
	totals := make(map[string]float64)
	for _, e := range a.window(events, days) {
		totals[bucket.Key(e.Date)] += e.Metres()
	}

	out := make([]domain.PeriodUsage, 0, len(totals))
	for k, m := range totals {
		out = append(out, domain.PeriodUsage{Period: k, Metres: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// UsageByProduct groups the window by (type, width, colour), heaviest first.
// Products with equal metres keep the order they first appeared in the log.
func (a *UsageAnalytics) UsageByProduct(events []domain.UsageEvent, days int) []domain.ProductUsage {
	windowed := a.window(events, days)
	if len(windowed) == 0 {
		return []domain.ProductUsage{}
	}

	index := make(map[domain.ProductKey]int)
	var out []domain.ProductUsage
	for _, e := range windowed {
		key := e.Product()
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, domain.ProductUsage{MeshType: key.MeshType, WidthMM: key.WidthMM, Colour: key.Colour})
		}
		out[i].Rolls += e.Quantity
		out[i].Metres += e.Metres()
	}

	for i := range out {
		out[i].AvgDailyMetres = numeric.Round(out[i].Metres/float64(days), 2)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Metres > out[j].Metres })
	return out
}

// TotalMetres is the raw metre sum over the window.
func (a *UsageAnalytics) TotalMetres(events []domain.UsageEvent, days int) float64 {
	total := 0.0
	for _, e := range a.window(events, days) {
		total += e.Metres()
	}
	return total
}

// DailyRates returns unrounded metres per day for every product with usage
// in the window.
func (a *UsageAnalytics) DailyRates(events []domain.UsageEvent, days int) map[domain.ProductKey]float64 {
	rates := make(map[domain.ProductKey]float64)
	for _, e := range a.window(events, days) {
		rates[e.Product()] += e.Metres()
	}
	for k := range rates {
		rates[k] /= float64(days)
	}
	return rates
}
