package core

import (
	"strings"
	"time"
)

// TimestampLayout is how generation and bucket timestamps are rendered.
const TimestampLayout = "2006-01-02 15:04:05 UTC"

// CanonicalMonths fixes the calendar order of the output sequence.
var CanonicalMonths = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type (
	// MonthlyBucket accumulates the four KPI counters for one month label.
	MonthlyBucket struct {
		Month            string
		ProductionLoss   int64
		SoldComponents   int64
		DevelopmentLoss  int64
		DevelopmentGates int64
		LastUpdated      time.Time
	}

	// Totals holds one value per counter.
	Totals struct {
		ProductionLoss   int64
		SoldComponents   int64
		DevelopmentLoss  int64
		DevelopmentGates int64
	}

	// Summary is the aggregated view handed to the renderer.
	Summary struct {
		Months           []MonthlyBucket
		Total            Totals
		CurrentMonth     Totals
		CurrentMonthName string
		GeneratedAt      time.Time
	}
)

// Add accumulates the bucket counters into t, saturating at math.MaxInt64.
func (t *Totals) Add(b MonthlyBucket) {
	t.ProductionLoss = addCounter(t.ProductionLoss, b.ProductionLoss)
	t.SoldComponents = addCounter(t.SoldComponents, b.SoldComponents)
	t.DevelopmentLoss = addCounter(t.DevelopmentLoss, b.DevelopmentLoss)
	t.DevelopmentGates = addCounter(t.DevelopmentGates, b.DevelopmentGates)
}

// LastUpdated formats the generation timestamp.
func (s Summary) LastUpdated() string {
	return s.GeneratedAt.UTC().Format(TimestampLayout)
}

// CurrentMonthName returns the canonical month name for now.
func CurrentMonthName(now time.Time) string {
	return CanonicalMonths[now.Month()-1]
}

// EmptySummary is the summary produced when no data could be requested at all.
func EmptySummary(now time.Time) Summary {
	return Summary{
		Months:           []MonthlyBucket{},
		CurrentMonthName: CurrentMonthName(now),
		GeneratedAt:      now,
	}
}

// bucketSet is an insertion-ordered map of buckets keyed by exact month label.
type bucketSet struct {
	order   []string
	byLabel map[string]*MonthlyBucket
	now     time.Time
}

func newBucketSet(now time.Time) *bucketSet {
	return &bucketSet{byLabel: make(map[string]*MonthlyBucket), now: now}
}

func (s *bucketSet) get(label string) *MonthlyBucket {
	if b, ok := s.byLabel[label]; ok {
		return b
	}
	b := &MonthlyBucket{Month: label, LastUpdated: s.now}
	s.byLabel[label] = b
	s.order = append(s.order, label)
	return b
}

// withPrefix returns the buckets whose label starts with name, in first-seen order.
func (s *bucketSet) withPrefix(name string) []MonthlyBucket {
	var out []MonthlyBucket
	for _, label := range s.order {
		if strings.HasPrefix(label, name) {
			out = append(out, *s.byLabel[label])
		}
	}
	return out
}

// Aggregate folds the Production and Development records into a Summary.
//
// Buckets are keyed by exact month label and shared across both datasets.
// The output lists, for each canonical month in calendar order, every bucket
// whose label starts with that month's name; buckets matching no canonical
// month (such as UnknownMonth) are left out of the sequence and the totals.
// Current month totals cover the buckets whose label starts with the name of
// now's month.
func Aggregate(production, development []Record, now time.Time) Summary {
	set := newBucketSet(now)

	for _, r := range production {
		b := set.get(r.Month())
		b.ProductionLoss = addCounter(b.ProductionLoss, CoerceRounded(r[FieldProductionLoss]))
		b.SoldComponents = addCounter(b.SoldComponents, CoerceInt(r[FieldSoldComponents]))
	}
	for _, r := range development {
		b := set.get(r.Month())
		b.DevelopmentLoss = addCounter(b.DevelopmentLoss, CoerceRounded(r[FieldDevelopmentLoss]))
		b.DevelopmentGates = addCounter(b.DevelopmentGates, CoerceInt(r[FieldDevelopmentGates]))
	}

	current := CurrentMonthName(now)
	summary := Summary{
		Months:           make([]MonthlyBucket, 0, len(set.order)),
		CurrentMonthName: current,
		GeneratedAt:      now,
	}
	for _, name := range CanonicalMonths {
		for _, b := range set.withPrefix(name) {
			summary.Months = append(summary.Months, b)
			summary.Total.Add(b)
			if strings.HasPrefix(b.Month, current) {
				summary.CurrentMonth.Add(b)
			}
		}
	}
	return summary
}
