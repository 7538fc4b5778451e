package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutterguard/inventory/internal/domain"
)

func TestClassify_MonthBands(t *testing.T) {
	lead := MonthsLead(4)
	// 1 m/day is 30 m/month, so quantity/30 is months of cover.
	tests := []struct {
		metres float64
		want   domain.Status
	}{
		{0, domain.StatusCritical},
		{119.9, domain.StatusCritical},
		{120, domain.StatusOrderNow},
		{149.9, domain.StatusOrderNow},
		{150, domain.StatusLow},
		{179.9, domain.StatusLow},
		{180, domain.StatusOK},
		{10000, domain.StatusOK},
	}
	for _, tt := range tests {
		got := Classify(tt.metres, 1, lead)
		assert.Equal(t, tt.want, got.Status, "metres=%v", tt.metres)
	}
}

func TestClassify_DayBands(t *testing.T) {
	lead := DaysLead(14)
	tests := []struct {
		qty  float64
		want domain.Status
	}{
		{13, domain.StatusCritical},
		{14, domain.StatusOrderNow},
		{27, domain.StatusOrderNow},
		{28, domain.StatusLow},
		{41, domain.StatusLow},
		{42, domain.StatusOK},
	}
	for _, tt := range tests {
		got := Classify(tt.qty, 1, lead)
		assert.Equal(t, tt.want, got.Status, "qty=%v", tt.qty)
	}
}

func TestClassify_RemainingNeverNegative(t *testing.T) {
	for _, lead := range []LeadTime{MonthsLead(4), DaysLead(7)} {
		for _, q := range []float64{-10, 0, 0.001, 1, 57, 1e6} {
			for _, rate := range []float64{0.01, 0.5, 3.33, 200} {
				got := Classify(q, rate, lead)
				require.NotNil(t, got.Remaining)
				assert.GreaterOrEqual(t, *got.Remaining, 0.0)
				if q <= 0 {
					assert.Zero(t, *got.Remaining)
				} else {
					assert.Greater(t, *got.Remaining, 0.0)
				}
			}
		}
	}
}

func TestClassify_StatusMonotonicInQuantity(t *testing.T) {
	for _, lead := range []LeadTime{MonthsLead(4), MonthsLead(1.5), DaysLead(7), DaysLead(14)} {
		for _, rate := range []float64{0.1, 1, 3.33, 25} {
			prev := -1
			for q := 0.0; q <= 5000; q += 7.5 {
				rank := Classify(q, rate, lead).Status.Rank()
				require.GreaterOrEqual(t, rank, prev, "lead=%v rate=%v q=%v", lead, rate, q)
				prev = rank
			}
		}
	}
}

func TestClassify_HigherRateNeverLessUrgent(t *testing.T) {
	lead := DaysLead(7)
	for q := 0.0; q <= 500; q += 5 {
		slow := Classify(q, 1, lead).Status.Rank()
		fast := Classify(q, 2, lead).Status.Rank()
		assert.LessOrEqual(t, fast, slow, "q=%v", q)
	}
}

func TestClassify_ZeroRateIsNoUsage(t *testing.T) {
	for _, lead := range []LeadTime{MonthsLead(4), MonthsLead(0.5), DaysLead(1), DaysLead(30)} {
		for _, q := range []float64{0, 1, 1000} {
			got := Classify(q, 0, lead)
			assert.Equal(t, domain.StatusNoUsage, got.Status)
			assert.Nil(t, got.Remaining)
		}
	}
}

func TestClassify_MeshRunwayExample(t *testing.T) {
	// 20m on the shelf, 100m used over 30 days.
	got := Classify(20, 100.0/30.0, MonthsLead(4))
	require.NotNil(t, got.Remaining)
	assert.InDelta(t, 0.2, *got.Remaining, 0.001)
	assert.Equal(t, domain.StatusCritical, got.Status)
}
