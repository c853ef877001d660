package scoring

import (
	"math"
	"testing"

	"github.com/jordanlambrecht/timelapser-v4-sub005/pkg/models"
)

func floatPtr(v float64) *float64 {
	return &v
}

func TestCalculate_WeightedCombination(t *testing.T) {
	calc := NewScoreCalculator(DefaultCorruptionSettings())

	tests := []struct {
		name            string
		fast            float64
		heavy           *float64
		degraded        bool
		consecutive     int
		wantFinal       float64
		wantCorrupted   bool
		wantAutoDiscard bool
	}{
		{
			name:            "weighted fast and heavy",
			fast:            60,
			heavy:           floatPtr(40),
			wantFinal:       54.0,
			wantCorrupted:   true,
			wantAutoDiscard: false,
		},
		{
			name:            "fast only",
			fast:            90,
			wantFinal:       90.0,
			wantCorrupted:   true,
			wantAutoDiscard: true,
		},
		{
			name:            "penalties applied after base",
			fast:            20,
			heavy:           floatPtr(10),
			degraded:        true,
			consecutive:     3,
			wantFinal:       42.0,
			wantCorrupted:   false,
			wantAutoDiscard: false,
		},
		{
			name:            "consecutive failure penalty is capped",
			fast:            0,
			heavy:           floatPtr(0),
			degraded:        true,
			consecutive:     10,
			wantFinal:       30.0,
			wantCorrupted:   false,
			wantAutoDiscard: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calc.Calculate(tt.fast, tt.heavy, tt.degraded, tt.consecutive)

			if math.Abs(result.FinalScore-tt.wantFinal) > 1e-9 {
				t.Errorf("Expected final score %v, got %v", tt.wantFinal, result.FinalScore)
			}
			if result.IsCorrupted != tt.wantCorrupted {
				t.Errorf("Expected is_corrupted=%v, got %v", tt.wantCorrupted, result.IsCorrupted)
			}
			if result.ShouldAutoDiscard != tt.wantAutoDiscard {
				t.Errorf("Expected should_auto_discard=%v, got %v", tt.wantAutoDiscard, result.ShouldAutoDiscard)
			}
		})
	}
}

func TestCalculate_Bounds(t *testing.T) {
	calc := NewScoreCalculator(DefaultCorruptionSettings())

	for _, fast := range []float64{0, 10, 50, 75, 100} {
		for _, heavy := range []*float64{nil, floatPtr(0), floatPtr(100)} {
			for _, consecutive := range []int{0, 5, 100} {
				result := calc.Calculate(fast, heavy, true, consecutive)
				if result.FinalScore < 0 || result.FinalScore > 100 {
					t.Errorf("Final score %v out of bounds for fast=%v", result.FinalScore, fast)
				}
			}
		}
	}
}

func TestCalculate_ThresholdMonotonicity(t *testing.T) {
	settings := DefaultCorruptionSettings()
	calc := NewScoreCalculator(settings)

	// should_auto_discard must always imply is_corrupted since
	// auto_discard_threshold >= corruption_score_threshold
	for fast := 0.0; fast <= 100.0; fast += 1.0 {
		result := calc.Calculate(fast, nil, false, 0)

		wantCorrupted := result.FinalScore >= settings.CorruptionScoreThreshold
		if result.IsCorrupted != wantCorrupted {
			t.Errorf("is_corrupted mismatch at score %v", result.FinalScore)
		}
		if result.ShouldAutoDiscard && !result.IsCorrupted {
			t.Errorf("auto-discard without corruption at score %v", result.FinalScore)
		}
	}
}

func TestCalculate_Determinism(t *testing.T) {
	calc := NewScoreCalculator(DefaultCorruptionSettings())

	first := calc.Calculate(63.5, floatPtr(22.0), true, 4)
	second := calc.Calculate(63.5, floatPtr(22.0), true, 4)

	if first != second {
		t.Errorf("Expected identical results, got %+v and %+v", first, second)
	}
}

func TestCalculate_NonFiniteInputFailsSafe(t *testing.T) {
	calc := NewScoreCalculator(DefaultCorruptionSettings())

	for _, fast := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		result := calc.Calculate(fast, nil, false, 0)
		if result.FinalScore != 100 || !result.IsCorrupted || !result.ShouldAutoDiscard {
			t.Errorf("Expected fail-safe result for fast=%v, got %+v", fast, result)
		}
		if !result.Details.FailSafeTriggered {
			t.Error("Expected fail-safe flag in details")
		}
	}
}

func TestQualityLevel(t *testing.T) {
	calc := NewScoreCalculator(DefaultCorruptionSettings())

	tests := []struct {
		fast float64
		want models.QualityLevel
	}{
		{95, models.QualitySeverelyCorrupted},
		{75, models.QualitySeverelyCorrupted},
		{60, models.QualityCorrupted},
		{30, models.QualityQuestionable},
		{15, models.QualityGood},
		{5, models.QualityExcellent},
	}

	for _, tt := range tests {
		result := calc.Calculate(tt.fast, nil, false, 0)
		if result.QualityLevel != tt.want {
			t.Errorf("Expected quality %q for score %v, got %q", tt.want, result.FinalScore, result.QualityLevel)
		}
	}
}

func TestFailSafeResult(t *testing.T) {
	calc := NewScoreCalculator(DefaultCorruptionSettings())

	result := calc.FailSafeResult("scoring exploded")
	if result.FinalScore != 100 || !result.IsCorrupted || !result.ShouldAutoDiscard {
		t.Errorf("Expected maximally corrupted fail-safe result, got %+v", result)
	}
	if result.Details.FailSafeReason != "scoring exploded" {
		t.Errorf("Expected fail-safe reason to be preserved, got %q", result.Details.FailSafeReason)
	}
}
