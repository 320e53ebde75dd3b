package models

import (
	"testing"
	"time"
)

func TestNewSession_StartsInitializedAtStepZero(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	params := validGBMParams()
	s := NewSession("sess-1", params, now)

	if s.State != StateInitialized {
		t.Errorf("expected StateInitialized, got %s", s.State)
	}
	if s.CurrentStep != 0 {
		t.Errorf("expected current_step 0, got %d", s.CurrentStep)
	}
	if s.TotalSteps != params.Steps {
		t.Errorf("expected total_steps %d, got %d", params.Steps, s.TotalSteps)
	}
	if err := s.ValidateInvariants(); err != nil {
		t.Errorf("unexpected invariant violation: %v", err)
	}
}

func TestSession_IsActive(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSession("sess-1", validGBMParams(), now)

	if !s.IsActive(now.Add(time.Minute), 30*time.Minute) {
		t.Error("fresh session should be active within TTL")
	}
	if s.IsActive(now.Add(31*time.Minute), 30*time.Minute) {
		t.Error("stale session should not be active past TTL")
	}

	s.State = StateCompleted
	if s.IsActive(now, 30*time.Minute) {
		t.Error("completed session should never be active")
	}
}

func TestValidateInvariants_CatchesInconsistentCompletion(t *testing.T) {
	now := time.Now().UTC()
	s := NewSession("sess-1", validGBMParams(), now)
	s.State = StateCompleted
	s.CurrentStep = 3 // TotalSteps is 10

	if err := s.ValidateInvariants(); !IsKind(err, KindBug) {
		t.Errorf("expected KindBug, got %v", err)
	}
}

func TestTimeFrame_StepYears(t *testing.T) {
	cases := map[TimeFrame]float64{
		TimeFrameDay:   1.0 / 252.0,
		TimeFrameHour:  1.0 / (252.0 * 6.5),
		TimeFrameMinute: 1.0 / (252.0 * 390.0),
		TimeFrameWeek:  1.0 / 52.0,
		TimeFrameMonth: 1.0 / 12.0,
	}
	for tf, want := range cases {
		if got := tf.StepYears(); got != want {
			t.Errorf("%s: got %v, want %v", tf, got, want)
		}
	}
}
