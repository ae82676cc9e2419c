package highlights

import (
	"math/rand/v2"
	"time"

	"clipwatch/internal/config"
)

// LeadIn decides how far before a detection each clip starts.
type LeadIn interface {
	LeadIn() time.Duration
}

// FixedLeadIn always returns the same offset.
type FixedLeadIn time.Duration

// LeadIn implements LeadIn.
func (f FixedLeadIn) LeadIn() time.Duration {
	return time.Duration(f)
}

// RandomLeadIn draws a uniform offset in [Min, Max] for every clip.
type RandomLeadIn struct {
	Min time.Duration
	Max time.Duration
}

// LeadIn implements LeadIn.
func (r RandomLeadIn) LeadIn() time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rand.N(r.Max-r.Min+1)
}

// LeadInFromConfig returns a random policy when lead_in_max_seconds exceeds
// lead_in_seconds, otherwise a fixed one.
func LeadInFromConfig(cfg *config.Config) LeadIn {
	minimum := seconds(cfg.Highlights.LeadInSeconds)
	maximum := seconds(cfg.Highlights.LeadInMaxSeconds)
	if maximum > minimum {
		return RandomLeadIn{Min: minimum, Max: maximum}
	}
	return FixedLeadIn(minimum)
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
