// Package geo holds the pure geometry and GPS heuristics behind evidence
// discovery: great-circle distance, the accuracy-adaptive acceptance radius,
// and advisory spoof detection. Nothing in this package has side effects or
// shared state; everything is safe to call concurrently.
package geo

import (
	"math"
	"time"

	"github.com/mystreets/gumshoe/internal/gumshoe"
)

const earthRadiusM = 6371000.0

// Default tuning. The acceptance radius and its accuracy bonus bound how far
// a player may stand from an evidence target; the spoof thresholds flag fixes
// that no pedestrian device produces honestly.
const (
	DefaultBaseRadiusM       = 50.0
	DefaultMaxAccuracyBonusM = 20.0

	suspiciousAccuracyM = 1.0
	maxPlausibleSpeedMS = 28.0 // roughly 100 km/h
	jumpWindow          = 5 * time.Second
	jumpDistanceM       = 100.0
)

// Spoof indicator names surfaced in Validation.Flags.
const (
	FlagSuspiciousAccuracy = "suspicious_accuracy"
	FlagImpossibleMovement = "impossible_movement"
	FlagLocationJump       = "location_jump"
)

// Distance returns the great-circle distance between a and b in meters,
// using the haversine formula on a spherical earth.
func Distance(a, b gumshoe.Location) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// Validator bundles the discovery tuning. The zero value is unusable; build
// one with NewValidator. Validators are immutable.
type Validator struct {
	MaxAccuracyBonusM float64
	MaxSpeedMS        float64
	JumpWindow        time.Duration
	JumpDistanceM     float64
	MinAccuracyM      float64
}

func NewValidator() Validator {
	return Validator{
		MaxAccuracyBonusM: DefaultMaxAccuracyBonusM,
		MaxSpeedMS:        maxPlausibleSpeedMS,
		JumpWindow:        jumpWindow,
		JumpDistanceM:     jumpDistanceM,
		MinAccuracyM:      suspiciousAccuracyM,
	}
}

// EffectiveRadius widens the base acceptance radius by the reading's reported
// accuracy, bounded so a wildly inaccurate fix cannot make every target
// discoverable. A nil reading leaves the base radius unchanged.
func (v Validator) EffectiveRadius(baseRadiusM float64, reading *gumshoe.GPSReading) float64 {
	if reading == nil {
		return baseRadiusM
	}
	bonus := reading.AccuracyM
	if bonus < 0 {
		bonus = 0
	}
	if bonus > v.MaxAccuracyBonusM {
		bonus = v.MaxAccuracyBonusM
	}
	return baseRadiusM + bonus
}

// Validation is the outcome of a single discovery attempt check.
type Validation struct {
	DistanceM        float64
	EffectiveRadiusM float64
	WithinRadius     bool
	Suspicious       bool
	Flags            []string
}

// Validate measures the player's distance to the evidence target and compares
// it against the effective radius. When a reading is supplied it also runs the
// spoof heuristics, using prev as the player's previous known fix. Suspicious
// is advisory only; the caller decides policy.
func (v Validator) Validate(player gumshoe.Location, ev gumshoe.Evidence, baseRadiusM float64, reading, prev *gumshoe.GPSReading) Validation {
	out := Validation{
		DistanceM:        Distance(player, ev.Location),
		EffectiveRadiusM: v.EffectiveRadius(baseRadiusM, reading),
	}
	out.WithinRadius = out.DistanceM <= out.EffectiveRadiusM

	if reading != nil {
		out.Flags = v.SpoofFlags(reading, prev)
		out.Suspicious = len(out.Flags) > 0
	}
	return out
}

// SpoofFlags runs the spoof heuristics on a reading against the player's
// previous known fix. A nil prev skips the movement checks.
func (v Validator) SpoofFlags(reading, prev *gumshoe.GPSReading) []string {
	var flags []string

	// Consumer GPS does not report sub-meter accuracy; a fabricated fix often does.
	if reading.AccuracyM < v.MinAccuracyM {
		flags = append(flags, FlagSuspiciousAccuracy)
	}

	if prev != nil {
		dt := reading.CapturedAt.Sub(prev.CapturedAt)
		if dt > 0 {
			d := Distance(prev.Location, reading.Location)
			if d/dt.Seconds() > v.MaxSpeedMS {
				flags = append(flags, FlagImpossibleMovement)
			}
			if dt < v.JumpWindow && d > v.JumpDistanceM {
				flags = append(flags, FlagLocationJump)
			}
		}
	}
	return flags
}

// POI categories widen or narrow the advisory radius: open areas are forgiving,
// dense indoor spots are not.
var categoryRadiusModifiers = map[string]float64{
	"park":       1.5,
	"landmark":   1.3,
	"cafe":       0.8,
	"restaurant": 0.8,
	"station":    1.2,
}

// RecommendedRadius is the advisory discovery radius shown to clients while
// tracking: the base radius plus an accuracy allowance, scaled by the POI
// category and clamped to [20m, 100m]. It never affects acceptance, which is
// governed by EffectiveRadius alone.
func (v Validator) RecommendedRadius(baseRadiusM float64, reading *gumshoe.GPSReading, poiCategory string) float64 {
	r := baseRadiusM
	if reading != nil {
		factor := math.Min(2.0, reading.AccuracyM/10.0)
		r += factor * 10.0
	}
	if m, ok := categoryRadiusModifiers[poiCategory]; ok {
		r *= m
	}
	return math.Max(20.0, math.Min(100.0, r))
}

// Quality grades a reported accuracy for client display.
func Quality(accuracyM float64) string {
	switch {
	case accuracyM <= 5:
		return "excellent"
	case accuracyM <= 10:
		return "good"
	case accuracyM <= 25:
		return "fair"
	default:
		return "poor"
	}
}
