package pixfx

import "errors"

// Outcome tells whether an [Effect] modified its surface and, if not, why.
type Outcome uint8

const (
	// OutcomeApplied means the effect was written to the surface.
	OutcomeApplied Outcome = iota
	// OutcomeEmptyRegion means the region had zero area. The surface was not accessed.
	OutcomeEmptyRegion
	// OutcomeInvalidRegion means the region had a negative side. The surface was not accessed.
	OutcomeInvalidRegion
	// OutcomeAccessDenied means the surface refused pixel access with [ErrPixelAccessDenied].
	OutcomeAccessDenied
	// OutcomeAccessFailed means reading, processing or writing pixels failed for another reason.
	OutcomeAccessFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "applied"
	case OutcomeEmptyRegion:
		return "empty region"
	case OutcomeInvalidRegion:
		return "invalid region"
	case OutcomeAccessDenied:
		return "access denied"
	case OutcomeAccessFailed:
		return "access failed"
	default:
		return "unknown"
	}
}

// Result is returned by [Effect.Render]. A Result that did not apply is a no-op:
// the surface is left exactly as it was before the call.
type Result struct {
	Outcome Outcome
	// Err is the cause of a skipped render. It is nil for applied and empty renders.
	Err error
}

// Applied reports whether the surface was modified.
func (r Result) Applied() bool { return r.Outcome == OutcomeApplied }

// Applied returns the result of a render that modified its surface.
func Applied() Result { return Result{Outcome: OutcomeApplied} }

// Skipped classifies err into the [Result] of a render that left its surface untouched.
// A nil err yields [OutcomeEmptyRegion].
func Skipped(err error) Result {
	var o Outcome
	switch {
	case err == nil:
		o = OutcomeEmptyRegion
	case errors.Is(err, ErrInvalidRegion):
		o = OutcomeInvalidRegion
	case errors.Is(err, ErrPixelAccessDenied):
		o = OutcomeAccessDenied
	default:
		o = OutcomeAccessFailed
	}
	return Result{Outcome: o, Err: err}
}
