package audio

import (
	"fmt"
	"path/filepath"
)

// Asset identifies one audio item moving through the normalization pipeline.
// Measurement results are carried by the Outcome, not the asset.
type Asset struct {
	Path       string
	Family     CodecFamily
	SampleRate int
	Channels   int
	Duration   float64
}

// Name returns the asset's base filename for reporting.
func (a *Asset) Name() string {
	return filepath.Base(a.Path)
}

// OutcomeKind classifies the result of processing one asset.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSkipped
	OutcomeFailed
)

// String returns the kind name for messages.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Skip reasons for measurement skips and unsupported formats.
const (
	SkipTooShort     = "audio too short for loudness measurement"
	SkipUnmeasurable = "cannot measure loudness (silent or invalid audio)"
	SkipUnsupported  = "unsupported audio format"
)

// Outcome records what happened to exactly one asset.
type Outcome struct {
	Asset string
	Kind  OutcomeKind

	// Populated on success.
	OriginalLUFS float64
	TargetLUFS   float64
	GainDB       float64
	Duration     float64

	// Populated on skip or failure.
	Reason string
}

// Succeeded builds a success outcome from a measured and gained asset.
func Succeeded(name string, original, target, gain, duration float64) Outcome {
	return Outcome{
		Asset:        name,
		Kind:         OutcomeSuccess,
		OriginalLUFS: original,
		TargetLUFS:   target,
		GainDB:       gain,
		Duration:     duration,
	}
}

// Skipped builds a skip outcome with the given reason.
func Skipped(name, reason string) Outcome {
	return Outcome{Asset: name, Kind: OutcomeSkipped, Reason: reason}
}

// Failed builds a failure outcome from an error.
func Failed(name string, err error) Outcome {
	return Outcome{Asset: name, Kind: OutcomeFailed, Reason: err.Error()}
}

// String renders the outcome for user-facing reports, e.g.
// "narration1.mp3: -23.0 LUFS → -16.0 LUFS (+7.0 dB)".
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return fmt.Sprintf("%s: %s → %s (%s)",
			o.Asset, FormatLUFS(o.OriginalLUFS), FormatLUFS(o.TargetLUFS), FormatDB(o.GainDB))
	case OutcomeSkipped:
		return fmt.Sprintf("%s: skipped (%s)", o.Asset, o.Reason)
	default:
		return fmt.Sprintf("%s: failed (%s)", o.Asset, o.Reason)
	}
}

// FormatLUFS formats a loudness value for display.
func FormatLUFS(lufs float64) string {
	return fmt.Sprintf("%.1f LUFS", lufs)
}

// FormatDB formats a gain value for display with an explicit sign.
func FormatDB(db float64) string {
	if db > 0 {
		return fmt.Sprintf("+%.1f dB", db)
	}
	return fmt.Sprintf("%.1f dB", db)
}
