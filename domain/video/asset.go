package video

// Extension is the only accepted video container extension.
const Extension = ".mp4"

// Info holds probed stream metadata for a video file.
type Info struct {
	Duration   float64 // seconds, longest stream
	HasVideo   bool
	HasAudio   bool
	VideoCodec string
	AudioCodec string
}

// Stage tracks a video job through its state machine. Probing and
// ExtractingAudio failures are terminal for the job; no partial output
// is written.
type Stage int

const (
	StageProbing Stage = iota
	StageExtractingAudio
	StageNormalizing
	StageRemuxing
	StageDone
)

// String returns the stage name for logging.
func (s Stage) String() string {
	switch s {
	case StageProbing:
		return "probing"
	case StageExtractingAudio:
		return "extracting audio"
	case StageNormalizing:
		return "normalizing"
	case StageRemuxing:
		return "remuxing"
	case StageDone:
		return "done"
	default:
		return "unknown"
	}
}
