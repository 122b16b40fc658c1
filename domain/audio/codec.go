package audio

import (
	"path/filepath"
	"strings"
)

// CodecFamily enumerates the audio codec families the pipeline understands.
// A family is either native (decoded and encoded by the built-in PCM codec)
// or bridged (round-tripped through the external transcoder).
type CodecFamily int

const (
	CodecUnknown CodecFamily = iota
	CodecWAV
	CodecMP3
	CodecM4A
	CodecWMA
	CodecAAC
	CodecFLAC
	CodecOGG
)

var familyByExt = map[string]CodecFamily{
	".wav":  CodecWAV,
	".mp3":  CodecMP3,
	".m4a":  CodecM4A,
	".wma":  CodecWMA,
	".aac":  CodecAAC,
	".flac": CodecFLAC,
	".ogg":  CodecOGG,
}

// FamilyForPath determines the codec family from a file's extension.
// Returns CodecUnknown for unrecognized extensions.
func FamilyForPath(path string) CodecFamily {
	ext := strings.ToLower(filepath.Ext(path))
	return familyByExt[ext]
}

// Recognized returns true if the family is one of the supported audio formats.
func (c CodecFamily) Recognized() bool {
	return c != CodecUnknown
}

// Native returns true if the family can be decoded and encoded by the
// built-in PCM codec without the external transcoder.
func (c CodecFamily) Native() bool {
	return c == CodecWAV
}

// String returns the lowercase format name (e.g. "wav", "mp3").
func (c CodecFamily) String() string {
	switch c {
	case CodecWAV:
		return "wav"
	case CodecMP3:
		return "mp3"
	case CodecM4A:
		return "m4a"
	case CodecWMA:
		return "wma"
	case CodecAAC:
		return "aac"
	case CodecFLAC:
		return "flac"
	case CodecOGG:
		return "ogg"
	default:
		return "unknown"
	}
}
