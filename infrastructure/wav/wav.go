// Package wav implements the built-in RIFF/WAVE PCM codec: the native
// decode/encode path of the pipeline and the intermediate representation
// for bridged formats.
package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"narration-tuner/domain/audio"
)

const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

// Codec reads and writes WAV files with 16/24/32-bit integer or 32-bit
// float samples, preserving the source sample format on re-encode.
type Codec struct{}

// NewCodec creates the WAV codec.
func NewCodec() *Codec {
	return &Codec{}
}

// Decode reads a WAV file into a planar float64 buffer scaled to [-1, 1].
func (c *Codec) Decode(path string) (*audio.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()
	return decode(f, path)
}

// Encode writes the buffer to path in the buffer's source sample format.
// Samples outside full scale clip during integer conversion.
func (c *Codec) Encode(path string, buf *audio.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}
	if err := encode(f, buf); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Ensure Codec implements audio.Codec
var _ audio.Codec = (*Codec)(nil)

type fmtChunk struct {
	audioFormat   uint16
	channels      uint16
	sampleRate    uint32
	bitsPerSample uint16
}

func decode(r io.Reader, path string) (*audio.Buffer, error) {
	var header [12]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("not a wav file %s: %w", path, err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a wav file: %s", path)
	}

	var format *fmtChunk
	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(r, chunkHeader[:]); err != nil {
			return nil, fmt.Errorf("missing data chunk in %s: %w", path, err)
		}
		chunkID := string(chunkHeader[0:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch chunkID {
		case "fmt ":
			raw := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, fmt.Errorf("truncated fmt chunk in %s: %w", path, err)
			}
			fc, err := parseFmt(raw, path)
			if err != nil {
				return nil, err
			}
			format = fc
		case "data":
			if format == nil {
				return nil, fmt.Errorf("data chunk before fmt chunk in %s", path)
			}
			raw := make([]byte, chunkSize)
			if _, err := io.ReadFull(r, raw); err != nil {
				return nil, fmt.Errorf("truncated data chunk in %s: %w", path, err)
			}
			return samplesFromData(raw, format, path)
		default:
			// Skip unknown chunks, padded to an even byte count.
			skip := int64(chunkSize)
			if chunkSize%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("truncated %q chunk in %s: %w", chunkID, path, err)
			}
		}
	}
}

func parseFmt(raw []byte, path string) (*fmtChunk, error) {
	if len(raw) < 16 {
		return nil, fmt.Errorf("fmt chunk too small in %s", path)
	}
	fc := &fmtChunk{
		audioFormat:   binary.LittleEndian.Uint16(raw[0:2]),
		channels:      binary.LittleEndian.Uint16(raw[2:4]),
		sampleRate:    binary.LittleEndian.Uint32(raw[4:8]),
		bitsPerSample: binary.LittleEndian.Uint16(raw[14:16]),
	}
	if fc.audioFormat == formatExtensible {
		// WAVE_FORMAT_EXTENSIBLE carries the real format in the first two
		// bytes of the SubFormat GUID.
		if len(raw) < 26 {
			return nil, fmt.Errorf("extensible fmt chunk too small in %s", path)
		}
		fc.audioFormat = binary.LittleEndian.Uint16(raw[24:26])
	}
	if fc.channels == 0 || fc.sampleRate == 0 {
		return nil, fmt.Errorf("invalid wav format parameters in %s", path)
	}
	return fc, nil
}

func samplesFromData(raw []byte, fc *fmtChunk, path string) (*audio.Buffer, error) {
	channels := int(fc.channels)
	bytesPerSample := int(fc.bitsPerSample) / 8
	if bytesPerSample == 0 {
		return nil, fmt.Errorf("invalid bit depth %d in %s", fc.bitsPerSample, path)
	}
	frames := len(raw) / (bytesPerSample * channels)

	buf := audio.NewBuffer(int(fc.sampleRate), channels, frames)

	switch {
	case fc.audioFormat == formatPCM && fc.bitsPerSample == 16:
		buf.Format = audio.FormatPCM16
		for i := 0; i < frames; i++ {
			for ch := 0; ch < channels; ch++ {
				off := (i*channels + ch) * 2
				v := int16(binary.LittleEndian.Uint16(raw[off:]))
				buf.Samples[ch][i] = float64(v) / 32768.0
			}
		}
	case fc.audioFormat == formatPCM && fc.bitsPerSample == 24:
		buf.Format = audio.FormatPCM24
		for i := 0; i < frames; i++ {
			for ch := 0; ch < channels; ch++ {
				off := (i*channels + ch) * 3
				v := int32(raw[off]) | int32(raw[off+1])<<8 | int32(raw[off+2])<<16
				if v&0x800000 != 0 {
					v |= ^int32(0xFFFFFF) // sign extend
				}
				buf.Samples[ch][i] = float64(v) / 8388608.0
			}
		}
	case fc.audioFormat == formatPCM && fc.bitsPerSample == 32:
		buf.Format = audio.FormatPCM32
		for i := 0; i < frames; i++ {
			for ch := 0; ch < channels; ch++ {
				off := (i*channels + ch) * 4
				v := int32(binary.LittleEndian.Uint32(raw[off:]))
				buf.Samples[ch][i] = float64(v) / 2147483648.0
			}
		}
	case fc.audioFormat == formatIEEEFloat && fc.bitsPerSample == 32:
		buf.Format = audio.FormatFloat32
		for i := 0; i < frames; i++ {
			for ch := 0; ch < channels; ch++ {
				off := (i*channels + ch) * 4
				bits := binary.LittleEndian.Uint32(raw[off:])
				buf.Samples[ch][i] = float64(math.Float32frombits(bits))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported wav sample format %d/%d-bit in %s",
			fc.audioFormat, fc.bitsPerSample, path)
	}
	return buf, nil
}

func encode(w io.Writer, buf *audio.Buffer) error {
	channels := buf.Channels()
	frames := buf.Frames()

	var audioFormat uint16 = formatPCM
	var bits uint16
	switch buf.Format {
	case audio.FormatPCM16:
		bits = 16
	case audio.FormatPCM24:
		bits = 24
	case audio.FormatPCM32:
		bits = 32
	case audio.FormatFloat32:
		audioFormat = formatIEEEFloat
		bits = 32
	default:
		return fmt.Errorf("unsupported sample format %d", buf.Format)
	}

	bytesPerSample := int(bits) / 8
	blockAlign := channels * bytesPerSample
	dataSize := frames * blockAlign

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], audioFormat)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(buf.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(buf.SampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bits)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write wav header: %w", err)
	}

	data := make([]byte, dataSize)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * bytesPerSample
			v := buf.Samples[ch][i]
			switch buf.Format {
			case audio.FormatPCM16:
				binary.LittleEndian.PutUint16(data[off:], uint16(clampInt(v, 32767)))
			case audio.FormatPCM24:
				s := clampInt(v, 8388607)
				data[off] = byte(s)
				data[off+1] = byte(s >> 8)
				data[off+2] = byte(s >> 16)
			case audio.FormatPCM32:
				binary.LittleEndian.PutUint32(data[off:], uint32(clampInt(v, 2147483647)))
			case audio.FormatFloat32:
				binary.LittleEndian.PutUint32(data[off:], math.Float32bits(float32(v)))
			}
		}
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write wav data: %w", err)
	}
	return nil
}

// clampInt converts a full-scale float sample to a signed integer with the
// given positive maximum, saturating at the integer range bounds.
func clampInt(v float64, max int32) int32 {
	scaled := v * (float64(max) + 1)
	if scaled > float64(max) {
		return max
	}
	if scaled < -(float64(max) + 1) {
		return -max - 1
	}
	return int32(scaled)
}
