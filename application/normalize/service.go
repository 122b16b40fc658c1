// Package normalize implements the per-asset loudness pipeline: format
// dispatch, optional denoising, gated loudness measurement, gain
// application, and re-encoding in the source format.
package normalize

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"narration-tuner/domain/audio"
	"narration-tuner/pkg/logger"
)

// Options holds the per-run normalization parameters.
type Options struct {
	TargetLUFS      float64
	Denoise         bool
	DenoiseStrength float64
}

// Service routes each audio file to the native or bridged processing
// branch and applies the loudness pipeline in place.
type Service struct {
	meter      audio.Meter
	denoiser   audio.Denoiser
	codec      audio.Codec
	transcoder audio.Transcoder
	opts       Options
	log        *logger.Logger
}

// NewService creates a normalization service with injected ports.
func NewService(
	meter audio.Meter,
	denoiser audio.Denoiser,
	codec audio.Codec,
	transcoder audio.Transcoder,
	opts Options,
	log *logger.Logger,
) *Service {
	return &Service{
		meter:      meter,
		denoiser:   denoiser,
		codec:      codec,
		transcoder: transcoder,
		opts:       opts,
		log:        log,
	}
}

// NormalizeFile processes one audio file in place and returns its outcome.
// Failures are converted to outcomes here; they never abort the caller's
// batch.
func (s *Service) NormalizeFile(ctx context.Context, path string) audio.Outcome {
	name := filepath.Base(path)
	s.log.Info("processing", zap.String("file", name))

	family := audio.FamilyForPath(path)
	if !family.Recognized() {
		s.log.Warn("unsupported audio format", zap.String("file", name))
		return audio.Skipped(name, audio.SkipUnsupported)
	}

	var outcome audio.Outcome
	if family.Native() {
		outcome = s.normalizeNative(ctx, path, family)
	} else {
		outcome = s.normalizeBridged(ctx, path, family)
	}

	switch outcome.Kind {
	case audio.OutcomeSuccess:
		s.log.Info("normalized",
			zap.String("file", name),
			zap.String("loudness", audio.FormatLUFS(outcome.OriginalLUFS)),
			zap.String("target", audio.FormatLUFS(outcome.TargetLUFS)),
			zap.String("gain", audio.FormatDB(outcome.GainDB)))
	case audio.OutcomeSkipped:
		s.log.Warn("skipped", zap.String("file", name), zap.String("reason", outcome.Reason))
	case audio.OutcomeFailed:
		s.log.Error("failed", zap.String("file", name), zap.String("reason", outcome.Reason))
	}
	return outcome
}

// NormalizeAll processes a list of files sequentially, one outcome each.
func (s *Service) NormalizeAll(ctx context.Context, paths []string) []audio.Outcome {
	outcomes := make([]audio.Outcome, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, audio.Failed(filepath.Base(path), err))
			continue
		}
		outcomes = append(outcomes, s.NormalizeFile(ctx, path))
	}
	return outcomes
}

// normalizeNative decodes, processes, and re-encodes a file handled by the
// built-in PCM codec, writing back to the same path and format.
func (s *Service) normalizeNative(_ context.Context, path string, family audio.CodecFamily) audio.Outcome {
	name := filepath.Base(path)

	buf, err := s.codec.Decode(path)
	if err != nil {
		return audio.Failed(name, err)
	}

	asset := &audio.Asset{
		Path:       path,
		Family:     family,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels(),
		Duration:   buf.Duration(),
	}

	processed, outcome, ok := s.processPCM(asset, buf)
	if !ok {
		// Measurement skip: the file is left untouched.
		return outcome
	}

	if err := s.codec.Encode(path, processed); err != nil {
		return audio.Failed(name, err)
	}
	return outcome
}

// normalizeBridged round-trips a compressed file through the external
// transcoder: decode to intermediate WAV, process, encode back to the
// original codec family at the same path.
func (s *Service) normalizeBridged(ctx context.Context, path string, family audio.CodecFamily) audio.Outcome {
	name := filepath.Base(path)

	tmp, err := os.CreateTemp(filepath.Dir(path), "bridge-*.wav")
	if err != nil {
		return audio.Failed(name, fmt.Errorf("failed to create intermediate file: %w", err))
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := s.transcoder.ToWAV(ctx, path, tmpPath); err != nil {
		return audio.Failed(name, err)
	}

	buf, err := s.codec.Decode(tmpPath)
	if err != nil {
		return audio.Failed(name, err)
	}

	asset := &audio.Asset{
		Path:       path,
		Family:     family,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels(),
		Duration:   buf.Duration(),
	}

	processed, outcome, ok := s.processPCM(asset, buf)
	if !ok {
		// Measurement skip: no re-encode, the original entry is untouched.
		return outcome
	}

	if err := s.codec.Encode(tmpPath, processed); err != nil {
		return audio.Failed(name, err)
	}
	if err := s.transcoder.FromWAV(ctx, tmpPath, path, family); err != nil {
		return audio.Failed(name, err)
	}
	return outcome
}

// processPCM runs the shared PCM pipeline: duration gate, optional
// denoise, loudness measurement, gain. Returns ok=false when the asset
// was skipped; the returned outcome is then the skip.
func (s *Service) processPCM(asset *audio.Asset, buf *audio.Buffer) (*audio.Buffer, audio.Outcome, bool) {
	name := asset.Name()

	if asset.Duration < audio.MinMeasurableSeconds {
		s.log.Warn("audio too short for measurement",
			zap.String("file", name),
			zap.Float64("seconds", asset.Duration))
		return nil, audio.Skipped(name, audio.SkipTooShort), false
	}

	if s.opts.Denoise {
		s.log.Debug("applying denoising",
			zap.String("file", name),
			zap.Float64("strength", s.opts.DenoiseStrength))
		reduced, err := s.denoiser.Reduce(buf, s.opts.DenoiseStrength)
		if err != nil {
			// Denoising is best-effort: fall back to the original audio.
			s.log.Warn("denoising failed, continuing without it",
				zap.String("file", name), zap.Error(err))
		} else {
			buf = reduced
		}
	}

	loudness := s.meter.Measure(buf)
	if math.IsInf(loudness, -1) || math.IsNaN(loudness) {
		return nil, audio.Skipped(name, audio.SkipUnmeasurable), false
	}

	gain := s.opts.TargetLUFS - loudness
	buf.ApplyGain(gain)
	if math.Abs(gain) > 20 {
		s.log.Info("extreme gain applied", zap.String("file", name), zap.String("gain", audio.FormatDB(gain)))
	}

	return buf, audio.Succeeded(name, loudness, s.opts.TargetLUFS, gain, asset.Duration), true
}
