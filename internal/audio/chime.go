package audio

import (
	"math"
	"time"

	"github.com/NorthPierLabs/weathernow/internal/announce"
	"go.uber.org/zap"
)

// Waveform names an oscillator shape.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveTriangle Waveform = "triangle"
	WaveSawtooth Waveform = "sawtooth"
)

// Tone is one note of a chime: an oscillator burst at a fixed frequency,
// starting at Start relative to the pattern and lasting Duration.
type Tone struct {
	Frequency float64
	Start     time.Duration
	Duration  time.Duration
	Waveform  Waveform
}

// Pattern is an ordered sequence of tones.
type Pattern []Tone

const (
	chimePeakGain  = 0.25
	chimeFloorGain = 0.001
	chimeAttack    = 10 * time.Millisecond
)

// ChimePattern returns the alert chime for an announcement type. The three
// patterns are tuned to be audibly distinct: a soft two-note sine for info,
// a three-note triangle for warnings and a rapid sawtooth alternation for
// emergencies.
func ChimePattern(announcementType announce.Type) Pattern {
	switch announcementType {
	case announce.TypeWarning:
		return Pattern{
			{Frequency: 440, Duration: 150 * time.Millisecond, Start: 0, Waveform: WaveTriangle},
			{Frequency: 554, Duration: 150 * time.Millisecond, Start: 180 * time.Millisecond, Waveform: WaveTriangle},
			{Frequency: 440, Duration: 250 * time.Millisecond, Start: 360 * time.Millisecond, Waveform: WaveTriangle},
		}
	case announce.TypeEmergency:
		return Pattern{
			{Frequency: 900, Duration: 90 * time.Millisecond, Start: 0, Waveform: WaveSawtooth},
			{Frequency: 1350, Duration: 90 * time.Millisecond, Start: 110 * time.Millisecond, Waveform: WaveSawtooth},
			{Frequency: 900, Duration: 90 * time.Millisecond, Start: 220 * time.Millisecond, Waveform: WaveSawtooth},
			{Frequency: 1350, Duration: 90 * time.Millisecond, Start: 330 * time.Millisecond, Waveform: WaveSawtooth},
			{Frequency: 900, Duration: 90 * time.Millisecond, Start: 440 * time.Millisecond, Waveform: WaveSawtooth},
			{Frequency: 1350, Duration: 220 * time.Millisecond, Start: 550 * time.Millisecond, Waveform: WaveSawtooth},
		}
	default:
		return Pattern{
			{Frequency: 880, Duration: 120 * time.Millisecond, Start: 0, Waveform: WaveSine},
			{Frequency: 1047, Duration: 180 * time.Millisecond, Start: 140 * time.Millisecond, Waveform: WaveSine},
		}
	}
}

// Render synthesizes a pattern into mono PCM samples. Each tone ramps
// linearly to peak gain over 10ms and decays exponentially to near silence
// by its end, which avoids clicks at tone boundaries.
func Render(pattern Pattern, sampleRate int) []float32 {
	if sampleRate <= 0 || len(pattern) == 0 {
		return nil
	}

	var total time.Duration
	for _, tone := range pattern {
		if end := tone.Start + tone.Duration; end > total {
			total = end
		}
	}

	samples := make([]float32, int(total.Seconds()*float64(sampleRate))+1)
	for _, tone := range pattern {
		mixTone(samples, tone, sampleRate)
	}
	for i, sample := range samples {
		if sample > 1 {
			samples[i] = 1
		} else if sample < -1 {
			samples[i] = -1
		}
	}
	return samples
}

func mixTone(samples []float32, tone Tone, sampleRate int) {
	start := int(tone.Start.Seconds() * float64(sampleRate))
	count := int(tone.Duration.Seconds() * float64(sampleRate))
	attack := chimeAttack.Seconds()
	duration := tone.Duration.Seconds()

	for i := 0; i < count && start+i < len(samples); i++ {
		elapsed := float64(i) / float64(sampleRate)
		samples[start+i] += float32(envelope(elapsed, attack, duration) * oscillate(tone.Waveform, tone.Frequency, elapsed))
	}
}

func envelope(elapsed, attack, duration float64) float64 {
	if elapsed < attack {
		return chimePeakGain * elapsed / attack
	}
	if duration <= attack {
		return chimePeakGain
	}
	progress := (elapsed - attack) / (duration - attack)
	return chimePeakGain * math.Pow(chimeFloorGain/chimePeakGain, progress)
}

func oscillate(waveform Waveform, frequency, elapsed float64) float64 {
	phase := frequency * elapsed
	switch waveform {
	case WaveTriangle:
		return 2 / math.Pi * math.Asin(math.Sin(2*math.Pi*phase))
	case WaveSawtooth:
		return 2 * (phase - math.Floor(phase+0.5))
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

// SamplePlayer plays rendered PCM on an output device.
type SamplePlayer interface {
	Play(samples []float32, sampleRate int) error
}

// Chimer plays the alert chime for an announcement type.
type Chimer interface {
	Chime(announcementType announce.Type)
}

// Synth renders chime patterns and plays them through a SamplePlayer.
type Synth struct {
	player     SamplePlayer
	sampleRate int
	logger     *zap.Logger
}

// DefaultSampleRate is used when a Synth is constructed with a non-positive rate.
const DefaultSampleRate = 44100

// NewSynth constructs a Synth for the given output device.
func NewSynth(player SamplePlayer, sampleRate int, logger *zap.Logger) *Synth {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synth{player: player, sampleRate: sampleRate, logger: logger}
}

// Chime synthesizes and plays the pattern for the given type. Playback
// failures are logged, not propagated; a missing chime never blocks delivery.
func (s *Synth) Chime(announcementType announce.Type) {
	if s.player == nil {
		return
	}
	samples := Render(ChimePattern(announcementType), s.sampleRate)
	if err := s.player.Play(samples, s.sampleRate); err != nil {
		s.logger.Warn("chime playback failed", zap.String("type", string(announcementType)), zap.Error(err))
	}
}

// NopChimer is a Chimer for deployments without an audio output.
type NopChimer struct{}

// Chime implements Chimer as a no-op.
func (NopChimer) Chime(announce.Type) {}
