package overlay

import "fmt"

// Stats is the read-only performance readout: current/average frame
// rate and how many samples have accumulated into the current image.
type Stats struct {
	FrameRate        float32
	AverageFrameRate float32
	SampleCount      uint32
	MaxSamples       uint32
}

func (s Stats) String() string {
	return fmt.Sprintf("fps: %.1f (avg %.1f)\nsamples: %d / %d", s.FrameRate, s.AverageFrameRate, s.SampleCount, s.MaxSamples)
}

// Settings holds the live-tunable render parameters. Every mutator
// except SetMaxSamples calls invalidate (typically the pathtracer's
// Invalidate), since those settings change what the accumulated image
// should show.
type Settings struct {
	Bounces           uint32
	ContributionClamp float32
	ResolutionFactor  float32
	MaxSamples        uint32

	invalidate func()
}

// NewSettings seeds Settings from the pathtracer's defaults and wires
// the callback every mutator invokes.
func NewSettings(bounces uint32, contributionClamp, resolutionFactor float32, maxSamples uint32, invalidate func()) Settings {
	return Settings{
		Bounces:           bounces,
		ContributionClamp: contributionClamp,
		ResolutionFactor:  resolutionFactor,
		MaxSamples:        maxSamples,
		invalidate:        invalidate,
	}
}

func (s Settings) String() string {
	return fmt.Sprintf("bounces: %d\nclamp: %.3f\nres factor: %.2f\nmax samples: %d", s.Bounces, s.ContributionClamp, s.ResolutionFactor, s.MaxSamples)
}

// SetBounces updates the bounce budget and invalidates accumulation.
func (s *Settings) SetBounces(bounces uint32) {
	s.Bounces = bounces
	s.invalidate()
}

// SetContributionClamp updates the firefly clamp and invalidates.
func (s *Settings) SetContributionClamp(clamp float32) {
	s.ContributionClamp = clamp
	s.invalidate()
}

// SetResolutionFactor updates the output texture's scale relative to
// the surface and invalidates (the caller still needs to recreate the
// output texture separately — this only marks the image stale).
func (s *Settings) SetResolutionFactor(factor float32) {
	s.ResolutionFactor = factor
	s.invalidate()
}

// SetMaxSamples updates the accumulation cap. Raising it past the
// current sample count resumes refinement without discarding the
// image already built up, so this does not invalidate.
func (s *Settings) SetMaxSamples(maxSamples uint32) {
	s.MaxSamples = maxSamples
}
