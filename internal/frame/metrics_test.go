package frame

import (
	"testing"
	"time"
)

func TestFirstTickEstablishesBaselineOnly(t *testing.T) {
	var m Metrics
	m.Tick()
	if m.CurrentFrameTime() != 0 {
		t.Fatalf("expected zero frame time before a second tick, got %v", m.CurrentFrameTime())
	}
	if m.AverageFrameRate() != 0 {
		t.Fatalf("expected zero average frame rate before any sample, got %v", m.AverageFrameRate())
	}
}

func TestTickAccumulatesRollingAverage(t *testing.T) {
	var m Metrics
	m.lastFrame = time.Now().Add(-10 * time.Millisecond)
	m.Tick()
	if m.CurrentFrameTime() <= 0 {
		t.Fatal("expected a positive frame time after two ticks")
	}
	if m.AverageFrameTime() != m.CurrentFrameTime() {
		t.Fatalf("expected average to equal the single sample so far, got avg=%v curr=%v", m.AverageFrameTime(), m.CurrentFrameTime())
	}
}

func TestPauseResetsBaselineWithoutCountingASample(t *testing.T) {
	var m Metrics
	m.lastFrame = time.Now().Add(-10 * time.Millisecond)
	m.Tick()
	before := m.frameCount

	m.Pause()
	m.Tick() // re-establishes baseline only, no sample

	if m.frameCount != before {
		t.Fatalf("expected Pause+Tick to add no sample, frameCount went from %d to %d", before, m.frameCount)
	}
}

func TestBufferEvictsOldestSampleOnceFull(t *testing.T) {
	var m Metrics
	m.lastFrame = time.Now()
	for i := 0; i < bufferSize+10; i++ {
		m.lastFrame = m.lastFrame.Add(-time.Millisecond)
		m.Tick()
	}
	if m.frameCount != bufferSize {
		t.Fatalf("expected frameCount to cap at %d, got %d", bufferSize, m.frameCount)
	}
}
