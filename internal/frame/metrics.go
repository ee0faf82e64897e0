// Package frame tracks per-frame timing and drives one render-loop
// iteration at a time: sync the camera, dispatch a sample, blit, and
// present, classifying swapchain acquisition failures the way the
// surface wants them handled. Pumping window events is left to the
// caller.
package frame

import "time"

// bufferSize is the rolling window the average frame rate is computed
// over — about 7 seconds at 60fps, long enough to smooth a GC pause
// without hiding a sustained regression.
const bufferSize = 420

// Metrics tracks instantaneous and rolling-average frame time. Zero
// value is ready to use; the first Tick only establishes a baseline
// and contributes no sample (there's no prior frame to measure from).
type Metrics struct {
	lastFrame      time.Time
	currFrameTime  time.Duration
	timeSinceStart time.Duration

	buffer     [bufferSize]time.Duration
	index      int
	frameCount int
	summedTime time.Duration
}

// Tick records the time elapsed since the previous Tick, folding it
// into the rolling sum and evicting the oldest sample once the buffer
// is full.
func (m *Metrics) Tick() {
	now := time.Now()
	if m.lastFrame.IsZero() {
		m.lastFrame = now
		return
	}

	m.currFrameTime = now.Sub(m.lastFrame)
	m.lastFrame = now
	m.timeSinceStart += m.currFrameTime

	m.summedTime += m.currFrameTime
	if m.frameCount < bufferSize {
		m.frameCount++
	} else {
		m.summedTime -= m.buffer[m.index]
	}
	m.buffer[m.index] = m.currFrameTime
	m.index = (m.index + 1) % bufferSize
}

// Pause discards the baseline so the next Tick doesn't count the
// paused interval as a frame — call this when the window is minimized
// or dragging a resize, where "no frame happened" is more accurate
// than "one enormous frame happened".
func (m *Metrics) Pause() {
	m.lastFrame = time.Time{}
}

// TimeSinceStart returns the cumulative, non-paused wall-clock time
// Tick has observed.
func (m *Metrics) TimeSinceStart() time.Duration { return m.timeSinceStart }

// CurrentFrameTime returns the most recent Tick's duration.
func (m *Metrics) CurrentFrameTime() time.Duration { return m.currFrameTime }

// AverageFrameTime returns the rolling average over the buffer, or
// zero before the first sample lands.
func (m *Metrics) AverageFrameTime() time.Duration {
	if m.frameCount == 0 {
		return 0
	}
	return m.summedTime / time.Duration(m.frameCount)
}

// CurrentFrameRate returns 1/CurrentFrameTime, or zero if no frame has
// been timed yet.
func (m *Metrics) CurrentFrameRate() float32 {
	if m.currFrameTime == 0 {
		return 0
	}
	return float32(time.Second) / float32(m.currFrameTime)
}

// AverageFrameRate returns 1/AverageFrameTime, or zero before the
// first sample lands.
func (m *Metrics) AverageFrameRate() float32 {
	avg := m.AverageFrameTime()
	if avg == 0 {
		return 0
	}
	return float32(time.Second) / float32(avg)
}
