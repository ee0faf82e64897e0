// Command solstice is the interactive path tracer: it opens a window,
// loads the first scene it finds under assets/, and renders it
// progressively, refining the image every frame until the sample
// budget is spent.
package main

import (
	"os"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/solstice-rt/solstice/internal/assets"
	"github.com/solstice-rt/solstice/internal/blit"
	"github.com/solstice-rt/solstice/internal/camera"
	"github.com/solstice-rt/solstice/internal/frame"
	"github.com/solstice-rt/solstice/internal/gpux"
	"github.com/solstice-rt/solstice/internal/overlay"
	"github.com/solstice-rt/solstice/internal/pathtracer"
	"github.com/solstice-rt/solstice/internal/rtlog"
	"github.com/solstice-rt/solstice/internal/scenegpu"
	"github.com/solstice-rt/solstice/internal/sceneio"
)

func init() {
	runtime.LockOSThread()
}

// defaultBounces, defaultClamp and resolutionFactor seed the settings
// panel. They repeat the path tracer's starting values
// (pathtracer.DefaultGlobals and its initial resolution factor) as
// literals; nothing ties the two sets of values together.
const (
	defaultBounces   = 8
	defaultClamp     = 0.01
	resolutionFactor = 0.3
)

// fontCandidates is a fallback search for a bundled font: try a few
// plausible locations relative to the working directory before giving
// up and handing opentype.Parse a bare name it will fail to open.
var fontCandidates = []string{
	"assets/fonts/Roboto-Medium.ttf",
	"assets/Roboto-Medium.ttf",
	"Roboto-Medium.ttf",
}

func resolveFontPath() string {
	for _, c := range fontCandidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return fontCandidates[0]
}

// app bundles every device-side stage the frame loop drives: the
// scene, camera, path tracer, and the two presentation stages layered
// on top of its output.
type app struct {
	window *glfw.Window
	ctx    *gpux.Context
	log    rtlog.Logger

	scene   *scenegpu.GPUScene
	camera  *camera.GPUCamera
	tracer  *pathtracer.Pathtracer
	overlay *overlay.Renderer
	blitter *blit.Blitter
	loop    *frame.Loop

	mouseCaptured bool
}

func main() {
	log := rtlog.New("solstice")

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "Solstice", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	a, err := newApp(window, log)
	if err != nil {
		log.Errorf("startup failed: %v", err)
		os.Exit(1)
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		a.resize(width, height)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		// Mouse wheel: orbit(delta * 0.01). Ctrl+wheel stands in for a
		// pinch gesture, since the windowing layer exposes no trackpad
		// pinch event: zoom(delta * 10).
		if w.GetKey(glfw.KeyLeftControl) == glfw.Press || w.GetKey(glfw.KeyRightControl) == glfw.Press {
			a.camera.Controller.Zoom(float32(yoff) * 10)
		} else {
			a.camera.Controller.Orbit(mgl32.Vec2{float32(xoff), float32(yoff)}.Mul(0.01))
		}
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyTab:
			a.mouseCaptured = !a.mouseCaptured
			if a.mouseCaptured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		case glfw.KeyLeftBracket:
			a.adjustBounces(-1)
		case glfw.KeyRightBracket:
			a.adjustBounces(1)
		case glfw.KeyMinus:
			a.adjustResolutionFactor(-0.1)
		case glfw.KeyEqual:
			a.adjustResolutionFactor(0.1)
		}
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !a.mouseCaptured {
			return
		}
		width, height := w.GetSize()
		cx, cy := float64(width)/2, float64(height)/2
		dx := float32(xpos - cx)
		dy := float32(ypos - cy)
		a.camera.Controller.MoveInEyeSpace(mgl32.Vec3{dx * 0.01, -dy * 0.01, 0})
		w.SetCursorPos(cx, cy)
	})

	loop := frame.NewLoop(a.ctx.Surface, a.ctx.Device, a.ctx.Queue, frame.Frame{
		SyncCamera: func() bool {
			invalidate := a.camera.Sync()
			if invalidate {
				a.tracer.Invalidate()
			}
			return invalidate
		},
		Dispatch: func(encoder *wgpu.CommandEncoder, swapchainView *wgpu.TextureView) {
			a.tracer.Dispatch(encoder, a.scene)
			width, height := window.GetFramebufferSize()
			a.overlay.Stats = overlay.Stats{
				FrameRate:        a.loopFrameRate(),
				AverageFrameRate: a.loopAvgFrameRate(),
				SampleCount:      a.tracer.SampleCount(),
				MaxSamples:       pathtracerMaxSamples,
			}
			a.overlay.Sync(width, height)
			if err := a.blitter.Render(encoder, swapchainView); err != nil {
				a.log.Errorf("render pass failed: %v", err)
			}
		},
		Resize: func(width, height int) {
			a.resize(width, height)
		},
		CurrentSize: func() (int, int) {
			return window.GetFramebufferSize()
		},
	})
	a.loop = loop

	for !window.ShouldClose() {
		glfw.PollEvents()
		if !loop.Tick() {
			break
		}
	}
}

// pathtracerMaxSamples mirrors pathtracer.maxSampleCount; it's
// republished here only for the overlay's stats readout, since the
// pathtracer package keeps its cap private.
const pathtracerMaxSamples = 1024

// loop is attached after construction since Loop.Tick needs app's
// methods already closed over by the callbacks above.
func (a *app) loopFrameRate() float32    { return float32(a.loop.Metrics.CurrentFrameRate()) }
func (a *app) loopAvgFrameRate() float32 { return float32(a.loop.Metrics.AverageFrameRate()) }

func newApp(window *glfw.Window, log rtlog.Logger) (*app, error) {
	ctx, err := gpux.New(window, log)
	if err != nil {
		return nil, err
	}

	scenePath, err := firstSceneAsset(log)
	if err != nil {
		return nil, err
	}
	parsed, err := sceneio.ParseGLTF(scenePath, log)
	if err != nil {
		return nil, err
	}

	gpuScene := scenegpu.NewGPUScene(ctx.Device)
	gpuScene.Upload(parsed, log)

	controller := camera.New()
	width, height := window.GetFramebufferSize()
	controller.Resize(float32(width) / float32(height))
	gpuCamera, err := camera.NewGPUCamera(ctx.Device, controller)
	if err != nil {
		return nil, err
	}

	tracer, err := pathtracer.New(ctx.Device, uint32(width), uint32(height), gpuScene, gpuCamera, log)
	if err != nil {
		return nil, err
	}

	settings := overlay.NewSettings(defaultBounces, defaultClamp, resolutionFactor, pathtracerMaxSamples, tracer.Invalidate)

	overlayRenderer, err := overlay.New(ctx.Device, resolveFontPath(), ctx.Config.Format, settings)
	if err != nil {
		return nil, err
	}

	blitter, err := blit.New(ctx.Device, ctx.Config.Format, overlayRenderer)
	if err != nil {
		return nil, err
	}
	if err := blitter.Rebind(tracer.OutputTexture()); err != nil {
		return nil, err
	}

	return &app{
		window:  window,
		ctx:     ctx,
		log:     log,
		scene:   gpuScene,
		camera:  gpuCamera,
		tracer:  tracer,
		overlay: overlayRenderer,
		blitter: blitter,
	}, nil
}

// adjustBounces nudges the bounce budget by delta (clamped to
// [0, 32]; with zero bounces the kernel traces no ray at all, not even
// the primary one, so the image stays black), pushing the change
// through the path tracer so the sample sequence regenerates and
// accumulation resets.
func (a *app) adjustBounces(delta int32) {
	next := int32(a.overlay.Settings.Bounces) + delta
	if next < 0 {
		next = 0
	}
	if next > 32 {
		next = 32
	}
	a.overlay.Settings.SetBounces(uint32(next))
	if err := a.tracer.SetBounces(uint32(next), a.camera, a.log); err != nil {
		a.log.Errorf("set bounces failed: %v", err)
	}
}

// adjustResolutionFactor nudges the output texture's scale relative
// to the surface by delta (clamped to [0.1, 1.0]) and immediately
// reallocates it at the window's current framebuffer size.
func (a *app) adjustResolutionFactor(delta float32) {
	next := a.overlay.Settings.ResolutionFactor + delta
	if next < 0.1 {
		next = 0.1
	}
	if next > 1.0 {
		next = 1.0
	}
	a.overlay.Settings.SetResolutionFactor(next)
	a.tracer.SetResolutionFactor(next)
	width, height := a.window.GetFramebufferSize()
	if err := a.tracer.Resize(uint32(width), uint32(height), a.camera); err != nil {
		a.log.Errorf("resolution change failed: %v", err)
		return
	}
	if err := a.blitter.Rebind(a.tracer.OutputTexture()); err != nil {
		a.log.Errorf("blit rebind failed: %v", err)
	}
}

// firstSceneAsset searches assets/scenes for the lexicographically
// first .glb file, the picker's implicit default until a real asset
// picker UI exists.
func firstSceneAsset(log rtlog.Logger) (string, error) {
	entries, err := assets.Search("assets/scenes", "glb")
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		log.Warnf("no .glb scenes found under assets/scenes")
		return "assets/scenes/default.glb", nil
	}
	return entries[0].Path, nil
}

// resize reconfigures the surface, the camera's aspect ratio, and the
// path tracer's output texture together, since all three depend on
// the framebuffer's current size.
func (a *app) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	a.ctx.Resize(width, height)
	a.camera.Controller.Resize(float32(width) / float32(height))
	if err := a.tracer.Resize(uint32(width), uint32(height), a.camera); err != nil {
		a.log.Errorf("resize failed: %v", err)
		return
	}
	if err := a.blitter.Rebind(a.tracer.OutputTexture()); err != nil {
		a.log.Errorf("blit rebind failed: %v", err)
	}
}
