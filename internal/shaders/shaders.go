// Package shaders embeds every WGSL source the renderer compiles,
// following the one-var-per-file convention the rest of the stage
// pipeline reads from.
package shaders

import (
	_ "embed"
)

//go:embed intersect.wgsl
var intersectWGSL string

//go:embed pathtracer.wgsl
var pathtracerWGSL string

// PathtracerWGSL is the compute shader source, with the shared
// BVH/triangle intersection routines spliced in ahead of it so both
// halves see the same struct definitions.
var PathtracerWGSL = intersectWGSL + "\n" + pathtracerWGSL

//go:embed fullscreen.wgsl
var FullscreenWGSL string

//go:embed overlay.wgsl
var OverlayWGSL string
