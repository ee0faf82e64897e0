// Package overlay draws the stats (fps, frame time, sample count) and
// settings (bounces, contribution clamp, resolution factor, max
// samples) text over the rendered image, using a rasterized glyph
// atlas the same way the wider example pack's text renderer does.
package overlay

import (
	"image"
	"image/draw"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Vertex is one corner of a glyph quad: clip-space position, atlas
// UV, and an RGBA tint.
type Vertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color [4]float32
}

// Item is one string to draw, in normalized screen pixels with
// (0, 0) at the top-left.
type Item struct {
	Text     string
	Position [2]float32
	Scale    float32
	Color    [4]float32
}

type glyph struct {
	uvMin, uvMax [2]float32
	size, off    [2]float32
	advance      float32
}

// Atlas rasterizes the printable ASCII range of a font into a single
// alpha texture once at load time, and builds a Vertex list per frame
// for whatever Items are currently requested.
type Atlas struct {
	Image  *image.Alpha
	glyphs map[rune]glyph
	face   font.Face
}

const atlasSize = 512

// NewAtlas loads fontPath and rasterizes glyphs 32..126 into a single
// 512x512 alpha texture, packed left-to-right, wrapping rows as it
// goes.
func NewAtlas(fontPath string, fontSize float64) (*Atlas, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, err
	}
	parsed, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, err
	}

	img := image.NewAlpha(image.Rect(0, 0, atlasSize, atlasSize))
	glyphs := make(map[rune]glyph)

	x, y, rowHeight := 2, 2, 0
	for r := rune(32); r < 127; r++ {
		bounds, mask, _, adv, ok := face.Glyph(fixed.Point26_6{}, r)
		if !ok {
			continue
		}
		w := mask.Bounds().Dx()
		h := mask.Bounds().Dy()

		if x+w >= atlasSize {
			x = 2
			y += rowHeight + 4
			rowHeight = 0
		}
		if y+h >= atlasSize {
			break
		}

		draw.Draw(img, image.Rect(x, y, x+w, y+h), mask, mask.Bounds().Min, draw.Src)

		glyphs[r] = glyph{
			uvMin:   [2]float32{float32(x) / atlasSize, float32(y) / atlasSize},
			uvMax:   [2]float32{float32(x+w) / atlasSize, float32(y+h) / atlasSize},
			size:    [2]float32{float32(w), float32(h)},
			off:     [2]float32{float32(bounds.Min.X), float32(bounds.Min.Y)},
			advance: float32(adv) / 64.0,
		}

		x += w + 4
		if h > rowHeight {
			rowHeight = h
		}
	}

	return &Atlas{Image: img, glyphs: glyphs, face: face}, nil
}

// BuildVertices tessellates every Item into a pair of triangles per
// glyph, in clip space for a screenW x screenH viewport.
func (a *Atlas) BuildVertices(items []Item, screenW, screenH int) []Vertex {
	vertices := make([]Vertex, 0, len(items)*6)

	sw, sh := float32(screenW), float32(screenH)
	metrics := a.face.Metrics()
	ascent := float32(metrics.Ascent.Ceil())
	lineHeight := float32(metrics.Height.Ceil())

	for _, item := range items {
		startX := item.Position[0]
		posX := startX
		posY := item.Position[1] + ascent*item.Scale

		for _, r := range item.Text {
			if r == '\n' {
				posX = startX
				posY += lineHeight * item.Scale
				continue
			}
			g, ok := a.glyphs[r]
			if !ok {
				continue
			}

			x0 := (posX+g.off[0]*item.Scale)/sw*2.0 - 1.0
			y0 := 1.0 - (posY+g.off[1]*item.Scale)/sh*2.0
			x1 := (posX+(g.off[0]+g.size[0])*item.Scale)/sw*2.0 - 1.0
			y1 := 1.0 - (posY+(g.off[1]+g.size[1])*item.Scale)/sh*2.0

			vertices = append(vertices,
				Vertex{Pos: [2]float32{x0, y0}, UV: [2]float32{g.uvMin[0], g.uvMin[1]}, Color: item.Color},
				Vertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: item.Color},
				Vertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: item.Color},

				Vertex{Pos: [2]float32{x1, y0}, UV: [2]float32{g.uvMax[0], g.uvMin[1]}, Color: item.Color},
				Vertex{Pos: [2]float32{x1, y1}, UV: [2]float32{g.uvMax[0], g.uvMax[1]}, Color: item.Color},
				Vertex{Pos: [2]float32{x0, y1}, UV: [2]float32{g.uvMin[0], g.uvMax[1]}, Color: item.Color},
			)

			posX += g.advance * item.Scale
		}
	}
	return vertices
}

// MeasureText returns the pixel width/height item's text would occupy
// at scale, for laying out the settings panel without overlap.
func (a *Atlas) MeasureText(text string, scale float32) (width, height float32) {
	metrics := a.face.Metrics()
	lineHeight := float32(metrics.Height.Ceil())

	var maxW, currentW float32
	lines := 1
	for _, r := range text {
		if r == '\n' {
			if currentW > maxW {
				maxW = currentW
			}
			currentW = 0
			lines++
			continue
		}
		g, ok := a.glyphs[r]
		if !ok {
			continue
		}
		currentW += g.advance * scale
	}
	if currentW > maxW {
		maxW = currentW
	}
	return maxW, lineHeight * scale * float32(lines)
}
