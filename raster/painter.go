package raster

import (
	"image"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// Painter draws into a destination raster under an affine transform and an
// optional clip mask, with a stack to save and restore both. It is the
// minimal canvas the triangle renderer needs: push state, set a transform,
// clip to a triangle, composite an image, pop.
type Painter struct {
	dst    *image.RGBA
	matrix Matrix
	clip   *image.Alpha
	stack  []painterState
}

type painterState struct {
	matrix Matrix
	clip   *image.Alpha
}

func NewPainter(dst *image.RGBA) *Painter {
	return &Painter{
		dst:    dst,
		matrix: Identity(),
		stack:  make([]painterState, 0, 8),
	}
}

// Push saves the current transform and clip.
func (p *Painter) Push() {
	p.stack = append(p.stack, painterState{p.matrix, p.clip})
}

// Pop restores the most recently pushed transform and clip.
func (p *Painter) Pop() {
	last := len(p.stack) - 1
	p.matrix, p.clip = p.stack[last].matrix, p.stack[last].clip
	p.stack = p.stack[:last]
}

// SetMatrix replaces the current transform.
func (p *Painter) SetMatrix(m Matrix) {
	p.matrix = m
}

// Translate post-multiplies a translation onto the current transform.
func (p *Painter) Translate(x, y float64) {
	p.matrix = p.matrix.Multiply(Translation(x, y))
}

// Scale post-multiplies a scale onto the current transform.
func (p *Painter) Scale(x, y float64) {
	p.matrix = p.matrix.Multiply(Scaling(x, y))
}

// ClipTriangle restricts subsequent drawing to the given triangle. The
// vertices are in the current transform's input space; the triangle is
// rasterized antialiased into an alpha mask in destination pixels.
func (p *Painter) ClipTriangle(v0, v1, v2 [2]float64) {
	b := p.dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())

	t0 := p.matrix.Apply(v0)
	t1 := p.matrix.Apply(v1)
	t2 := p.matrix.Apply(v2)
	r.MoveTo(float32(t0[0]), float32(t0[1]))
	r.LineTo(float32(t1[0]), float32(t1[1]))
	r.LineTo(float32(t2[0]), float32(t2[1]))
	r.ClosePath()

	mask := image.NewAlpha(b)
	r.Draw(mask, b, image.Opaque, image.Point{})
	p.clip = mask
}

// DrawImage composites img into the destination, mapped onto the rectangle
// (x, y, x+w, y+h) in the current transform's input space, sampling
// bilinearly. The current clip mask, when set, bounds the affected pixels.
func (p *Painter) DrawImage(img image.Image, x, y, w, h float64) {
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}
	m := p.matrix.
		Multiply(Translation(x, y)).
		Multiply(Scaling(w/float64(b.Dx()), h/float64(b.Dy()))).
		Multiply(Translation(-float64(b.Min.X), -float64(b.Min.Y)))

	opts := xdraw.Options{}
	if p.clip != nil {
		opts.DstMask = p.clip
	}
	xdraw.ApproxBiLinear.Transform(p.dst, m.Aff3(), img, b, xdraw.Over, &opts)
}
