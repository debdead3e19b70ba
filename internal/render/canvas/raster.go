package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MaxDimension bounds the size of a raster so a bad request cannot allocate
// an arbitrarily large frame.
const MaxDimension = 4096

// Raster is a Surface backed by an in-memory RGBA image.
type Raster struct {
	img  *image.RGBA
	gc   *drawing.RasterGraphicContext
	font *truetype.Font
	face font.Face
}

// Option configures a Raster.
type Option func(*rasterOptions)

type rasterOptions struct {
	bitmapFont bool
}

// WithBitmapFont draws text with the fixed 7x13 bitmap face instead of the
// TrueType default font. Text size is ignored in this mode.
func WithBitmapFont() Option {
	return func(o *rasterOptions) { o.bitmapFont = true }
}

// NewRaster returns a transparent width x height surface.
func NewRaster(width, height int, opts ...Option) (*Raster, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas: invalid size %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return nil, fmt.Errorf("canvas: size %dx%d exceeds %d", width, height, MaxDimension)
	}
	var o rasterOptions
	for _, opt := range opts {
		opt(&o)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	gc, err := drawing.NewRasterGraphicContext(img)
	if err != nil {
		return nil, fmt.Errorf("canvas: graphic context: %w", err)
	}
	// 72 dpi makes font sizes read as pixels.
	gc.SetDPI(72)

	r := &Raster{img: img, gc: gc, face: basicfont.Face7x13}
	if !o.bitmapFont {
		// The bitmap face stays as the fallback when the embedded font fails to parse.
		if f, err := chart.GetDefaultFont(); err == nil {
			r.font = f
		}
	}
	return r, nil
}

// Image returns the backing image. It is painted in place by later calls.
func (r *Raster) Image() *image.RGBA {
	return r.img
}

// EncodePNG writes the current frame as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if r == nil || r.img == nil {
		return errors.New("canvas: nil raster")
	}
	return png.Encode(w, r.img)
}

func (r *Raster) Size() (float64, float64) {
	b := r.img.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func (r *Raster) Fill(c color.Color) {
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

func (r *Raster) VerticalGradient(top, bottom color.Color) {
	b := r.img.Bounds()
	t := toRGBA(top)
	u := toRGBA(bottom)
	h := b.Dy()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		f := 0.0
		if h > 1 {
			f = float64(y-b.Min.Y) / float64(h-1)
		}
		row := image.Rect(b.Min.X, y, b.Max.X, y+1)
		draw.Draw(r.img, row, image.NewUniform(lerpRGBA(t, u, f)), image.Point{}, draw.Src)
	}
}

func (r *Raster) FillRect(x, y, w, h float64, c color.Color) {
	rect := image.Rect(round(x), round(y), round(x+w), round(y+h)).Intersect(r.img.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
}

func (r *Raster) StrokeRect(x, y, w, h float64, c color.Color, lineWidth float64) {
	r.gc.BeginPath()
	r.gc.MoveTo(x, y)
	r.gc.LineTo(x+w, y)
	r.gc.LineTo(x+w, y+h)
	r.gc.LineTo(x, y+h)
	r.gc.Close()
	r.stroke(c, lineWidth)
}

func (r *Raster) FillCircle(cx, cy, radius float64, c color.Color) {
	if radius <= 0 {
		return
	}
	r.circlePath(cx, cy, radius)
	r.gc.SetFillColor(c)
	r.gc.Fill()
}

func (r *Raster) StrokeCircle(cx, cy, radius float64, c color.Color, lineWidth float64) {
	if radius <= 0 {
		return
	}
	r.circlePath(cx, cy, radius)
	r.stroke(c, lineWidth)
}

func (r *Raster) Polyline(points []Point, c color.Color, lineWidth float64) {
	if len(points) < 2 {
		return
	}
	r.gc.BeginPath()
	r.gc.MoveTo(points[0].X, points[0].Y)
	for _, p := range points[1:] {
		r.gc.LineTo(p.X, p.Y)
	}
	r.stroke(c, lineWidth)
}

// RadialGlow composites a circular gradient of c whose opacity follows stops
// from the centre to radius. Pixels beyond radius are left untouched.
func (r *Raster) RadialGlow(cx, cy, radius float64, c color.Color, stops []GlowStop) {
	if radius <= 0 || len(stops) == 0 {
		return
	}
	rect := image.Rect(
		int(math.Floor(cx-radius)), int(math.Floor(cy-radius)),
		int(math.Ceil(cx+radius)), int(math.Ceil(cy+radius)),
	).Intersect(r.img.Bounds())
	if rect.Empty() {
		return
	}

	mask := image.NewAlpha(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			d := math.Sqrt(dx*dx+dy*dy) / radius
			if d >= 1 {
				continue
			}
			mask.SetAlpha(x, y, color.Alpha{A: glowAlpha(stops, d)})
		}
	}

	solid := toRGBA(c)
	solid.A = 0xff
	draw.DrawMask(r.img, rect, image.NewUniform(solid), image.Point{}, mask, rect.Min, draw.Over)
}

func (r *Raster) Text(s string, x, y float64, st TextStyle) {
	if s == "" {
		return
	}
	if st.Color == nil {
		st.Color = color.Black
	}
	if r.font == nil {
		r.bitmapText(s, x, y, st)
		return
	}

	r.gc.Save()
	defer r.gc.Restore()

	r.gc.SetFont(r.font)
	r.gc.SetFontSize(st.Size)
	r.gc.SetFillColor(st.Color)

	left, _, right, _, err := r.gc.GetStringBounds(s)
	if err != nil {
		return
	}
	dx := alignOffset(st.Align, right-left)

	r.gc.Translate(x, y)
	if st.Rotation != 0 {
		r.gc.Rotate(st.Rotation)
	}
	r.fillString(s, dx)
	if st.Bold {
		r.fillString(s, dx+0.6)
	}
}

func (r *Raster) fillString(s string, x float64) {
	r.gc.BeginPath()
	if _, err := r.gc.CreateStringPath(s, x, 0); err != nil {
		return
	}
	r.gc.Fill()
}

// bitmapText draws with the basic face. Only quarter turns are honoured for
// rotated labels.
func (r *Raster) bitmapText(s string, x, y float64, st TextStyle) {
	width := font.MeasureString(r.face, s).Ceil()
	metrics := r.face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := metrics.Height.Ceil()
	dx := int(math.Round(alignOffset(st.Align, float64(width))))

	turns := int(math.Round(st.Rotation/(math.Pi/2))) % 4
	if turns < 0 {
		turns += 4
	}
	if turns == 0 {
		d := &font.Drawer{
			Dst:  r.img,
			Src:  image.NewUniform(st.Color),
			Face: r.face,
			Dot:  fixed.Point26_6{X: fixed.I(round(x) + dx), Y: fixed.I(round(y))},
		}
		d.DrawString(s)
		if st.Bold {
			d.Dot = fixed.Point26_6{X: fixed.I(round(x) + dx + 1), Y: fixed.I(round(y))}
			d.DrawString(s)
		}
		return
	}

	tmp := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{
		Dst:  tmp,
		Src:  image.NewUniform(st.Color),
		Face: r.face,
		Dot:  fixed.Point26_6{X: 0, Y: fixed.I(ascent)},
	}
	d.DrawString(s)

	ox, oy := round(x), round(y)
	for ty := 0; ty < height; ty++ {
		for tx := 0; tx < width; tx++ {
			c := tmp.RGBAAt(tx, ty)
			if c.A == 0 {
				continue
			}
			// Text coordinates relative to the anchor on the baseline.
			u := tx + dx
			v := ty - ascent
			var px, py int
			switch turns {
			case 1: // clockwise
				px, py = ox-v, oy+u
			case 2:
				px, py = ox-u, oy-v
			case 3: // counter-clockwise
				px, py = ox+v, oy-u
			}
			if image.Pt(px, py).In(r.img.Bounds()) {
				r.img.SetRGBA(px, py, over(r.img.RGBAAt(px, py), c))
			}
		}
	}
}

func (r *Raster) circlePath(cx, cy, radius float64) {
	r.gc.BeginPath()
	r.gc.ArcTo(cx, cy, radius, radius, 0, 2*math.Pi)
	r.gc.Close()
}

func (r *Raster) stroke(c color.Color, lineWidth float64) {
	if lineWidth <= 0 {
		lineWidth = 1
	}
	r.gc.SetStrokeColor(c)
	r.gc.SetLineWidth(lineWidth)
	r.gc.Stroke()
}

func alignOffset(a Align, width float64) float64 {
	switch a {
	case AlignCenter:
		return -width / 2
	case AlignRight:
		return -width
	default:
		return 0
	}
}

func round(v float64) int {
	return int(math.Round(v))
}

func toRGBA(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func lerpRGBA(a, b color.RGBA, f float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*f + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// over composites premultiplied src over dst.
func over(dst, src color.RGBA) color.RGBA {
	inv := 255 - uint32(src.A)
	return color.RGBA{
		R: uint8(uint32(src.R) + uint32(dst.R)*inv/255),
		G: uint8(uint32(src.G) + uint32(dst.G)*inv/255),
		B: uint8(uint32(src.B) + uint32(dst.B)*inv/255),
		A: uint8(uint32(src.A) + uint32(dst.A)*inv/255),
	}
}
