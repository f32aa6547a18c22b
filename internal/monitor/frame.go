package monitor

// #region imports
import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"github.com/danielpatrickdp/interview-controller/internal/behavior"
)

// #endregion

// #region colors

var (
	colorNormal   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	colorLeaning  = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorLooking  = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	colorIncident = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

func labelColor(l behavior.Label) color.RGBA {
	switch l {
	case behavior.LabelLeaning:
		return colorLeaning
	case behavior.LabelLookingAround:
		return colorLooking
	default:
		return colorNormal
	}
}

// #endregion

// #region mirror

// Mirror returns a horizontally flipped RGBA copy of src, origin at (0,0).
func Mirror(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(b.Dx()-1-x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// cloneRGBA copies img so published frames are never mutated afterwards.
func cloneRGBA(img *image.RGBA) *image.RGBA {
	dst := image.NewRGBA(img.Bounds())
	draw.Draw(dst, dst.Bounds(), img, img.Bounds().Min, draw.Src)
	return dst
}

// #endregion

// #region draw-box

// drawBox outlines r on img with the given stroke width, clipped to the image.
func drawBox(img *image.RGBA, r behavior.Region, c color.RGBA, stroke int) {
	rect := image.Rect(int(r.X1), int(r.Y1), int(r.X2), int(r.Y2)).Intersect(img.Bounds())
	if rect.Empty() {
		return
	}
	fill := image.NewUniform(c)
	for i := 0; i < stroke; i++ {
		edges := []image.Rectangle{
			image.Rect(rect.Min.X, rect.Min.Y+i, rect.Max.X, rect.Min.Y+i+1),
			image.Rect(rect.Min.X, rect.Max.Y-i-1, rect.Max.X, rect.Max.Y-i),
			image.Rect(rect.Min.X+i, rect.Min.Y, rect.Min.X+i+1, rect.Max.Y),
			image.Rect(rect.Max.X-i-1, rect.Min.Y, rect.Max.X-i, rect.Max.Y),
		}
		for _, e := range edges {
			draw.Draw(img, e.Intersect(rect), fill, image.Point{}, draw.Src)
		}
	}
}

// #endregion

// #region encode

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PlaceholderJPEG is a small black frame served when no live frame exists.
var PlaceholderJPEG = func() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	b, err := EncodeJPEG(img, 70)
	if err != nil {
		panic(err)
	}
	return b
}()

// #endregion
