package export

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"

	"github.com/nus-cts-lab/free-viewing-sky/internal/models"
)

// ErrNoSamples means a trial has no samples to render.
var ErrNoSamples = errors.New("no samples to render")

// RenderGradient draws the fallback intensity image for one trial: each
// sample contributes a radial gradient of fixed radius, blended additively
// onto a shared accumulation buffer. Later samples are weighted slightly
// heavier so the final image hints at viewing order without a full
// kernel-density estimate.
func RenderGradient(w io.Writer, samples []models.SampleRecord, width, height int, radius float64) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}
	if width <= 0 || height <= 0 || radius <= 0 {
		return errors.New("invalid render dimensions")
	}

	acc := make([]float64, width*height)
	n := float64(len(samples))
	for i, s := range samples {
		if math.IsNaN(s.X) || math.IsNaN(s.Y) {
			continue
		}
		// 0.6 base opacity ramping to 1.0 for the last sample.
		weight := 0.6 + 0.4*float64(i)/n
		splat(acc, width, height, s.X, s.Y, radius, weight)
	}

	max := 0.0
	for _, v := range acc {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		return ErrNoSamples
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, heatColor(acc[y*width+x]/max))
		}
	}
	return png.Encode(w, img)
}

// splat adds one radial gradient (linear falloff) centered at (cx, cy).
func splat(acc []float64, width, height int, cx, cy, radius, weight float64) {
	x0 := int(math.Max(0, math.Floor(cx-radius)))
	x1 := int(math.Min(float64(width-1), math.Ceil(cx+radius)))
	y0 := int(math.Max(0, math.Floor(cy-radius)))
	y1 := int(math.Min(float64(height-1), math.Ceil(cy+radius)))

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			d := math.Sqrt(dx*dx + dy*dy)
			if d >= radius {
				continue
			}
			acc[y*width+x] += weight * (1 - d/radius)
		}
	}
}

// heatColor maps normalized intensity to a black-red-yellow-white ramp.
func heatColor(v float64) color.RGBA {
	v = math.Max(0, math.Min(1, v))
	switch {
	case v < 1.0/3:
		return color.RGBA{R: uint8(255 * v * 3), A: 255}
	case v < 2.0/3:
		return color.RGBA{R: 255, G: uint8(255 * (v - 1.0/3) * 3), A: 255}
	default:
		return color.RGBA{R: 255, G: 255, B: uint8(255 * (v - 2.0/3) * 3), A: 255}
	}
}
