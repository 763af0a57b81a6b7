package integrator

import (
	"image"
	"image/color"
	"math"

	"github.com/micropath/micropath/pkg/core"
)

// Image accumulates filtered sample contributions. Pixels hold weighted
// color sums and Weights the matching filter weight sums; Normalize
// divides the two once sampling is done. The Min/Max fields describe the
// image plane window the camera projects onto: x spans [-1, 1] and y the
// same window scaled by the aspect ratio.
type Image struct {
	Width    int
	Height   int
	Channels int

	MinX, MaxX float32
	MinY, MaxY float32

	Pixels  []float32
	Weights []float32
}

func NewImage(width, height int) *Image {
	aspect := float32(height) / float32(width)
	return &Image{
		Width:    width,
		Height:   height,
		Channels: 3,
		MinX:     -1,
		MaxX:     1,
		MinY:     -aspect,
		MaxY:     aspect,
		Pixels:   make([]float32, width*height*3),
		Weights:  make([]float32, width*height),
	}
}

// Splat adds a weighted contribution to one pixel. Out-of-frame splats
// are dropped.
func (img *Image) Splat(x, y int, col core.Vec3, weight float32) {
	if x < 0 || x >= img.Width || y < 0 || y >= img.Height {
		return
	}
	i := y*img.Width + x
	img.Weights[i] += weight
	if weight == 0 {
		return
	}
	p := i * img.Channels
	img.Pixels[p+0] += col[0] * weight
	img.Pixels[p+1] += col[1] * weight
	img.Pixels[p+2] += col[2] * weight
}

func (img *Image) Pixel(x, y int) core.Vec3 {
	p := (y*img.Width + x) * img.Channels
	return core.NewVec3(img.Pixels[p], img.Pixels[p+1], img.Pixels[p+2])
}

// Normalize divides every pixel by its accumulated weight and clamps
// negative channels, which sharpening filters can produce. Pixels that
// never received weight stay black.
func (img *Image) Normalize() {
	for i := range img.Weights {
		w := img.Weights[i]
		p := i * img.Channels
		for c := 0; c < img.Channels; c++ {
			if w > 0 {
				img.Pixels[p+c] /= w
			}
			if img.Pixels[p+c] < 0 {
				img.Pixels[p+c] = 0
			}
		}
	}
}

// ToRGBA converts the normalized image to 8-bit with the given display
// gamma.
func (img *Image) ToRGBA(gamma float32) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	inv := 1 / float64(gamma)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			v := img.Pixel(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: toByte(v[0], inv),
				G: toByte(v[1], inv),
				B: toByte(v[2], inv),
				A: 255,
			})
		}
	}
	return out
}

func toByte(v float32, invGamma float64) uint8 {
	if v <= 0 {
		return 0
	}
	g := math.Pow(float64(v), invGamma)
	if g >= 1 {
		return 255
	}
	return uint8(g * 256)
}
