package ggcompositor

import (
	"errors"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/user/videoglow/pkg/ports"
)

// RenderPreview composites the backdrop and the current video frame
// into a single image the way a browser would paint them: the styled
// backdrop fills its display box, the video sits centered on top. The
// returned image has the backdrop's display size rounded to pixels.
func (c *Compositor) RenderPreview(backdrop *Backdrop, frame image.Image, videoW, videoH float64) (image.Image, error) {
	if backdrop == nil {
		return nil, errors.New("ggcompositor: nil backdrop")
	}
	dw, dh := backdrop.DisplaySize()
	outW := int(math.Round(dw))
	outH := int(math.Round(dh))
	if outW < 1 || outH < 1 {
		return nil, errors.New("ggcompositor: backdrop has no display size")
	}

	styled, err := c.RenderBackdrop(backdrop, outW, outH)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(outW, outH)
	dc.SetColor(color.Black)
	dc.Clear()
	dc.DrawImage(styled, 0, 0)

	if frame != nil && videoW > 0 && videoH > 0 {
		fw := int(math.Round(videoW))
		fh := int(math.Round(videoH))
		if fw > 0 && fh > 0 {
			scaled := image.NewRGBA(image.Rect(0, 0, fw, fh))
			draw.CatmullRom.Scale(scaled, scaled.Rect, frame, frame.Bounds(), draw.Src, nil)
			dc.DrawImage(scaled, (outW-fw)/2, (outH-fh)/2)
		}
	}

	return dc.Image(), nil
}

// RenderBackdrop scales the backdrop raster to the requested size and
// applies its style: blur, brightness, saturation and opacity.
func (c *Compositor) RenderBackdrop(backdrop *Backdrop, width, height int) (image.Image, error) {
	if backdrop == nil {
		return nil, errors.New("ggcompositor: nil backdrop")
	}
	if width < 1 || height < 1 {
		return nil, errors.New("ggcompositor: invalid backdrop render size")
	}
	src, err := backdrop.ReadPixels()
	if err != nil {
		return nil, err
	}
	style := backdrop.Style()

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Rect, src, src.Rect, draw.Src, nil)

	if style.BlurRadius > 0 {
		radius := int(math.Round(style.BlurRadius))
		if radius > width/2 {
			radius = width / 2
		}
		if radius > height/2 {
			radius = height / 2
		}
		if radius > 0 {
			// Two box passes approximate a gaussian well enough
			// for a heavily blurred glow.
			scaled = boxBlur(scaled, radius)
			scaled = boxBlur(scaled, radius)
		}
	}

	adjustStyle(scaled, style)
	return scaled, nil
}

// boxBlur runs a separable box filter of the given radius.
func boxBlur(src *image.RGBA, radius int) *image.RGBA {
	w := src.Rect.Dx()
	h := src.Rect.Dy()
	tmp := image.NewRGBA(src.Rect)
	dst := image.NewRGBA(src.Rect)

	// Horizontal pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a, n int
			for k := -radius; k <= radius; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				o := src.PixOffset(xx, y)
				r += int(src.Pix[o])
				g += int(src.Pix[o+1])
				b += int(src.Pix[o+2])
				a += int(src.Pix[o+3])
				n++
			}
			o := tmp.PixOffset(x, y)
			tmp.Pix[o] = uint8(r / n)
			tmp.Pix[o+1] = uint8(g / n)
			tmp.Pix[o+2] = uint8(b / n)
			tmp.Pix[o+3] = uint8(a / n)
		}
	}

	// Vertical pass.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var r, g, b, a, n int
			for k := -radius; k <= radius; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				o := tmp.PixOffset(x, yy)
				r += int(tmp.Pix[o])
				g += int(tmp.Pix[o+1])
				b += int(tmp.Pix[o+2])
				a += int(tmp.Pix[o+3])
				n++
			}
			o := dst.PixOffset(x, y)
			dst.Pix[o] = uint8(r / n)
			dst.Pix[o+1] = uint8(g / n)
			dst.Pix[o+2] = uint8(b / n)
			dst.Pix[o+3] = uint8(a / n)
		}
	}
	return dst
}

// adjustStyle applies brightness, saturation and opacity in place.
func adjustStyle(img *image.RGBA, style ports.BackdropStyle) {
	brightness := style.Brightness
	if brightness <= 0 {
		brightness = 1
	}
	saturation := style.Saturation
	if saturation < 0 {
		saturation = 1
	}
	opacity := style.Opacity
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	if brightness == 1 && saturation == 1 && opacity == 1 {
		return
	}
	for i := 0; i < len(img.Pix); i += 4 {
		r := float64(img.Pix[i])
		g := float64(img.Pix[i+1])
		b := float64(img.Pix[i+2])

		// Rec. 601 luma pivot for saturation.
		luma := 0.299*r + 0.587*g + 0.114*b
		r = luma + (r-luma)*saturation
		g = luma + (g-luma)*saturation
		b = luma + (b-luma)*saturation

		r *= brightness
		g *= brightness
		b *= brightness

		img.Pix[i] = clamp8(r)
		img.Pix[i+1] = clamp8(g)
		img.Pix[i+2] = clamp8(b)
		img.Pix[i+3] = clamp8(float64(img.Pix[i+3]) * opacity)
	}
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
