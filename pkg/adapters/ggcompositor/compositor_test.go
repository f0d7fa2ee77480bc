package ggcompositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/videoglow/pkg/mocks"
	"github.com/user/videoglow/pkg/ports"
)

func uniformRGBA(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestSamplingSurface_DrawAndReadBack(t *testing.T) {
	c := New()
	surface, err := c.CreateSamplingSurface(8, 4)
	if err != nil {
		t.Fatalf("CreateSamplingSurface: %v", err)
	}
	src := uniformRGBA(64, 32, color.RGBA{R: 200, G: 40, B: 10, A: 255})
	if err := surface.DrawFrame(src); err != nil {
		t.Fatalf("DrawFrame: %v", err)
	}
	got, err := surface.ReadPixels()
	if err != nil {
		t.Fatalf("ReadPixels: %v", err)
	}
	if got.Rect.Dx() != 8 || got.Rect.Dy() != 4 {
		t.Fatalf("read back %dx%d, want 8x4", got.Rect.Dx(), got.Rect.Dy())
	}
	// Uniform input must survive scaling unchanged.
	o := got.PixOffset(3, 2)
	if got.Pix[o] != 200 || got.Pix[o+1] != 40 || got.Pix[o+2] != 10 {
		t.Fatalf("pixel = %v %v %v, want 200 40 10", got.Pix[o], got.Pix[o+1], got.Pix[o+2])
	}
}

func TestSamplingSurface_ReadPixelsIsCopy(t *testing.T) {
	c := New()
	surface, _ := c.CreateSamplingSurface(2, 2)
	first, _ := surface.ReadPixels()
	first.Pix[0] = 99
	second, _ := surface.ReadPixels()
	if second.Pix[0] == 99 {
		t.Fatal("ReadPixels returned a view into the surface raster")
	}
}

func TestSamplingSurface_WritePixels(t *testing.T) {
	c := New()
	surface, _ := c.CreateSamplingSurface(3, 3)
	buf := uniformRGBA(3, 3, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	if err := surface.WritePixels(buf); err != nil {
		t.Fatalf("WritePixels: %v", err)
	}
	got, _ := surface.ReadPixels()
	if got.Pix[0] != 1 || got.Pix[1] != 2 || got.Pix[2] != 3 {
		t.Fatalf("pixel = %v %v %v, want 1 2 3", got.Pix[0], got.Pix[1], got.Pix[2])
	}

	wrong := uniformRGBA(2, 2, color.RGBA{A: 255})
	if err := surface.WritePixels(wrong); err == nil {
		t.Fatal("WritePixels accepted a mismatched buffer")
	}
}

func TestSamplingSurface_ResizeDiscardsContents(t *testing.T) {
	c := New()
	surface, _ := c.CreateSamplingSurface(2, 2)
	_ = surface.WritePixels(uniformRGBA(2, 2, color.RGBA{R: 50, A: 255}))
	surface.Resize(4, 4)
	w, h := surface.Size()
	if w != 4 || h != 4 {
		t.Fatalf("size = %dx%d, want 4x4", w, h)
	}
	got, _ := surface.ReadPixels()
	if got.Pix[0] != 0 {
		t.Fatal("Resize kept old contents")
	}
}

func TestCreateBackdrop_FailsWhenClosed(t *testing.T) {
	c := New()
	c.Close()
	if _, err := c.CreateBackdrop(mocks.NewVideoSource()); err != ErrNoMount {
		t.Fatalf("err = %v, want ErrNoMount", err)
	}
}

func TestCreateBackdrop_FailsWithoutVideo(t *testing.T) {
	c := New()
	if _, err := c.CreateBackdrop(nil); err != ErrNoMount {
		t.Fatalf("err = %v, want ErrNoMount", err)
	}
}

func TestBackdrop_StateRoundTrip(t *testing.T) {
	c := New()
	bd, err := c.CreateBackdrop(mocks.NewVideoSource())
	if err != nil {
		t.Fatalf("CreateBackdrop: %v", err)
	}
	backdrop := bd.(*Backdrop)

	backdrop.SetDisplaySize(864, 486)
	w, h := backdrop.DisplaySize()
	if w != 864 || h != 486 {
		t.Fatalf("display size = %vx%v", w, h)
	}

	style := ports.BackdropStyle{BlurRadius: 96, Opacity: 0.65, Brightness: 1.1, Saturation: 1.2}
	backdrop.SetStyle(style)
	if backdrop.Style() != style {
		t.Fatalf("style = %+v", backdrop.Style())
	}

	if backdrop.Removed() {
		t.Fatal("fresh backdrop reports removed")
	}
	backdrop.Remove()
	if !backdrop.Removed() {
		t.Fatal("Remove did not stick")
	}
}

func TestRenderBackdrop_AppliesBrightness(t *testing.T) {
	c := New()
	bd, _ := c.CreateBackdrop(mocks.NewVideoSource())
	backdrop := bd.(*Backdrop)
	backdrop.Resize(4, 4)
	_ = backdrop.WritePixels(uniformRGBA(4, 4, color.RGBA{R: 100, G: 100, B: 100, A: 255}))
	backdrop.SetStyle(ports.BackdropStyle{Opacity: 1, Brightness: 2, Saturation: 1})

	img, err := c.RenderBackdrop(backdrop, 4, 4)
	if err != nil {
		t.Fatalf("RenderBackdrop: %v", err)
	}
	r, _, _, _ := img.At(1, 1).RGBA()
	if r>>8 != 200 {
		t.Fatalf("brightness-doubled red = %d, want 200", r>>8)
	}
}

func TestRenderBackdrop_BlurSmoothsEdges(t *testing.T) {
	c := New()
	bd, _ := c.CreateBackdrop(mocks.NewVideoSource())
	backdrop := bd.(*Backdrop)
	backdrop.Resize(8, 8)
	half := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			o := half.PixOffset(x, y)
			if x < 4 {
				half.Pix[o] = 255
			}
			half.Pix[o+3] = 255
		}
	}
	_ = backdrop.WritePixels(half)
	backdrop.SetStyle(ports.BackdropStyle{BlurRadius: 2, Opacity: 1, Brightness: 1, Saturation: 1})

	img, err := c.RenderBackdrop(backdrop, 8, 8)
	if err != nil {
		t.Fatalf("RenderBackdrop: %v", err)
	}
	// The hard edge at x=4 should have bled into the dark half.
	r, _, _, _ := img.At(5, 4).RGBA()
	if r>>8 == 0 {
		t.Fatal("blur left hard edge intact")
	}
}

func TestRenderPreview_CentersVideoOverBackdrop(t *testing.T) {
	c := New()
	bd, _ := c.CreateBackdrop(mocks.NewVideoSource())
	backdrop := bd.(*Backdrop)
	backdrop.Resize(4, 4)
	_ = backdrop.WritePixels(uniformRGBA(4, 4, color.RGBA{B: 255, A: 255}))
	backdrop.SetDisplaySize(40, 40)
	backdrop.SetStyle(ports.BackdropStyle{Opacity: 1, Brightness: 1, Saturation: 1})

	frame := uniformRGBA(16, 9, color.RGBA{R: 255, A: 255})
	img, err := c.RenderPreview(backdrop, frame, 20, 20)
	if err != nil {
		t.Fatalf("RenderPreview: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 40 {
		t.Fatalf("preview = %dx%d, want 40x40", img.Bounds().Dx(), img.Bounds().Dy())
	}
	r, _, b, _ := img.At(20, 20).RGBA()
	if r>>8 != 255 || b>>8 != 0 {
		t.Fatalf("center pixel r=%d b=%d, want red video frame", r>>8, b>>8)
	}
	_, _, b, _ = img.At(2, 2).RGBA()
	if b>>8 == 0 {
		t.Fatal("corner should show the blue backdrop")
	}
}

func TestRenderPreview_RequiresDisplaySize(t *testing.T) {
	c := New()
	bd, _ := c.CreateBackdrop(mocks.NewVideoSource())
	if _, err := c.RenderPreview(bd.(*Backdrop), nil, 0, 0); err == nil {
		t.Fatal("RenderPreview succeeded without a display size")
	}
}
