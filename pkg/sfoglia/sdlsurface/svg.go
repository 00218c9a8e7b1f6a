package sdlsurface

import (
	"image"
	"unsafe"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"github.com/veandco/go-sdl2/sdl"
)

// LoadSVGTexture rasterizes an SVG file at the given size and uploads it
// as an SDL texture. Useful for route icons and barrier close buttons
// that should stay crisp across display resolutions.
func LoadSVGTexture(renderer *sdl.Renderer, path string, width, height int32) (*sdl.Texture, error) {
	icon, err := oksvg.ReadIcon(path)
	if err != nil {
		return nil, err
	}

	w, h := int(width), int(height)
	icon.SetTarget(0, 0, float64(w), float64(h))

	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	scanner := rasterx.NewScannerGV(w, h, rgba, rgba.Bounds())
	raster := rasterx.NewDasher(w, h, scanner)
	icon.Draw(raster, 1.0)

	surface, err := sdl.CreateRGBSurfaceWithFormatFrom(
		unsafe.Pointer(&rgba.Pix[0]),
		width, height, 32, width*4,
		uint32(sdl.PIXELFORMAT_ABGR8888),
	)
	if err != nil {
		return nil, err
	}
	defer surface.Free()

	return renderer.CreateTextureFromSurface(surface)
}
