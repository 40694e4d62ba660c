package globeview

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
	"github.com/sudorandom/referral-globe/pkg/utils"
)

var ErrNoSprite = errors.New("no boat sprite configured")

// maxSpriteSide bounds sprite dimensions so a bad asset cannot allocate a
// huge texture.
const maxSpriteSide = 512

// LoadSprite reads a PNG from a local path or http(s) URL.
func LoadSprite(cache *utils.Cache, ref string) (image.Image, error) {
	if ref == "" {
		return nil, ErrNoSprite
	}
	r, err := cache.Open(ref, "[ASSET]")
	if err != nil {
		return nil, err
	}
	defer r.Close()

	img, err := png.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode sprite %s: %w", ref, err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 || b.Dx() > maxSpriteSide || b.Dy() > maxSpriteSide {
		return nil, fmt.Errorf("sprite %s is %dx%d, want 1..%d per side", ref, b.Dx(), b.Dy(), maxSpriteSide)
	}
	return img, nil
}

// LoadAssets makes the single load attempt for the boat sprite and reports
// the outcome to the engine. It blocks; run it on its own goroutine.
func (g *Game) LoadAssets(cache *utils.Cache, ref string) {
	img, err := LoadSprite(cache, ref)
	if err != nil {
		log.Printf("[ASSET] boat sprite unavailable: %v", err)
		g.engine.Post(globeengine.AssetFailed{Err: err})
		return
	}
	g.spriteSrc.Store(&img)
	log.Printf("[ASSET] boat sprite loaded (%dx%d)", img.Bounds().Dx(), img.Bounds().Dy())
	g.engine.Post(globeengine.AssetLoaded{})
}
