package globeview

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// captureName is the file name for a frame captured at ts.
func captureName(ts time.Time, suffix string) string {
	return fmt.Sprintf("globe-%s-%s.png", ts.Format("20060102-150405"), suffix)
}

// captureFrame copies screen into memory and writes it as a PNG under
// CaptureDir on a separate goroutine.
func (g *Game) captureFrame(screen *ebiten.Image, suffix string, ts time.Time) {
	if g.CaptureDir == "" {
		return
	}
	if err := os.MkdirAll(g.CaptureDir, 0o755); err != nil {
		log.Printf("Error creating capture directory: %v", err)
		return
	}
	path := filepath.Join(g.CaptureDir, captureName(ts, suffix))

	rgba := image.NewRGBA(screen.Bounds())
	screen.ReadPixels(rgba.Pix)

	go func() {
		if err := writePNG(path, rgba); err != nil {
			log.Printf("Error writing capture: %v", err)
			return
		}
		log.Printf("Captured frame: %s", path)
	}()
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
