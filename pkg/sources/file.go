package sources

import (
	"context"
	"fmt"
	"os"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

// FileProvider reads a snapshot from a JSON file on every Fetch.
type FileProvider struct {
	Path string
}

func (p FileProvider) Fetch(ctx context.Context) (*globeengine.GraphSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()
	return globeengine.DecodeSnapshot(f)
}
