package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/sudorandom/referral-globe/pkg/config"
	"github.com/sudorandom/referral-globe/pkg/globeengine"
	"github.com/sudorandom/referral-globe/pkg/sources"
)

var cli struct {
	Config   string        `help:"TOML tuning file." type:"path" default:"globe.toml"`
	URL      string        `help:"Snapshot URL." name:"url"`
	File     string        `help:"Snapshot JSON file." type:"path"`
	Identity string        `help:"Node id to narrate the chain for."`
	Nodes    bool          `help:"List every node with its placement."`
	Timeout  time.Duration `help:"Fetch timeout." default:"15s"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("globe-inspect"),
		kong.Description("Print the layout and summary the globe would show for a snapshot."),
	)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var p globeengine.Provider
	switch {
	case cli.File != "":
		p = sources.FileProvider{Path: cli.File}
	case cli.URL != "":
		p = sources.NewHTTPProvider(cli.URL, cli.Timeout)
	case cfg.Source.File != "":
		p = sources.FileProvider{Path: cfg.Source.File}
	default:
		url := cfg.Source.URL
		if url == "" {
			url = sources.DefaultSnapshotURL
		}
		p = sources.NewHTTPProvider(url, cli.Timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cli.Timeout)
	defer cancel()
	snap, err := p.Fetch(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch snapshot: %v", err)
	}

	opts := cfg.EngineOptions()
	opts.GuestSpawnEvery = 0
	engine := globeengine.New(opts)
	defer engine.Close()

	id, ok := cfg.Identity()
	if cli.Identity != "" {
		id, ok = globeengine.Identity{ID: globeengine.NodeID(cli.Identity)}, true
	}
	rep := inspect(engine, snap, id, ok)
	writeReport(os.Stdout, engine, rep, cli.Nodes)
}
