package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/silbinarywolf/preferdiscretegpu"

	"github.com/sudorandom/referral-globe/pkg/config"
	"github.com/sudorandom/referral-globe/pkg/globeengine"
	"github.com/sudorandom/referral-globe/pkg/globeview"
	"github.com/sudorandom/referral-globe/pkg/sources"
	"github.com/sudorandom/referral-globe/pkg/utils"
)

var cli struct {
	Config     string `help:"TOML tuning file." type:"path" default:"globe.toml"`
	URL        string `help:"Snapshot URL polled over HTTP." name:"url"`
	Stream     string `help:"Websocket URL that pushes snapshots."`
	File       string `help:"Snapshot JSON file." type:"path"`
	Identity   string `help:"Node id to view the globe as."`
	Name       string `help:"Display name for the identity."`
	BoatColor  string `help:"Boat color for the identity as #rrggbb."`
	Boat       string `help:"Boat sprite PNG, path or URL."`
	Width      int    `help:"Initial window width." default:"1280"`
	Height     int    `help:"Initial window height." default:"720"`
	TPS        int    `help:"Ticks per second (engine updates)." default:"60" name:"tps"`
	Seed       int64  `help:"Seed for ambient guest traffic." default:"1"`
	CaptureDir string `help:"Directory for frames captured with P." type:"path"`
	NoHUD      bool   `help:"Start with the summary panels hidden." name:"no-hud"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("globe-viewer"),
		kong.Description("Interactive 3D globe of the referral graph."),
	)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)

	opts := cfg.EngineOptions()
	opts.Width, opts.Height = float64(cli.Width), float64(cli.Height)
	opts.Seed = cli.Seed
	game := globeview.NewGame(opts)
	game.CaptureDir = cli.CaptureDir
	game.ShowHUD = !cli.NoHUD
	engine := game.Engine()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	seen, err := utils.OpenSeenStore()
	if err != nil {
		log.Fatalf("Failed to open seen store: %v", err)
	}
	defer func() {
		if n, err := seen.Count(); err == nil {
			log.Printf("Saw %d distinct people this session", n)
		}
		if err := seen.Close(); err != nil {
			log.Printf("Error closing seen store: %v", err)
		}
	}()
	game.SeenLookup = func(id string) (time.Time, bool) {
		at, ok, err := seen.FirstSeen(id)
		if err != nil {
			log.Printf("Error reading seen store: %v", err)
		}
		return at, ok
	}

	startSource(ctx, cfg, engine, seen)

	if id, ok := cfg.Identity(); ok {
		log.Printf("Viewing as %s", id.ID)
		engine.Post(globeengine.IdentityReady{Identity: id})
	}

	go game.LoadAssets(utils.NewCache(cfg.Assets.CacheDir), cfg.Assets.Boat)

	ebiten.SetTPS(cli.TPS)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(cli.Width, cli.Height)
	ebiten.SetWindowTitle("Referral Globe")
	runErr := ebiten.RunGame(game)
	stop()
	if err := game.Close(); err != nil {
		log.Printf("Error closing engine: %v", err)
	}
	if runErr != nil {
		log.Fatal(runErr)
	}
}

// applyFlags lets explicit flags override the config file.
func applyFlags(cfg *config.Config) {
	if cli.URL != "" || cli.Stream != "" || cli.File != "" {
		cfg.Source.URL, cfg.Source.Stream, cfg.Source.File = cli.URL, cli.Stream, cli.File
	}
	if cli.Identity != "" {
		cfg.Viewer = config.ViewerConfig{ID: cli.Identity, Name: cli.Name, BoatColor: cli.BoatColor}
		if cli.BoatColor != "" {
			if _, err := config.ParseColor(cli.BoatColor); err != nil {
				log.Fatalf("Invalid --boat-color: %v", err)
			}
		}
	}
	if cli.Boat != "" {
		cfg.Assets.Boat = cli.Boat
	}
}

// startSource wires the configured snapshot source into the engine. A push
// stream wins over a file, which wins over HTTP polling. A stream with a URL
// fetches the URL once before the first push arrives.
func startSource(ctx context.Context, cfg *config.Config, engine *globeengine.Engine, seen *utils.SeenStore) {
	src := cfg.Source
	switch {
	case src.Stream != "":
		var initial globeengine.Provider
		if src.URL != "" {
			initial = sources.NewHTTPProvider(src.URL, time.Duration(src.Timeout))
		}
		h := globeengine.NewHydrator(engine, initial, seen)
		if initial != nil {
			go h.Run(ctx, 0)
		}
		ws := sources.NewWSProvider(src.Stream)
		log.Printf("Subscribing to %s", src.Stream)
		go func() {
			if err := ws.Run(ctx, h.Accept); err != nil && ctx.Err() == nil {
				log.Printf("[WS] stream stopped: %v", err)
			}
		}()
	case src.File != "":
		h := globeengine.NewHydrator(engine, sources.FileProvider{Path: src.File}, seen)
		log.Printf("Loading snapshot from %s", src.File)
		go h.Run(ctx, 0)
	default:
		url := src.URL
		if url == "" {
			url = sources.DefaultSnapshotURL
		}
		h := globeengine.NewHydrator(engine, sources.NewHTTPProvider(url, time.Duration(src.Timeout)), seen)
		log.Printf("Polling %s every %s", url, time.Duration(src.Interval))
		go h.Run(ctx, time.Duration(src.Interval))
	}
}
