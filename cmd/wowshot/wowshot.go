package main

import(
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/abworrall/wowshot/pkg/enhance"
	"github.com/abworrall/wowshot/pkg/remote"
	"github.com/abworrall/wowshot/pkg/service"
)

var(
	fVerbosity int
	fConfig string
	fMode string
	fStrength string
	fSeed int64
	fMaxBytes int
	fOutDir string
	fDumpDir string
	fTonemapper string
	fWorkers int
	fUpscale string
	fList bool
)

func init() {
	flag.IntVarP(&fVerbosity, "verbosity", "v", 0, "how verbose to get")
	flag.StringVar(&fConfig, "config", "", "YAML config file (a .yaml arg works too)")
	flag.StringVarP(&fMode, "mode", "m", "wow", "preset or recipe to run (see --list)")
	flag.StringVarP(&fStrength, "strength", "s", "default", "low, medium, high (ignored by presets without a knob)")
	flag.Int64Var(&fSeed, "seed", 0, "grain seed; 0 is random")
	flag.IntVar(&fMaxBytes, "maxbytes", 0, "output size budget; 0 takes it from config")
	flag.StringVarP(&fOutDir, "out", "o", ".", "where to write the results")
	flag.StringVar(&fDumpDir, "dumpdir", "", "write per-stage debug images here")
	flag.StringVar(&fTonemapper, "tonemapper", "", "how to tonemap: "+enhance.ListTonemappers())
	flag.IntVarP(&fWorkers, "workers", "j", 0, "how many photos to work on at once")
	flag.StringVar(&fUpscale, "upscale", "", "upscaler after remote recipes: esrgan, swin2sr")
	flag.BoolVar(&fList, "list", false, "list the modes, and exit")
}

func main() {
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if fVerbosity > 1 {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	inputs, cfgFile, err := listInputs(flag.Args()...)
	if err != nil {
		log.Fatal().Err(err).Msg("reading args")
	}
	if fConfig != "" {
		cfgFile = fConfig
	}

	cfg := service.NewConfig()
	if cfgFile != "" {
		if cfg, err = service.LoadConfig(cfgFile); err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		log.Printf("Loaded base configuration from %s", cfgFile)
	}
	applyFlags(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// Remote recipes only exist when we have credentials
	var rem service.Remote
	if cfg.Remote.Token = os.Getenv("REPLICATE_API_TOKEN"); cfg.Remote.Token != "" {
		rem = remote.NewEnhancer(remote.NewClient(cfg.Remote))
	}
	svc := service.New(cfg, nil, rem, nil)

	if fList {
		for _, id := range svc.RecipeIDs() {
			r, _ := svc.Recipe(id)
			fmt.Printf("%-10s %-20s strength=%v remote=%v\n", id, r.Name, r.HasStrength, r.IsRemote())
		}
		return
	}

	if cfg.Enhance.Verbosity > 0 {
		log.Printf("Final configuration:-\n\n%s\n", cfg.AsYaml())
	}

	recipe, err := svc.Recipe(fMode)
	if err != nil {
		log.Fatal().Err(err).Strs("modes", svc.RecipeIDs()).Msg("bad --mode")
	}
	sl, err := enhance.ParseStrength(fStrength)
	if err != nil {
		log.Fatal().Err(err).Msg("bad --strength")
	}
	if len(inputs) == 0 {
		log.Fatal().Msg("no input photos")
	}

	ctx := context.Background()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	failed := make([]bool, len(inputs))

	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			if err := processFile(gctx, svc, recipe, sl, in); err != nil {
				log.Error().Err(err).Str("file", in).Msg(service.UserMessage(err))
				failed[i] = true
			}
			return nil
		})
	}
	g.Wait()

	log.Printf("Latencies:\n%s", svc.Stats)

	for _, f := range failed {
		if f {
			os.Exit(1)
		}
	}
}

func applyFlags(cfg *service.Config) {
	if fVerbosity > 0     { cfg.Enhance.Verbosity = fVerbosity }
	if fDumpDir != ""     { cfg.Enhance.DumpDir = fDumpDir }
	if fTonemapper != ""  { cfg.Enhance.Tonemapper = fTonemapper }
	if fMaxBytes > 0      { cfg.Enhance.MaxOutputBytes = fMaxBytes }
	if fWorkers > 0       { cfg.Workers = fWorkers }
	if fUpscale != ""     { cfg.Upscale = fUpscale }
}

func processFile(ctx context.Context, svc *service.Service, r service.Recipe, sl enhance.StrengthLevel, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, svc.RequestTimeout)
	defer cancel()

	start := time.Now()
	var res enhance.Result
	if r.IsRemote() {
		res, err = svc.Process(ctx, r, sl, data)
	} else {
		// Straight to the engine, so --seed applies
		req := enhance.Request{Preset: r.Local, Strength: sl, Seed: fSeed, MaxBytes: svc.Enhance.MaxOutputBytes}
		res, err = enhance.Enhance(svc.Enhance, data, req)
	}
	svc.Stats.Record(r.ID, time.Since(start), err)
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	out := filepath.Join(fOutDir, fmt.Sprintf("%s-%s.jpg", base, r.ID))
	if err := enhance.WriteFileAtomic(out, res.Bytes); err != nil {
		return err
	}

	ev := log.Info().Str("in", filename).Str("out", out).Int("bytes", len(res.Bytes))
	if res.Safety.Triggered() {
		ev = ev.Stringer("safety", res.Safety)
	}
	if res.BudgetExceeded {
		ev = ev.Bool("over_budget", true)
	}
	ev.Msg("wrote")
	return nil
}

// listInputs expands dirs into the image files inside them. A .yaml file
// is taken as the config.
func listInputs(args ...string) ([]string, string, error) {
	files, cfgFile := []string{}, ""

	for _, arg := range args {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return nil, "", fmt.Errorf("load %s: %v", arg, err)

		case item.IsDir():
			contents, err := os.ReadDir(arg)
			if err != nil {
				return nil, "", fmt.Errorf("readdir %s: %v", arg, err)
			}
			for _, content := range contents {
				if content.IsDir() {
					continue
				}
				if isImageName(content.Name()) {
					files = append(files, filepath.Join(arg, content.Name()))
				}
			}

		case strings.HasSuffix(strings.ToLower(arg), ".yaml"):
			cfgFile = arg

		default:
			files = append(files, arg)
		}
	}

	return files, cfgFile, nil
}

func isImageName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".webp", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}
