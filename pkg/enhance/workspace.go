package enhance

import(
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/rs/zerolog/log"

	"github.com/abworrall/wowshot/pkg/ecolor"
)

// A Workspace holds everything one enhancement call works on: the
// original buffer (kept for the safety net), the buffer the stages
// mutate, and the resolved parameters. Implements the image.Image and
// hdr.Image interfaces, over the current buffer.
type Workspace struct {
	Config
	Params

	Original    ecolor.RGBGrid
	Current     ecolor.RGBGrid

	Degenerate  bool          // the input was all-black or all-white
	Safety      SafetyReport
	stageNum    int
}

// Implement image.Image
func (ws *Workspace)ColorModel() color.Model       { return hdrcolor.RGBModel }
func (ws *Workspace)Bounds() image.Rectangle       { return image.Rect(0, 0, ws.Current.Dx(), ws.Current.Dy()) }
func (ws *Workspace)At(x, y int) color.Color       { return ws.HDRAt(x,y) }

// Implement hdr.Image
func (ws *Workspace)HDRAt(x, y int) hdrcolor.Color { return ws.Current.HDRAt(x, y) }
func (ws *Workspace)Size() int                     { return ws.Bounds().Dx() * ws.Bounds().Dy() }

func NewWorkspace(cfg Config, p Params, g ecolor.RGBGrid) *Workspace {
	return &Workspace{
		Config:   cfg,
		Params:   p,
		Original: g.Copy(),
		Current:  g,
	}
}

func (ws *Workspace)String() string {
	return fmt.Sprintf("Workspace[%s, orig %s, now %s]", ws.Params, ws.Original, ws.Current)
}

// A StageFunc mutates ws.Current. Stages only ever see the output of the
// stage before them.
type StageFunc func(ws *Workspace)

type stage struct {
	Name    string
	Run     StageFunc
	Enabled func(p Params) bool
}

// The fixed pipeline order. A stage whose coefficients resolve to zero is
// skipped. The safety net is not in this list; Run always does it last.
var pipeline = []stage{
	{"tonemap",  StageTonemap,  func(p Params) bool { return p.TonemapA > 0 }},
	{"curve",    StageCurve,    func(p Params) bool { return p.CurveAmount > 0 }},
	{"vibrance", StageVibrance, func(p Params) bool { return p.Vibrance != 0 }},
	{"clarity",  StageClarity,  func(p Params) bool { return p.ClarityAmount != 0 && p.ClarityRadius > 0 }},
	{"bloom",    StageBloom,    func(p Params) bool { return p.BloomAmount > 0 && p.BloomRadius > 0 }},
	{"warmth",   StageWarmth,   func(p Params) bool { return p.Warmth != 0 }},
	{"tint",     StageTint,     func(p Params) bool { return p.Tint > 0 }},
	{"vignette", StageVignette, func(p Params) bool { return p.Vignette > 0 }},
	{"grain",    StageGrain,    func(p Params) bool { return p.GrainAmount > 0 }},
	{"trim",     StageTrim,     func(p Params) bool { return p.Brightness != 0 || p.Contrast != 1 }},
}

// Run threads the buffer through every enabled stage, then the safety net.
func (ws *Workspace)Run() {
	ws.Degenerate = isDegenerate(&ws.Original)
	if ws.Degenerate {
		log.Warn().Str("preset", string(ws.Preset)).Msg("degenerate input (all black or all white), continuing")
	}

	ws.maybeDump("input")
	for _, st := range pipeline {
		if !st.Enabled(ws.Params) {
			continue
		}
		if ws.Verbosity > 1 {
			log.Printf("stage %s", st.Name)
		}
		st.Run(ws)
		ws.maybeDump(st.Name)
	}

	ws.Safety = SafetyNet(&ws.Original, &ws.Current, ws.SafetyTolerance, ws.SafetyCap)
	ws.maybeDump("safety")

	if ws.Verbosity > 0 {
		log.Printf("%s", ws)
	}
}

// isDegenerate is true for input with no usable tonal range at all
func isDegenerate(g *ecolor.RGBGrid) bool {
	L := g.Luminance()
	min, max := L.MinMax()
	return max < 1.0/255.0 || min > 254.0/255.0
}

func (ws *Workspace)maybeDump(name string) {
	if ws.DumpDir == "" {
		return
	}
	ws.stageNum++
	L := ws.Current.Luminance()
	fname := filepath.Join(ws.DumpDir, fmt.Sprintf("%03d-%s.png", ws.stageNum, name))
	if err := L.ToImg(fmt.Sprintf("%s: %s", name, L.Stats()), fname); err != nil {
		log.Printf("dump %s: %v", fname, err)
	}
	if name == "safety" {
		fname = filepath.Join(ws.DumpDir, "final.hdr")
		if err := ws.WriteToHDR(fname); err != nil {
			log.Printf("dump %s: %v", fname, err)
		}
	}
}

// WriteToHDR outputs a HDR image. You can load this into photoshop or other HDR tools.
func (ws *Workspace)WriteToHDR(filename string) error {
	if writer, err := os.Create(filename); err != nil {
		return fmt.Errorf("Workspace.WriteToHDR, open+w '%s': %w", filename, err)
	} else {
		defer writer.Close()
		err := rgbe.Encode(writer, ws)
		if err != nil {
			log.Printf("Workspace.WriteToHDR, encoding RGBE file: %v\n", err)
		}
		return err
	}
}
