package enhance

import(
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"github.com/abworrall/wowshot/pkg/ecolor"
	"github.com/abworrall/wowshot/pkg/emath"
)

func StageGrain(ws *Workspace) {
	Grain(&ws.Current, ws.GrainAmount, ws.Seed)
}

// Grain adds film grain: one plane of gaussian noise, added equally to all
// three channels so the grain is monochrome. The same seed gives the same
// grain; seed 0 picks a fresh one.
func Grain(g *ecolor.RGBGrid, amount float64, seed int64) {
	if amount <= 0 {
		return
	}

	rng := rand.New(rand.NewSource(grainSeed(seed)))
	noise := g.R.NewFromThis()
	nv := noise.Values()
	for i := range nv {
		nv[i] = rng.NormFloat64() * amount
	}

	for _, p := range g.Planes() {
		vals := p.Values()
		for i := range vals {
			vals[i] = emath.Clamp01(vals[i] + nv[i])
		}
	}
}

func grainSeed(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 1
	}
	return int64(binary.LittleEndian.Uint64(b[:]))
}
