package service

import(
	"fmt"
	"sort"

	"github.com/abworrall/wowshot/pkg/enhance"
	"github.com/abworrall/wowshot/pkg/remote"
)

const(
	NatureEnhance  = "nature"
	NatureEnhance2 = "nature2"
)

// A Recipe is what a user-facing mode actually runs: optional remote
// model steps, then optionally a local preset, then more remote steps.
type Recipe struct {
	ID           string
	Name         string
	HasStrength  bool

	Before       []remote.Step
	Local        enhance.PresetID    // "" means no local pass
	After        []remote.Step
}

func (r Recipe)IsRemote() bool { return len(r.Before) + len(r.After) > 0 }

func (r Recipe)String() string { return fmt.Sprintf("Recipe[%s]", r.ID) }

// BuildRecipes is every local preset as a one-step recipe, plus the
// remote ones when a remote is available. `upscale` names an optional
// final upscaler for the remote recipes.
func BuildRecipes(withRemote bool, upscale string) map[string]Recipe {
	recipes := map[string]Recipe{}

	for _, id := range enhance.PresetIDs() {
		p, _ := enhance.LookupPreset(id)
		recipes[string(id)] = Recipe{ID: string(id), Name: p.Name, HasStrength: p.HasStrength, Local: id}
	}

	if !withRemote {
		return recipes
	}

	var tail []remote.Step
	switch upscale {
	case remote.ESRGAN.Name:
		sp := remote.DefaultShrinkPolicy()
		tail = append(tail, remote.Step{Model: remote.ESRGAN, Shrink: &sp})
	case remote.Swin2SR.Name:
		tail = append(tail, remote.Step{Model: remote.Swin2SR})
	}

	recipes[NatureEnhance] = Recipe{
		ID:     NatureEnhance,
		Name:   "Nature Enhance",
		Before: append([]remote.Step{{Model: remote.Refiner}}, tail...),
	}
	recipes[NatureEnhance2] = Recipe{
		ID:     NatureEnhance2,
		Name:   "Nature Enhance 2.0",
		Before: append([]remote.Step{{Model: remote.ClarityUpscaler}, {Model: remote.Refiner}}, tail...),
	}

	return recipes
}

func sortedRecipeIDs(recipes map[string]Recipe) []string {
	ids := []string{}
	for id := range recipes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
