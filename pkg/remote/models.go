package remote

import(
	"fmt"
	"strings"
)

// A Model is a hosted model at a pinned version, plus the inputs we
// always send it.
type Model struct {
	Name      string                  // short name, for logs and config
	ID        string                  // owner/name:version
	Defaults  map[string]interface{}
}

// Version is the hash after the colon, which is what the predictions API wants.
func (m Model)Version() string {
	if i := strings.LastIndexByte(m.ID, ':'); i >= 0 {
		return m.ID[i+1:]
	}
	return m.ID
}

func (m Model)String() string { return m.Name }

// Inputs merges the defaults with `extra`; extra wins.
func (m Model)Inputs(extra map[string]interface{}) map[string]interface{} {
	in := map[string]interface{}{}
	for k, v := range m.Defaults {
		in[k] = v
	}
	for k, v := range extra {
		in[k] = v
	}
	return in
}

const(
	// Longest side of any image we upload
	InputMaxSide = 1536

	RefinerPrompt = "enhance photo clarity, natural detail, preserve realistic colors, " +
		"no plastic skin, DSLR-like rendering, avoid over-sharpening"

	loraMoreDetails = 0.45
	loraRender      = 0.9
)

var(
	Refiner = Model{
		Name: "refiner",
		ID:   "fermatresearch/magic-image-refiner:507ddf6f977a7e30e46c0daefd30de7d563c72322f9e4cf7cbac52ef0f667b13",
		Defaults: map[string]interface{}{
			"prompt": RefinerPrompt,
		},
	}

	// Gentle settings; low creativity, high resemblance
	ClarityUpscaler = Model{
		Name: "clarity",
		ID:   "philz1337x/clarity-upscaler:dfad41707589d68ecdccd1dfa600d55a208f9310748e44bfe35b4a6291453d5e",
		Defaults: map[string]interface{}{
			"prompt": fmt.Sprintf("masterpiece, best quality, highres,\n<lora:more_details:%g>\n<lora:SDXLrender_v2.0:%g>",
				loraMoreDetails, loraRender),
			"negative_prompt":     "(worst quality, low quality, normal quality:2) JuggernautNegative-neg",
			"scale_factor":        2,
			"dynamic":             5.0,
			"creativity":          0.22,
			"resemblance":         0.72,
			"tiling_width":        112,
			"tiling_height":       144,
			"sd_model":            "juggernaut_reborn.safetensors [338b85bc4f]",
			"scheduler":           "DPM++ 3M SDE Karras",
			"num_inference_steps": 20,
			"seed":                1337,
			"downscaling":         false,
			"sharpen":             0,
			"handfix":             "disabled",
			"output_format":       "png",
		},
	}

	ESRGAN = Model{
		Name: "esrgan",
		ID:   "nightmareai/real-esrgan:f121d640bd286e1fdc67f9799164c1d5be36ff74576ee11c803ae5b665dd46aa",
		Defaults: map[string]interface{}{
			"scale": 2,
		},
	}

	Swin2SR = Model{
		Name: "swin2sr",
		ID:   "mv-lab/swin2sr:a01b0512004918ca55d02e554914a9eca63909fa83a29ff0f115c78a7045574f",
	}

	models = map[string]Model{
		Refiner.Name:         Refiner,
		ClarityUpscaler.Name: ClarityUpscaler,
		ESRGAN.Name:          ESRGAN,
		Swin2SR.Name:         Swin2SR,
	}
)

func LookupModel(name string) (Model, bool) {
	m, exists := models[name]
	return m, exists
}
