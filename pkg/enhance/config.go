package enhance

import(
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

/* Example config file ...

verbosity: 1
dumpdir: /tmp/wowshot-dumps
tonemapper: log
maxoutputbytes: 10485760
safetytolerance: 0.98
safetycap: 1.6
encoding:
  startquality: 92
  qualitystep: 8
  minquality: 40
  maxattempts: 10

*/

// DefaultMaxOutputBytes matches the chat transport's attachment limit.
const DefaultMaxOutputBytes = 10 * 1024 * 1024

type Config struct {
	Verbosity        int
	DumpDir          string         // If set, intermediate grids get written here

	Tonemapper       string         // "log" (default), or one of the hdr/tmo operators
	MaxOutputBytes   int

	SafetyTolerance  float64        // the anti-grey net kicks in below tolerance * original mean luminance
	SafetyCap        float64        // the largest global brightness gain the net will apply

	Encoding         EncodeOptions
}

func NewConfig() Config {
	return Config{
		Tonemapper:      "log",
		MaxOutputBytes:  DefaultMaxOutputBytes,
		SafetyTolerance: 0.98,
		SafetyCap:       1.6,
		Encoding:        DefaultEncodeOptions(),
	}
}

func newConfigFromYaml(b []byte) (Config, error) {
	c := NewConfig()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}

	return newConfigFromYaml(contents)
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatal().Err(err).Msg("can't marshal config yaml")
	}
	return string(b)
}

// Validate does sanity checks; zero values fall back to the defaults.
func (c *Config)Validate() error {
	def := NewConfig()
	if c.Tonemapper == ""      { c.Tonemapper = def.Tonemapper }
	if c.MaxOutputBytes <= 0   { c.MaxOutputBytes = def.MaxOutputBytes }
	if c.SafetyTolerance <= 0  { c.SafetyTolerance = def.SafetyTolerance }
	if c.SafetyCap < 1.0       { c.SafetyCap = def.SafetyCap }
	if c.Encoding.StartQuality == 0 { c.Encoding = def.Encoding }

	if c.SafetyTolerance > 1.0 {
		return fmt.Errorf("safetytolerance %f: must be <= 1.0", c.SafetyTolerance)
	}
	if _, known := tonemappers[c.Tonemapper]; !known {
		return fmt.Errorf("no Tonemapper named '%s', wanted %s", c.Tonemapper, ListTonemappers())
	}
	return c.Encoding.Validate()
}
