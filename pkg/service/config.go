package service

import(
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"

	"github.com/abworrall/wowshot/pkg/enhance"
	"github.com/abworrall/wowshot/pkg/remote"
)

/* Example config file ...

workers: 2
requesttimeout: 3m
archivedir: /var/lib/wowshot/results
upscale: swin2sr
enhance:
  tonemapper: log
  maxoutputbytes: 10485760
remote:
  baseurl: https://api.replicate.com
  pollinterval: 2s

*/

type Config struct {
	Workers         int             // how many pipelines can run at once
	RequestTimeout  time.Duration
	ArchiveDir      string          // if set, every result is also written here
	Upscale         string          // "", "esrgan" or "swin2sr"; runs after the remote recipes

	Enhance         enhance.Config
	Remote          remote.Config
}

func NewConfig() Config {
	return Config{
		Workers:        2,
		RequestTimeout: 3 * time.Minute,
		Enhance:        enhance.NewConfig(),
	}
}

func LoadConfig(filename string) (Config, error) {
	contents, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("config read %s: %w", filename, err)
	}

	c := NewConfig()
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return c, fmt.Errorf("config parse %s: %w", filename, err)
	}
	return c, c.Validate()
}

func (c Config)AsYaml() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		log.Fatal().Err(err).Msg("can't marshal config yaml")
	}
	return string(b)
}

func (c *Config)Validate() error {
	if c.Workers < 1                { c.Workers = 1 }
	if c.RequestTimeout <= 0        { c.RequestTimeout = NewConfig().RequestTimeout }
	c.Remote.Validate()

	switch c.Upscale {
	case "", remote.ESRGAN.Name, remote.Swin2SR.Name:
	default:
		return fmt.Errorf("upscale '%s': want esrgan, swin2sr or nothing", c.Upscale)
	}
	return c.Enhance.Validate()
}
