package ensgold

// config.go follows the teacher's load/shd.go pattern of describing
// tuning data as a YAML document decoded with gopkg.in/yaml.v3, rather
// than a pile of functional options — EnSight Gold datasets are often read
// by batch/offline tools where a checked-in config file fits better than
// call-site flags.

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config tunes resource usage and hash-map sizing. The zero Config is
// valid and selects the defaults documented on each field.
type Config struct {
	// DisableMmap forces the heap-buffer read path even on platforms where
	// mmap would otherwise be used. Useful for network filesystems where
	// mmap'd pages fault unpredictably.
	DisableMmap bool `yaml:"disable_mmap"`

	// FaceMapLoadFactor overrides the shell extractor's face-map rehash
	// threshold. Zero selects the default of 0.75.
	FaceMapLoadFactor float64 `yaml:"face_map_load_factor"`

	// PartMapCapacityHint overrides the initial part-number map sizing hint
	// passed when a case's part count is known up front. Zero selects the
	// default.
	PartMapCapacityHint int `yaml:"part_map_capacity_hint"`
}

// DefaultConfig is used whenever a caller passes a zero Config.
var DefaultConfig = Config{
	FaceMapLoadFactor:   0.75,
	PartMapCapacityHint: 1024,
}

func (c Config) withDefaults() Config {
	if c.FaceMapLoadFactor == 0 {
		c.FaceMapLoadFactor = DefaultConfig.FaceMapLoadFactor
	}
	if c.PartMapCapacityHint == 0 {
		c.PartMapCapacityHint = DefaultConfig.PartMapCapacityHint
	}
	return c
}

// LoadConfig reads a Config from a YAML file on disk.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, wrapErr(KindIO, err, "reading config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, wrapErr(KindFormat, err, "parsing config %s", path)
	}
	return cfg.withDefaults(), nil
}
