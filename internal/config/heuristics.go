package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Heuristics holds the tunable constants of the classification and grading
// stages. Changing them changes the output for existing logbooks.
type Heuristics struct {
	ShortMax       int `koanf:"short_max"`
	MediumMax      int `koanf:"medium_max"`
	LongMax        int `koanf:"long_max"`
	TopGrades      int `koanf:"top_grades"`
	GradeCacheSize int `koanf:"grade_cache_size"`
	GradeChunkSize int `koanf:"grade_chunk_size"`
	FetchWorkers   int `koanf:"fetch_workers"`
}

// DefaultHeuristics returns the stock values.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		ShortMax:       60,
		MediumMax:      85,
		LongMax:        130,
		TopGrades:      4,
		GradeCacheSize: 1024,
		GradeChunkSize: 100,
		FetchWorkers:   2,
	}
}

// LoadHeuristics layers defaults, an optional YAML file and env vars.
// Order of precedence (low -> high):
//  1. DefaultHeuristics
//  2. the YAML file named by CRUXLOG_CONFIG
//  3. env vars with the CRUXLOG_ prefix, e.g. CRUXLOG_TOP_GRADES=5
func LoadHeuristics() (*Heuristics, error) {
	k := koanf.New(".")

	if path := os.Getenv("CRUXLOG_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	// CRUXLOG_SHORT_MAX -> short_max; underscores are kept to match the tags.
	envProvider := env.Provider("CRUXLOG_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "cruxlog_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	h := DefaultHeuristics()
	if err := k.UnmarshalWithConf("", &h, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return &h, nil
}

// Validate checks the length bins are ordered and the counts positive.
func (h Heuristics) Validate() error {
	if h.ShortMax <= 0 || h.MediumMax <= h.ShortMax || h.LongMax <= h.MediumMax {
		return fmt.Errorf("length bins must increase: short=%d medium=%d long=%d", h.ShortMax, h.MediumMax, h.LongMax)
	}
	if h.TopGrades <= 0 || h.GradeCacheSize <= 0 || h.GradeChunkSize <= 0 || h.FetchWorkers <= 0 {
		return errors.New("top_grades, grade_cache_size, grade_chunk_size and fetch_workers must be positive")
	}
	return nil
}
