package services

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
)

// GenProfile is the static generator parameter set for one category. Users
// never influence these; the category name is the only lookup key.
type GenProfile struct {
	BPM        int     `yaml:"bpm"`
	Density    float64 `yaml:"density"`
	Brightness float64 `yaml:"brightness"`
	Scale      string  `yaml:"scale"`
}

var defaultProfiles = map[string]GenProfile{
	"sleep":      {BPM: 60, Density: 0.2, Brightness: 0.3, Scale: "C_MAJOR_A_MINOR"},
	"focus":      {BPM: 90, Density: 0.4, Brightness: 0.5, Scale: "D_MAJOR_B_MINOR"},
	"meditation": {BPM: 70, Density: 0.3, Brightness: 0.4, Scale: "F_MAJOR_D_MINOR"},
	"energy":     {BPM: 124, Density: 0.7, Brightness: 0.8, Scale: "G_MAJOR_E_MINOR"},
	"healing":    {BPM: 66, Density: 0.25, Brightness: 0.35, Scale: "A_MAJOR_G_FLAT_MINOR"},
}

var fallbackProfile = GenProfile{BPM: 80, Density: 0.4, Brightness: 0.5, Scale: "C_MAJOR_A_MINOR"}

// LoadProfiles returns the category profile table, overlaying entries from the
// YAML file at path on top of the built-in defaults. An empty path keeps the
// defaults as-is.
func LoadProfiles(path string, log *logger.Logger) (map[string]GenProfile, error) {
	profiles := make(map[string]GenProfile, len(defaultProfiles))
	for k, v := range defaultProfiles {
		profiles[k] = v
	}
	if path == "" {
		return profiles, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category profile file: %w", err)
	}
	var fromFile map[string]GenProfile
	if err := yaml.Unmarshal(raw, &fromFile); err != nil {
		return nil, fmt.Errorf("parse category profile file: %w", err)
	}
	for k, v := range fromFile {
		profiles[k] = v
	}
	if log != nil {
		log.Info("Loaded category generation profiles", "path", path, "categories", len(profiles))
	}
	return profiles, nil
}

// ProfileFor resolves a category to its generator parameters, falling back to
// a neutral profile for unknown categories.
func ProfileFor(profiles map[string]GenProfile, category string) GenProfile {
	if p, ok := profiles[category]; ok {
		return p
	}
	return fallbackProfile
}
