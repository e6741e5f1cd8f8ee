package config

import "sort"

// Presets are named starting points. Kernel, data and logging settings are
// taken from the defaults.
var Presets = map[string]*Config{
	"single": {
		Dimensions: 2, Particles: 1, Radius: 2.0, Dt: 0.01, Frames: 60, IntervalMs: 30,
	},
	"ring": {
		Dimensions: 2, Particles: 12, Radius: 2.0, Dt: 0.01, Frames: 300, IntervalMs: 30,
	},
	"line": {
		Dimensions: 1, Particles: 8, Radius: 3.0, Dt: 0.01, Frames: 200, IntervalMs: 30,
	},
	"shell": {
		Dimensions: 3, Particles: 16, Radius: 2.0, Dt: 0.005, Frames: 400, IntervalMs: 20,
	},
	"swarm": {
		Dimensions: 2, Particles: 22, Radius: 4.0, Dt: 0.02, Frames: 600, IntervalMs: 16,
	},
}

// GetPreset returns a full configuration for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Dimensions = p.Dimensions
	cfg.Particles = p.Particles
	cfg.Radius = p.Radius
	cfg.Dt = p.Dt
	cfg.Frames = p.Frames
	cfg.IntervalMs = p.IntervalMs
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
