package config

import (
	"fmt"
	"os"
	"time"

	"barstream/internal/session"

	"gopkg.in/yaml.v3"
)

// sessionsFile is the YAML shape of a trading calendar file:
//
//	sessions:
//	  - start: "09:00"
//	    end: "10:15"
//	  - start: "10:30"
//	    end: "15:00"
//	start_offsets: [60]      # seconds
//	end_offsets: [60]        # seconds
//	break_threshold: 3600    # seconds
type sessionsFile struct {
	Sessions []struct {
		Start string `yaml:"start"`
		End   string `yaml:"end"`
	} `yaml:"sessions"`
	StartOffsets   []float64 `yaml:"start_offsets"`
	EndOffsets     []float64 `yaml:"end_offsets"`
	BreakThreshold float64   `yaml:"break_threshold"`
}

// LoadSessions parses a YAML calendar file into a session.Config.
// Offsets and the break threshold are given in seconds.
func LoadSessions(path string) (session.Config, error) {
	var cfg session.Config

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read sessions file: %w", err)
	}

	var f sessionsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return cfg, fmt.Errorf("config: parse sessions file: %w", err)
	}

	for _, s := range f.Sessions {
		start, err := session.ParseTimeOfDay(s.Start)
		if err != nil {
			return cfg, fmt.Errorf("config: session start: %w", err)
		}
		end, err := session.ParseTimeOfDay(s.End)
		if err != nil {
			return cfg, fmt.Errorf("config: session end: %w", err)
		}
		cfg.Sessions = append(cfg.Sessions, session.Session{Start: start, End: end})
	}

	cfg.StartOffsets = secondsToDurations(f.StartOffsets)
	cfg.EndOffsets = secondsToDurations(f.EndOffsets)
	cfg.BreakThreshold = time.Duration(f.BreakThreshold * float64(time.Second))

	return cfg, nil
}

func secondsToDurations(secs []float64) []time.Duration {
	if len(secs) == 0 {
		return nil
	}
	out := make([]time.Duration, len(secs))
	for i, s := range secs {
		out[i] = time.Duration(s * float64(time.Second))
	}
	return out
}
