package runtime

import (
	"encoding/json"
	"strconv"
	"strings"

	"docent/internal/capture"
	"docent/internal/experience"
)

type photoStepConfig struct {
	Aspect string `json:"aspect"`
	Facing string `json:"facing"`
	Mirror *bool  `json:"mirror"`
}

// captureOptions derives engine options from a capture step's config.
// Unparseable configs fall back to the engine defaults.
func captureOptions(step experience.Step) capture.Options {
	var opts capture.Options
	if len(step.Config) == 0 {
		opts.MirrorFront = true
		return opts
	}
	var cfg photoStepConfig
	if err := json.Unmarshal(step.Config, &cfg); err != nil {
		opts.MirrorFront = true
		return opts
	}
	opts.TargetWidth, opts.TargetHeight = parseAspect(cfg.Aspect)
	switch strings.ToLower(strings.TrimSpace(cfg.Facing)) {
	case "back":
		opts.Facing = capture.FacingBack
	case "front":
		opts.Facing = capture.FacingFront
	}
	if cfg.Mirror != nil {
		opts.MirrorFront = *cfg.Mirror
	} else {
		opts.MirrorFront = true
	}
	return opts
}

// parseAspect reads a "W:H" ratio string. Zero values defer to defaults.
func parseAspect(raw string) (int, int) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0
	}
	return w, h
}
