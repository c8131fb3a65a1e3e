package idmetrics

import (
	"github.com/pkg/errors"
)

// Option keys accepted by NewConfig.
const (
	// OptionThreshold is the similarity cutoff for counting a frame-level match
	OptionThreshold = "THRESHOLD"
	// OptionTrackIoUThresh is the track overlap acceptance cutoff, relative to
	// the tracker track length. Only used by TrackIdentity.
	OptionTrackIoUThresh = "TRACK_IOU_THRESH"
)

// Config carries the validated numeric options of the evaluators.
type Config struct {
	// Similarity score threshold required for an IDTP match. Default 0.5.
	Threshold float64
	// Minimum overlap between a gt and a tracker track, relative to the
	// tracker track length. Default 0.2.
	TrackIoUThresh float64
}

// DefaultConfig returns the named default option values.
func DefaultConfig() Config {
	return Config{
		Threshold:      0.5,
		TrackIoUThresh: 0.2,
	}
}

// NewConfig overlays user-supplied options onto the defaults. Unknown option
// keys and values outside [0,1] are rejected, never silently defaulted.
func NewConfig(options map[string]float64) (Config, error) {
	cfg := DefaultConfig()
	for key, value := range options {
		switch key {
		case OptionThreshold:
			cfg.Threshold = value
		case OptionTrackIoUThresh:
			cfg.TrackIoUThresh = value
		default:
			return Config{}, errors.Errorf("unknown option %q", key)
		}
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Threshold < 0.0 || cfg.Threshold > 1.0 {
		return errors.Errorf("%s = %v is outside [0,1]", OptionThreshold, cfg.Threshold)
	}
	if cfg.TrackIoUThresh < 0.0 || cfg.TrackIoUThresh > 1.0 {
		return errors.Errorf("%s = %v is outside [0,1]", OptionTrackIoUThresh, cfg.TrackIoUThresh)
	}
	return nil
}
