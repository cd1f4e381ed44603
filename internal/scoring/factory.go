package scoring

import (
	"fmt"

	"go.uber.org/zap"

	"wallet-risk-lab/internal/model"
)

// Scoring modes
const (
	ModeHybrid      = "hybrid"
	ModeRule        = "rule"
	ModeProbability = "probability"
	ModeWeighted    = "weighted"
)

// Config selects and parameterizes a Strategy.
type Config struct {
	Mode               string
	MinTrainingWallets int
	Model              model.Config
	Logger             *zap.Logger
}

// DefaultConfig returns hybrid mode with default model hyperparameters.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeHybrid,
		MinTrainingWallets: DefaultMinTrainingWallets,
		Model:              model.DefaultConfig(),
	}
}

// FromConfig creates a Strategy for cfg.Mode.
func FromConfig(cfg Config) (Strategy, error) {
	switch cfg.Mode {
	case ModeHybrid, "":
		if err := cfg.Model.Validate(); err != nil {
			return nil, err
		}
		return NewHybrid(NewSelector(cfg.MinTrainingWallets), cfg.Model, cfg.Logger), nil
	case ModeRule:
		return NewRuleBased(), nil
	case ModeProbability:
		if err := cfg.Model.Validate(); err != nil {
			return nil, err
		}
		return NewProbability(NewSelector(cfg.MinTrainingWallets), cfg.Model), nil
	case ModeWeighted:
		return NewWeighted(DefaultWeights()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}
