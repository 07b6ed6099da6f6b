package cipher

import (
	"fmt"

	"lai-go/internal/config"
	"lai-go/internal/lai"
)

// NewCipherFromConfig creates a Cipher based on the configuration type.
func NewCipherFromConfig(cfg config.CipherConfig, params lai.Params, logger lai.Logger) (lai.Cipher, error) {
	switch cfg.Type {
	case "lai", "":
		c, err := NewLAI(params, logger, cfg.Trace)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "test":
		c, err := NewTest(params)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cipher type: %q", cfg.Type)
	}
}
