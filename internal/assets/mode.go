package assets

import (
	"errors"
	"fmt"
	"strings"
)

// EnvMode is the environment variable that selects the build mode.
const EnvMode = "NODE_ENV"

var ErrUnknownMode = errors.New("unknown build mode")

// Mode selects between the development and production build policies.
// The only implementations are Development and Production.
type Mode interface {
	// Name returns the canonical name of the mode.
	Name() string
	policy() policy
}

type policy struct {
	SourceMaps bool
	Versioning bool
	Minify     bool
}

// Development enables source maps and leaves filenames unversioned.
type Development struct{}

func (Development) Name() string { return "development" }

func (Development) policy() policy {
	return policy{SourceMaps: true}
}

// Production versions and minifies output without source maps.
type Production struct{}

func (Production) Name() string { return "production" }

func (Production) policy() policy {
	return policy{Versioning: true, Minify: true}
}

// ParseMode maps a mode name to a Mode. An empty name is development.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "dev", "development":
		return Development{}, nil
	case "prod", "production":
		return Production{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// ModeFromEnv reads NODE_ENV using lookup, usually os.LookupEnv.
func ModeFromEnv(lookup func(string) (string, bool)) (Mode, error) {
	value, _ := lookup(EnvMode)
	return ParseMode(value)
}

// IsProduction reports whether mode is the production variant.
func IsProduction(mode Mode) bool {
	_, ok := mode.(Production)
	return ok
}
