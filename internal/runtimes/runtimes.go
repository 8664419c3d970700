// Package runtimes decides which functions get a native build and which of
// those are packaged for a provided (custom) runtime.
package runtimes

import (
	"slices"

	"github.com/qrioso-software/slsgo/internal/config"
)

// ProvidedRuntimes are the bare runtimes that load a `bootstrap` executable
// from the deployment archive. Keep in sync with the platform's list as new
// provided runtimes are released.
var ProvidedRuntimes = []string{
	"provided",
	"provided.al2",
	"provided.al2023",
}

// Classification is the build decision for one runtime.
type Classification struct {
	Runtime   string
	Candidate bool
	Bootstrap bool
}

// Classify reports whether a function with the given effective runtime is
// built, and whether it is packaged as a bootstrap archive. Bootstrap
// functions are always build candidates.
func Classify(runtime string, cfg config.BuildConfig) Classification {
	c := Classification{Runtime: runtime}
	c.Bootstrap = cfg.BuildProvidedRuntimeAsBootstrap && IsProvided(runtime)
	c.Candidate = c.Bootstrap || slices.Contains(cfg.SupportedRuntimes, runtime)
	return c
}

// IsProvided reports whether runtime is one of the custom runtimes.
func IsProvided(runtime string) bool {
	return slices.Contains(ProvidedRuntimes, runtime)
}
