package config

import "strconv"

// HandlerDirMacro as baseDir runs each build from the handler's directory.
const HandlerDirMacro = "{{handlerDir}}"

const (
	DefaultCmd      = `GOOS=linux go build -ldflags="-s -w"`
	DefaultArm64Cmd = `GOOS=linux GOARCH=arm64 go build -ldflags="-s -w"`
	GoRuntime       = "go1.x"
)

// BuildConfig controls how functions are compiled. It is rebuilt on every
// run from Defaults plus any overrides.
type BuildConfig struct {
	BaseDir                         string
	BinDir                          string
	Cgo                             int
	Cmd                             string
	Monorepo                        bool
	SupportedRuntimes               []string
	BuildProvidedRuntimeAsBootstrap bool
}

// Override is one layer of user settings. Nil fields leave the lower layer
// in place.
type Override struct {
	BaseDir                         *string  `yaml:"baseDir,omitempty"`
	BinDir                          *string  `yaml:"binDir,omitempty"`
	Cgo                             *int     `yaml:"cgo,omitempty"`
	Cmd                             *string  `yaml:"cmd,omitempty"`
	Monorepo                        *bool    `yaml:"monorepo,omitempty"`
	SupportedRuntimes               []string `yaml:"supportedRuntimes,omitempty"`
	BuildProvidedRuntimeAsBootstrap *bool    `yaml:"buildProvidedRuntimeAsBootstrap,omitempty"`
}

// Defaults returns the built-in configuration. An arm64 architecture hint
// selects the arm64 build command.
func Defaults(architecture string) BuildConfig {
	cmd := DefaultCmd
	if architecture == "arm64" {
		cmd = DefaultArm64Cmd
	}
	return BuildConfig{
		BaseDir:           ".",
		BinDir:            ".bin",
		Cgo:               0,
		Cmd:               cmd,
		SupportedRuntimes: []string{GoRuntime},
	}
}

// Resolve applies overrides in order on top of base. SupportedRuntimes is
// replaced wholesale, never appended to.
func Resolve(base BuildConfig, overrides ...*Override) BuildConfig {
	c := base
	c.SupportedRuntimes = append([]string(nil), base.SupportedRuntimes...)

	for _, o := range overrides {
		if o == nil {
			continue
		}
		if o.BaseDir != nil {
			c.BaseDir = *o.BaseDir
		}
		if o.BinDir != nil {
			c.BinDir = *o.BinDir
		}
		if o.Cgo != nil {
			c.Cgo = *o.Cgo
		}
		if o.Cmd != nil {
			c.Cmd = *o.Cmd
		}
		if o.Monorepo != nil {
			c.Monorepo = *o.Monorepo
		}
		if o.SupportedRuntimes != nil {
			c.SupportedRuntimes = append([]string(nil), o.SupportedRuntimes...)
		}
		if o.BuildProvidedRuntimeAsBootstrap != nil {
			c.BuildProvidedRuntimeAsBootstrap = *o.BuildProvidedRuntimeAsBootstrap
		}
	}
	return c
}

// BuildConfig resolves the build configuration for this service: defaults
// for the provider architecture, then custom.go, then extra layers such as
// environment and flags.
func (s *Service) BuildConfig(extra ...*Override) BuildConfig {
	layers := append([]*Override{s.Custom.Go}, extra...)
	return Resolve(Defaults(s.Provider.Architecture), layers...)
}

// CgoEnv renders the CGO toggle as the CGO_ENABLED value.
func (c BuildConfig) CgoEnv() string {
	return strconv.Itoa(c.Cgo)
}
