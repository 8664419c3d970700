package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces the environment overrides, e.g. SLSGO_BINDIR.
const EnvPrefix = "SLSGO"

// flag name -> config key
var overrideFlags = map[string]string{
	"base-dir": "baseDir",
	"bin-dir":  "binDir",
	"cgo":      "cgo",
	"cmd":      "cmd",
	"monorepo": "monorepo",
}

// NewViper returns a viper instance bound to the SLSGO_* environment and,
// when flags is non-nil, to the build override flags it defines.
func NewViper(flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{"baseDir", "binDir", "cgo", "cmd", "monorepo", "supportedRuntimes", "buildProvidedRuntimeAsBootstrap"} {
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(key))
	}
	if flags != nil {
		for name, key := range overrideFlags {
			if f := flags.Lookup(name); f != nil {
				_ = v.BindPFlag(key, f)
			}
		}
	}
	return v
}

// AddOverrideFlags registers the build override flags on flags.
func AddOverrideFlags(flags *pflag.FlagSet) {
	flags.String("base-dir", "", "Directory the compiler runs in (or "+HandlerDirMacro+")")
	flags.String("bin-dir", "", "Directory compiled binaries are written to")
	flags.Int("cgo", 0, "CGO_ENABLED value (0 or 1)")
	flags.String("cmd", "", "Build command template")
	flags.Bool("monorepo", false, "Build each function from its handler directory")
}

// ViperOverride turns whatever v has set (env or changed flags) into an
// override layer.
func ViperOverride(v *viper.Viper) *Override {
	o := &Override{}
	if v.IsSet("baseDir") {
		s := v.GetString("baseDir")
		o.BaseDir = &s
	}
	if v.IsSet("binDir") {
		s := v.GetString("binDir")
		o.BinDir = &s
	}
	if v.IsSet("cgo") {
		n := v.GetInt("cgo")
		o.Cgo = &n
	}
	if v.IsSet("cmd") {
		s := v.GetString("cmd")
		o.Cmd = &s
	}
	if v.IsSet("monorepo") {
		b := v.GetBool("monorepo")
		o.Monorepo = &b
	}
	if v.IsSet("supportedRuntimes") {
		o.SupportedRuntimes = v.GetStringSlice("supportedRuntimes")
	}
	if v.IsSet("buildProvidedRuntimeAsBootstrap") {
		b := v.GetBool("buildProvidedRuntimeAsBootstrap")
		o.BuildProvidedRuntimeAsBootstrap = &b
	}
	return o
}
