// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"maps"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

type Provider struct {
	Name         string `yaml:"name,omitempty"`
	Runtime      string `yaml:"runtime,omitempty"`
	Architecture string `yaml:"architecture,omitempty"`
	Region       string `yaml:"region,omitempty"`
	Stage        string `yaml:"stage,omitempty"`

	// environment, iam, tags and the rest pass through untouched.
	Extra map[string]any `yaml:",inline"`
}

type Custom struct {
	Go    *Override      `yaml:"go,omitempty"`
	Extra map[string]any `yaml:",inline"`
}

// Service is the function registry read from serverless.yml. Build
// orchestration only rewrites Function.Handler and Function.Package.
type Service struct {
	Service   string               `yaml:"service"`
	Provider  Provider             `yaml:"provider,omitempty"`
	Custom    Custom               `yaml:"custom,omitempty"`
	Functions map[string]*Function `yaml:"functions"`
	RootPath  string               `yaml:"-"`

	// plugins, resources and other top-level keys.
	Extra map[string]any `yaml:",inline"`
}

type Function struct {
	Name       string   `yaml:"name,omitempty"`
	Runtime    string   `yaml:"runtime,omitempty"`
	Handler    string   `yaml:"handler"`
	Package    *Package `yaml:"package,omitempty"`
	MemorySize int      `yaml:"memorySize,omitempty"`
	Timeout    int      `yaml:"timeout,omitempty"`
	Events     []Event  `yaml:"events,omitempty"`

	Extra map[string]any `yaml:",inline"`
}

// Package is a function's packaging directive. The plain form carries
// Include/Exclude, the bootstrap form carries Artifact.
type Package struct {
	Individually bool     `yaml:"individually,omitempty"`
	Include      []string `yaml:"include,omitempty"`
	Exclude      []string `yaml:"exclude,omitempty"`
	Artifact     string   `yaml:"artifact,omitempty"`
}

func Load(path string) (*Service, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	s, err := Parse(b)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("error resolving project dir: %w", err)
	}
	s.RootPath = root
	return s, nil
}

func Parse(b []byte) (*Service, error) {
	var s Service
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("error parsing YAML: %w", err)
	}
	if s.Functions == nil {
		s.Functions = map[string]*Function{}
	}
	return &s, nil
}

// Save writes the service definition, including any rewritten handlers
// and packaging, back out as YAML.
func (s *Service) Save(path string) error {
	b, err := s.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (s *Service) Marshal() ([]byte, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("error encoding YAML: %w", err)
	}
	return b, nil
}

// FunctionNames returns the registry keys in sorted order.
func (s *Service) FunctionNames() []string {
	names := make([]string, 0, len(s.Functions))
	for name := range s.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EffectiveRuntime is the function runtime, or the provider default.
func (s *Service) EffectiveRuntime(f *Function) string {
	if f.Runtime != "" {
		return f.Runtime
	}
	return s.Provider.Runtime
}

// Clone returns a copy of f that shares no slices with it.
func (f *Function) Clone() *Function {
	c := *f
	if f.Package != nil {
		p := *f.Package
		p.Include = append([]string(nil), f.Package.Include...)
		p.Exclude = append([]string(nil), f.Package.Exclude...)
		c.Package = &p
	}
	c.Events = append([]Event(nil), f.Events...)
	c.Extra = maps.Clone(f.Extra)
	return &c
}
