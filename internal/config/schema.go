package config

import (
	"fmt"
	"regexp"
)

var serviceName = regexp.MustCompile("^[a-zA-Z0-9-]+$")

func (s *Service) Validate() error {
	if s.Service == "" {
		return fmt.Errorf("field 'service' is required")
	}
	if !serviceName.MatchString(s.Service) {
		return fmt.Errorf("service name '%s' is invalid. Only alphanumeric and hyphens allowed", s.Service)
	}
	if len(s.Functions) == 0 {
		return fmt.Errorf("at least one function must be defined")
	}

	for _, name := range s.FunctionNames() {
		if err := s.Functions[name].Validate(name); err != nil {
			return err
		}
	}
	return nil
}

func (f *Function) Validate(funcName string) error {
	if f == nil {
		return fmt.Errorf("function '%s' has no definition", funcName)
	}
	if f.Handler == "" {
		return fmt.Errorf("handler is required for function '%s'", funcName)
	}
	if f.MemorySize != 0 && (f.MemorySize < 128 || f.MemorySize > 10240) {
		return fmt.Errorf("memorySize must be between 128 and 10240 for function '%s'", funcName)
	}
	if f.Timeout != 0 && (f.Timeout < 1 || f.Timeout > 900) {
		return fmt.Errorf("timeout must be between 1 and 900 seconds for function '%s'", funcName)
	}

	for i, event := range f.Events {
		if err := event.Validate(funcName, i); err != nil {
			return err
		}
	}
	return nil
}

func (e *Event) Validate(funcName string, index int) error {
	if e.Type == "" {
		return fmt.Errorf("event type is required for event %d in function '%s'", index, funcName)
	}

	switch e.Type {
	case "http":
		if e.Path == "" {
			return fmt.Errorf("path is required for HTTP events in function '%s'", funcName)
		}
		if e.Method == "" {
			return fmt.Errorf("method is required for HTTP events in function '%s'", funcName)
		}
	}
	return nil
}
