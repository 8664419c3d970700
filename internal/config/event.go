package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Event is one entry of a function's events list in the single-key form
// the deployment tool reads, e.g.
//
//	- http:
//	    path: hello
//	    method: get
//
// Type is the key. Path and Method are read from the body for the event
// kinds that have them. The body as read is written back unchanged.
type Event struct {
	Type   string
	Path   string
	Method string

	body *yaml.Node
}

type eventBody struct {
	Path   string `yaml:"path,omitempty"`
	Method string `yaml:"method,omitempty"`
}

func (e *Event) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: an event must be a mapping with a single key", node.Line)
	}

	e.Type = node.Content[0].Value
	e.body = node.Content[1]

	switch e.body.Kind {
	case yaml.MappingNode:
		var body eventBody
		if err := e.body.Decode(&body); err != nil {
			return fmt.Errorf("line %d: %s event: %w", node.Line, e.Type, err)
		}
		e.Path, e.Method = body.Path, body.Method
	case yaml.ScalarNode:
		// http and httpApi accept the "METHOD path" shorthand.
		if e.Type == "http" || e.Type == "httpApi" {
			method, path, _ := strings.Cut(strings.TrimSpace(e.body.Value), " ")
			e.Method, e.Path = method, strings.TrimSpace(path)
		}
	}
	return nil
}

func (e Event) MarshalYAML() (any, error) {
	body := e.body
	if body == nil {
		body = &yaml.Node{}
		if err := body.Encode(eventBody{Path: e.Path, Method: e.Method}); err != nil {
			return nil, err
		}
	}
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Type},
			body,
		},
	}, nil
}
