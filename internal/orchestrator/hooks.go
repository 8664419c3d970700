package orchestrator

import (
	"context"
	"fmt"
	"sort"
)

// Lifecycle events the deployment tool fires around packaging.
const (
	BeforePackageAll      = "before:package:createDeploymentArtifacts"
	BeforePackageFunction = "before:deploy:function:packageFunction"
	BeforeInvokeLocal     = "before:invoke:local:invoke"
	BuildCommand          = "go:build:build"
)

// Hook handles one lifecycle event. function is only used by the
// single-function events.
type Hook func(ctx context.Context, function string) error

func (o *Orchestrator) Hooks() map[string]Hook {
	all := func(ctx context.Context, _ string) error { return o.CompileAll(ctx) }
	return map[string]Hook{
		BeforePackageAll:      all,
		BeforePackageFunction: o.CompileFunction,
		BeforeInvokeLocal:     o.CompileFunctionAndIgnorePackage,
		BuildCommand:          all,
	}
}

// HookNames lists the supported events in sorted order.
func (o *Orchestrator) HookNames() []string {
	var names []string
	for name := range o.Hooks() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o *Orchestrator) RunHook(ctx context.Context, event, function string) error {
	h, ok := o.Hooks()[event]
	if !ok {
		return fmt.Errorf("unknown lifecycle event %q", event)
	}
	return h(ctx, function)
}
