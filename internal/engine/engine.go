// Package engine synthesizes a CDK cloud assembly for the packaged
// functions of a service.
package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/qrioso-software/slsgo/internal/config"
	"github.com/qrioso-software/slsgo/internal/packaging"
)

const defaultStage = "dev"

func NewStack(scope constructs.Construct, id string, svc *config.Service, env *awscdk.Environment) (awscdk.Stack, error) {
	stack := awscdk.NewStack(scope, &id, &awscdk.StackProps{Env: env})
	stage := stageOf(svc)

	// One REST API per service, created on the first http event.
	var api awsapigateway.RestApi

	for _, logicalName := range svc.FunctionNames() {
		fn := svc.Functions[logicalName]
		runtimeName := svc.EffectiveRuntime(fn)
		runtime := toLambdaRuntime(runtimeName)
		if runtime == nil {
			return nil, fmt.Errorf("function %s: unsupported runtime %q", logicalName, runtimeName)
		}

		code, handler := codeFor(svc, fn)
		props := &awslambda.FunctionProps{
			FunctionName: jsii.String(fmt.Sprintf("%s-%s-%s", svc.Service, stage, logicalName)),
			Runtime:      runtime,
			Handler:      jsii.String(handler),
			Code:         code,
		}
		if svc.Provider.Architecture == "arm64" {
			props.Architecture = awslambda.Architecture_ARM_64()
		}
		if fn.MemorySize > 0 {
			props.MemorySize = jsii.Number(float64(fn.MemorySize))
		}
		if fn.Timeout > 0 {
			props.Timeout = awscdk.Duration_Seconds(jsii.Number(float64(fn.Timeout)))
		}
		lambdaFn := awslambda.NewFunction(stack, jsii.String(logicalName), props)

		for _, ev := range fn.Events {
			switch ev.Type {
			case "http":
				if api == nil {
					api = awsapigateway.NewRestApi(stack, jsii.String(fmt.Sprintf("%s-api", svc.Service)), &awsapigateway.RestApiProps{
						DeployOptions: &awsapigateway.StageOptions{
							StageName: jsii.String(stage),
						},
					})
				}
				res := api.Root().ResourceForPath(jsii.String(ev.Path))
				res.AddMethod(jsii.String(strings.ToUpper(ev.Method)), awsapigateway.NewLambdaIntegration(lambdaFn, nil), nil)
			}
		}
	}

	return stack, nil
}

// codeFor picks the deployment asset: the bootstrap zip when there is one,
// else the directory holding the built binary filtered down to it, else
// the project sources for functions that were never compiled.
func codeFor(svc *config.Service, fn *config.Function) (awslambda.Code, string) {
	root := svc.RootPath
	if fn.Package != nil && fn.Package.Artifact != "" {
		return awslambda.Code_FromAsset(jsii.String(filepath.Join(root, fn.Package.Artifact)), nil), packaging.BootstrapName
	}
	if fn.Package != nil && fn.Package.Individually {
		bin := filepath.Join(root, filepath.FromSlash(fn.Handler))
		return awslambda.Code_FromAsset(jsii.String(filepath.Dir(bin)), &awss3assets.AssetOptions{
			Exclude: jsii.Strings("*", "!"+filepath.Base(bin)),
		}), filepath.Base(bin)
	}
	return awslambda.Code_FromAsset(jsii.String(root), &awss3assets.AssetOptions{
		Exclude: jsii.Strings(".bin", "cdk.out", ".git"),
	}), fn.Handler
}

func stageOf(svc *config.Service) string {
	if svc.Provider.Stage != "" {
		return svc.Provider.Stage
	}
	return defaultStage
}

// Synth writes the cloud assembly for svc into outdir.
func Synth(svc *config.Service, outdir string) error {
	app := awscdk.NewApp(&awscdk.AppProps{Outdir: jsii.String(outdir)})

	var env *awscdk.Environment
	if svc.Provider.Region != "" {
		env = &awscdk.Environment{Region: jsii.String(svc.Provider.Region)}
	}

	if _, err := NewStack(app, fmt.Sprintf("%s-%s", svc.Service, stageOf(svc)), svc, env); err != nil {
		return err
	}
	app.Synth(nil)
	return nil
}
