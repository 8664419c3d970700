package engine

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
)

func toLambdaRuntime(s string) awslambda.Runtime {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	key = strings.ReplaceAll(key, " ", "")

	switch key {
	case "go1.x", "go1x", "go":
		return awslambda.Runtime_GO_1_X()
	case "provided.al2023", "providedal2023":
		return awslambda.Runtime_PROVIDED_AL2023()
	case "provided.al2", "providedal2":
		return awslambda.Runtime_PROVIDED_AL2()
	case "provided":
		return awslambda.Runtime_PROVIDED()
	case "nodejs20.x", "nodejs20x", "nodejs20":
		return awslambda.Runtime_NODEJS_20_X()
	case "nodejs18.x", "nodejs18x", "nodejs18":
		return awslambda.Runtime_NODEJS_18_X()
	case "python3.12", "python312":
		return awslambda.Runtime_PYTHON_3_12()
	case "python3.11", "python311":
		return awslambda.Runtime_PYTHON_3_11()
	default:
		return nil
	}
}
