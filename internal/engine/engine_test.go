package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qrioso-software/slsgo/internal/config"
)

func TestStageOf(t *testing.T) {
	assert.Equal(t, "dev", stageOf(&config.Service{}))
	assert.Equal(t, "prod", stageOf(&config.Service{Provider: config.Provider{Stage: "prod"}}))
}

// Synthesis drives the CDK through jsii and needs node.
func TestSynth(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not found")
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".bin"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".bin", "hello"), []byte("binary"), 0755))

	svc := &config.Service{
		Service:  "demo",
		RootPath: root,
		Provider: config.Provider{Runtime: "go1.x", Architecture: "arm64"},
		Functions: map[string]*config.Function{
			"hello": {
				Handler: ".bin/hello",
				Package: &config.Package{Individually: true, Exclude: []string{"./**"}, Include: []string{".bin/hello"}},
				Events:  []config.Event{{Type: "http", Path: "/hello", Method: "GET"}},
			},
		},
	}

	out := filepath.Join(root, "cdk.out")
	require.NoError(t, Synth(svc, out))
	assert.FileExists(t, filepath.Join(out, "manifest.json"))
}

func TestNewStackRejectsUnknownRuntime(t *testing.T) {
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node not found")
	}
	svc := &config.Service{
		Service:   "demo",
		RootPath:  t.TempDir(),
		Functions: map[string]*config.Function{"x": {Runtime: "cobol", Handler: "x"}},
	}
	assert.Error(t, Synth(svc, filepath.Join(svc.RootPath, "cdk.out")))
}
