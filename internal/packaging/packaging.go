// Package packaging rewrites a built function's package directive, either
// as a plain include of the binary or as a bootstrap zip for provided
// runtimes.
package packaging

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/qrioso-software/slsgo/internal/config"
)

// BootstrapName is the executable a provided runtime looks for at the root
// of the deployment archive.
const BootstrapName = "bootstrap"

// ExcludeAll keeps the service's sources out of a function package.
const ExcludeAll = "./**"

// Plain packages the binary alone, followed by whatever the function
// already included. prior is not modified.
func Plain(binPath string, prior *config.Package) *config.Package {
	include := []string{binPath}
	if prior != nil {
		include = append(include, prior.Include...)
	}
	return &config.Package{
		Individually: true,
		Include:      include,
		Exclude:      []string{ExcludeAll},
	}
}

// ArtifactPath is the zip written next to the binary.
func ArtifactPath(binPath string) string {
	return binPath + ".zip"
}

// Packager writes bootstrap archives for functions of one project.
type Packager struct {
	ProjectDir  string
	NewArchiver func() Archiver
	Logger      *zap.Logger
}

// NewPackager returns a Packager writing zip files under projectDir.
func NewPackager(projectDir string, log *zap.Logger) *Packager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Packager{
		ProjectDir:  projectDir,
		NewArchiver: func() Archiver { return NewZipArchiver() },
		Logger:      log,
	}
}

// Bootstrap zips the binary at binPath (project relative, slash separated)
// as BootstrapName, adds the files matched by the include globs under
// their own directories, and returns the artifact directive.
func (p *Packager) Bootstrap(name, binPath string, include []string) (*config.Package, error) {
	bin, err := os.ReadFile(p.abs(binPath))
	if err != nil {
		return nil, fmt.Errorf("reading binary for %s: %w", name, err)
	}

	ar := p.NewArchiver()
	if err := ar.AddFile(BootstrapName, bin, 0755); err != nil {
		return nil, err
	}

	for _, pattern := range include {
		matches, err := doublestar.FilepathGlob(p.abs(pattern), doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("expanding include %q for %s: %w", pattern, name, err)
		}
		if len(matches) == 0 {
			p.Logger.Warn("Include matched no files", zap.String("function", name), zap.String("pattern", pattern))
			continue
		}
		for _, m := range matches {
			if err := ar.AddLocalFile(m, p.archiveDir(m)); err != nil {
				return nil, fmt.Errorf("adding %s to %s archive: %w", m, name, err)
			}
		}
	}

	artifact := ArtifactPath(binPath)
	dst := p.abs(artifact)
	if err := ar.Write(dst); err != nil {
		return nil, fmt.Errorf("writing %s: %w", artifact, err)
	}

	if info, err := os.Stat(dst); err == nil {
		p.Logger.Info("Packaged", zap.String("function", name), zap.String("artifact", artifact),
			zap.String("size", humanize.Bytes(uint64(info.Size()))))
	}

	return &config.Package{
		Individually: true,
		Artifact:     artifact,
	}, nil
}

func (p *Packager) root() string {
	if p.ProjectDir == "" {
		return "."
	}
	return p.ProjectDir
}

// archiveDir is where a matched include lands in the archive: its
// directory relative to the project, with leading ".." segments and any
// volume or root dropped so every entry stays inside the archive.
func (p *Packager) archiveDir(match string) string {
	dir := filepath.Dir(match)
	if rel, err := filepath.Rel(p.root(), dir); err == nil {
		dir = rel
	}
	dir = filepath.ToSlash(strings.TrimPrefix(dir, filepath.VolumeName(dir)))

	parts := strings.Split(dir, "/")
	for len(parts) > 0 && (parts[0] == ".." || parts[0] == "." || parts[0] == "") {
		parts = parts[1:]
	}
	return path.Join(parts...)
}

func (p *Packager) abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.root(), filepath.FromSlash(rel))
}
