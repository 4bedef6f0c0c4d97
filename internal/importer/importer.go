// Package importer loads misuse metadata from a benchmark data directory.
//
// Every directory holding a meta.yml is one misuse. The directory name is
// "<project>.<version>"; explicit project and version fields in the metadata
// take precedence.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roguepikachu/reviewsite/internal/domain"
	"github.com/roguepikachu/reviewsite/internal/repository"
	"github.com/roguepikachu/reviewsite/pkg/logger"
)

// MetaFile is the metadata file marking a misuse directory.
const MetaFile = "meta.yml"

// ErrIncomplete reports metadata lacking a field needed to attach snippets.
var ErrIncomplete = errors.New("incomplete misuse metadata")

type meta struct {
	ID          string `yaml:"id"`
	Project     string `yaml:"project"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
	Location    struct {
		File   string `yaml:"file"`
		Method string `yaml:"method"`
	} `yaml:"location"`
}

// Importer writes parsed misuses into a repository.
type Importer struct {
	misuses repository.MisuseRepository
}

// New returns an Importer writing to misuses.
func New(misuses repository.MisuseRepository) *Importer {
	return &Importer{misuses: misuses}
}

// ImportDir walks root and upserts every misuse found. Directories with
// incomplete metadata are skipped and logged. It returns the number of
// misuses written.
func (im *Importer) ImportDir(ctx context.Context, root string) (int, error) {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		metaPath := filepath.Join(path, MetaFile)
		if _, statErr := os.Stat(metaPath); statErr != nil {
			return nil
		}
		m, err := ParseMisuse(path)
		if errors.Is(err, ErrIncomplete) {
			logger.WithField(ctx, "dir", path).Warn("skipping misuse: " + err.Error())
			return nil
		}
		if err != nil {
			return err
		}
		if err := im.misuses.Upsert(ctx, m); err != nil {
			return fmt.Errorf("store misuse %s: %w", m.ID, err)
		}
		count++
		return nil
	})
	if err != nil {
		return count, err
	}
	logger.With(ctx, map[string]any{"root": root, "count": count}).Info("misuses imported")
	return count, nil
}

// ParseMisuse reads dir/meta.yml into a Misuse.
func ParseMisuse(dir string) (domain.Misuse, error) {
	raw, err := os.ReadFile(filepath.Join(dir, MetaFile))
	if err != nil {
		return domain.Misuse{}, fmt.Errorf("read %s: %w", MetaFile, err)
	}
	var md meta
	if err := yaml.Unmarshal(raw, &md); err != nil {
		return domain.Misuse{}, fmt.Errorf("parse %s in %s: %w", MetaFile, dir, err)
	}

	name := filepath.Base(dir)
	project, version := splitName(name)
	m := domain.Misuse{
		ID:          md.ID,
		ProjectID:   project,
		VersionID:   version,
		File:        md.Location.File,
		Method:      md.Location.Method,
		Description: strings.TrimSpace(md.Description),
	}
	if m.ID == "" {
		m.ID = name
	}
	if md.Project != "" {
		m.ProjectID = md.Project
	}
	if md.Version != "" {
		m.VersionID = md.Version
	}

	switch {
	case m.ProjectID == "":
		return domain.Misuse{}, fmt.Errorf("%w: %s: no project", ErrIncomplete, dir)
	case m.VersionID == "":
		return domain.Misuse{}, fmt.Errorf("%w: %s: no version", ErrIncomplete, dir)
	case m.File == "":
		return domain.Misuse{}, fmt.Errorf("%w: %s: no location.file", ErrIncomplete, dir)
	}
	return m, nil
}

// splitName splits "<project>.<version>" on the first dot.
func splitName(name string) (project, version string) {
	project, version, _ = strings.Cut(name, ".")
	return project, version
}
