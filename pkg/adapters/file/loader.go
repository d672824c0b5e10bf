package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/psys/internal/compiler"
	"github.com/aretw0/psys/pkg/domain"
)

// Loader implements ports.RuleLoader over rule files on disk.
// Files are concatenated in the order given. Files ending in .yaml or .yml
// use the YAML layout; everything else is read as plain rule text.
type Loader struct {
	paths []string
}

// NewLoader creates a loader for the given files.
func NewLoader(paths ...string) *Loader {
	return &Loader{paths: append([]string(nil), paths...)}
}

// Paths returns the files the loader reads.
func (l *Loader) Paths() []string {
	return append([]string(nil), l.paths...)
}

// LoadRules reads and parses every file.
func (l *Loader) LoadRules(ctx context.Context) (domain.RuleSet, error) {
	if len(l.paths) == 0 {
		return nil, fmt.Errorf("no rule files given")
	}

	var rules domain.RuleSet
	for _, path := range l.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileRules, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		rules = append(rules, fileRules...)
	}
	return rules, nil
}

func loadFile(path string) (domain.RuleSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return compiler.ParseYAMLRules(data, path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return compiler.ParseRules(f, path)
	}
}
