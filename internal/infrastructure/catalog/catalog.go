package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/masters-advisor/internal/core/domain"
)

// Catalog is an immutable list of programs loaded at startup.
type Catalog struct {
	programs []domain.Program
	byTitle  map[string]int
}

// New indexes programs by title. Titles must be non-empty and unique.
func New(programs []domain.Program) (*Catalog, error) {
	c := &Catalog{
		programs: make([]domain.Program, 0, len(programs)),
		byTitle:  make(map[string]int, len(programs)),
	}
	for i, p := range programs {
		key := titleKey(p.Title)
		if key == "" {
			return nil, fmt.Errorf("program #%d has empty title", i)
		}
		if _, dup := c.byTitle[key]; dup {
			return nil, fmt.Errorf("duplicate program title %q", p.Title)
		}
		c.byTitle[key] = len(c.programs)
		c.programs = append(c.programs, p)
	}
	return c, nil
}

// Load reads a JSON or YAML program list, picked by file extension.
func Load(path string) (*Catalog, error) {
	programs, err := ReadPrograms(path)
	if err != nil {
		return nil, err
	}
	c, err := New(programs)
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "catalog.load", err)
	}
	return c, nil
}

// ReadPrograms decodes the raw program list without validation.
func ReadPrograms(path string) ([]domain.Program, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "catalog.read", err)
	}

	var programs []domain.Program
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &programs)
	case ".json":
		err = json.Unmarshal(raw, &programs)
	default:
		err = fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrArtifact, "catalog.read", fmt.Errorf("decode %s: %w", path, err))
	}
	if len(programs) == 0 {
		return nil, domain.WrapError(domain.ErrArtifact, "catalog.read", fmt.Errorf("%s has no programs", path))
	}
	return programs, nil
}

func (c *Catalog) List() []domain.Program {
	out := make([]domain.Program, len(c.programs))
	copy(out, c.programs)
	return out
}

// Get matches titles case-insensitively, ignoring surrounding whitespace.
func (c *Catalog) Get(title string) (domain.Program, error) {
	idx, ok := c.byTitle[titleKey(title)]
	if !ok {
		return domain.Program{}, domain.WrapError(domain.ErrProgramNotFound, "catalog.get", fmt.Errorf("title %q", title))
	}
	return c.programs[idx], nil
}

func titleKey(title string) string {
	return domain.ProgramKey(title)
}
