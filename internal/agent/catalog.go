package agent

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/r0-loop/r0/embedded"
)

// DefaultAgent is used when no agent is selected.
const DefaultAgent = "claude"

// CustomDir is the directory, relative to the workspace folder, that holds
// user-supplied backend definitions.
const CustomDir = "agents"

// Definition describes how to launch a coding agent backend.
type Definition struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description,omitempty" json:"description,omitempty"`
	Binary      string            `yaml:"binary" json:"binary"`
	Args        []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`

	// Source records where the definition was loaded from.
	Source string `yaml:"-" json:"source"`
}

// commandArgs substitutes the prompt into Args. When no argument carries the
// placeholder the prompt is appended as the final argument.
func (d Definition) commandArgs(prompt string) []string {
	args := make([]string, 0, len(d.Args)+1)
	substituted := false
	for _, arg := range d.Args {
		if strings.Contains(arg, PromptPlaceholder) {
			arg = strings.ReplaceAll(arg, PromptPlaceholder, prompt)
			substituted = true
		}
		args = append(args, arg)
	}
	if !substituted {
		args = append(args, prompt)
	}
	return args
}

func (d Definition) normalize() Definition {
	d.Name = strings.ToLower(strings.TrimSpace(d.Name))
	d.Binary = strings.TrimSpace(d.Binary)
	return d
}

func (d Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if d.Binary == "" {
		return fmt.Errorf("%w: %q has no binary", ErrInvalidDefinition, d.Name)
	}
	return nil
}

// Catalog is the registry of known agent backends keyed by name.
type Catalog struct {
	defs map[string]Definition
	dir  string
}

// LoadCatalog returns the builtin backends plus any definitions found in
// customDir. Custom definitions override builtins of the same name. A missing
// customDir is not an error. Agents created from the catalog run in workDir.
func LoadCatalog(customDir, workDir string) (*Catalog, error) {
	c := &Catalog{defs: make(map[string]Definition), dir: workDir}

	builtin, err := loadDefinitions(embedded.AgentsFS, "agents", "builtin")
	if err != nil {
		return nil, fmt.Errorf("load builtin agents: %w", err)
	}
	for _, def := range builtin {
		c.defs[def.Name] = def
	}

	if strings.TrimSpace(customDir) == "" {
		return c, nil
	}
	if _, err := os.Stat(customDir); err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read custom agents from %s: %w", customDir, err)
	}
	custom, err := loadDefinitions(os.DirFS(customDir), ".", customDir)
	if err != nil {
		return nil, fmt.Errorf("load custom agents: %w", err)
	}
	for _, def := range custom {
		c.defs[def.Name] = def
	}
	return c, nil
}

func loadDefinitions(fsys fs.FS, dir, source string) ([]Definition, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var defs []Definition
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(path.Ext(entry.Name())) {
		case ".yaml", ".yml":
		default:
			continue
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var def Definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		def = def.normalize()
		if err := def.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
		def.Source = source
		if source != "builtin" {
			def.Source = filepath.Join(source, entry.Name())
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// Names returns the registered backend names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition looks up a backend by name (case-insensitive).
func (c *Catalog) Definition(name string) (Definition, bool) {
	def, ok := c.defs[strings.ToLower(strings.TrimSpace(name))]
	return def, ok
}

// Definitions returns every backend sorted by name.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.defs))
	for _, name := range c.Names() {
		defs = append(defs, c.defs[name])
	}
	return defs
}

// New creates the agent registered under name.
func (c *Catalog) New(name string) (Agent, error) {
	def, ok := c.Definition(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAgent, name, strings.Join(c.Names(), ", "))
	}
	return NewCommandAgent(def, c.dir), nil
}
