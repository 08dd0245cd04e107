// Package workspace manages the on-disk folder a loop runs against.
//
// The folder holds three user-owned markdown files: the base prompt, the
// backlog and the notepad. The loop only ever reads them; agents edit them.
package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"text/template"

	"github.com/r0-loop/r0/embedded"
)

const (
	// DefaultFolder is the workspace folder name relative to the project root.
	DefaultFolder = ".ralph"

	// PromptFile holds the base instructions sent every iteration.
	PromptFile = "prompt.md"

	// BacklogFile holds the checkbox task list.
	BacklogFile = "backlog.md"

	// NotepadFile holds the agent's cross-iteration memory.
	NotepadFile = "notepad.md"

	// ConfigFile is the optional project config inside the folder.
	ConfigFile = "config.yaml"
)

// requiredFiles are checked in this order by Validate.
var requiredFiles = []string{PromptFile, BacklogFile, NotepadFile}

// Snapshot is the content of the workspace files at one point in time.
type Snapshot struct {
	Prompt  string
	Backlog string
	Notepad string
}

// Workspace is a workspace folder rooted under a project directory.
type Workspace struct {
	// Root is the project directory the agent runs in.
	Root string

	// Folder is the workspace folder name, relative to Root unless absolute.
	Folder string
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithRoot sets the project directory.
func WithRoot(dir string) Option {
	return func(w *Workspace) {
		w.Root = dir
	}
}

// WithFolder sets the workspace folder name.
func WithFolder(folder string) Option {
	return func(w *Workspace) {
		if folder != "" {
			w.Folder = folder
		}
	}
}

// New creates a Workspace for the current directory and DefaultFolder.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		Root:   ".",
		Folder: DefaultFolder,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Dir returns the path of the workspace folder.
func (w *Workspace) Dir() string {
	if filepath.IsAbs(w.Folder) {
		return w.Folder
	}
	return filepath.Join(w.Root, w.Folder)
}

// Path returns the path of a file inside the workspace folder.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir(), name)
}

// AgentsDir returns the directory scanned for custom agent definitions.
func (w *Workspace) AgentsDir() string {
	return w.Path("agents")
}

// Validate checks the folder and every required file exist.
func (w *Workspace) Validate() error {
	info, err := os.Stat(w.Dir())
	if err != nil || !info.IsDir() {
		return &FolderNotFoundError{Folder: w.Folder}
	}
	for _, name := range requiredFiles {
		if _, err := os.Stat(w.Path(name)); err != nil {
			return &MissingFileError{Path: filepath.Join(w.Folder, name)}
		}
	}
	return nil
}

// Read loads all three files fresh from disk.
func (w *Workspace) Read() (Snapshot, error) {
	var snap Snapshot
	targets := []struct {
		name string
		dst  *string
	}{
		{PromptFile, &snap.Prompt},
		{BacklogFile, &snap.Backlog},
		{NotepadFile, &snap.Notepad},
	}
	for _, t := range targets {
		data, err := os.ReadFile(w.Path(t.name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return Snapshot{}, &MissingFileError{Path: filepath.Join(w.Folder, t.name)}
			}
			return Snapshot{}, fmt.Errorf("read %s: %w", t.name, err)
		}
		*t.dst = string(data)
	}
	return snap, nil
}

// ReadBacklog loads only the backlog file.
func (w *Workspace) ReadBacklog() (string, error) {
	data, err := os.ReadFile(w.Path(BacklogFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &MissingFileError{Path: filepath.Join(w.Folder, BacklogFile)}
		}
		return "", fmt.Errorf("read %s: %w", BacklogFile, err)
	}
	return string(data), nil
}

// Init scaffolds the folder from the embedded templates. It returns the
// written file paths, or ErrAlreadyInitialized if the folder exists.
func (w *Workspace) Init() ([]string, error) {
	if _, err := os.Stat(w.Dir()); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyInitialized, w.Folder)
	}
	if err := os.MkdirAll(w.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", w.Dir(), err)
	}

	data := struct{ Folder string }{Folder: w.Folder}
	var written []string
	for _, name := range requiredFiles {
		raw, err := fs.ReadFile(embedded.TemplatesFS, "templates/"+name)
		if err != nil {
			return written, fmt.Errorf("load template %s: %w", name, err)
		}
		tmpl, err := template.New(name).Parse(string(raw))
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return written, fmt.Errorf("render template %s: %w", name, err)
		}

		path := w.Path(name)
		if err := atomicWrite(path, func(wr io.Writer) error {
			_, err := wr.Write(buf.Bytes())
			return err
		}); err != nil {
			return written, fmt.Errorf("write %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// atomicWrite writes to a temp file in the target directory and renames it
// into place.
func atomicWrite(path string, writeFunc func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath) //nolint:errcheck // cleanup in error path
		}
	}()

	if err := writeFunc(tmpFile); err != nil {
		_ = tmpFile.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("write content: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close() //nolint:errcheck // cleanup in error path
		return fmt.Errorf("sync file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename to final: %w", err)
	}

	success = true
	return nil
}
