package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"twaddle/interpreter-go/pkg/interpreter"
)

// ManifestName is the file name searched for by FindManifest.
const ManifestName = "twaddle.yml"

// ErrManifestNotFound is returned by FindManifest when no manifest exists
// between the start directory and the filesystem root.
var ErrManifestNotFound = errors.New(ManifestName + " not found")

// Manifest represents the parsed contents of twaddle.yml.
type Manifest struct {
	Path         string
	Name         string
	Dictionaries map[string]*DictionarySource
	Session      SessionSettings
}

// DictionarySource describes where a named dictionary set comes from: a
// local directory, or a git repository pinned by rev, tag or branch.
type DictionarySource struct {
	Path   string
	Git    string
	Rev    string
	Tag    string
	Branch string
	Subdir string
}

// IsGit reports whether the source is fetched from a git repository.
func (d *DictionarySource) IsGit() bool {
	return d != nil && d.Git != ""
}

// SessionSettings configures the interpreter session.
type SessionSettings struct {
	Strict             bool
	Persist            interpreter.Persistence
	MaxWhileIterations int
	Seed               uint64
}

// Options converts the settings into interpreter options.
func (s SessionSettings) Options(logger *zap.Logger) interpreter.Options {
	return interpreter.Options{
		Strict:             s.Strict,
		Persist:            s.Persist,
		MaxWhileIterations: s.MaxWhileIterations,
		Seed:               s.Seed,
		Logger:             logger,
	}
}

// ValidationError aggregates manifest validation failures.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "manifest: invalid configuration"
	}
	var b strings.Builder
	b.WriteString("manifest validation failed:")
	for _, issue := range e.Issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}

// LoadManifest parses twaddle.yml from disk, returning a validated manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return nil, fmt.Errorf("manifest: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: resolve %s: %w", path, err)
	}
	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", absPath, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw manifestFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %s is empty", absPath)
		}
		return nil, fmt.Errorf("manifest: parse %s: %w", absPath, err)
	}

	manifest := raw.toManifest(absPath)
	if err := manifest.validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// FindManifest walks upward from start looking for twaddle.yml.
func FindManifest(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("manifest: resolve %s: %w", start, err)
	}
	info, err := os.Stat(dir)
	if err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("manifest: %w from %s", ErrManifestNotFound, start)
		}
		dir = parent
	}
}

// Dir returns the directory containing the manifest.
func (m *Manifest) Dir() string {
	return filepath.Dir(m.Path)
}

// DictionaryNames lists the declared dictionary sources in sorted order.
func (m *Manifest) DictionaryNames() []string {
	names := make([]string, 0, len(m.Dictionaries))
	for name := range m.Dictionaries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LocalPath resolves a path source relative to the manifest directory.
func (m *Manifest) LocalPath(src *DictionarySource) string {
	if filepath.IsAbs(src.Path) {
		return src.Path
	}
	return filepath.Join(m.Dir(), src.Path)
}

func (m *Manifest) validate() error {
	var errs ValidationError
	if m.Name == "" {
		errs.Issues = append(errs.Issues, "name must be provided")
	}
	for _, name := range m.DictionaryNames() {
		src := m.Dictionaries[name]
		if src == nil {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dictionaries.%s: must specify path or git", name))
			continue
		}
		for _, issue := range src.validate() {
			errs.Issues = append(errs.Issues, fmt.Sprintf("dictionaries.%s: %s", name, issue))
		}
	}
	if m.Session.MaxWhileIterations < 0 {
		errs.Issues = append(errs.Issues, "session.max_while_iterations must not be negative")
	}
	if len(errs.Issues) > 0 {
		return &errs
	}
	return nil
}

func (d *DictionarySource) validate() []string {
	var errs []string
	if d.Path != "" && d.Git != "" {
		errs = append(errs, "path sources cannot also specify git")
	}
	if d.Path == "" && d.Git == "" {
		errs = append(errs, "must specify path or git")
	}
	pins := 0
	for _, pin := range []string{d.Rev, d.Tag, d.Branch} {
		if pin != "" {
			pins++
		}
	}
	if d.Git == "" && (pins > 0 || d.Subdir != "") {
		errs = append(errs, "rev, tag, branch and subdir apply only to git sources")
	}
	if d.Git != "" && pins == 0 {
		errs = append(errs, "git sources require rev, tag, or branch")
	}
	if pins > 1 {
		errs = append(errs, "specify only one of rev, tag, or branch")
	}
	if filepath.IsAbs(d.Subdir) || strings.HasPrefix(filepath.Clean(d.Subdir), "..") {
		errs = append(errs, fmt.Sprintf("subdir %q must stay inside the repository", d.Subdir))
	}
	return errs
}

type manifestFile struct {
	Name         string      `yaml:"name"`
	Dictionaries sourceMap   `yaml:"dictionaries"`
	Session      sessionYAML `yaml:"session"`
}

type sessionYAML struct {
	Strict             bool            `yaml:"strict"`
	Persistent         persistenceYAML `yaml:"persistent"`
	MaxWhileIterations int             `yaml:"max_while_iterations"`
	Seed               uint64          `yaml:"seed"`
}

type persistenceYAML interpreter.Persistence

type sourceMap map[string]*DictionarySource

func (mf manifestFile) toManifest(path string) *Manifest {
	result := &Manifest{
		Path:         path,
		Name:         sanitizeSegment(mf.Name),
		Dictionaries: make(map[string]*DictionarySource, len(mf.Dictionaries)),
		Session: SessionSettings{
			Strict:             mf.Session.Strict,
			Persist:            interpreter.Persistence(mf.Session.Persistent),
			MaxWhileIterations: mf.Session.MaxWhileIterations,
			Seed:               mf.Session.Seed,
		},
	}
	for name, src := range mf.Dictionaries {
		if src == nil {
			result.Dictionaries[name] = nil
			continue
		}
		copy := *src
		result.Dictionaries[name] = &copy
	}
	return result
}

func (p *persistenceYAML) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" {
			*p = persistenceYAML{}
			return nil
		}
		var all bool
		if err := value.Decode(&all); err != nil {
			return fmt.Errorf("manifest: persistent must be a bool or a mapping: %w", err)
		}
		*p = persistenceYAML{Labels: all, Synchronizers: all, Patterns: all, Clipboard: all}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Labels        bool `yaml:"labels"`
			Synchronizers bool `yaml:"synchronizers"`
			Patterns      bool `yaml:"patterns"`
			Clipboard     bool `yaml:"clipboard"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*p = persistenceYAML(raw)
		return nil
	case yaml.AliasNode:
		return p.UnmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("manifest: persistent must be a bool or a mapping, found %s", value.ShortTag())
	}
}

func (sm *sourceMap) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == 0 || (value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
		*sm = make(sourceMap)
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("manifest: dictionaries must be a mapping")
	}
	result := make(sourceMap, len(value.Content)/2)
	for i := 0; i < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return err
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("manifest: dictionary names must be non-empty")
		}
		var src DictionarySource
		if err := src.unmarshalYAML(valNode); err != nil {
			return fmt.Errorf("manifest: dictionary %q: %w", key, err)
		}
		if src == (DictionarySource{}) {
			result[key] = nil
			continue
		}
		result[key] = &src
	}
	*sm = result
	return nil
}

func (d *DictionarySource) unmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || strings.TrimSpace(value.Value) == "" {
			*d = DictionarySource{}
			return nil
		}
		*d = DictionarySource{Path: strings.TrimSpace(value.Value)}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Path   string `yaml:"path"`
			Git    string `yaml:"git"`
			Rev    string `yaml:"rev"`
			Tag    string `yaml:"tag"`
			Branch string `yaml:"branch"`
			Subdir string `yaml:"subdir"`
		}
		if err := value.Decode(&raw); err != nil {
			return err
		}
		*d = DictionarySource{
			Path:   strings.TrimSpace(raw.Path),
			Git:    strings.TrimSpace(raw.Git),
			Rev:    strings.TrimSpace(raw.Rev),
			Tag:    strings.TrimSpace(raw.Tag),
			Branch: strings.TrimSpace(raw.Branch),
			Subdir: strings.TrimSpace(raw.Subdir),
		}
		return nil
	case yaml.AliasNode:
		return d.unmarshalYAML(value.Alias)
	default:
		return fmt.Errorf("expected string or mapping, found %s", value.ShortTag())
	}
}

func sanitizeSegment(seg string) string {
	seg = strings.TrimSpace(seg)
	seg = strings.ReplaceAll(seg, "-", "_")
	return seg
}
