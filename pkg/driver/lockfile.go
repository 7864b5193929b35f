package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LockfileName sits next to twaddle.yml.
const LockfileName = "twaddle.lock"

// Lockfile models the twaddle.lock contents.
type Lockfile struct {
	Path         string
	Root         string
	Generated    string
	Tool         string
	Dictionaries []*LockedDictionary
}

// LockedDictionary captures one fetched git dictionary source.
type LockedDictionary struct {
	Name     string
	Version  string
	Source   string
	Checksum string
}

// NewLockfile constructs a lockfile with metadata seeded for the provided root.
func NewLockfile(root, tool string) *Lockfile {
	return &Lockfile{
		Root:         sanitizeSegment(root),
		Generated:    time.Now().UTC().Format(time.RFC3339),
		Tool:         strings.TrimSpace(tool),
		Dictionaries: []*LockedDictionary{},
	}
}

// LoadLockfile parses twaddle.lock from disk.
func LoadLockfile(path string) (*Lockfile, error) {
	if path == "" {
		return nil, fmt.Errorf("lockfile: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw lockfileDisk
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("lockfile: parse %s: %w", abs, err)
	}

	lock := raw.toLockfile()
	lock.Path = abs
	return lock, nil
}

// WriteLockfile serialises the lockfile back to disk, refreshing metadata.
func WriteLockfile(lock *Lockfile, path string) error {
	if lock == nil {
		return fmt.Errorf("lockfile: nil lockfile")
	}
	if path == "" {
		if lock.Path == "" {
			return fmt.Errorf("lockfile: missing path")
		}
		path = lock.Path
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("lockfile: resolve %s: %w", path, err)
	}

	if lock.Generated == "" {
		lock.Generated = time.Now().UTC().Format(time.RFC3339)
	}
	lock.Path = abs
	lock.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(lock.toDisk()); err != nil {
		return fmt.Errorf("lockfile: marshal %s: %w", abs, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("lockfile: encoder close: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("lockfile: write %s: %w", abs, err)
	}
	return nil
}

// Find returns the locked entry for name.
func (l *Lockfile) Find(name string) (*LockedDictionary, bool) {
	if l == nil {
		return nil, false
	}
	for _, dict := range l.Dictionaries {
		if dict != nil && dict.Name == name {
			return dict, true
		}
	}
	return nil, false
}

// Put adds or replaces the entry with the same name.
func (l *Lockfile) Put(entry *LockedDictionary) {
	for idx, dict := range l.Dictionaries {
		if dict != nil && dict.Name == entry.Name {
			l.Dictionaries[idx] = entry
			return
		}
	}
	l.Dictionaries = append(l.Dictionaries, entry)
}

// Retain drops entries whose names are not in keep.
func (l *Lockfile) Retain(keep []string) {
	allowed := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		allowed[name] = struct{}{}
	}
	out := l.Dictionaries[:0]
	for _, dict := range l.Dictionaries {
		if dict == nil {
			continue
		}
		if _, ok := allowed[dict.Name]; ok {
			out = append(out, dict)
		}
	}
	l.Dictionaries = out
}

func (l *Lockfile) normalize() {
	if l == nil {
		return
	}
	l.Root = sanitizeSegment(l.Root)
	l.Tool = strings.TrimSpace(l.Tool)
	sort.SliceStable(l.Dictionaries, func(i, j int) bool {
		return l.Dictionaries[i].Name < l.Dictionaries[j].Name
	})
	for _, dict := range l.Dictionaries {
		if dict == nil {
			continue
		}
		dict.Name = strings.TrimSpace(dict.Name)
		dict.Version = strings.TrimSpace(dict.Version)
		dict.Source = strings.TrimSpace(dict.Source)
		dict.Checksum = strings.TrimSpace(dict.Checksum)
	}
}

func (l *Lockfile) toDisk() lockfileDisk {
	dicts := make([]lockfileDictionary, 0, len(l.Dictionaries))
	for _, dict := range l.Dictionaries {
		if dict == nil {
			continue
		}
		dicts = append(dicts, lockfileDictionary{
			Name:     dict.Name,
			Version:  dict.Version,
			Source:   dict.Source,
			Checksum: dict.Checksum,
		})
	}
	return lockfileDisk{
		Root:         l.Root,
		Generated:    l.Generated,
		Tool:         l.Tool,
		Dictionaries: dicts,
	}
}

type lockfileDisk struct {
	Root         string               `yaml:"root"`
	Generated    string               `yaml:"generated"`
	Tool         string               `yaml:"tool"`
	Dictionaries []lockfileDictionary `yaml:"dictionaries"`
}

type lockfileDictionary struct {
	Name     string `yaml:"name"`
	Version  string `yaml:"version"`
	Source   string `yaml:"source"`
	Checksum string `yaml:"checksum"`
}

func (d lockfileDisk) toLockfile() *Lockfile {
	lock := &Lockfile{
		Root:         d.Root,
		Generated:    strings.TrimSpace(d.Generated),
		Tool:         d.Tool,
		Dictionaries: make([]*LockedDictionary, 0, len(d.Dictionaries)),
	}
	for _, dict := range d.Dictionaries {
		lock.Dictionaries = append(lock.Dictionaries, &LockedDictionary{
			Name:     dict.Name,
			Version:  dict.Version,
			Source:   dict.Source,
			Checksum: dict.Checksum,
		})
	}
	lock.normalize()
	return lock
}
