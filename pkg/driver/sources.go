package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

// HomeEnv overrides the cache root used for git dictionary sources.
const HomeEnv = "TWADDLE_HOME"

// ResolveHome returns $TWADDLE_HOME, or ~/.twaddle when unset.
func ResolveHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(userHome, ".twaddle"), nil
}

// GitFetcher clones git dictionary sources into a cache directory, one
// checkout per pinned version.
type GitFetcher struct {
	CacheDir string
	Logger   *zap.Logger
}

func NewGitFetcher(cacheDir string, logger *zap.Logger) *GitFetcher {
	if cacheDir == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitFetcher{CacheDir: cacheDir, Logger: logger}
}

// Fetch checks out src and returns its lock entry.
func (g *GitFetcher) Fetch(name string, src *DictionarySource) (*LockedDictionary, error) {
	if g == nil {
		return nil, errors.New("git fetcher unavailable")
	}
	url := strings.TrimSpace(src.Git)
	if url == "" {
		return nil, fmt.Errorf("dictionary %q: git URL required", name)
	}

	baseDir := g.baseDir(name)
	version, commit, err := ensureGitCheckout(baseDir, url, src)
	if err != nil {
		return nil, err
	}

	checkoutDir := filepath.Join(baseDir, sanitizePathSegment(version))
	checksum, err := dirChecksum(checkoutDir)
	if err != nil {
		return nil, err
	}
	g.Logger.Info("fetched dictionary source",
		zap.String("dictionary", name),
		zap.String("url", url),
		zap.String("version", version))

	return &LockedDictionary{
		Name:     name,
		Version:  version,
		Source:   fmt.Sprintf("git+%s@%s", url, commit),
		Checksum: checksum,
	}, nil
}

// CheckoutDir is where a locked source lives in the cache, including its
// subdirectory.
func (g *GitFetcher) CheckoutDir(name string, src *DictionarySource, locked *LockedDictionary) string {
	dir := filepath.Join(g.baseDir(name), sanitizePathSegment(locked.Version))
	if src != nil && src.Subdir != "" {
		dir = filepath.Join(dir, filepath.Clean(src.Subdir))
	}
	return dir
}

func (g *GitFetcher) baseDir(name string) string {
	return filepath.Join(g.CacheDir, "dictionaries", sanitizePathSegment(name))
}

// Install fetches every git source of m that is missing from lock, or all
// of the named ones when update lists names (every git source when update is
// non-nil and empty). It returns the refreshed lockfile.
func Install(m *Manifest, lock *Lockfile, fetcher *GitFetcher, update []string) (*Lockfile, error) {
	if lock == nil {
		lock = NewLockfile(m.Name, "twaddle")
	}
	refresh := make(map[string]bool, len(update))
	for _, name := range update {
		if _, ok := m.Dictionaries[name]; !ok {
			return nil, fmt.Errorf("dictionary %q is not declared in %s", name, m.Path)
		}
		refresh[name] = true
	}
	updateAll := update != nil && len(update) == 0

	var gitNames []string
	for _, name := range m.DictionaryNames() {
		src := m.Dictionaries[name]
		if !src.IsGit() {
			continue
		}
		gitNames = append(gitNames, name)
		if locked, ok := lock.Find(name); ok && !updateAll && !refresh[name] {
			if _, err := os.Stat(fetcher.CheckoutDir(name, nil, locked)); err == nil {
				continue
			}
		}
		entry, err := fetcher.Fetch(name, src)
		if err != nil {
			return nil, fmt.Errorf("dictionary %q: %w", name, err)
		}
		lock.Put(entry)
	}
	lock.Retain(gitNames)
	return lock, nil
}

// SourceDirs maps every dictionary source of m to the local directory to
// load from. Git sources must already be installed and locked.
func SourceDirs(m *Manifest, lock *Lockfile, fetcher *GitFetcher) ([]string, error) {
	var dirs []string
	for _, name := range m.DictionaryNames() {
		src := m.Dictionaries[name]
		if !src.IsGit() {
			dirs = append(dirs, m.LocalPath(src))
			continue
		}
		locked, ok := lock.Find(name)
		if !ok || fetcher == nil {
			return nil, fmt.Errorf("dictionary %q is not installed; run `twaddle deps install`", name)
		}
		dir := fetcher.CheckoutDir(name, src, locked)
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("dictionary %q: checkout missing at %s; run `twaddle deps install`", name, dir)
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

func dirChecksum(path string) (string, error) {
	h := sha256.New()
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		h.Write([]byte(filepath.Base(p)))
		h.Write(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func ensureGitCheckout(baseDir, url string, src *DictionarySource) (string, string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", "", err
	}

	revision, descriptor, err := gitRevision(src)
	if err != nil {
		return "", "", err
	}

	tmpDir, err := os.MkdirTemp(baseDir, "git-fetch-*")
	if err != nil {
		return "", "", err
	}
	if err := os.RemoveAll(tmpDir); err != nil {
		return "", "", err
	}

	repo, err := git.PlainClone(tmpDir, false, &git.CloneOptions{URL: url})
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git clone %s: %w", url, err)
	}

	hash, err := repo.ResolveRevision(revision)
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	version := gitPinnedVersion(descriptor, hash.String())
	targetDir := filepath.Join(baseDir, sanitizePathSegment(version))
	if _, err := os.Stat(targetDir); err == nil {
		_ = os.RemoveAll(tmpDir)
		return version, hash.String(), nil
	}

	worktree, err := repo.Worktree()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Hash:  *hash,
		Force: true,
	}); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", fmt.Errorf("git checkout %s: %w", revision, err)
	}

	if err := os.Rename(tmpDir, targetDir); err != nil {
		_ = os.RemoveAll(tmpDir)
		return "", "", err
	}
	return version, hash.String(), nil
}

func gitPinnedVersion(descriptor, commit string) string {
	commit = strings.TrimSpace(commit)
	descriptor = strings.TrimSpace(descriptor)
	if commit == "" {
		return descriptor
	}
	if descriptor == "" || descriptor == commit {
		return commit
	}
	return fmt.Sprintf("%s@%s", descriptor, commit)
}

func gitRevision(src *DictionarySource) (plumbing.Revision, string, error) {
	if rev := strings.TrimSpace(src.Rev); rev != "" {
		return plumbing.Revision(rev), rev, nil
	}
	if tag := strings.TrimSpace(src.Tag); tag != "" {
		return plumbing.Revision("refs/tags/" + tag), tag, nil
	}
	if branch := strings.TrimSpace(src.Branch); branch != "" {
		return plumbing.Revision("refs/heads/" + branch), branch, nil
	}
	return "", "", fmt.Errorf("git sources require rev, tag, or branch")
}

func sanitizePathSegment(segment string) string {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "head"
	}
	var b strings.Builder
	for _, r := range segment {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
