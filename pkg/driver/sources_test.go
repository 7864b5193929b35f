package driver

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

func initGitRepo(t *testing.T, dir string) string {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	worktree, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == filepath.Join(dir, ".git") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		_, err = worktree.Add(filepath.ToSlash(rel))
		return err
	}))
	hash, err := worktree.Commit("init", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Twaddle",
			Email: "twaddle@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}

func writeGitManifest(t *testing.T, dir, repoDir, rev string) *Manifest {
	t.Helper()
	local := filepath.Join(dir, "local")
	writeFile(t, filepath.Join(local, "adj.dic"), "#name adj\n#forms plain\n> big")
	writeFile(t, filepath.Join(dir, ManifestName), `
name: demo
dictionaries:
  local: ./local
  remote:
    git: `+repoDir+`
    rev: `+rev+`
    subdir: dicts
`)
	manifest, err := LoadManifest(filepath.Join(dir, ManifestName))
	require.NoError(t, err)
	return manifest
}

func TestInstallFetchesGitSources(t *testing.T) {
	root := t.TempDir()
	repoDir := filepath.Join(root, "repo")
	writeFile(t, filepath.Join(repoDir, "dicts", "noun.dic"), nounDictionary)
	commit := initGitRepo(t, repoDir)

	projectDir := filepath.Join(root, "project")
	manifest := writeGitManifest(t, projectDir, repoDir, commit)
	fetcher := NewGitFetcher(filepath.Join(root, "cache"), nil)

	_, err := SourceDirs(manifest, nil, fetcher)
	require.ErrorContains(t, err, `dictionary "remote" is not installed`)

	lock, err := Install(manifest, nil, fetcher, nil)
	require.NoError(t, err)
	locked, ok := lock.Find("remote")
	require.True(t, ok)
	require.Equal(t, commit, locked.Version)
	require.True(t, strings.HasPrefix(locked.Source, "git+"+repoDir+"@"))
	require.NotEmpty(t, locked.Checksum)
	_, ok = lock.Find("local")
	require.False(t, ok, "path sources are not locked")

	dirs, err := SourceDirs(manifest, lock, fetcher)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(projectDir, "local"),
		filepath.Join(root, "cache", "dictionaries", "remote", commit, "dicts"),
	}, dirs)

	dicts, err := LoadDirs(context.Background(), dirs, nil)
	require.NoError(t, err)
	require.Len(t, dicts, 2)

	again, err := Install(manifest, lock, fetcher, nil)
	require.NoError(t, err)
	relocked, _ := again.Find("remote")
	require.Equal(t, locked.Checksum, relocked.Checksum)
}

func TestInstallUpdateRejectsUnknownNames(t *testing.T) {
	root := t.TempDir()
	manifest := writeGitManifest(t, root, "https://example.com/unused.git", "abc")
	_, err := Install(manifest, nil, NewGitFetcher(t.TempDir(), nil), []string{"nope"})
	require.ErrorContains(t, err, `dictionary "nope" is not declared`)
}

func TestResolveHome(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	home, err := ResolveHome()
	require.NoError(t, err)
	require.Equal(t, dir, home)

	t.Setenv(HomeEnv, "")
	t.Setenv("HOME", dir)
	home, err = ResolveHome()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ".twaddle"), home)
}

func TestSanitizePathSegment(t *testing.T) {
	require.Equal(t, "head", sanitizePathSegment("  "))
	require.Equal(t, "v1.0_abc", sanitizePathSegment("v1.0@abc"))
	require.Equal(t, "a_b", sanitizePathSegment("a/b"))
}
