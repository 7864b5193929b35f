package main

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"twaddle/interpreter-go/pkg/driver"
	"twaddle/interpreter-go/pkg/interpreter"
	"twaddle/interpreter-go/pkg/lookup"
)

const nounDictionary = `#name noun
#forms singular plural
#class add animal
> cat/cats
> dog/dogs
#class remove animal
#class add shape
> box/boxes
`

func TestRunEvaluatesPatternsFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "dicts", "noun.dic"), nounDictionary)
	writeFile(t, filepath.Join(dir, driver.ManifestName), `
name: demo
dictionaries:
  core: ./dicts
session:
  seed: 7
`)
	chdir(t, filepath.Join(dir, "dicts"))

	code, stdout, stderr := captureCLI(t, "", "run", "--count", "4", "<noun.plural-animal>")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	for _, line := range lines {
		require.Contains(t, []string{"cats", "dogs"}, line)
	}

	_, again, _ := captureCLI(t, "", "run", "--count", "4", "<noun.plural-animal>")
	require.Equal(t, stdout, again, "manifest seed should make runs repeatable")
}

func TestRunSeedFlagOverridesManifest(t *testing.T) {
	chdir(t, t.TempDir())

	pattern := "[rep:6]{a|b|c|d|e|f|g}"
	_, first, _ := captureCLI(t, "", "run", "--seed", "11", pattern)
	_, second, _ := captureCLI(t, "", "run", "--seed", "11", pattern)
	require.Equal(t, first, second)
	require.Len(t, strings.TrimSpace(first), 6)
}

func TestRunReadsPatternsFromStdin(t *testing.T) {
	chdir(t, t.TempDir())

	code, stdout, stderr := captureCLI(t, "{x|x}\n\n[case:upper]shout\n", "run")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "x\nSHOUT\n", stdout)
}

func TestRunWithDictFlag(t *testing.T) {
	chdir(t, t.TempDir())
	dicts := t.TempDir()
	writeFile(t, filepath.Join(dicts, "nested", "noun.dic"), nounDictionary)

	code, stdout, stderr := captureCLI(t, "", "run", "--dict", dicts, `\a <noun-shape>`)
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "a box\n", stdout)
}

func TestRunReportsEvaluationErrors(t *testing.T) {
	chdir(t, t.TempDir())

	code, stdout, stderr := captureCLI(t, "", "run", "<verb>")
	require.Equal(t, 1, code)
	require.Empty(t, stdout)
	require.Contains(t, stderr, "no dictionary loaded named verb")

	code, _, stderr = captureCLI(t, "", "run", "{unterminated")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "error:")
}

func TestRunRejectsNonPositiveCount(t *testing.T) {
	chdir(t, t.TempDir())

	code, _, stderr := captureCLI(t, "", "run", "--count", "0", "x")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "--count must be at least 1")
}

func TestRunReportsInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestName), "dictionaries: {}\n")
	chdir(t, dir)

	code, _, stderr := captureCLI(t, "", "run", "x")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "name must be provided")
}

func TestRunRequiresLockfileForGitSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestName), `
name: demo
dictionaries:
  fantasy:
    git: https://example.invalid/fantasy.git
    tag: v1.0.0
`)
	chdir(t, dir)

	code, _, stderr := captureCLI(t, "", "run", "x")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "twaddle.lock missing for \"demo\"")
}

func TestDepsInstallLocksGitSources(t *testing.T) {
	t.Setenv(driver.HomeEnv, t.TempDir())

	repoDir := t.TempDir()
	writeFile(t, filepath.Join(repoDir, "dicts", "adj.dic"), "#name adj\n#forms plain\n> enormous\n")
	commit := initGitRepo(t, repoDir)

	project := t.TempDir()
	writeFile(t, filepath.Join(project, driver.ManifestName), `
name: demo
dictionaries:
  fantasy:
    git: `+repoDir+`
    rev: `+commit+`
    subdir: dicts
`)
	chdir(t, project)

	code, stdout, stderr := captureCLI(t, "", "deps", "install")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "Dictionary sources: 1")
	require.Contains(t, stdout, "Lockfile written to")

	lock, err := driver.LoadLockfile(filepath.Join(project, driver.LockfileName))
	require.NoError(t, err)
	require.Equal(t, "demo", lock.Root)
	require.Equal(t, cliToolVersion, lock.Tool)
	require.Len(t, lock.Dictionaries, 1)
	require.Equal(t, "fantasy", lock.Dictionaries[0].Name)
	require.Contains(t, lock.Dictionaries[0].Source, commit)

	code, stdout, stderr = captureCLI(t, "", "run", "an <adj>")
	require.Equal(t, 0, code, stderr)
	require.Equal(t, "an enormous\n", stdout)

	code, _, stderr = captureCLI(t, "", "deps", "update", "fantasy")
	require.Equal(t, 0, code, stderr)

	code, _, stderr = captureCLI(t, "", "deps", "update", "missing")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, `dictionary "missing" is not declared`)
}

func TestDepsInstallWithoutManifest(t *testing.T) {
	chdir(t, t.TempDir())

	code, _, stderr := captureCLI(t, "", "deps", "install")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "unable to locate twaddle.yml")
}

func TestDepsInstallRejectsForeignLockfile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, driver.ManifestName), "name: demo\ndictionaries:\n  core: ./dicts\n")
	lock := driver.NewLockfile("other", "test")
	require.NoError(t, driver.WriteLockfile(lock, filepath.Join(dir, driver.LockfileName)))
	chdir(t, dir)

	code, _, stderr := captureCLI(t, "", "deps", "install")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, `lockfile root "other" does not match manifest name "demo"`)
}

func TestCheckCommand(t *testing.T) {
	chdir(t, t.TempDir())
	dicts := t.TempDir()
	writeFile(t, filepath.Join(dicts, "noun.dic"), nounDictionary)

	code, stdout, stderr := captureCLI(t, "", "check", "--dict", dicts, "<noun.plural-animal>", "<noun-robot>")
	require.Equal(t, 0, code, stderr)
	require.Contains(t, stdout, "ok")
	require.Contains(t, stdout, "warning: lookup <noun>: unknown tag 'robot'")

	code, stdout, stderr = captureCLI(t, "", "check", "--dict", dicts, "--strict", "<noun-robot>", "[shout]", "{oops")
	require.Equal(t, 1, code)
	require.Contains(t, stdout, "error: lookup <noun>: unknown tag 'robot'")
	require.Contains(t, stdout, "no function found named 'shout'")
	require.Contains(t, stderr, "3 of 3 pattern(s) failed the check")
}

func TestVersionFlag(t *testing.T) {
	code, stdout, _ := captureCLI(t, "", "--version")
	require.Equal(t, 0, code)
	require.Contains(t, stdout, cliToolVersion)
}

func TestShellHandleLine(t *testing.T) {
	dict := lookup.NewDictionary("noun", []string{"singular"})
	require.NoError(t, dict.Add([]string{"owl"}, nil))
	manager := lookup.NewManager(dict)
	sess := &session{
		interp: interpreter.New(manager, interpreter.Options{
			Seed:    3,
			Persist: interpreter.PersistAll(),
		}),
		manager: manager,
		logger:  zap.NewNop(),
	}

	var out, errOut bytes.Buffer
	step := func(line string) bool {
		out.Reset()
		errOut.Reset()
		return sess.handleLine(line, &out, &errOut)
	}

	require.False(t, step("[x:s;locked]{an <noun>|an <noun>}"))
	require.Equal(t, "an owl\n", out.String())

	require.False(t, step(":syncs"))
	require.Equal(t, "s\n", out.String())

	require.False(t, step(":dicts"))
	require.Equal(t, "noun\n", out.String())

	require.False(t, step("<missing>"))
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "no dictionary loaded named missing")

	require.False(t, step(":syncs"))
	require.Contains(t, out.String(), "no synchronizers")

	require.False(t, step(":bogus"))
	require.Contains(t, errOut.String(), "unknown command :bogus")

	require.False(t, step(":check [gt:1]<noun.dual>"))
	require.Contains(t, out.String(), "greater_than expects 2 argument(s), got 1")
	require.Contains(t, out.String(), "unknown form 'dual'")

	require.False(t, step(":help"))
	require.Contains(t, out.String(), ":clear")

	require.True(t, step(":quit"))
}

func captureCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &stdout, &stderr)
	c.logger = zap.NewNop()
	code := c.execute(args)
	return code, stdout.String(), stderr.String()
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(oldWD); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

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
			Name:  "Twaddle CLI",
			Email: "twaddle@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(t, err)
	return hash.String()
}
