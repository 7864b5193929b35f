package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"twaddle/interpreter-go/pkg/checker"
	"twaddle/interpreter-go/pkg/driver"
	"twaddle/interpreter-go/pkg/interpreter"
	"twaddle/interpreter-go/pkg/lookup"
)

const cliToolVersion = "twaddle-cli 0.0.0-dev"

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	noteStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	return newCLI(os.Stdin, os.Stdout, os.Stderr).execute(args)
}

// cli holds the flag values and streams shared by every subcommand.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	dicts      []string
	strict     bool
	persistent bool
	seed       uint64
	maxWhile   int
	count      int
	watch      bool
	verbose    bool

	logger *zap.Logger
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (c *cli) execute(args []string) int {
	root := c.rootCommand()
	root.SetArgs(args)
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(c.stderr, errorStyle.Render("error: "+err.Error()))
		return 1
	}
	return 0
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "twaddle",
		Short: "Procedural text generation from twaddle patterns",
		Long: `twaddle expands template patterns into varied natural-language text.

Patterns combine weighted choices {a|b}, dictionary lookups <noun.plural-animal>,
functions [rep:3][sep:, ]{x} and regex substitutions. Dictionaries come from the
twaddle.yml manifest nearest the working directory and from --dict directories.

Run without a subcommand to start the interactive shell.`,
		Version:       cliToolVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runREPL(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringArrayVar(&c.dicts, "dict", nil, "additional dictionary directory (repeatable)")
	flags.BoolVar(&c.strict, "strict", false, "reject unknown lookup tags and labels")
	flags.BoolVar(&c.persistent, "persistent", false, "keep labels, synchronizers, patterns and clipboard between evaluations")
	flags.Uint64Var(&c.seed, "seed", 0, "random seed (0 seeds from the clock)")
	flags.IntVar(&c.maxWhile, "max-while", 0, "iteration cap for [while] blocks (0 keeps the default)")
	flags.BoolVar(&c.watch, "watch", false, "reload dictionaries when .dic files change")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.runCommand(), c.checkCommand(), c.replCommand(), c.depsCommand())
	return root
}

func (c *cli) initLogger() error {
	if c.logger != nil {
		return nil
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if c.verbose {
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c.logger = logger.With(zap.String("session", uuid.NewString()))
	return nil
}

func (c *cli) runCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [PATTERN...]",
		Short: "Evaluate patterns and print one line per result",
		Long: `Evaluates every PATTERN --count times, printing each result on its own line.
With no arguments, patterns are read from standard input one per line.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.count < 1 {
				return fmt.Errorf("--count must be at least 1 (got %d)", c.count)
			}
			sess, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, pattern := range args {
					if err := c.emit(out, sess.interp, pattern); err != nil {
						return err
					}
				}
				return nil
			}
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := scanner.Text()
				if strings.TrimSpace(line) == "" {
					continue
				}
				if err := c.emit(out, sess.interp, line); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().IntVarP(&c.count, "count", "n", 1, "number of evaluations per pattern")
	return cmd
}

func (c *cli) emit(out io.Writer, interp *interpreter.Interpreter, pattern string) error {
	for i := 0; i < c.count; i++ {
		text, err := interp.Evaluate(pattern)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, text)
	}
	return nil
}

// session bundles the interpreter with the dictionaries backing it.
type session struct {
	interp  *interpreter.Interpreter
	manager *lookup.Manager
	dirs    []string
	strict  bool
	watcher *driver.Watcher
	logger  *zap.Logger
}

func (s *session) checker() *checker.Checker {
	return checker.New(checker.Options{
		Functions:    s.interp,
		Dictionaries: s.manager,
		Strict:       s.strict,
	})
}

func (s *session) watch(ctx context.Context) error {
	if len(s.dirs) == 0 {
		return errors.New("--watch needs at least one dictionary directory")
	}
	w, err := driver.NewWatcher(s.manager, s.dirs, s.logger)
	if err != nil {
		return fmt.Errorf("start dictionary watcher: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return fmt.Errorf("start dictionary watcher: %w", err)
	}
	s.watcher = w
	return nil
}

func (s *session) Close() {
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
}

func (c *cli) openSession(cmd *cobra.Command) (*session, error) {
	manifest, err := loadManifestFrom("")
	if err != nil {
		return nil, err
	}

	var settings driver.SessionSettings
	var dirs []string
	if manifest != nil {
		settings = manifest.Session
		lock, err := loadLockfileForManifest(manifest)
		if err != nil {
			return nil, err
		}
		var fetcher *driver.GitFetcher
		if manifestHasGitSources(manifest) {
			home, err := driver.ResolveHome()
			if err != nil {
				return nil, err
			}
			fetcher = driver.NewGitFetcher(home, c.logger)
		}
		dirs, err = driver.SourceDirs(manifest, lock, fetcher)
		if err != nil {
			return nil, err
		}
	}
	for _, dir := range c.dicts {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("resolve dictionary directory %q: %w", dir, err)
		}
		dirs = append(dirs, abs)
	}
	c.applyFlags(cmd, &settings)

	dicts, err := driver.LoadDirs(cmd.Context(), dirs, c.logger)
	if err != nil {
		return nil, err
	}
	manager := lookup.NewManager(dicts...)
	return &session{
		interp:  interpreter.New(manager, settings.Options(c.logger)),
		manager: manager,
		dirs:    dirs,
		strict:  settings.Strict,
		logger:  c.logger,
	}, nil
}

// applyFlags lets explicitly set flags override the manifest's session block.
func (c *cli) applyFlags(cmd *cobra.Command, settings *driver.SessionSettings) {
	flags := cmd.Flags()
	if flags.Changed("strict") {
		settings.Strict = c.strict
	}
	if flags.Changed("persistent") {
		if c.persistent {
			settings.Persist = interpreter.PersistAll()
		} else {
			settings.Persist = interpreter.Persistence{}
		}
	}
	if flags.Changed("seed") {
		settings.Seed = c.seed
	}
	if flags.Changed("max-while") {
		settings.MaxWhileIterations = c.maxWhile
	}
}

func loadManifestFrom(start string) (*driver.Manifest, error) {
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		start = cwd
	}
	path, err := driver.FindManifest(start)
	if err != nil {
		if errors.Is(err, driver.ErrManifestNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return driver.LoadManifest(path)
}

func loadLockfileForManifest(manifest *driver.Manifest) (*driver.Lockfile, error) {
	if manifest == nil {
		return nil, nil
	}
	lockPath := filepath.Join(manifest.Dir(), driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if manifestHasGitSources(manifest) {
				return nil, fmt.Errorf("%s missing for %q; run `twaddle deps install`", driver.LockfileName, manifest.Name)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read lockfile %s: %w", lockPath, err)
	}
	if lock.Root != manifest.Name {
		return nil, fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
	}
	return lock, nil
}

func manifestHasGitSources(manifest *driver.Manifest) bool {
	if manifest == nil {
		return false
	}
	for _, src := range manifest.Dictionaries {
		if src.IsGit() {
			return true
		}
	}
	return false
}
