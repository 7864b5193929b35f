package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"twaddle/interpreter-go/pkg/driver"
)

func (c *cli) depsCommand() *cobra.Command {
	deps := &cobra.Command{
		Use:   "deps",
		Short: "Fetch and pin git dictionary sources",
	}
	deps.AddCommand(
		&cobra.Command{
			Use:   "install",
			Short: "Fetch git sources missing from twaddle.lock",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return c.installDeps(cmd, nil)
			},
		},
		&cobra.Command{
			Use:   "update [NAME...]",
			Short: "Re-resolve the named git sources, or all of them",
			RunE: func(cmd *cobra.Command, args []string) error {
				if args == nil {
					args = []string{}
				}
				return c.installDeps(cmd, args)
			},
		},
	)
	return deps
}

func (c *cli) installDeps(cmd *cobra.Command, update []string) error {
	manifest, err := loadManifestFrom("")
	if err != nil {
		return err
	}
	if manifest == nil {
		return fmt.Errorf("unable to locate %s", driver.ManifestName)
	}
	cacheDir, err := driver.ResolveHome()
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", driver.HomeEnv, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Manifest: %s\n", manifest.Path)
	fmt.Fprintf(out, "Root: %s\n", manifest.Name)
	fmt.Fprintf(out, "Dictionary sources: %d\n", len(manifest.Dictionaries))
	fmt.Fprintf(out, "Cache directory: %s\n", cacheDir)

	lockPath := filepath.Join(manifest.Dir(), driver.LockfileName)
	lock, err := driver.LoadLockfile(lockPath)
	switch {
	case err == nil:
		if lock.Root != manifest.Name {
			return fmt.Errorf("lockfile root %q does not match manifest name %q", lock.Root, manifest.Name)
		}
	case errors.Is(err, os.ErrNotExist):
		lock = driver.NewLockfile(manifest.Name, cliToolVersion)
	default:
		return fmt.Errorf("failed to read lockfile: %w", err)
	}
	lock.Tool = cliToolVersion

	lock, err = driver.Install(manifest, lock, driver.NewGitFetcher(cacheDir, c.logger), update)
	if err != nil {
		return err
	}
	if err := driver.WriteLockfile(lock, lockPath); err != nil {
		return err
	}

	if len(lock.Dictionaries) == 0 {
		fmt.Fprintln(out, "No git dictionary sources to lock.")
	}
	for _, dict := range lock.Dictionaries {
		fmt.Fprintf(out, "  %s %s\n", dict.Name, dict.Version)
	}
	fmt.Fprintf(out, "Lockfile written to %s\n", lockPath)
	return nil
}
