package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"twaddle/interpreter-go/pkg/driver"
)

const (
	replPrompt  = "twaddle> "
	historyFile = "history"
)

const replHelp = `Enter a pattern to evaluate it. Commands:
  :check P report problems in pattern P without evaluating it
  :clear   reset labels, synchronizers, saved patterns and clipboard
  :dicts   list loaded dictionaries
  :syncs   list live synchronizers
  :help    show this message
  :quit    leave the shell`

func (c *cli) replCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runREPL(cmd)
		},
	}
}

func (c *cli) runREPL(cmd *cobra.Command) error {
	sess, err := c.openSession(cmd)
	if err != nil {
		return err
	}
	defer sess.Close()
	if c.watch {
		if err := sess.watch(cmd.Context()); err != nil {
			return err
		}
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if histPath := historyPath(); histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := os.MkdirAll(filepath.Dir(histPath), 0o755); err != nil {
				return
			}
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	fmt.Fprintln(out, noteStyle.Render(cliToolVersion+" (:help for commands)"))
	for {
		line, err := ln.Prompt(replPrompt)
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)
		if quit := sess.handleLine(line, out, errOut); quit {
			return nil
		}
	}
}

// handleLine evaluates one shell line and reports whether the shell should
// exit. A failed evaluation clears the session.
func (s *session) handleLine(line string, out, errOut io.Writer) bool {
	trimmed := strings.TrimSpace(line)
	if rest, ok := strings.CutPrefix(trimmed, ":check "); ok {
		s.checkPattern(strings.TrimSpace(rest), out)
		return false
	}
	if strings.HasPrefix(trimmed, ":") {
		switch strings.ToLower(trimmed) {
		case ":quit", ":q", ":exit":
			return true
		case ":clear":
			s.interp.Clear()
			fmt.Fprintln(out, noteStyle.Render("session cleared"))
		case ":dicts":
			names := s.manager.Names()
			if len(names) == 0 {
				fmt.Fprintln(out, noteStyle.Render("no dictionaries loaded"))
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
		case ":syncs":
			syncs := s.interp.Synchronizers()
			if len(syncs) == 0 {
				fmt.Fprintln(out, noteStyle.Render("no synchronizers"))
			}
			for _, name := range syncs {
				fmt.Fprintln(out, name)
			}
		case ":help":
			fmt.Fprintln(out, replHelp)
		default:
			fmt.Fprintln(errOut, errorStyle.Render(fmt.Sprintf("unknown command %s (:help lists commands)", trimmed)))
		}
		return false
	}

	text, err := s.interp.Evaluate(line)
	if err != nil {
		fmt.Fprintln(errOut, errorStyle.Render(err.Error()))
		s.logger.Debug("evaluation failed, clearing session", zap.Error(err))
		s.interp.Clear()
		return false
	}
	fmt.Fprintln(out, text)
	return false
}

func historyPath() string {
	home, err := driver.ResolveHome()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}
