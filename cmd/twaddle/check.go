package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"twaddle/interpreter-go/pkg/checker"
)

func (c *cli) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check PATTERN...",
		Short: "Report problems in patterns without evaluating them",
		Long: `Compiles every PATTERN and checks it against the registered functions and
loaded dictionaries. Exits non-zero when any pattern fails to compile or has
an error-level diagnostic; warnings are printed but do not fail the check.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.openSession(cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			failed := 0
			for _, pattern := range args {
				if !sess.checkPattern(pattern, cmd.OutOrStdout()) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d pattern(s) failed the check", failed, len(args))
			}
			return nil
		},
	}
}

// checkPattern prints the diagnostics for pattern and reports whether it
// is free of errors.
func (s *session) checkPattern(pattern string, out io.Writer) bool {
	diags, err := s.checker().Check(pattern)
	if err != nil {
		fmt.Fprintf(out, "%s\n  %s\n", pattern, errorStyle.Render("error: "+err.Error()))
		return false
	}
	if len(diags) == 0 {
		fmt.Fprintf(out, "%s\n  %s\n", pattern, noteStyle.Render("ok"))
		return true
	}
	fmt.Fprintln(out, pattern)
	for _, d := range diags {
		style := noteStyle
		if d.Severity == checker.SeverityError {
			style = errorStyle
		}
		fmt.Fprintf(out, "  %s\n", style.Render(d.String()))
	}
	return !checker.HasErrors(diags)
}
