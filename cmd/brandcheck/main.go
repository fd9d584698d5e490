// Command brandcheck verifies screenshots against the brand palette from the
// command line.
//
//	brandcheck verify shots/home.png
//	brandcheck extract --out reports https://example.com/shot.png
//	brandcheck wait --timeout 3m http://localhost:8080
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

const (
	exitOK = iota
	exitError
	// exitVerdict means the check ran but the screenshot did not pass
	exitVerdict
)

// verdictError reports a check that ran to completion and failed
type verdictError struct {
	msg string
}

func (e *verdictError) Error() string { return e.msg }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := root.ExecuteContext(ctx)
	var verdict *verdictError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &verdict):
		fmt.Fprintln(stderr, verdict.msg)
		return exitVerdict
	default:
		fmt.Fprintf(stderr, "brandcheck: %v\n", err)
		return exitError
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "brandcheck",
		Short: "Check app screenshots against the brand palette",
		Long: `Check app screenshots against the brand palette.

Locations are file paths, file://, http(s)://, Azure blob URLs or
screen://<display>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetOut(cmd.ErrOrStderr())
			cmd.Usage()
			return errors.New("a command is required")
		},
		PersistentPreRunE: a.setup,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	a.output.register(root.PersistentFlags())
	a.match.register(root.PersistentFlags())

	root.AddCommand(
		newClassifyCmd(a),
		newVerifyCmd(a),
		newExtractCmd(a),
		newInspectCmd(a),
		newTextCmd(a),
		newWaitCmd(),
	)
	return root
}
