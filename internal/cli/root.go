// Package cli implements the forksync command-line interface.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vkalnins/forksync/internal/config"
	"github.com/vkalnins/forksync/internal/core"
	"github.com/vkalnins/forksync/internal/git"
)

var rootCmd = &cobra.Command{
	Use:   "forksync",
	Short: "Synchronize this grammar fork with its upstream source",
	Long: `Forksync keeps this fork in sync with its upstream grammar repository.
The fork's own changes are stored as an ordered series of patch files; the
tool runs one of two stages, detected from the checked-out branch:

  stage 1 (verify)    prove the stored patches reconstruct the fork's
                      downstream paths from the merge-base with upstream,
                      then create the target branch
  stage 2 (integrate) on the target branch, merge the newer upstream commit
                      and replay the stored patches on top

Forksync takes no arguments. The upstream reference defaults to
upstream/master and can be overridden with ` + config.UpstreamEnvVar + `.

Exit codes: 0 success, 1 usage or precondition failure, 2 stale patches,
3 patch replay failure.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runSync,
}

// errAborted marks a declined confirmation; the message is already printed.
var errAborted = errors.New("aborted by operator")

// ranWorkflow distinguishes workflow failures from cobra rejecting the
// invocation before the workflow started.
var ranWorkflow bool

// stdin is where confirm reads answers from; tests script it.
var stdin io.Reader = os.Stdin

// Execute runs the workflow and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	if !ranWorkflow {
		// Wrong invocation: usage error per the contract.
		fmt.Fprintf(os.Stderr, "error: %v\n\n%s", err, rootCmd.UsageString())
		return core.ExitUsage
	}

	if errors.Is(err, errAborted) {
		return core.ExitUsage
	}

	var exitErr *core.ExitError
	if errors.As(err, &exitErr) {
		printFailure(exitErr)
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return core.ExitUsage
}

func runSync(cmd *cobra.Command, args []string) error {
	ranWorkflow = true
	ctx := cmd.Context()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	sess := git.NewSession(wd)
	top, err := sess.Toplevel(ctx)
	if err != nil {
		return fmt.Errorf("not inside a git working tree: %w", err)
	}
	sess = git.NewSession(top)

	cfg, err := config.Load(top)
	if err != nil {
		return err
	}

	branch, err := sess.CurrentBranch(ctx)
	if err != nil {
		return err
	}

	switch core.DetectStage(branch, cfg) {
	case core.StageIntegrate:
		return runIntegrate(cmd, cfg, sess)
	default:
		return runVerify(cmd, cfg, sess)
	}
}

func runVerify(cmd *cobra.Command, cfg *config.Config, sess *git.Session) error {
	fmt.Printf("Stage 1: verifying stored patches against %s\n", cfg.UpstreamRef)

	res, err := core.Verify(cmd.Context(), cfg, sess)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("Verification passed: %d patch(es) reconstruct '%s' from merge-base %s\n",
		res.PatchCount, res.StartBranch, shortID(res.MergeBase))
	fmt.Printf("Now on branch '%s'. Run forksync again to merge upstream %s.\n",
		cfg.TargetBranch, res.UpstreamDescribe)
	return nil
}

func runIntegrate(cmd *cobra.Command, cfg *config.Config, sess *git.Session) error {
	yellow := color.New(color.FgYellow)
	yellow.Printf("Stage 2: about to merge %s into '%s' and replay the stored patches.\n",
		cfg.UpstreamRef, cfg.TargetBranch)
	fmt.Println("Replay conflicts, if any, are left for manual resolution.")

	if !confirm("Proceed? [y/N] ") {
		fmt.Fprintln(os.Stderr, "aborted; nothing was changed")
		return errAborted
	}

	res, err := core.Integrate(cmd.Context(), cfg, sess)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Printf("Upstream %s merged and %d patch(es) replayed.\n",
		res.UpstreamDescribe, res.PatchCount)
	fmt.Println("Next steps:")
	fmt.Printf("  1. review the result and run the grammar's test suite\n")
	fmt.Printf("  2. regenerate the stored patches in %s/ from %s\n",
		cfg.PatchDir, shortID(res.UpstreamCommit))
	fmt.Printf("  3. merge '%s' into '%s'\n", cfg.TargetBranch, res.StartBranch)
	return nil
}

// confirm asks for a yes/no answer on stdin; anything but y/yes declines.
func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// printFailure reports a workflow failure and its remediation commands.
func printFailure(e *core.ExitError) {
	fmt.Fprintf(os.Stderr, "error: %v\n", e)
	if len(e.Remediation) == 0 {
		return
	}

	red := color.New(color.FgRed, color.Bold)
	red.Fprintln(os.Stderr, "\nTo recover:")
	for _, line := range e.Remediation {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
}

// shortID returns the first 12 characters of a commit ID.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
