package cmd

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/subcommands"
)

// shareholdersCmd holds the flags for the 'shareholders' subcommand.
type shareholdersCmd struct{}

func (*shareholdersCmd) Name() string     { return "shareholders" }
func (*shareholdersCmd) Synopsis() string { return "show or replace the shareholder set" }
func (*shareholdersCmd) Usage() string {
	return `bsk shareholders [ACCOUNT=WEIGHT...]

  Without arguments, shows the current shareholder set. With arguments,
  replaces the whole set atomically: every shareholder must be named,
  partial patches are not supported.

Usage Examples:
$ bsk shareholders alice=5000 bob=3000

`
}

func (c *shareholdersCmd) SetFlags(f *flag.FlagSet) {}

func (c *shareholdersCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, _, err := openSystem()
	if err != nil {
		return fail(err)
	}

	if len(f.Args()) == 0 {
		var b strings.Builder
		b.WriteString("# Shareholders\n\n| Account | Weight |\n|---|---:|\n")
		for _, h := range sys.Splitter.Shareholders() {
			fmt.Fprintf(&b, "| %s | %d |\n", h.Account, h.Weight)
		}
		b.WriteString("\n")
		printMarkdown(b.String())
		return subcommands.ExitSuccess
	}

	accounts := make([]string, 0, len(f.Args()))
	weights := make([]int64, 0, len(f.Args()))
	for _, arg := range f.Args() {
		account, weight, found := strings.Cut(arg, "=")
		if !found {
			return fail(fmt.Errorf("shareholder %q is not of the form ACCOUNT=WEIGHT", arg))
		}
		w, err := strconv.ParseInt(weight, 10, 64)
		if err != nil {
			return fail(fmt.Errorf("weight of %q: %w", account, err))
		}
		accounts = append(accounts, account)
		weights = append(weights, w)
	}

	if err := sys.Splitter.SetShareholders(sys.AdminGrant(), accounts, weights); err != nil {
		return fail(err)
	}
	fmt.Printf("Replaced the shareholder set with %d shareholders\n", len(accounts))
	return subcommands.ExitSuccess
}
