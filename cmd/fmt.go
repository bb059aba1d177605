package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/tmalric/basket"
)

// fmtCmd holds the flags for the 'fmt' subcommand.
type fmtCmd struct {
	outputFile string
}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats the journal file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `bsk fmt [-o <output>]

  Validates and formats the journal file. This command reads all entries,
  replays them against a fresh system to catch inconsistencies, orders
  them chronologically, and writes them back in a canonical JSONL format.
  By default, it formats the journal in-place.

`
}

func (c *fmtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputFile, "o", "", "Write to this file instead of in-place")
}

func (c *fmtCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	entries, err := decodeJournalFile()
	if err != nil {
		return fail(err)
	}
	// A journal that does not replay cleanly should not be rewritten.
	if _, _, err := openSystem(); err != nil {
		return fail(err)
	}

	filename := c.outputFile
	if filename == "" {
		filename = *journalFile
	}
	f, err := os.Create(filename)
	if err != nil {
		return fail(fmt.Errorf("cannot write journal %q: %w", filename, err))
	}
	defer f.Close()
	if err := basket.EncodeJournal(f, entries); err != nil {
		return fail(err)
	}

	fmt.Printf("Formatted %d entries into %s\n", len(entries), filename)
	return subcommands.ExitSuccess
}
