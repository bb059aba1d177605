package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/google/subcommands"
)

// holdingsCmd holds the flags for the 'holdings' subcommand.
type holdingsCmd struct {
	certificate string
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display the composition of a certificate's basket" }
func (*holdingsCmd) Usage() string {
	return `bsk holdings [-cert <certificate>]

  Displays the holdings of a certificate, or of every live certificate
  when none is given, together with the reserve balances backing them.

`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.certificate, "cert", "", "Certificate to display. Displays all by default.")
}

func (c *holdingsCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	sys, _, err := openSystem()
	if err != nil {
		return fail(err)
	}

	certificates := []string{c.certificate}
	if c.certificate == "" {
		certificates = sys.Ledger.Certificates()
	}

	var b strings.Builder
	for _, certificate := range certificates {
		holdings := sys.Ledger.Holdings(certificate)
		owner, err := sys.Registry.OwnerOf(certificate)
		if err != nil {
			owner = "?"
		}
		fmt.Fprintf(&b, "# Certificate %s\n\n", certificate)
		fmt.Fprintf(&b, "Owner: %s (%d free slots)\n\n", owner, sys.Ledger.FreeSlots(certificate))
		b.WriteString("| Asset | Amount |\n|---|---:|\n")
		for _, h := range holdings {
			fmt.Fprintf(&b, "| %s | %s |\n", h.Asset, h.Amount)
		}
		b.WriteString("\n")
	}

	b.WriteString("# Reserve\n\n| Asset | Backed |\n|---|---:|\n")
	for _, asset := range sys.Reserve.Assets() {
		fmt.Fprintf(&b, "| %s | %s |\n", asset, sys.Reserve.Balance(asset))
	}
	b.WriteString("\n")
	if err := sys.CheckConservation(); err != nil {
		fmt.Fprintf(&b, "**Conservation violated**: %v\n", err)
	}

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
