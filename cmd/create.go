package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/tmalric/basket"
)

// createCmd holds the flags for the 'create' subcommand.
type createCmd struct {
	owner   string
	input   string
	amount  float64
	royalty string
	source  string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "compose a basket and mint its certificate" }
func (*createCmd) Usage() string {
	return `bsk create -owner <account> -input <asset> -amount <total> [-royalty <account>] [-replicate <certificate>] ASSET=payload...

  Pulls the total input amount from the owner's custody balance, swaps it
  into the given output assets (one ASSET=payload leg per swap, payload
  being the quote JSON or @file), and mints the certificate. The entry fee
  is forwarded to the fee splitter.

Usage Examples:
$ bsk create -owner alice -input USDC -amount 1000 TOKA='{"output":"TOKA","quote":{"rate":0.5}}'

`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Account composing the basket")
	f.StringVar(&c.input, "input", "", "Input asset pulled from the owner (empty for native)")
	f.Float64Var(&c.amount, "amount", 0, "Expected total input amount")
	f.StringVar(&c.royalty, "royalty", "", "Royalty context credited with the fee's royalty slice")
	f.StringVar(&c.source, "replicate", "", "Certificate to record as replication lineage")
}

func (c *createCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" {
		return fail(fmt.Errorf("-owner is required"))
	}
	input, err := basket.ParseAsset(c.input)
	if err != nil {
		return fail(err)
	}
	outputs, payloads, err := parseLegs(f.Args())
	if err != nil {
		return fail(err)
	}

	sys, custody, err := openSystem()
	if err != nil {
		return fail(err)
	}

	total := basket.A(c.amount)
	var certificate string
	if c.source != "" {
		certificate, err = sys.Factory.Replicate(c.owner, c.source, input, total, c.royalty, QuoteVenueID, outputs, payloads)
	} else {
		certificate, err = sys.Factory.Compose(c.owner, input, total, c.royalty, QuoteVenueID, outputs, payloads)
	}
	if err != nil {
		return fail(err)
	}
	if err := saveCustody(custody); err != nil {
		return fail(err)
	}

	fmt.Printf("Minted certificate %s for %s (%s spent)\n", certificate, c.owner, input.Format(total))
	return subcommands.ExitSuccess
}
