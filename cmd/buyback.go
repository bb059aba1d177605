package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/tmalric/basket"
)

// buybackCmd holds the flags for the 'buyback' subcommand.
type buybackCmd struct {
	asset   string
	payload string
}

func (*buybackCmd) Name() string     { return "buyback" }
func (*buybackCmd) Synopsis() string { return "sweep fee inflows into the treasury asset" }
func (*buybackCmd) Usage() string {
	return `bsk buyback -payload <quote> [-asset <asset>]

  Sweeps the fee splitter account's full balance of the asset, swaps it
  into the treasury asset at the payload's quoted rate, and forwards the
  whole output to the reserve custody.

`
}

func (c *buybackCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asset, "asset", "", "Asset to sweep (empty for native)")
	f.StringVar(&c.payload, "payload", "", "Quote JSON or @file for the swap")
}

func (c *buybackCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	asset, err := basket.ParseAsset(c.asset)
	if err != nil {
		return fail(err)
	}
	payload := []byte(c.payload)
	if strings.HasPrefix(c.payload, "@") {
		payload, err = os.ReadFile(c.payload[1:])
		if err != nil {
			return fail(err)
		}
	}

	sys, custody, err := openSystem()
	if err != nil {
		return fail(err)
	}
	acquired, err := sys.Buyback.Trigger(sys.AdminGrant(), QuoteVenueID, payload, asset)
	if err != nil {
		return fail(err)
	}
	if err := saveCustody(custody); err != nil {
		return fail(err)
	}

	fmt.Printf("Swept %s into %s\n", asset, sys.Buyback.Treasury().Format(acquired))
	return subcommands.ExitSuccess
}
