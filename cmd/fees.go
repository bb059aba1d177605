package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/tmalric/basket"
)

// creditCmd holds the flags for the 'credit' subcommand.
type creditCmd struct {
	payer   string
	royalty string
	asset   string
	amount  float64
}

func (*creditCmd) Name() string     { return "credit" }
func (*creditCmd) Synopsis() string { return "pay a fee into the splitter" }
func (*creditCmd) Usage() string {
	return `bsk credit -from <account> -amount <amount> [-asset <asset>] [-royalty <account>]

  Moves the amount from the payer's custody balance into the fee
  splitter's account and splits it: the royalty slice accrues to the
  royalty context, the remainder to the shareholder set pro rata.

`
}

func (c *creditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.payer, "from", "", "Account paying the fee")
	f.StringVar(&c.royalty, "royalty", "", "Royalty context credited with the royalty slice")
	f.StringVar(&c.asset, "asset", "", "Fee asset (empty for native)")
	f.Float64Var(&c.amount, "amount", 0, "Fee amount")
}

func (c *creditCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.payer == "" {
		return fail(fmt.Errorf("-from is required"))
	}
	asset, err := basket.ParseAsset(c.asset)
	if err != nil {
		return fail(err)
	}
	sys, custody, err := openSystem()
	if err != nil {
		return fail(err)
	}

	amount := basket.A(c.amount)
	if err := sys.CreditFee(c.payer, c.royalty, asset, amount); err != nil {
		return fail(err)
	}
	if err := saveCustody(custody); err != nil {
		return fail(err)
	}

	fmt.Printf("Credited %s to the fee splitter\n", asset.Format(amount))
	return subcommands.ExitSuccess
}

// releaseCmd holds the flags for the 'release' subcommand.
type releaseCmd struct {
	account string
	asset   string
}

func (*releaseCmd) Name() string     { return "release" }
func (*releaseCmd) Synopsis() string { return "pull an account's accrued fee share" }
func (*releaseCmd) Usage() string {
	return `bsk release -account <account> [-asset <asset>]

  Transfers the account's accrued, not yet released share out of the fee
  splitter. Fails when nothing is due.

`
}

func (c *releaseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account pulling its share")
	f.StringVar(&c.asset, "asset", "", "Asset to release (empty for native)")
}

func (c *releaseCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		return fail(fmt.Errorf("-account is required"))
	}
	asset, err := basket.ParseAsset(c.asset)
	if err != nil {
		return fail(err)
	}
	sys, custody, err := openSystem()
	if err != nil {
		return fail(err)
	}

	released, err := sys.Splitter.Release(c.account, asset)
	if err != nil {
		return fail(err)
	}
	if err := saveCustody(custody); err != nil {
		return fail(err)
	}

	fmt.Printf("Released %s to %s\n", asset.Format(released), c.account)
	return subcommands.ExitSuccess
}

// releasableCmd holds the flags for the 'releasable' subcommand.
type releasableCmd struct {
	account string
	asset   string
}

func (*releasableCmd) Name() string     { return "releasable" }
func (*releasableCmd) Synopsis() string { return "show an account's accrued, unreleased fee share" }
func (*releasableCmd) Usage() string {
	return `bsk releasable -account <account> [-asset <asset>]

  Shows how much the account could release right now.

`
}

func (c *releasableCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "Account to query")
	f.StringVar(&c.asset, "asset", "", "Asset to query (empty for native)")
}

func (c *releasableCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		return fail(fmt.Errorf("-account is required"))
	}
	asset, err := basket.ParseAsset(c.asset)
	if err != nil {
		return fail(err)
	}
	sys, _, err := openSystem()
	if err != nil {
		return fail(err)
	}

	fmt.Printf("%s\n", asset.Format(sys.Splitter.Releasable(c.account, asset)))
	return subcommands.ExitSuccess
}
