package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/tmalric/basket"
)

// destroyCmd holds the flags for the 'destroy' subcommand.
type destroyCmd struct {
	owner       string
	certificate string
	target      string
	royalty     string
	all         bool
}

func (*destroyCmd) Name() string     { return "destroy" }
func (*destroyCmd) Synopsis() string { return "decompose a basket back into one asset" }
func (*destroyCmd) Usage() string {
	return `bsk destroy -owner <account> -cert <certificate> [-target <asset>] [-all] ASSET=payload...

  Liquidates the named holdings (their full balances) into the target
  asset and pays the proceeds, less the exit fee, to the owner. With -all
  the legs must cover every remaining holding and the certificate is
  burned. Use an empty or "native" target to unwind to the native
  currency.

`
}

func (c *destroyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Certificate owner")
	f.StringVar(&c.certificate, "cert", "", "Certificate to decompose")
	f.StringVar(&c.target, "target", "", "Asset the holdings are swapped into (empty for native)")
	f.StringVar(&c.royalty, "royalty", "", "Royalty context credited with the fee's royalty slice")
	f.BoolVar(&c.all, "all", false, "Require the legs to cover every holding and burn the certificate")
}

func (c *destroyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" || c.certificate == "" {
		return fail(fmt.Errorf("-owner and -cert are required"))
	}
	target, err := basket.ParseAsset(c.target)
	if err != nil {
		return fail(err)
	}
	assets, payloads, err := parseLegs(f.Args())
	if err != nil {
		return fail(err)
	}
	sells := make([]basket.SellLeg, len(assets))
	for i := range assets {
		sells[i] = basket.SellLeg{Asset: assets[i], Payload: payloads[i]}
	}

	sys, custody, err := openSystem()
	if err != nil {
		return fail(err)
	}

	decompose := sys.Factory.Decompose
	if c.all {
		decompose = sys.Factory.DecomposeAll
	}
	net, err := decompose(c.owner, c.certificate, QuoteVenueID, sells, target, c.royalty)
	if err != nil {
		return fail(err)
	}
	if err := saveCustody(custody); err != nil {
		return fail(err)
	}

	fmt.Printf("Paid %s to %s from certificate %s\n", target.Format(net), c.owner, c.certificate)
	return subcommands.ExitSuccess
}
