package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
	"github.com/tmalric/basket/cmd"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))

	subs := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		commander.Register(c, "")
		subs[c.Name()] = &complete.Command{Flags: map[string]complete.Predictor{}}
	}
	// Shell completion, a no-op outside of a completion request.
	(&complete.Command{
		Sub: subs,
		Flags: map[string]complete.Predictor{
			"journal": predict.Files("*.jsonl"),
			"custody": predict.Files("*.jsonl"),
		},
	}).Complete("bsk")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
