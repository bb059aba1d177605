package cmd

import "github.com/google/subcommands"

// Commands lists every subcommand of the bsk tool. A main package registers
// them on its commander and executes the user-selected one.
var Commands = []subcommands.Command{
	&createCmd{},
	&destroyCmd{},
	&holdingsCmd{},
	&creditCmd{},
	&releaseCmd{},
	&releasableCmd{},
	&shareholdersCmd{},
	&buybackCmd{},
	&fmtCmd{},
	&topicCmd{},
}
