// Package cmd implements the CLI application to drive the basket engine.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/tmalric/basket"
)

// Environment variables mirroring the global flags, for extensions and
// scripting.
const (
	EnvJournalFile = "BSK_JOURNAL_FILE"
	EnvCustodyFile = "BSK_CUSTODY_FILE"
	EnvTreasury    = "BSK_TREASURY"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables.

var (
	journalFile = flag.String("journal", envOr(EnvJournalFile, "journal.jsonl"), "Path to the operation journal (JSONL format)")
	custodyFile = flag.String("custody", envOr(EnvCustodyFile, "custody.jsonl"), "Path to the custody balances file (JSONL format)")
	treasury    = flag.String("treasury", envOr(EnvTreasury, "TRS"), "Treasury asset accumulated by buybacks")
	entryFeeBP  = flag.Int64("entry-fee", 100, "Entry fee in basis points")
	exitFeeBP   = flag.Int64("exit-fee", 100, "Exit fee in basis points")
	royaltyBP   = flag.Int64("royalty", 2000, "Royalty slice of each fee, in basis points")
	Verbose     = flag.Bool("v", false, "Verbose logging")
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// QuoteVenueID is the venue the CLI wires by default: swap payloads are the
// raw quote JSON from the price source.
const QuoteVenueID basket.VenueID = "quote"

// openSystem rebuilds the engine from the custody and journal files. The
// returned system has its recorder set: every new committed operation is
// appended to the journal file immediately.
func openSystem() (*basket.System, *basket.MemCustody, error) {
	custody, err := decodeCustodyFile()
	if err != nil {
		return nil, nil, err
	}

	treasuryAsset, err := basket.ParseAsset(*treasury)
	if err != nil {
		return nil, nil, err
	}
	sys, err := basket.NewSystem(custody, basket.NewMemRegistry(), basket.Config{
		Treasury:   treasuryAsset,
		EntryFeeBP: *entryFeeBP,
		ExitFeeBP:  *exitFeeBP,
		RoyaltyBP:  *royaltyBP,
		Venues:     basket.Venues{QuoteVenueID: basket.NewQuoteVenue(QuoteVenueID)},
	})
	if err != nil {
		return nil, nil, err
	}

	entries, err := decodeJournalFile()
	if err != nil {
		return nil, nil, err
	}
	if err := sys.Replay(entries); err != nil {
		return nil, nil, fmt.Errorf("replaying %q: %w", *journalFile, err)
	}
	sys.SetRecorder(appendEntry)
	return sys, custody, nil
}

func decodeCustodyFile() (*basket.MemCustody, error) {
	f, err := os.Open(*custodyFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, custody file does not exist, starting with empty balances")
		return basket.NewMemCustody(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open custody file %q: %w", *custodyFile, err)
	}
	defer f.Close()
	return basket.DecodeCustody(f)
}

func decodeJournalFile() ([]basket.Entry, error) {
	f, err := os.Open(*journalFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, journal does not exist, starting with an empty one")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open journal %q: %w", *journalFile, err)
	}
	defer f.Close()
	return basket.DecodeJournal(f)
}

// appendEntry appends a single entry to the journal file, creating it if
// needed.
func appendEntry(entry basket.Entry) error {
	f, err := os.OpenFile(*journalFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot open journal %q: %w", *journalFile, err)
	}
	defer f.Close()
	return basket.EncodeEntry(f, entry)
}

// saveCustody rewrites the custody balances file.
func saveCustody(custody *basket.MemCustody) error {
	f, err := os.Create(*custodyFile)
	if err != nil {
		return fmt.Errorf("cannot write custody file %q: %w", *custodyFile, err)
	}
	defer f.Close()
	return basket.EncodeCustody(f, custody)
}

// parseLegs parses "ASSET=<payload>" arguments into parallel asset and
// payload lists. A payload starting with '@' is read from the named file.
func parseLegs(args []string) ([]basket.Asset, [][]byte, error) {
	assets := make([]basket.Asset, 0, len(args))
	payloads := make([][]byte, 0, len(args))
	for _, arg := range args {
		symbol, payload, found := strings.Cut(arg, "=")
		if !found {
			return nil, nil, fmt.Errorf("leg %q is not of the form ASSET=payload", arg)
		}
		asset, err := basket.ParseAsset(symbol)
		if err != nil {
			return nil, nil, err
		}
		raw := []byte(payload)
		if strings.HasPrefix(payload, "@") {
			raw, err = os.ReadFile(payload[1:])
			if err != nil {
				return nil, nil, fmt.Errorf("cannot read payload file for leg %s: %w", asset, err)
			}
		}
		assets = append(assets, asset)
		payloads = append(payloads, raw)
	}
	return assets, payloads, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
