// Package basket implements a basket-portfolio custody and fee-distribution
// engine. It mints non-fungible certificates representing ownership of a
// basket of fungible assets acquired through external swap venues, tracks the
// exact composition of each basket in a bounded per-certificate ledger, and
// burns certificates to unwind baskets back into underlying assets.
//
// The core functionalities include:
//   - Holdings Ledger: a bounded, capability-gated per-certificate list of
//     asset holdings, with exact decimal accounting.
//   - Reserve Custody: the aggregate per-asset balances backing all live
//     certificates, kept in lock-step with the holdings ledger.
//   - Portfolio Factory: the orchestrator that pulls funds, executes swap
//     legs against operator adapters, charges fees, and drives certificate
//     mint and burn through an external registry. Every multi-leg operation
//     is all-or-nothing.
//   - Fee Splitter: proportional distribution of protocol fees across a
//     weighted shareholder set, with a royalty slice for the payment's
//     originating context and pull-based release of accrued shares.
//   - Buyback Trigger: optional sweep of fee inflows into a treasury asset.
//   - Data Persistence: encoding and decoding of the operation journal in a
//     human-readable, version-controllable JSONL format.
//
// This package serves as the foundational logic for the `bsk` command-line
// tool, ensuring that all operations are consistent and based on a single
// source of truth.
package basket
