// Package ledgerservice implements the append-only value-transfer ledger
// inside the finance-core context.
//
// The module owns users (including the distinguished community user),
// transactions, direct transfers, consumption against the community user and
// the balance invariant: a balance is always the sum of received minus sent
// amounts. Business rules live in the application/domain layers; storage and
// transport concerns stay behind ports and adapters.
package ledgerservice
