// Package communismengine implements group-expense collectives inside the
// finance-core context.
//
// A communism collects a fixed amount from weighted participants. The module
// owns the open/settled/aborted lifecycle and the deterministic
// largest-remainder settlement split; the resulting transactions are written
// together with one multi-transaction in a single storage transaction.
package communismengine
