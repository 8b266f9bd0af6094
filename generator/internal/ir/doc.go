// Package ir defines the flat intermediate form produced by generator
// linearization and consumed by state machine assembly.
//
// A Program is an append-only list of operations addressed by index,
// a label table mapping each label to the index it was marked at, and the
// ordered block actions recording where exception and with regions open
// and close. The Registry builds a Program; assembly only reads it.
package ir
