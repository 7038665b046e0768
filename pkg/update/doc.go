// Package update provides small, dependency-free helpers for deciding whether a
// pinned default version should be bumped.
//
// It does not fetch anything and does not touch files. Callers supply the
// pinned version and the candidate versions they fetched from a registry; the
// package orders candidates, picks the newest, and decides whether the pin
// should be overwritten.
//
// Version model
//   - Accepts "MAJOR.MINOR.PATCH" optionally followed by "-Channel.N", where
//     Channel is alphabetic and matched case-insensitively (e.g. "6.0.0-Beta.7").
//   - Channels rank stable > beta > alpha. Other channel tokens are unranked
//     and share alpha's rank.
//   - Parsing is total: strings outside the grammar become Malformed, which
//     sorts below every well-formed version.
//
// Pin policy
//   - The literal "latest" is a floating tag: it is never written as a pin,
//     and a pin that is already "latest" is never replaced.
//   - Otherwise any candidate whose string differs from the pin replaces it.
package update
