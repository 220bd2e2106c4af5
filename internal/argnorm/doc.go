// Package argnorm turns loosely typed tool arguments emitted by a model into
// validated NormalizedArgs.
//
// Decoding is an ordered list of attempts (structured mapping, strict JSON,
// permissive literal syntax); the first that yields a mapping wins and an
// undecodable payload becomes an empty mapping. Fields are then coerced by
// their declared Kind and clamped into declared bounds. Only a missing
// required field fails normalization.
package argnorm
