// Package protocol owns the GB/T 32960 style frame model and the frame decoder.
//
// Ownership boundary:
// - header, body variants and packet types
// - command -> body dispatch (Registry)
// - body length and BCC checksum enforcement
//
// Field level encoding lives in protocol/wire; pulling raw frames off a byte
// stream lives in protocol/frame.
package protocol
