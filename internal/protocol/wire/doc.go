// Package wire implements the fshare framed TCP protocol codec.
//
// Every message on the wire is a frame: an 8-byte header followed by exactly
// Length bytes of payload. All multi-byte integers are big-endian.
//
//	+--------+---------+------+----------------+
//	| magic  | version | type | payload length |
//	| 2 B    | 1 B     | 1 B  | 4 B            |
//	+--------+---------+------+----------------+
//
// Payloads are built from three primitives: length-prefixed byte strings
// ([4B length][bytes]), 64-bit unsigned integers, and FileRecords
// (string filename, u64 size, u64 modification time). Listings carry a 4-byte
// record count followed by the records.
//
// Decoding follows the error-accumulation pattern used by bufio.Scanner:
// a Reader records the first short read and every later read becomes a no-op,
// so callers check Err once after a sequence of reads:
//
//	r := wire.NewReader(payload)
//	name := r.ReadString()
//	size := r.ReadUint64()
//	if err := r.Err(); err != nil {
//	    return err // wraps ErrTruncatedPayload
//	}
//
// Nothing in this package trusts a declared length before verifying that the
// bytes are actually present.
package wire
