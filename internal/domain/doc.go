// Package domain contains the core domain entities and value objects for
// cuffstream.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (serial ports, file system,
// logging) and contains only the data model and wire format.
//
// # Entities
//
//   - [Sample]: One decoded measurement (cuff pressure + pulse pressure)
//   - [OperatingMode]: Measurement mode and its trigger threshold
//   - [Command]: Single-byte control instruction for the device
//
// The wire format (11-byte frames with marker, length, two little-endian
// int32 payloads and an XOR checksum) lives in wire.go together with the
// encode, verify, and decode primitives used by the stream decoder.
package domain
