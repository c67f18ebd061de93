// Package decode implements the streaming frame decoder for the device's
// fixed 11-byte wire protocol. See [StreamDecoder].
package decode
