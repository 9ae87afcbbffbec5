// Package protocol implements the FusionEngine binary frame format.
// It handles the 24-byte little-endian message header, the CRC-32 integrity
// check over the protected range of a frame, and the validation rules shared
// by the streaming decoder and the encoder.
package protocol
