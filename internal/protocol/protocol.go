// Package protocol holds the protocol-neutral pieces of the decoder: the
// bounds-checked packet cursor, decoded packets and the capability interfaces
// a supported game protocol implements.
package protocol

import "time"

// Stream turns one direction of a reassembled byte stream into packets.
type Stream interface {
	// Append adds contiguous stream bytes.
	Append(p []byte) error
	// Read decodes the next complete frame. It returns (nil, nil) when more
	// bytes are needed. Any error is unrecoverable for the stream.
	Read(ts time.Time) (*Packet, error)
}

// Protocol is a detected protocol instance for one connection.
type Protocol interface {
	Name() string
	Inbound() Stream
	Outbound() Stream
	// OpcodeWidth is the size in bytes of the opcode header of a frame.
	OpcodeWidth() int
	ScriptLocation(p *Packet) string
	CommonScriptLocation() string
	EnrichSessionInfo(info map[string]string)
}

// HandshakeParser inspects the first payload of a connection and returns the
// protocol it establishes together with a synthesized handshake packet.
type HandshakeParser func(data []byte, ts time.Time) (Protocol, *Packet, error)
