package protocol

import (
	"fmt"
	"strconv"
	"time"
)

const TimestampLayout = "2006-01-02 15:04:05.000"

// Opcode is the search key used to browse packets: a header value scoped to
// its direction.
type Opcode struct {
	Outbound bool
	Header   uint16
}

func (o Opcode) String() string {
	return fmt.Sprintf("%s 0x%04X", direction(o.Outbound), o.Header)
}

// Meta describes a decoded packet.
type Meta struct {
	Timestamp    time.Time
	Outbound     bool
	Version      uint16
	Locale       byte
	Opcode       uint16
	Name         string
	PreDecodeIV  uint32
	PostDecodeIV uint32
}

// Packet is an immutable decoded message. It owns a private copy of the
// plaintext payload; field decoding goes through Reader.
type Packet struct {
	Meta
	payload []byte
}

func NewPacket(m Meta, payload []byte) *Packet {
	p := &Packet{Meta: m, payload: make([]byte, len(payload))}
	copy(p.payload, payload)
	return p
}

func (p *Packet) Len() int { return len(p.payload) }

// Payload returns a copy of the plaintext payload.
func (p *Packet) Payload() []byte {
	out := make([]byte, len(p.payload))
	copy(out, p.payload)
	return out
}

// Reader returns a fresh cursor positioned at the start of the payload.
func (p *Packet) Reader() *Reader { return NewReader(p.payload) }

func (p *Packet) Key() Opcode { return Opcode{Outbound: p.Outbound, Header: p.Opcode} }

func (p *Packet) Direction() string { return direction(p.Outbound) }

func (p *Packet) DisplayName() string { return fmt.Sprintf("0x%04X", p.Opcode) }

// Fields renders the listing columns of a packet.
func (p *Packet) Fields() []string {
	return []string{
		p.Timestamp.Format(TimestampLayout),
		p.Direction(),
		strconv.Itoa(len(p.payload)),
		p.DisplayName(),
		p.Name,
		fmt.Sprintf("%08X", p.PostDecodeIV),
	}
}

func direction(outbound bool) string {
	if outbound {
		return "Outbound"
	}
	return "Inbound"
}
