// Package capturetest writes synthetic captures for tests.
package capturetest

import (
	"io"
	"net"

	"mapletap/internal/capture"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"
)

// Frame serializes seg as an Ethernet/IPv4/TCP frame.
func Frame(seg *capture.Segment) ([]byte, error) {
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{Version: 4, TTL: 64, Protocol: layers.IPProtocolTCP, SrcIP: seg.SrcIP.To4(), DstIP: seg.DstIP.To4()}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(seg.SrcPort),
		DstPort: layers.TCPPort(seg.DstPort),
		Seq:     seg.Seq,
		Ack:     seg.Ack,
		SYN:     seg.SYN,
		ACK:     seg.ACK,
		FIN:     seg.FIN,
		RST:     seg.RST,
		PSH:     seg.PSH,
		Window:  65535,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(seg.Payload)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePcap writes segs as a classic pcap file, stamping each frame with the
// segment timestamp.
func WritePcap(w io.Writer, segs []*capture.Segment) error {
	pw := pcapgo.NewWriter(w)
	if err := pw.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		return err
	}
	for _, seg := range segs {
		f, err := Frame(seg)
		if err != nil {
			return err
		}
		ci := gopacket.CaptureInfo{Timestamp: seg.Timestamp, CaptureLength: len(f), Length: len(f)}
		if err := pw.WritePacket(ci, f); err != nil {
			return err
		}
	}
	return nil
}
