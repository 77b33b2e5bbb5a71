package video

import (
	"fmt"
	"net"

	"github.com/pion/rtp"
)

// fragmentSize keeps each RTP packet safely under the UDP datagram limit.
const fragmentSize = 60000

// Packetize splits a JPEG frame into RTP packets sharing one timestamp,
// with the marker bit set on the last packet. seq is the sequence number of
// the first packet; the caller advances it by the number of packets returned.
func Packetize(jpeg []byte, timestamp uint32, seq uint16, ssrc uint32) []*rtp.Packet {
	var packets []*rtp.Packet

	for off := 0; off < len(jpeg); off += fragmentSize {
		end := off + fragmentSize
		if end > len(jpeg) {
			end = len(jpeg)
		}

		packets = append(packets, &rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    PayloadTypeJPEG,
				SequenceNumber: seq,
				Timestamp:      timestamp,
				SSRC:           ssrc,
				Marker:         end == len(jpeg),
			},
			Payload: jpeg[off:end],
		})
		seq++
	}

	return packets
}

// Sender streams JPEG frames to a receiver as RTP/UDP. Used by the backend
// simulator and by tests.
type Sender struct {
	conn      *net.UDPConn
	seq       uint16
	timestamp uint32
	ssrc      uint32
}

// NewSender dials the receiver at host:port.
func NewSender(host string, port int, ssrc uint32) (*Sender, error) {
	raddr := &net.UDPAddr{IP: net.ParseIP(host), Port: port}
	if raddr.IP == nil {
		return nil, fmt.Errorf("invalid host %q", host)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("dial receiver %s:%d: %w", host, port, err)
	}

	return &Sender{conn: conn, ssrc: ssrc}, nil
}

// SendFrame packetizes and transmits one JPEG frame. The RTP timestamp
// advances by the given step per frame (90kHz clock / frame rate).
func (s *Sender) SendFrame(jpeg []byte, timestampStep uint32) error {
	s.timestamp += timestampStep

	for _, pkt := range Packetize(jpeg, s.timestamp, s.seq, s.ssrc) {
		data, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("marshal RTP packet: %w", err)
		}
		if _, err := s.conn.Write(data); err != nil {
			return fmt.Errorf("send RTP packet: %w", err)
		}
		s.seq++
	}

	return nil
}

// Close releases the socket.
func (s *Sender) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
