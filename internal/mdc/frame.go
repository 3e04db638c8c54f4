// internal/mdc/frame.go
package mdc

// MDC frame:
//   [0xAA][cmd][id][len][payload ... len bytes][checksum]
// checksum = (0xAA + cmd + id + len + sum(payload)) & 0xFF

const (
	// Header is the first byte of every frame.
	Header byte = 0xAA

	// HeaderLen is the fixed prefix before the payload.
	HeaderLen = 4

	// MaxPayload is the largest payload the length byte can describe.
	MaxPayload = 255

	// DefaultPort is the MDC TCP port.
	DefaultPort = 1515

	ackByte byte = 'A'
	nakByte byte = 'N'
)

// Frame is a decoded MDC frame.
type Frame struct {
	Command   Command
	DisplayID uint8
	Data      []byte
	Raw       []byte

	// HasChecksum is false when the frame ended right after the payload.
	HasChecksum bool
	// ChecksumOK is meaningful only when HasChecksum is true.
	ChecksumOK bool
	Checksum   byte
	Expected   byte
}

// ChecksumMismatch reports a present but wrong trailing checksum.
func (f Frame) ChecksumMismatch() bool {
	return f.HasChecksum && !f.ChecksumOK
}

// Reply is an ACK/NAK answer carried inside a CmdReply frame.
type Reply struct {
	Ack     bool
	Command Command
	Values  []byte
}

// Reply interprets the frame as an ACK/NAK reply.
// ok is false for frames that are not replies.
func (f Frame) Reply() (r Reply, ok bool) {
	if f.Command != CmdReply || len(f.Data) < 2 {
		return Reply{}, false
	}
	switch f.Data[0] {
	case ackByte:
		r.Ack = true
	case nakByte:
		r.Ack = false
	default:
		return Reply{}, false
	}
	r.Command = Command(f.Data[1])
	r.Values = f.Data[2:]
	return r, true
}

// Values returns the command-specific values of the frame:
// the reply values for ACK/NAK frames, the whole payload otherwise.
func (f Frame) Values() []byte {
	if r, ok := f.Reply(); ok {
		return r.Values
	}
	return f.Data
}

// Checksum computes the MDC checksum over cmd, id and payload.
func Checksum(cmd Command, displayID uint8, payload []byte) byte {
	sum := int(Header) + int(cmd) + int(displayID) + len(payload)
	for _, b := range payload {
		sum += int(b)
	}
	return byte(sum & 0xFF)
}

// Encode builds a frame. Payloads longer than MaxPayload are a validation error.
func Encode(displayID uint8, cmd Command, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return nil, validationf("payload length %d exceeds %d", len(payload), MaxPayload)
	}

	pkt := make([]byte, HeaderLen+len(payload)+1)
	pkt[0] = Header
	pkt[1] = byte(cmd)
	pkt[2] = displayID
	pkt[3] = byte(len(payload))
	copy(pkt[HeaderLen:], payload)
	pkt[len(pkt)-1] = Checksum(cmd, displayID, payload)

	return pkt, nil
}

// FrameLen returns the number of bytes a frame occupies given at least its header,
// excluding the trailing checksum. ok is false while the header is incomplete.
func FrameLen(b []byte) (n int, ok bool) {
	if len(b) < HeaderLen {
		return 0, false
	}
	return HeaderLen + int(b[3]), true
}

// Decode parses and validates a frame received from displayID.
// A wrong checksum does not fail the decode; callers inspect ChecksumMismatch.
func Decode(displayID uint8, b []byte) (Frame, error) {
	if len(b) < HeaderLen {
		return Frame{}, malformedf("frame too short: %d bytes", len(b))
	}
	if b[0] != Header {
		return Frame{}, mismatchf("invalid header 0x%02X", b[0])
	}
	if b[2] != displayID {
		return Frame{}, mismatchf("display id mismatch: got=%d want=%d", b[2], displayID)
	}

	n := int(b[3])
	if len(b) < HeaderLen+n {
		return Frame{}, malformedf("declared length %d exceeds available %d", n, len(b)-HeaderLen)
	}

	f := Frame{
		Command:   Command(b[1]),
		DisplayID: b[2],
		Data:      append([]byte(nil), b[HeaderLen:HeaderLen+n]...),
		Raw:       append([]byte(nil), b...),
	}

	if len(b) > HeaderLen+n {
		f.HasChecksum = true
		f.Checksum = b[HeaderLen+n]
		f.Expected = Checksum(f.Command, f.DisplayID, f.Data)
		f.ChecksumOK = f.Checksum == f.Expected
	}

	return f, nil
}
