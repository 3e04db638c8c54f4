// internal/status/encode.go
package status

// Encode converts a Snapshot into a full display status block.
// Layout is fixed. No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotHealthCode] = s.Health
	regs[SlotPower] = s.Power
	regs[SlotTemperature] = s.Temperature
	regs[SlotErrorCount] = s.ErrorCount
	regs[SlotIssueCount] = s.IssueCount

	copy(regs[SlotSerialStart:SlotSerialEnd+1], EncodeASCII(s.Serial))

	return regs
}

// EncodeASCII packs up to SerialMaxChars characters into SlotSerialSlots registers.
// Two characters per register, big-endian. Non-ASCII bytes are dropped; the rest is zero padded.
func EncodeASCII(v string) []uint16 {
	b := make([]byte, 0, SerialMaxChars)
	for i := 0; i < len(v) && len(b) < SerialMaxChars; i++ {
		c := v[i]
		if c < 0x20 || c > 0x7E {
			continue
		}
		b = append(b, c)
	}

	regs := make([]uint16, SlotSerialSlots)
	for i := 0; i < len(b); i += 2 {
		hi := uint16(b[i]) << 8
		var lo uint16
		if i+1 < len(b) {
			lo = uint16(b[i+1])
		}
		regs[i/2] = hi | lo
	}
	return regs
}
