// internal/writer/types.go
package writer

// endpointClient is the exact contract the writers use.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusPlan places one display's status block inside status memory.
type StatusPlan struct {
	DisplayID uint8
	Endpoint  string
	UnitID    uint8

	// BaseSlot is the block index; the block starts at BaseSlot*SlotsPerDevice.
	BaseSlot uint16
}
