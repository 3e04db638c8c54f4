// internal/status/constants.go
package status

// Display Status Block layout constants.
// These values define the export layout and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of holding registers per display.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the overall health of the last check.
const SlotHealthCode = 0

// SlotPower holds 0 (off), 1 (on) or Unknown.
const SlotPower = 1

// SlotTemperature holds the panel temperature in °C, or Unknown.
const SlotTemperature = 2

// SlotErrorCount holds the consecutive error count (saturating).
const SlotErrorCount = 3

// SlotIssueCount holds the number of issues in the last check.
const SlotIssueCount = 4

// ---- RESERVED RANGE ----

// Slots 5-10 are reserved.
const (
	SlotReservedStart = 5
	SlotReservedEnd   = 10
)

// SlotLiveEnd is the last slot rewritten on incremental updates.
const SlotLiveEnd = SlotIssueCount

// ---- SERIAL NUMBER ----

// SlotSerialStart is the first slot of the serial number.
// The serial number is always placed at the END of the status block.
const SlotSerialStart = 11

// SlotSerialSlots is the number of slots reserved for the serial number.
const SlotSerialSlots = 8

// SlotSerialEnd is the last serial number slot (inclusive).
const SlotSerialEnd = SlotSerialStart + SlotSerialSlots - 1

// SerialMaxChars is the number of ASCII characters stored, two per register.
const SerialMaxChars = SlotSerialSlots * 2

// ---- VALUES ----

// Unknown marks a slot whose value could not be read.
const Unknown uint16 = 0xFFFF

// ---- HEALTH CODES ----

const (
	HealthUnknown  uint16 = 0
	HealthOK       uint16 = 1
	HealthWarning  uint16 = 2
	HealthCritical uint16 = 3
	HealthError    uint16 = 4
)
