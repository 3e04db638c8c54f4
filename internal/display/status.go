// internal/display/status.go
package display

import (
	"strings"
	"time"

	"github.com/tamzrod/mdc-controller/internal/mdc"
)

// Endpoint identifies one display. Immutable once a session exists.
type Endpoint struct {
	ID   uint8
	Name string

	// TCP transport
	Host string
	Port int

	// RS-232 transport (used when Serial is set)
	Serial   string
	BaudRate int
}

// GridPosition is a display's 1-based position inside a video wall.
type GridPosition struct {
	H int `json:"h"`
	V int `json:"v"`
}

// Status is the last-known state of one display.
// Owned by the display's executor; copies are handed out to readers.
type Status struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`

	// Connectivity
	Online             bool      `json:"online"`
	Responsive         bool      `json:"responsive"`
	LastSeen           time.Time `json:"last_seen"`
	ErrorCount         int       `json:"error_count"`
	ChecksumMismatches int       `json:"checksum_mismatches"`

	// Settings
	Power       *bool  `json:"power,omitempty"`
	Volume      *int   `json:"volume,omitempty"`
	Muted       *bool  `json:"muted,omitempty"`
	InputSource string `json:"input_source,omitempty"`
	PictureMode string `json:"picture_mode,omitempty"`
	Brightness  *int   `json:"brightness,omitempty"`
	Contrast    *int   `json:"contrast,omitempty"`

	// System info
	Temperature     *int   `json:"temperature,omitempty"`
	SerialNumber    string `json:"serial_number,omitempty"`
	ModelNumber     string `json:"model_number,omitempty"`
	SoftwareVersion string `json:"software_version,omitempty"`

	// Video wall. GridPosition is set iff VideoWallEnabled.
	VideoWallEnabled bool          `json:"video_wall_enabled"`
	GridPosition     *GridPosition `json:"grid_position,omitempty"`
}

// NewStatus returns the initial status for ep.
func NewStatus(ep Endpoint) *Status {
	return &Status{ID: ep.ID, Name: ep.Name}
}

// Clone returns a deep copy.
func (s *Status) Clone() Status {
	c := *s
	c.Power = clonePtr(s.Power)
	c.Volume = clonePtr(s.Volume)
	c.Muted = clonePtr(s.Muted)
	c.Brightness = clonePtr(s.Brightness)
	c.Contrast = clonePtr(s.Contrast)
	c.Temperature = clonePtr(s.Temperature)
	c.GridPosition = clonePtr(s.GridPosition)
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ---- connectivity transitions ----

// ConnectSucceeded records a successful connect.
func (s *Status) ConnectSucceeded(at time.Time) {
	s.Online = true
	s.LastSeen = at
	s.ErrorCount = 0
}

// ConnectFailed records a failed connect.
func (s *Status) ConnectFailed() {
	s.Online = false
	s.ErrorCount++
}

// ExchangeFailed records a failed or timed-out exchange.
// The connection is torn down after any such failure.
func (s *Status) ExchangeFailed() {
	s.Online = false
	s.Responsive = false
	s.ErrorCount++
}

// Apply folds the outcome of one command into the status.
// Only the fields owned by req.Command change; unknown commands touch connectivity only.
// values are the reply values of the response (nil for write-only commands).
func (s *Status) Apply(req mdc.Request, values []byte, err error, at time.Time) {
	if err != nil {
		s.Responsive = false
		return
	}

	s.LastSeen = at
	s.ErrorCount = 0
	if req.ExpectResponse {
		s.Responsive = true
	}

	// Sets take the value the caller sent; queries take the value the display reported.
	v := values
	if !req.IsQuery() {
		v = req.Payload
	}

	switch req.Command {
	case mdc.CmdPower, mdc.CmdPowerStatus:
		if len(v) > 0 {
			on := mdc.PowerState(v[0]) == mdc.PowerOn
			s.Power = &on
		}
	case mdc.CmdVolume:
		if len(v) > 0 {
			n := int(v[0])
			s.Volume = &n
		}
	case mdc.CmdMute:
		if len(v) > 0 {
			m := v[0] == 0x01
			s.Muted = &m
		}
	case mdc.CmdInputSource:
		if len(v) > 0 {
			s.InputSource = mdc.InputSource(v[0]).String()
		}
	case mdc.CmdPictureMode:
		if len(v) > 0 {
			s.PictureMode = mdc.PictureMode(v[0]).String()
		}
	case mdc.CmdBrightness:
		if len(v) > 0 {
			n := int(v[0])
			s.Brightness = &n
		}
	case mdc.CmdContrast:
		if len(v) > 0 {
			n := int(v[0])
			s.Contrast = &n
		}
	case mdc.CmdCurrentTemp:
		if len(v) > 0 {
			n := int(v[0])
			s.Temperature = &n
		}
	case mdc.CmdSerialNumber:
		if str := ASCII(v); str != "" {
			s.SerialNumber = str
		}
	case mdc.CmdModelNumber:
		if str := ASCII(v); str != "" {
			s.ModelNumber = str
		}
	case mdc.CmdSoftwareVersion:
		if str := ASCII(v); str != "" {
			s.SoftwareVersion = str
		}
	case mdc.CmdVideoWallMode:
		if w, ok := mdc.ParseVideoWall(v); ok {
			s.VideoWallEnabled = w.Enabled
			if w.Enabled {
				s.GridPosition = &GridPosition{H: w.HPosition, V: w.VPosition}
			} else {
				s.GridPosition = nil
			}
		}
	default:
		// connectivity only
	}
}

// ASCII decodes printable ASCII and trims padding, dropping anything else.
func ASCII(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 && c <= 0x7E {
			sb.WriteByte(c)
		}
	}
	return strings.TrimSpace(sb.String())
}
