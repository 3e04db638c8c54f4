// internal/mdc/request.go
package mdc

// Request is one command to send. Immutable once built.
type Request struct {
	Command        Command
	Payload        []byte
	ExpectResponse bool
}

// IsQuery reports whether the request carries no payload (a read).
func (r Request) IsQuery() bool { return len(r.Payload) == 0 }

// NewRequest validates the payload length and returns a request that expects a response.
func NewRequest(cmd Command, payload ...byte) (Request, error) {
	if len(payload) > MaxPayload {
		return Request{}, validationf("payload length %d exceeds %d", len(payload), MaxPayload)
	}
	return Request{Command: cmd, Payload: payload, ExpectResponse: true}, nil
}

// Query builds a read of cmd.
func Query(cmd Command) Request {
	return Request{Command: cmd, ExpectResponse: true}
}

// Power builds a POWER set.
func Power(on bool) Request {
	st := PowerOff
	if on {
		st = PowerOn
	}
	return Request{Command: CmdPower, Payload: []byte{byte(st)}, ExpectResponse: true}
}

// Volume builds a VOLUME set. Range 0-100.
func Volume(v int) (Request, error) {
	if err := percent("volume", v); err != nil {
		return Request{}, err
	}
	return Request{Command: CmdVolume, Payload: []byte{byte(v)}, ExpectResponse: true}, nil
}

// Mute builds a MUTE set.
func Mute(muted bool) Request {
	var b byte
	if muted {
		b = 0x01
	}
	return Request{Command: CmdMute, Payload: []byte{b}, ExpectResponse: true}
}

// Input builds an INPUT_SOURCE set.
func Input(src InputSource) (Request, error) {
	if _, ok := inputNames[src]; !ok {
		return Request{}, validationf("unknown input source 0x%02X", byte(src))
	}
	return Request{Command: CmdInputSource, Payload: []byte{byte(src)}, ExpectResponse: true}, nil
}

// Picture builds a PICTURE_MODE set.
func Picture(mode PictureMode) (Request, error) {
	if int(mode) >= len(pictureNames) {
		return Request{}, validationf("unknown picture mode 0x%02X", byte(mode))
	}
	return Request{Command: CmdPictureMode, Payload: []byte{byte(mode)}, ExpectResponse: true}, nil
}

// Brightness builds a BRIGHTNESS set. Range 0-100.
func Brightness(v int) (Request, error) {
	if err := percent("brightness", v); err != nil {
		return Request{}, err
	}
	return Request{Command: CmdBrightness, Payload: []byte{byte(v)}, ExpectResponse: true}, nil
}

// Contrast builds a CONTRAST set. Range 0-100.
func Contrast(v int) (Request, error) {
	if err := percent("contrast", v); err != nil {
		return Request{}, err
	}
	return Request{Command: CmdContrast, Payload: []byte{byte(v)}, ExpectResponse: true}, nil
}

// MaxWallMonitors is the largest grid side a display accepts.
const MaxWallMonitors = 10

// VideoWall is the geometry of one display inside a wall.
type VideoWall struct {
	Enabled   bool
	HMonitors int
	VMonitors int
	HPosition int
	VPosition int
}

// Validate checks grid size and position bounds.
func (w VideoWall) Validate() error {
	if w.HMonitors < 1 || w.HMonitors > MaxWallMonitors ||
		w.VMonitors < 1 || w.VMonitors > MaxWallMonitors {
		return validationf("monitor count must be 1-%d (got %dx%d)", MaxWallMonitors, w.HMonitors, w.VMonitors)
	}
	if w.HPosition < 1 || w.HPosition > w.HMonitors {
		return validationf("h position %d outside 1-%d", w.HPosition, w.HMonitors)
	}
	if w.VPosition < 1 || w.VPosition > w.VMonitors {
		return validationf("v position %d outside 1-%d", w.VPosition, w.VMonitors)
	}
	return nil
}

// WallDisabled is the geometry sent to leave wall mode.
var WallDisabled = VideoWall{HMonitors: 1, VMonitors: 1, HPosition: 1, VPosition: 1}

// VideoWallMode builds a VIDEO_WALL_MODE set:
//   [enabled][hMonitors][vMonitors][hPosition][vPosition]
func VideoWallMode(w VideoWall) (Request, error) {
	if err := w.Validate(); err != nil {
		return Request{}, err
	}
	var en byte
	if w.Enabled {
		en = 0x01
	}
	return Request{
		Command:        CmdVideoWallMode,
		Payload:        []byte{en, byte(w.HMonitors), byte(w.VMonitors), byte(w.HPosition), byte(w.VPosition)},
		ExpectResponse: true,
	}, nil
}

// ParseVideoWall decodes a VIDEO_WALL_MODE payload.
func ParseVideoWall(p []byte) (VideoWall, bool) {
	if len(p) < 5 {
		return VideoWall{}, false
	}
	return VideoWall{
		Enabled:   p[0] == 0x01,
		HMonitors: int(p[1]),
		VMonitors: int(p[2]),
		HPosition: int(p[3]),
		VPosition: int(p[4]),
	}, true
}

func percent(name string, v int) error {
	if v < 0 || v > 100 {
		return validationf("%s must be 0-100 (got %d)", name, v)
	}
	return nil
}
