// internal/mdc/commands.go
package mdc

import "fmt"

// Command is an MDC command code.
// The set is closed: every code the controller emits is declared here.
type Command byte

const (
	// Power
	CmdPower       Command = 0x11
	CmdPowerStatus Command = 0xF1

	// Audio
	CmdVolume    Command = 0x12
	CmdMute      Command = 0x13
	CmdSoundMode Command = 0x16

	// Video
	CmdInputSource Command = 0x14
	CmdPictureMode Command = 0x15
	CmdPictureSize Command = 0x18
	CmdContrast    Command = 0x22
	CmdBrightness  Command = 0x23
	CmdSharpness   Command = 0x24
	CmdColor       Command = 0x25

	// System
	CmdSafetyLock     Command = 0x17
	CmdAutoAdjustment Command = 0x19
	CmdPanelLock      Command = 0x21
	CmdReset          Command = 0x2A

	// Information
	CmdCurrentTemp     Command = 0x2B
	CmdSerialNumber    Command = 0x2C
	CmdSoftwareVersion Command = 0x2D
	CmdModelNumber     Command = 0x2E

	// Video wall
	CmdVideoWallMode Command = 0x84
	CmdVideoWallOn   Command = 0x89

	// Clock / timers
	CmdClockSet Command = 0x30
	CmdTimer1   Command = 0x36
	CmdTimer2   Command = 0x37
	CmdTimer3   Command = 0x38

	// Network
	CmdNetworkConfig Command = 0x3A

	// Misc
	CmdLogoDisplay   Command = 0x1C
	CmdPowerOnDelay  Command = 0x1D
	CmdPowerOffDelay Command = 0x1E
	CmdOSDDisplay    Command = 0x3B

	// CmdReply is the command code a display uses for ACK/NAK replies.
	CmdReply Command = 0xFF
)

// Commands lists every declared command except CmdReply.
func Commands() []Command {
	return []Command{
		CmdPower, CmdPowerStatus,
		CmdVolume, CmdMute, CmdSoundMode,
		CmdInputSource, CmdPictureMode, CmdPictureSize,
		CmdContrast, CmdBrightness, CmdSharpness, CmdColor,
		CmdSafetyLock, CmdAutoAdjustment, CmdPanelLock, CmdReset,
		CmdCurrentTemp, CmdSerialNumber, CmdSoftwareVersion, CmdModelNumber,
		CmdVideoWallMode, CmdVideoWallOn,
		CmdClockSet, CmdTimer1, CmdTimer2, CmdTimer3,
		CmdNetworkConfig,
		CmdLogoDisplay, CmdPowerOnDelay, CmdPowerOffDelay, CmdOSDDisplay,
	}
}

func (c Command) String() string {
	switch c {
	case CmdPower:
		return "POWER"
	case CmdPowerStatus:
		return "POWER_STATUS"
	case CmdVolume:
		return "VOLUME"
	case CmdMute:
		return "MUTE"
	case CmdSoundMode:
		return "SOUND_MODE"
	case CmdInputSource:
		return "INPUT_SOURCE"
	case CmdPictureMode:
		return "PICTURE_MODE"
	case CmdPictureSize:
		return "PICTURE_SIZE"
	case CmdContrast:
		return "CONTRAST"
	case CmdBrightness:
		return "BRIGHTNESS"
	case CmdSharpness:
		return "SHARPNESS"
	case CmdColor:
		return "COLOR"
	case CmdSafetyLock:
		return "SAFETY_LOCK"
	case CmdAutoAdjustment:
		return "AUTO_ADJUSTMENT"
	case CmdPanelLock:
		return "PANEL_LOCK"
	case CmdReset:
		return "RESET"
	case CmdCurrentTemp:
		return "CURRENT_TEMP"
	case CmdSerialNumber:
		return "SERIAL_NUMBER"
	case CmdSoftwareVersion:
		return "SOFTWARE_VERSION"
	case CmdModelNumber:
		return "MODEL_NUMBER"
	case CmdVideoWallMode:
		return "VIDEO_WALL_MODE"
	case CmdVideoWallOn:
		return "VIDEO_WALL_ON"
	case CmdClockSet:
		return "CLOCK_SET"
	case CmdTimer1:
		return "TIMER_1"
	case CmdTimer2:
		return "TIMER_2"
	case CmdTimer3:
		return "TIMER_3"
	case CmdNetworkConfig:
		return "NETWORK_CONFIG"
	case CmdLogoDisplay:
		return "LOGO_DISPLAY"
	case CmdPowerOnDelay:
		return "POWER_ON_DELAY"
	case CmdPowerOffDelay:
		return "POWER_OFF_DELAY"
	case CmdOSDDisplay:
		return "OSD_DISPLAY"
	case CmdReply:
		return "REPLY"
	default:
		return fmt.Sprintf("CMD(0x%02X)", byte(c))
	}
}

// ---- value enums ----

// PowerState is the payload of POWER / POWER_STATUS.
type PowerState byte

const (
	PowerOff PowerState = 0x00
	PowerOn  PowerState = 0x01
)

// InputSource is the payload of INPUT_SOURCE.
type InputSource byte

const (
	InputHDMI1       InputSource = 0x21
	InputHDMI2       InputSource = 0x23
	InputDVI         InputSource = 0x18
	InputDisplayPort InputSource = 0x25
	InputRGB         InputSource = 0x14
	InputComponent   InputSource = 0x08
	InputComposite   InputSource = 0x0C
	InputUSB         InputSource = 0x60
)

var inputNames = map[InputSource]string{
	InputHDMI1:       "HDMI1",
	InputHDMI2:       "HDMI2",
	InputDVI:         "DVI",
	InputDisplayPort: "DISPLAY_PORT",
	InputRGB:         "RGB",
	InputComponent:   "COMPONENT",
	InputComposite:   "COMPOSITE",
	InputUSB:         "USB",
}

func (s InputSource) String() string {
	if n, ok := inputNames[s]; ok {
		return n
	}
	return fmt.Sprintf("INPUT(0x%02X)", byte(s))
}

// ParseInputSource resolves an input name such as "HDMI1".
func ParseInputSource(name string) (InputSource, error) {
	for v, n := range inputNames {
		if n == name {
			return v, nil
		}
	}
	return 0, validationf("unknown input source %q", name)
}

// InputSources returns the known input names.
func InputSources() []string {
	out := make([]string, 0, len(inputNames))
	for _, v := range []InputSource{
		InputHDMI1, InputHDMI2, InputDVI, InputDisplayPort,
		InputRGB, InputComponent, InputComposite, InputUSB,
	} {
		out = append(out, inputNames[v])
	}
	return out
}

// PictureMode is the payload of PICTURE_MODE.
type PictureMode byte

const (
	PictureStandard   PictureMode = 0x00
	PictureMovie      PictureMode = 0x01
	PictureDynamic    PictureMode = 0x02
	PictureNatural    PictureMode = 0x03
	PictureCalibrated PictureMode = 0x04
)

var pictureNames = []string{"STANDARD", "MOVIE", "DYNAMIC", "NATURAL", "CALIBRATED"}

func (m PictureMode) String() string {
	if int(m) < len(pictureNames) {
		return pictureNames[m]
	}
	return fmt.Sprintf("PICTURE(0x%02X)", byte(m))
}

// ParsePictureMode resolves a picture mode name such as "MOVIE".
func ParsePictureMode(name string) (PictureMode, error) {
	for i, n := range pictureNames {
		if n == name {
			return PictureMode(i), nil
		}
	}
	return 0, validationf("unknown picture mode %q", name)
}

// PictureModes returns the known picture mode names.
func PictureModes() []string {
	out := make([]string, len(pictureNames))
	copy(out, pictureNames)
	return out
}
