// internal/executor/ops.go
package executor

import (
	"context"

	"github.com/tamzrod/mdc-controller/internal/display"
	"github.com/tamzrod/mdc-controller/internal/mdc"
)

// Typed operations. Parameters are validated before any I/O.

func (e *Executor) PowerOn(ctx context.Context) error {
	_, err := e.Execute(ctx, mdc.Power(true))
	return err
}

func (e *Executor) PowerOff(ctx context.Context) error {
	_, err := e.Execute(ctx, mdc.Power(false))
	return err
}

// PowerStatus queries the power state.
func (e *Executor) PowerStatus(ctx context.Context) (bool, error) {
	v, err := e.queryByte(ctx, mdc.CmdPowerStatus)
	if err != nil {
		return false, err
	}
	return mdc.PowerState(v) == mdc.PowerOn, nil
}

// TogglePower reads the power state and flips it. Returns the new state.
func (e *Executor) TogglePower(ctx context.Context) (bool, error) {
	on, err := e.PowerStatus(ctx)
	if err != nil {
		return false, err
	}
	if _, err := e.Execute(ctx, mdc.Power(!on)); err != nil {
		return on, err
	}
	return !on, nil
}

func (e *Executor) SetVolume(ctx context.Context, v int) error {
	req, err := mdc.Volume(v)
	if err != nil {
		return err
	}
	_, err = e.Execute(ctx, req)
	return err
}

func (e *Executor) SetMute(ctx context.Context, muted bool) error {
	_, err := e.Execute(ctx, mdc.Mute(muted))
	return err
}

func (e *Executor) SetInput(ctx context.Context, src mdc.InputSource) error {
	req, err := mdc.Input(src)
	if err != nil {
		return err
	}
	_, err = e.Execute(ctx, req)
	return err
}

func (e *Executor) SetPictureMode(ctx context.Context, m mdc.PictureMode) error {
	req, err := mdc.Picture(m)
	if err != nil {
		return err
	}
	_, err = e.Execute(ctx, req)
	return err
}

func (e *Executor) SetBrightness(ctx context.Context, v int) error {
	req, err := mdc.Brightness(v)
	if err != nil {
		return err
	}
	_, err = e.Execute(ctx, req)
	return err
}

func (e *Executor) SetContrast(ctx context.Context, v int) error {
	req, err := mdc.Contrast(v)
	if err != nil {
		return err
	}
	_, err = e.Execute(ctx, req)
	return err
}

// SetVideoWall configures wall mode and this display's position in the grid.
func (e *Executor) SetVideoWall(ctx context.Context, w mdc.VideoWall) error {
	req, err := mdc.VideoWallMode(w)
	if err != nil {
		return err
	}
	_, err = e.Execute(ctx, req)
	return err
}

// Temperature returns the panel temperature in degrees Celsius.
func (e *Executor) Temperature(ctx context.Context) (int, error) {
	v, err := e.queryByte(ctx, mdc.CmdCurrentTemp)
	return int(v), err
}

func (e *Executor) SerialNumber(ctx context.Context) (string, error) {
	return e.queryString(ctx, mdc.CmdSerialNumber)
}

func (e *Executor) ModelNumber(ctx context.Context) (string, error) {
	return e.queryString(ctx, mdc.CmdModelNumber)
}

func (e *Executor) SoftwareVersion(ctx context.Context) (string, error) {
	return e.queryString(ctx, mdc.CmdSoftwareVersion)
}

func (e *Executor) queryByte(ctx context.Context, cmd mdc.Command) (byte, error) {
	resp, err := e.Execute(ctx, mdc.Query(cmd))
	if err != nil {
		return 0, err
	}
	if len(resp.Values) == 0 {
		return 0, &mdc.Error{Kind: mdc.KindMalformed, Msg: cmd.String() + ": empty reply"}
	}
	return resp.Values[0], nil
}

func (e *Executor) queryString(ctx context.Context, cmd mdc.Command) (string, error) {
	resp, err := e.Execute(ctx, mdc.Query(cmd))
	if err != nil {
		return "", err
	}
	s := display.ASCII(resp.Values)
	if s == "" {
		return "", &mdc.Error{Kind: mdc.KindMalformed, Msg: cmd.String() + ": empty reply"}
	}
	return s, nil
}
