// internal/executor/executor_test.go
package executor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tamzrod/mdc-controller/internal/mdc"
	"github.com/tamzrod/mdc-controller/internal/session"
)

var fastCfg = session.Config{
	ConnectTimeout: 50 * time.Millisecond,
	CommandTimeout: 50 * time.Millisecond,
}

var noDelay = Policy{MaxRetries: 3, RetryDelay: 0}

// echoDisplay ACKs every command; queries report value.
func echoDisplay(id uint8, value byte) *fakeDisplay {
	d := &fakeDisplay{id: id}
	d.handle = func(req mdc.Frame) []byte {
		if len(req.Data) == 0 {
			return ack(id, req.Command, value)
		}
		return ack(id, req.Command, req.Data...)
	}
	return d
}

func TestExecute_QueryUpdatesStatus(t *testing.T) {
	disp := echoDisplay(1, 0x01)
	ex := newTestExecutor(1, dialerFor(disp), fastCfg, noDelay)
	defer ex.Close()

	on, err := ex.PowerStatus(context.Background())
	if err != nil {
		t.Fatalf("PowerStatus: %v", err)
	}
	if !on {
		t.Fatalf("expected power on")
	}

	st := ex.Status()
	if !st.Online || !st.Responsive || st.ErrorCount != 0 {
		t.Fatalf("status not refreshed: %+v", st)
	}
	if st.Power == nil || !*st.Power {
		t.Fatalf("power not recorded: %+v", st.Power)
	}
	if st.LastSeen.IsZero() {
		t.Fatalf("lastSeen not set")
	}
}

func TestExecute_SetRecordsSentValue(t *testing.T) {
	disp := echoDisplay(2, 0)
	ex := newTestExecutor(2, dialerFor(disp), fastCfg, noDelay)
	defer ex.Close()

	if err := ex.SetVolume(context.Background(), 35); err != nil {
		t.Fatalf("SetVolume: %v", err)
	}
	st := ex.Status()
	if st.Volume == nil || *st.Volume != 35 {
		t.Fatalf("volume got %v", st.Volume)
	}
	if st.Brightness != nil || st.Power != nil {
		t.Fatalf("unrelated fields changed: %+v", st)
	}
}

func TestExecute_ValidationNeverDials(t *testing.T) {
	dialer := dialerFor(echoDisplay(1, 0))
	ex := newTestExecutor(1, dialer, fastCfg, noDelay)
	ctx := context.Background()

	for _, v := range []int{150, -1} {
		err := ex.SetVolume(ctx, v)
		if !errors.Is(err, mdc.ErrValidation) {
			t.Fatalf("SetVolume(%d): expected validation error, got %v", v, err)
		}
	}

	err := ex.SetVideoWall(ctx, mdc.VideoWall{Enabled: true, HMonitors: 2, VMonitors: 2, HPosition: 3, VPosition: 1})
	if !errors.Is(err, mdc.ErrValidation) {
		t.Fatalf("SetVideoWall: expected validation error, got %v", err)
	}

	if n := dialer.count(); n != 0 {
		t.Fatalf("validation failure must not dial, got %d dials", n)
	}
}

func TestExecute_RetryBoundOnConnectTimeout(t *testing.T) {
	dialer := hangingDialer()
	ex := newTestExecutor(1, dialer, fastCfg, noDelay)

	start := time.Now()
	_, err := ex.Execute(context.Background(), mdc.Query(mdc.CmdPowerStatus))
	elapsed := time.Since(start)

	if !errors.Is(err, mdc.ErrExhaustedRetries) {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	var me *mdc.Error
	if !errors.As(err, &me) || me.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %+v", me)
	}
	if n := dialer.count(); n != 3 {
		t.Fatalf("expected exactly 3 dials, got %d", n)
	}
	if elapsed < 3*fastCfg.ConnectTimeout {
		t.Fatalf("elapsed %s shorter than 3 connect timeouts", elapsed)
	}

	st := ex.Status()
	if st.Online || st.Responsive || st.ErrorCount != 3 {
		t.Fatalf("status after exhausted retries: %+v", st)
	}
}

func TestExecute_TimeoutThenReconnect(t *testing.T) {
	var calls int32
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil // first attempt: silence
		}
		return ack(1, req.Command, 55)
	}
	dialer := dialerFor(disp)
	ex := newTestExecutor(1, dialer, fastCfg, noDelay)
	defer ex.Close()

	resp, err := ex.Execute(context.Background(), mdc.Query(mdc.CmdCurrentTemp))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", resp.Attempts)
	}
	if n := dialer.count(); n != 2 {
		t.Fatalf("timeout must force a reconnect, got %d dials", n)
	}
	st := ex.Status()
	if st.Temperature == nil || *st.Temperature != 55 || st.ErrorCount != 0 {
		t.Fatalf("status after recovery: %+v", st)
	}
}

func TestExecute_ReplyForOtherCommandRetried(t *testing.T) {
	var calls int32
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte {
		if atomic.AddInt32(&calls, 1) == 1 {
			return ack(1, mdc.CmdVolume, 99) // left over from another exchange
		}
		return ack(1, req.Command, 45)
	}
	dialer := dialerFor(disp)
	ex := newTestExecutor(1, dialer, fastCfg, noDelay)
	defer ex.Close()

	temp, err := ex.Temperature(context.Background())
	if err != nil {
		t.Fatalf("Temperature: %v", err)
	}
	if temp != 45 {
		t.Fatalf("temperature got %d", temp)
	}
	if n := dialer.count(); n != 2 {
		t.Fatalf("out-of-step reply must force a reconnect, got %d dials", n)
	}
	if st := ex.Status(); st.Volume != nil {
		t.Fatalf("foreign reply leaked into volume: %d", *st.Volume)
	}
}

func TestExecute_ReplyForOtherCommandExhausts(t *testing.T) {
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte { return ack(1, mdc.CmdVolume, 99) }
	ex := newTestExecutor(1, dialerFor(disp), fastCfg, noDelay)
	defer ex.Close()

	_, err := ex.Execute(context.Background(), mdc.Query(mdc.CmdCurrentTemp))
	if !errors.Is(err, mdc.ErrExhaustedRetries) {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if !errors.Is(err, mdc.ErrMalformed) {
		t.Fatalf("cause must be malformed, got %v", err)
	}
	if st := ex.Status(); st.Volume != nil || st.Temperature != nil {
		t.Fatalf("nothing may be recorded: %+v", st)
	}
}

func TestExecute_ExchangeFailureClearsOnline(t *testing.T) {
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte { return nil }
	ex := newTestExecutor(1, dialerFor(disp), fastCfg, Policy{MaxRetries: 1})
	defer ex.Close()

	if _, err := ex.Execute(context.Background(), mdc.Query(mdc.CmdCurrentTemp)); err == nil {
		t.Fatalf("expected timeout failure")
	}
	if ex.State() != session.Disconnected {
		t.Fatalf("state %s", ex.State())
	}
	if st := ex.Status(); st.Online {
		t.Fatalf("status must not report online without a connection: %+v", st)
	}
}

func TestExecute_ProtocolMismatchFaults(t *testing.T) {
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte {
		return ack(9, req.Command, 0x01) // wrong display id
	}
	dialer := dialerFor(disp)
	ex := newTestExecutor(1, dialer, fastCfg, noDelay)
	ctx := context.Background()

	_, err := ex.Execute(ctx, mdc.Query(mdc.CmdPowerStatus))
	if !errors.Is(err, mdc.ErrProtocolMismatch) {
		t.Fatalf("expected protocol mismatch, got %v", err)
	}
	if n := atomic.LoadInt32(&disp.writes); n != 1 {
		t.Fatalf("mismatch must not be retried, got %d writes", n)
	}
	if ex.State() != session.Faulted {
		t.Fatalf("expected faulted session, got %s", ex.State())
	}

	_, err = ex.Execute(ctx, mdc.Query(mdc.CmdPowerStatus))
	if !errors.Is(err, mdc.ErrFaulted) {
		t.Fatalf("faulted session must refuse commands, got %v", err)
	}
	if n := dialer.count(); n != 1 {
		t.Fatalf("faulted session must not redial, got %d dials", n)
	}

	disp.handle = func(req mdc.Frame) []byte { return ack(1, req.Command, 0x01) }
	if err := ex.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if _, err := ex.PowerStatus(ctx); err != nil {
		t.Fatalf("after reset: %v", err)
	}
}

func TestExecute_NAKIsRejected(t *testing.T) {
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte { return nak(1, req.Command) }
	ex := newTestExecutor(1, dialerFor(disp), fastCfg, noDelay)
	defer ex.Close()

	err := ex.SetBrightness(context.Background(), 50)
	if !errors.Is(err, mdc.ErrRejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	if n := atomic.LoadInt32(&disp.writes); n != 1 {
		t.Fatalf("NAK must not be retried, got %d writes", n)
	}
	st := ex.Status()
	if st.Brightness != nil {
		t.Fatalf("rejected set must not be recorded")
	}
	if !st.Responsive || st.ErrorCount != 0 {
		t.Fatalf("display answered, connectivity should be good: %+v", st)
	}
}

func TestExecute_ChecksumMismatchTolerated(t *testing.T) {
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte {
		b := ack(1, req.Command, 61)
		b[len(b)-1] ^= 0xFF
		return b
	}

	var hooked int32
	sess := session.New(dialerFor(disp), fastCfg, nopLogger())
	ex := New(endpoint(1), sess, Options{
		Policy:       noDelay,
		Logger:       nopLogger(),
		ChecksumHook: func(id uint8, f mdc.Frame) { atomic.AddInt32(&hooked, 1) },
	})
	defer ex.Close()

	temp, err := ex.Temperature(context.Background())
	if err != nil {
		t.Fatalf("checksum mismatch must not fail the command: %v", err)
	}
	if temp != 61 {
		t.Fatalf("temperature got %d", temp)
	}
	if atomic.LoadInt32(&hooked) != 1 {
		t.Fatalf("checksum hook not called")
	}
	if st := ex.Status(); st.ChecksumMismatches != 1 {
		t.Fatalf("mismatch counter got %d", st.ChecksumMismatches)
	}
}

func TestExecute_WriteOnlyDoesNotRead(t *testing.T) {
	disp := &fakeDisplay{id: 1}
	disp.handle = func(req mdc.Frame) []byte { return nil }
	ex := newTestExecutor(1, dialerFor(disp), fastCfg, noDelay)
	defer ex.Close()

	req := mdc.Power(true)
	req.ExpectResponse = false

	start := time.Now()
	resp, err := ex.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf("write-only: %v", err)
	}
	if resp.Frame != nil {
		t.Fatalf("write-only must not carry a frame")
	}
	if time.Since(start) >= fastCfg.CommandTimeout {
		t.Fatalf("write-only command waited for a reply")
	}
	if st := ex.Status(); st.Power == nil || !*st.Power {
		t.Fatalf("power not recorded")
	}
}

func TestExecute_SerializedPerDisplay(t *testing.T) {
	disp := echoDisplay(1, 0x01)
	disp.latency = 10 * time.Millisecond

	cfg := session.Config{ConnectTimeout: time.Second, CommandTimeout: time.Second}
	ex := newTestExecutor(1, dialerFor(disp), cfg, noDelay)
	defer ex.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, err := ex.PowerStatus(context.Background())
				errs <- err
				return
			}
			errs <- ex.SetVolume(context.Background(), i)
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent execute: %v", err)
		}
	}
	if v := atomic.LoadInt32(&disp.violations); v != 0 {
		t.Fatalf("overlapping exchanges on one display: %d", v)
	}
	if n := atomic.LoadInt32(&disp.writes); n != 10 {
		t.Fatalf("expected 10 writes, got %d", n)
	}
}

func TestExecute_CancelledDuringRetryDelay(t *testing.T) {
	dialer := hangingDialer()
	ex := newTestExecutor(1, dialer, fastCfg, Policy{MaxRetries: 5, RetryDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(2 * fastCfg.ConnectTimeout)
		cancel()
	}()

	_, err := ex.Execute(ctx, mdc.Query(mdc.CmdPowerStatus))
	if !errors.Is(err, mdc.ErrExhaustedRetries) {
		t.Fatalf("expected exhausted retries, got %v", err)
	}
	if n := dialer.count(); n != 1 {
		t.Fatalf("expected a single dial before cancel, got %d", n)
	}
}

func TestTogglePower(t *testing.T) {
	var power byte = 0x00
	disp := &fakeDisplay{id: 4}
	disp.handle = func(req mdc.Frame) []byte {
		switch req.Command {
		case mdc.CmdPowerStatus:
			return ack(4, req.Command, power)
		case mdc.CmdPower:
			power = req.Data[0]
			return ack(4, req.Command, power)
		}
		return nak(4, req.Command)
	}
	ex := newTestExecutor(4, dialerFor(disp), fastCfg, noDelay)
	defer ex.Close()

	on, err := ex.TogglePower(context.Background())
	if err != nil {
		t.Fatalf("TogglePower: %v", err)
	}
	if !on || power != 0x01 {
		t.Fatalf("expected power on, got %v (display %#x)", on, power)
	}
}
