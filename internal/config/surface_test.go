package config

import (
	"context"
	"errors"
	"testing"

	"github.com/blang/semver"
	"gotest.tools/v3/assert"

	"github.com/TApplencourt/xpumanager/internal/device"
	"github.com/TApplencourt/xpumanager/internal/logs"
	"github.com/TApplencourt/xpumanager/internal/sysman"
)

func newTestSurface(t *testing.T) (*Surface, *sysman.Fake) {
	t.Helper()
	fake := sysman.NewFake()
	fake.AddDevice(&sysman.FakeDevice{
		Handle: sysman.DeviceHandle{ID: 0},
		Props:  sysman.Properties{BDF: "0000:00:02.0", NumTiles: 2},
	})
	reg, err := device.NewRegistry(context.Background(), fake, nil, semver.Version{})
	assert.NilError(t, err)
	logger, _ := logs.DiscardLogger()
	return NewSurface(reg, fake, nil, logger), fake
}

func TestQueryResolvesDeviceByID(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.Query(context.Background(), QueryRequest{Device: "0", TileID: -1})
	assert.Equal(t, r.Status, StatusOK)
	assert.Equal(t, r.Details["bdf"], "0000:00:02.0")
}

func TestQueryResolvesDeviceByBDF(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.Query(context.Background(), QueryRequest{Device: "0000:00:02.0", TileID: -1})
	assert.Equal(t, r.Status, StatusOK)
	assert.Equal(t, r.Details["device_id"], 0)
}

func TestQueryUnknownDeviceReturnsError(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.Query(context.Background(), QueryRequest{Device: "99", TileID: -1})
	assert.Equal(t, r.Status, StatusError)
}

func TestSetPowerLimitRejectsNonPositiveWatts(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.SetPowerLimit(context.Background(), SetPowerLimitRequest{Device: "0", Watts: 0})
	assert.Equal(t, r.Status, StatusError)
}

func TestSetPowerLimitAppliesAndReportsSuccess(t *testing.T) {
	s, fake := newTestSurface(t)
	r := s.SetPowerLimit(context.Background(), SetPowerLimitRequest{Device: "0", Watts: 150})
	assert.Equal(t, r.Status, StatusOK)
	assert.Equal(t, fake.Devices[0].LastApply.Op, "set_power_limit")
	assert.Equal(t, fake.Devices[0].LastApply.PowerWatts, 150)
}

func TestSetSchedulerRejectsInvalidSpecBeforeResolvingDevice(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.SetScheduler(context.Background(), SetSchedulerRequest{Device: "0", Spec: "bogus"})
	assert.Equal(t, r.Status, StatusError)
}

func TestSetSchedulerDispatchesParsedSpec(t *testing.T) {
	s, fake := newTestSurface(t)
	r := s.SetScheduler(context.Background(), SetSchedulerRequest{Device: "0", Spec: "timeout,20000"})
	assert.Equal(t, r.Status, StatusOK)
	assert.Equal(t, fake.Devices[0].LastApply.Scheduler.Mode, "timeout")
}

func TestSetMemoryEccReportsPendingState(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.SetMemoryEcc(context.Background(), SetMemoryEccRequest{Device: "0", Enable: 1})
	assert.Equal(t, r.Status, StatusOK)
	assert.Equal(t, r.Details["pending"], "enabled")
}

func TestResetDeviceCancelledWithoutConfirmation(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.ResetDevice(context.Background(), ResetDeviceRequest{Device: "0", Confirmed: false})
	assert.Equal(t, r.Status, StatusCancel)
}

func TestResetDeviceConfirmedDispatchesReset(t *testing.T) {
	s, _ := newTestSurface(t)
	r := s.ResetDevice(context.Background(), ResetDeviceRequest{Device: "0", Confirmed: true})
	assert.Equal(t, r.Status, StatusOK)
}

func TestApplyFailureSurfacesAsError(t *testing.T) {
	s, fake := newTestSurface(t)
	fake.Devices[0].ApplyErr = errors.New("i2c bus timeout")
	r := s.SetPowerLimit(context.Background(), SetPowerLimitRequest{Device: "0", Watts: 150})
	assert.Equal(t, r.Status, StatusError)
	assert.Assert(t, r.Error != "")
}
