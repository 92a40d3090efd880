package device

import (
	"context"
	"testing"

	"github.com/blang/semver"
	"gotest.tools/v3/assert"

	"github.com/TApplencourt/xpumanager/internal/sysman"
)

func newFakeWithDevice(name, bdf, firmware string) *sysman.Fake {
	fake := sysman.NewFake()
	fake.AddDevice(&sysman.FakeDevice{
		Handle: sysman.DeviceHandle{ID: 0},
		Props: sysman.Properties{
			Name:            name,
			BDF:             bdf,
			NumTiles:        2,
			FirmwareVersion: firmware,
		},
		Engines: []sysman.EngineHandle{
			{Handle: 1, Kind: "compute", SubdeviceID: 0},
			{Handle: 2, Kind: "compute", SubdeviceID: 1},
		},
		FabricPort: []sysman.FabricPortHandle{
			{Handle: 10, AttachID: 1, RemoteFabricID: 2, RemoteAttachID: 3},
		},
	})
	return fake
}

func TestNewRegistryBuildsTopology(t *testing.T) {
	fake := newFakeWithDevice("Max 1550", "0000:00:02.0", "1.2.3")
	reg, err := NewRegistry(context.Background(), fake, nil, semver.Version{})
	assert.NilError(t, err)

	d, err := reg.ByID(0)
	assert.NilError(t, err)
	assert.Equal(t, d.BDF, "0000:00:02.0")
	assert.Equal(t, len(d.Engines[EngineKey{SubdeviceID: 0, Kind: "compute"}]), 1)
	assert.Equal(t, len(d.FabricPort[FabricPortKey{AttachID: 1, RemoteFabricID: 2, RemoteAttachID: 3}]), 1)

	byBDF, err := reg.ByBDF("0000:00:02.0")
	assert.NilError(t, err)
	assert.Equal(t, byBDF.ID, 0)

	assert.DeepEqual(t, reg.All(), []int{0})
}

func TestByIDUnknownDevice(t *testing.T) {
	reg, err := NewRegistry(context.Background(), sysman.NewFake(), nil, semver.Version{})
	assert.NilError(t, err)
	_, err = reg.ByID(9)
	assert.ErrorContains(t, err, "no device with id")
}

func TestByBDFUnknown(t *testing.T) {
	reg, err := NewRegistry(context.Background(), sysman.NewFake(), nil, semver.Version{})
	assert.NilError(t, err)
	_, err = reg.ByBDF("0000:00:03.0")
	assert.ErrorContains(t, err, "no device with BDF")
}

func TestDefaultATSPredicateMatchesNameSubstring(t *testing.T) {
	fake := newFakeWithDevice("Data Center GPU ATS Edition", "0000:00:02.0", "")
	reg, err := NewRegistry(context.Background(), fake, nil, semver.Version{})
	assert.NilError(t, err)
	d, _ := reg.ByID(0)
	assert.Assert(t, reg.IsATSStyle(d))
}

func TestDefaultATSPredicateDefaultsFalseForUnknownName(t *testing.T) {
	fake := newFakeWithDevice("Max 1550", "0000:00:02.0", "")
	reg, err := NewRegistry(context.Background(), fake, nil, semver.Version{})
	assert.NilError(t, err)
	d, _ := reg.ByID(0)
	assert.Assert(t, !reg.IsATSStyle(d))
}

func TestFirmwareBaselineReportsMismatch(t *testing.T) {
	fake := newFakeWithDevice("Max 1550", "0000:00:02.0", "1.0.0")
	reg, err := NewRegistry(context.Background(), fake, nil, semver.MustParse("2.0.0"))
	assert.NilError(t, err)
	d, _ := reg.ByID(0)
	err = reg.FirmwareBaseline(d)
	assert.ErrorContains(t, err, "below required baseline")
}

func TestFirmwareBaselineAcceptsUnparseableVersion(t *testing.T) {
	fake := newFakeWithDevice("Max 1550", "0000:00:02.0", "not-a-version")
	reg, err := NewRegistry(context.Background(), fake, nil, semver.MustParse("2.0.0"))
	assert.NilError(t, err)
	d, _ := reg.ByID(0)
	assert.NilError(t, reg.FirmwareBaseline(d))
}

func TestFirmwareBaselineSkippedWhenUnset(t *testing.T) {
	fake := newFakeWithDevice("Max 1550", "0000:00:02.0", "0.0.1")
	reg, err := NewRegistry(context.Background(), fake, nil, semver.Version{})
	assert.NilError(t, err)
	d, _ := reg.ByID(0)
	assert.NilError(t, reg.FirmwareBaseline(d))
}

func TestParseBDF(t *testing.T) {
	cases := map[string]bool{
		"0000:00:02.0": true,
		"ffff:ff:1f.7": true,
		"0000:00:02":   false,
		"not-a-bdf":    false,
		"":             false,
	}
	for in, want := range cases {
		assert.Equal(t, ParseBDF(in), want, in)
	}
}

func TestEncodeFabricThroughputIDDistinguishesDirection(t *testing.T) {
	rx := EncodeFabricThroughputID(1, 2, 3, FabricReceived)
	tx := EncodeFabricThroughputID(1, 2, 3, FabricTransmitted)
	assert.Assert(t, rx != tx)
}
