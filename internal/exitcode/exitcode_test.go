package exitcode

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/TApplencourt/xpumanager/internal/xpumerr"
)

func TestFromKindMapsKnownKinds(t *testing.T) {
	cases := map[xpumerr.Kind]int{
		xpumerr.BadArgument:             BadArgument,
		xpumerr.DeviceNotFound:          DeviceNotFound,
		xpumerr.TileNotFound:            TileNotFound,
		xpumerr.Unsupported:             MetricNotSupported,
		xpumerr.InvalidThreshold:        HealthInvalidThreshold,
		xpumerr.FirmwareVersionMismatch: FirmwareVersionError,
		xpumerr.HardwareFailure:         GenericError,
	}
	for kind, want := range cases {
		assert.Equal(t, FromKind(kind), want, kind)
	}
}

func TestFromKindUnknownKindFallsBackToGenericError(t *testing.T) {
	assert.Equal(t, FromKind(xpumerr.Kind("NotARealKind")), GenericError)
}
