// Package exitcode is the fixed process-exit-code taxonomy the
// command-line collaborator preserves verbatim for compatibility.
package exitcode

import "github.com/TApplencourt/xpumanager/internal/xpumerr"

const (
	Success                       = 0
	GenericError                  = 1
	BadArgument                   = 2
	BufferTooSmall                = 3
	DeviceNotFound                = 4
	TileNotFound                  = 5
	GroupNotFound                 = 6
	PolicyTypeInvalid             = 7
	PolicyActionTypeInvalid       = 8
	PolicyConditionTypeInvalid    = 9
	PolicyTypeActionNotSupport    = 10
	PolicyTypeConditionNotSupport = 11
	PolicyInvalidThreshold        = 12
	PolicyInvalidFrequency        = 13
	PolicyNotExist                = 14
	DiagnosticTaskNotComplete     = 15
	GroupDeviceDuplicated         = 16
	GroupChangeNotAllowed         = 17
	NotInitialized                = 18
	DumpRawDataTaskNotExist       = 19
	DumpRawDataIllegalFilePath    = 20
	UnknownAgentConfigKey         = 21
	UpdateFirmwareIllegalFilename = 22
	UpdateFirmwareImageNotFound   = 23
	UpdateFirmwareUnsupportedAMC  = 24
	UpdateFirmwareUnsupportedAMCSingle = 25
	UpdateFirmwareUnsupportedGFXAll    = 26
	UpdateFirmwareModelInconsistence   = 27
	UpdateFirmwareIGSCNotFound         = 28
	UpdateFirmwareTaskRunning          = 29
	UpdateFirmwareInvalidFWImage       = 30
	UpdateFirmwareNotCompatible        = 31
	DumpMetricsTypeNotSupport          = 32
	MetricNotSupported                 = 33
	MetricNotEnabled                   = 34
	HealthInvalidType                  = 35
	HealthInvalidConfigType            = 36
	HealthInvalidThreshold             = 37
	DiagnosticInvalidLevel             = 38
	AgentSetInvalidValue               = 39
	LevelZeroInitializationError       = 40
	UnsupportedSessionID               = 41
	UpdateFirmwareFail                  = 42
	DiagnosticTaskTimeout               = 43
	OpenFile                            = 44
	EmptyXML                            = 45
	DiagnosticTaskFailed                = 46
	FirmwareVersionError                = 47
	MemoryEccLibNotSupport               = 48
)

// FromKind maps the closed xpumerr.Kind taxonomy onto the numeric exit
// code a CLI caller should return. Kinds without a direct equivalent in
// the original numbering fall back to GenericError.
func FromKind(k xpumerr.Kind) int {
	switch k {
	case xpumerr.BadArgument:
		return BadArgument
	case xpumerr.DeviceNotFound:
		return DeviceNotFound
	case xpumerr.TileNotFound:
		return TileNotFound
	case xpumerr.Unsupported:
		return MetricNotSupported
	case xpumerr.InvalidThreshold:
		return HealthInvalidThreshold
	case xpumerr.FirmwareVersionMismatch:
		return FirmwareVersionError
	case xpumerr.HardwareFailure:
		return GenericError
	default:
		return GenericError
	}
}
