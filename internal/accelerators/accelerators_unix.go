//go:build !windows

package accelerators

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	intelVendorID    = "0x8086"
	sysDevicesPath   = "/sys/bus/pci/devices"
	deviceVendorPath = "vendor"
	deviceClassPath  = "class"
	pciDisplayClass  = "0x03" // VGA/3D/display controller class prefix
)

// HasSupportedAccelerator scans the /sys PCI device tree for a display-class
// device whose vendor ID matches Intel's, to decide whether xpumd should
// even attempt to build a hardware-sysman capability on this host. It
// returns an error only if the PCI device tree itself could not be read;
// a device whose vendor/class files are unreadable is skipped rather than
// treated as fatal, since some sysfs entries race device hot-unplug.
func HasSupportedAccelerator() (bool, error) {
	devices, err := os.ReadDir(sysDevicesPath)
	if err != nil {
		return false, err
	}
	for _, d := range devices {
		vendor, err := os.ReadFile(filepath.Join(sysDevicesPath, d.Name(), deviceVendorPath))
		if err != nil {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(string(vendor)), intelVendorID) {
			continue
		}
		class, err := os.ReadFile(filepath.Join(sysDevicesPath, d.Name(), deviceClassPath))
		if err != nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(string(class)), pciDisplayClass) {
			return true, nil
		}
	}
	return false, nil
}
