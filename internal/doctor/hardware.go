package doctor

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/shadowblip/handycon-setup/internal/messages"
)

const (
	// DefaultProductNamePath exposes the DMI product name.
	DefaultProductNamePath = "/sys/devices/virtual/dmi/id/product_name"
	// DefaultCPUInfoPath lists CPU details including the vendor id.
	DefaultCPUInfoPath = "/proc/cpuinfo"
)

// SystemType groups handhelds that share input hardware and key codes.
type SystemType string

const (
	SystemAyaGen1  SystemType = "AYA_GEN1"
	SystemAyaGen2  SystemType = "AYA_GEN2"
	SystemOXPIntel SystemType = "OXP_INTEL"
	SystemOXPAMD   SystemType = "OXP_AMD"
)

const oneXPlayerProduct = "ONE XPLAYER"

var productSystemTypes = map[string]SystemType{
	"AYA NEO FOUNDER":             SystemAyaGen1,
	"AYA NEO 2021":                SystemAyaGen1,
	"AYANEO 2021":                 SystemAyaGen1,
	"AYANEO 2021 Pro":             SystemAyaGen1,
	"AYANEO 2021 Pro Retro Power": SystemAyaGen1,
	"NEXT":                        SystemAyaGen2,
	"NEXT Pro":                    SystemAyaGen2,
	"NEXT Advance":                SystemAyaGen2,
	"AYANEO NEXT":                 SystemAyaGen2,
	"AYANEO NEXT Pro":             SystemAyaGen2,
	"AYANEO NEXT Advance":         SystemAyaGen2,
	"AIR":                         SystemAyaGen2,
	"AIR Pro":                     SystemAyaGen2,
}

// ResolveSystemType maps a DMI product name to a system type. ONE XPLAYER units
// carry incomplete DMI data, so the CPU vendor decides between the Intel and AMD models.
func ResolveSystemType(product string, cpuVendor string) (SystemType, bool) {
	product = strings.TrimSpace(product)
	if product == oneXPlayerProduct {
		vendor := strings.TrimSpace(cpuVendor)
		switch {
		case vendor == "GenuineIntel":
			return SystemOXPIntel, true
		case strings.HasPrefix(vendor, "AuthenticAMD"):
			return SystemOXPAMD, true
		default:
			return "", false
		}
	}
	systemType, ok := productSystemTypes[product]
	return systemType, ok
}

// CPUVendor returns the first vendor_id value in /proc/cpuinfo content.
func CPUVendor(cpuinfo []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(cpuinfo))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if ok && strings.TrimSpace(key) == "vendor_id" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

var readFile = os.ReadFile

// CheckHardware identifies the handheld from DMI data.
func CheckHardware(productNamePath string, cpuInfoPath string) Result {
	data, err := readFile(productNamePath)
	if err != nil {
		return Result{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameHardware,
			Message:        fmt.Sprintf(messages.DoctorProductNameReadFailedFmt, productNamePath, err),
			Recommendation: messages.DoctorUnsupportedHardwareRecommend,
		}
	}
	product := strings.TrimSpace(string(data))
	vendor := ""
	if product == oneXPlayerProduct {
		if cpuinfo, err := readFile(cpuInfoPath); err == nil {
			vendor = CPUVendor(cpuinfo)
		}
	}
	systemType, ok := ResolveSystemType(product, vendor)
	if !ok {
		return Result{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameHardware,
			Message:        fmt.Sprintf(messages.DoctorUnsupportedHardwareFmt, product),
			Recommendation: messages.DoctorUnsupportedHardwareRecommend,
		}
	}
	return Result{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNameHardware,
		Message:   fmt.Sprintf(messages.DoctorSupportedHardwareFmt, product, systemType),
	}
}
