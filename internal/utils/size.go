package utils

import (
	"fmt"
	"strings"
)

// sizeUnitLabels are the lower-case unit suffixes from bytes upward.
var sizeUnitLabels = []string{"b", "kb", "mb", "gb", "tb", "pb"}

// sizeUnitStep is the scale factor between adjacent units.
const sizeUnitStep = 1024

// FormatFileSize renders a byte count as a compact lower-case human
// string, as shown in binary-file diagnostics. Negative counts render as
// zero bytes.
func FormatFileSize(byteCount int64) string {
	if byteCount < 0 {
		byteCount = 0
	}
	scaledValue := float64(byteCount)
	unitIndex := 0
	for scaledValue >= sizeUnitStep && unitIndex < len(sizeUnitLabels)-1 {
		scaledValue /= sizeUnitStep
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%d%s", byteCount, sizeUnitLabels[0])
	}
	if scaledValue < 10 {
		compactValue := strings.TrimSuffix(fmt.Sprintf("%.1f", scaledValue), ".0")
		return compactValue + sizeUnitLabels[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", scaledValue, sizeUnitLabels[unitIndex])
}
