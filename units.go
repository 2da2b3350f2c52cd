package poster

import (
	"math"
)

const (
	// DPI is the resolution every tile is rendered at
	DPI = 300

	// MMPerInch is the number of millimeters in an inch
	MMPerInch = 25.4

	// PointsPerInch is the PDF user space unit
	PointsPerInch = 72
)

// MMToPixels converts millimeters into whole pixels at DPI.
// Partial pixels round up, so an A4 page is 2481x3508.
func MMToPixels(mm float64) int {
	if mm <= 0 {
		return 0
	}
	// shave float noise so exact values (25.4mm => 300px) don't round up
	return int(math.Ceil(mm/MMPerInch*DPI - 1e-9))
}

// PixelsToMM converts pixels at DPI back into millimeters.
func PixelsToMM(px int) float64 {
	return float64(px) / DPI * MMPerInch
}

// MMToPoints converts millimeters into PDF points.
func MMToPoints(mm float64) float64 {
	return mm / MMPerInch * PointsPerInch
}

// PointsToMM converts PDF points into millimeters.
func PointsToMM(pt float64) float64 {
	return pt / PointsPerInch * MMPerInch
}
