package domain

import (
	"fmt"
	"math"
	"time"
)

var fileSizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatFileSize renders bytes with binary prefixes: 0 -> "0 B", 1536 -> "1.5 KB".
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	size := float64(bytes)
	unit := 0
	for size >= 1024 && unit < len(fileSizeUnits)-1 {
		size /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d B", bytes)
	}
	return fmt.Sprintf("%.1f %s", size, fileSizeUnits[unit])
}

// FormatElapsed renders an upload's elapsed time as "N분 M초" or "M초".
func FormatElapsed(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	seconds %= 60
	if minutes > 0 {
		return fmt.Sprintf("%d분 %d초", minutes, seconds)
	}
	return fmt.Sprintf("%d초", seconds)
}

// ConfidencePercent maps a 0..1 confidence to a rounded, clamped percentage.
func ConfidencePercent(confidence float64) int {
	pct := int(math.Round(confidence * 100))
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
