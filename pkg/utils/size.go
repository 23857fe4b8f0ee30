package utils

import "fmt"

// KiB converts a byte count to kibibytes.
func KiB(bytes int64) float64 {
	return float64(bytes) / 1024
}

// FormatKiB renders a byte count the way the candidate listing does, e.g. "   1234 KiB".
func FormatKiB(bytes int64) string {
	return fmt.Sprintf("%8.0f KiB", KiB(bytes))
}

// FormatBytes renders a byte count with a binary unit suffix, e.g. "1.5 MiB".
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
