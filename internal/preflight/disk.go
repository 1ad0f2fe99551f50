package preflight

import (
	"fmt"
	"syscall"
)

// IndexSpaceFactor estimates the on-disk size of the BWA index plus the
// k-LCP relative to the reference FASTA size.
const IndexSpaceFactor = 6

// MinDiskSpaceBytes is the floor used for tiny references (100MB).
const MinDiskSpaceBytes = 100 * 1024 * 1024

// CheckDiskSpace warns when dir looks too small for the index artifacts of a
// reference of referenceSize bytes. The estimate is rough, so a shortfall is
// never critical.
func (c *Checker) CheckDiskSpace(dir string, referenceSize int64) CheckResult {
	result := CheckResult{
		Name:     "disk_space",
		Required: false,
	}

	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("failed to check disk space: %v", err)
		return result
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	needed := uint64(MinDiskSpaceBytes)
	if referenceSize > 0 {
		if est := uint64(referenceSize) * IndexSpaceFactor; est > needed {
			needed = est
		}
	}

	if availableBytes < needed {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf("%s free, index may need about %s", formatBytes(availableBytes), formatBytes(needed))
		return result
	}

	result.Status = StatusPass
	result.Message = fmt.Sprintf("%s free", formatBytes(availableBytes))
	return result
}

// formatBytes formats bytes as a human-readable string.
func formatBytes(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}
