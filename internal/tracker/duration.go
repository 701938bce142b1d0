package tracker

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cyberdeck-app/cyberdeck/internal/job"
)

// FormatDuration renders seconds as H:MM:SS. Negative input renders as 0:00:00.
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := seconds % 3600 / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// ParseManual reads a manually entered duration: HH:MM:SS, MM:SS, or a bare
// number of minutes. The result must be positive.
func ParseManual(input string) (int64, error) {
	in := strings.TrimSpace(input)
	parts := strings.Split(in, ":")
	if len(parts) > 3 || in == "" {
		return 0, job.ValidateTime(input)
	}

	nums := make([]int64, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, job.ValidateTime(input)
		}
		nums[i] = n
	}

	var total int64
	switch len(nums) {
	case 1:
		total = nums[0] * 60
	case 2:
		if nums[1] > 59 {
			return 0, job.ValidateTime(input)
		}
		total = nums[0]*60 + nums[1]
	default:
		if nums[1] > 59 || nums[2] > 59 {
			return 0, job.ValidateTime(input)
		}
		total = nums[0]*3600 + nums[1]*60 + nums[2]
	}
	if total <= 0 {
		return 0, job.ValidateTime(input)
	}
	return total, nil
}
