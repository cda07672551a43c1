package collection

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/adbx/internal/shared"
)

// MaxIDListSize caps how many ids a comma-separated list may expand to.
// Oversized lists are a reported error, never a silent empty match.
const MaxIDListSize = 500

var (
	rangeSpacing = regexp.MustCompile(`\s*-\s*`)
	rangeSegment = regexp.MustCompile(`^(\d+)-(\d+)$`)
	digitSegment = regexp.MustCompile(`^\d+$`)
)

// ParseIDList expands a comma-separated id list, optionally containing
// ascending "start-end" ranges, into the concrete id slice. Malformed
// segments, descending ranges, and lists expanding past MaxIDListSize are
// input validation errors.
func ParseIDList(query string) ([]int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	var ids []int
	for _, raw := range strings.Split(query, ",") {
		segment := strings.TrimSpace(raw)
		if segment == "" {
			continue
		}
		segment = rangeSpacing.ReplaceAllString(segment, "-")

		if m := rangeSegment.FindStringSubmatch(segment); m != nil {
			start, _ := strconv.Atoi(m[1])
			end, _ := strconv.Atoi(m[2])
			if start > end {
				return nil, fmt.Errorf("%w: range %q must be ascending", shared.ErrInvalidIDList, segment)
			}
			size := end - start + 1
			if len(ids)+size > MaxIDListSize {
				return nil, fmt.Errorf("%w: too many ids (max %d)", shared.ErrInvalidIDList, MaxIDListSize)
			}
			for i := start; i <= end; i++ {
				ids = append(ids, i)
			}
			continue
		}

		if !digitSegment.MatchString(segment) {
			return nil, fmt.Errorf("%w: segment %q must be numeric or a range", shared.ErrInvalidIDList, segment)
		}
		if len(ids)+1 > MaxIDListSize {
			return nil, fmt.Errorf("%w: too many ids (max %d)", shared.ErrInvalidIDList, MaxIDListSize)
		}
		n, _ := strconv.Atoi(segment)
		ids = append(ids, n)
	}

	return ids, nil
}
