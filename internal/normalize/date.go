package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reSlashDate = regexp.MustCompile(`^([0-9]{1,2})/([0-9]{1,2})/([0-9]{4})$`)
	reISODate   = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	reNamedDate = regexp.MustCompile(`^([0-9]{1,2})\s+([A-Za-z]+)\s+([0-9]{4})$`)
)

// monthNums maps month names and common abbreviations to month numbers.
// Read-only after init.
var monthNums = map[string]int{
	"January": 1, "Jan": 1,
	"February": 2, "Feb": 2,
	"March": 3, "Mar": 3,
	"April": 4, "Apr": 4,
	"May":  5,
	"June": 6, "Jun": 6,
	"July": 7, "Jul": 7,
	"August": 8, "Aug": 8,
	"September": 9, "Sep": 9, "Sept": 9,
	"October": 10, "Oct": 10,
	"November": 11, "Nov": 11,
	"December": 12, "Dec": 12,
}

// Date canonicalizes a date string to YYYY-MM-DD where parseable.
// Accepted shapes: D/M/YYYY, YYYY-MM-DD (pass-through), and "D MonthName YYYY".
// Anything else is returned verbatim so the original stays available for
// manual review.
func Date(s string) string {
	s = strings.TrimSpace(s)

	if m := reSlashDate.FindStringSubmatch(s); m != nil {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
	}

	if reISODate.MatchString(s) {
		return s
	}

	if m := reNamedDate.FindStringSubmatch(s); m != nil {
		mo, ok := monthNums[m[2]]
		if !ok {
			return s
		}
		d, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[3])
		return fmt.Sprintf("%04d-%02d-%02d", y, mo, d)
	}

	return s
}
