package utils

import (
	"regexp"
	"strconv"
)

// Return windows outside this range are treated as not returnable; real
// policies are bounded.
const (
	MinReturnDays = 1
	MaxReturnDays = 90
)

var returnDaysPattern = regexp.MustCompile(`(?i)(\d+)\s*days?`)

// ExtractReturnDays parses a day count out of free-text return-policy copy
// such as "10 days return policy". It returns (0, false) when the text has no
// day count or the count falls outside the accepted bound, in which case the
// product is not returnable via a parsed window.
func ExtractReturnDays(policy string) (int, bool) {
	match := returnDaysPattern.FindStringSubmatch(policy)
	if match == nil {
		return 0, false
	}

	days, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}

	if days < MinReturnDays || days > MaxReturnDays {
		return 0, false
	}

	return days, true
}
