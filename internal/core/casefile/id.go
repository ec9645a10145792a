package casefile

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SuffixSpace is the number of distinct random suffixes (36^3).
const SuffixSpace = 36 * 36 * 36

// GenerateCaseID builds an id of the form PREFIX-BASE36TIMESTAMP-BASE36RANDOM,
// uppercase. The timestamp is milliseconds since the epoch; suffix must be in
// [0, SuffixSpace) and is rendered as exactly three base36 digits.
func GenerateCaseID(prefix string, now time.Time, suffix int) string {
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	rnd := strconv.FormatInt(int64(suffix%SuffixSpace), 36)
	for len(rnd) < 3 {
		rnd = "0" + rnd
	}
	return strings.ToUpper(fmt.Sprintf("%s-%s-%s", prefix, ts, rnd))
}

// ParsedID is a decoded case id.
type ParsedID struct {
	Prefix    string
	Timestamp time.Time
	Suffix    string
}

// ParseCaseID decodes an id produced by GenerateCaseID.
func ParseCaseID(id string) (ParsedID, error) {
	parts := strings.Split(id, "-")
	if len(parts) != 3 || parts[0] == "" || len(parts[2]) != 3 {
		return ParsedID{}, fmt.Errorf("invalid case id %q", id)
	}
	if parts[0] != strings.ToUpper(parts[0]) || parts[1] != strings.ToUpper(parts[1]) || parts[2] != strings.ToUpper(parts[2]) {
		return ParsedID{}, fmt.Errorf("invalid case id %q: must be uppercase", id)
	}
	ms, err := strconv.ParseInt(strings.ToLower(parts[1]), 36, 64)
	if err != nil {
		return ParsedID{}, fmt.Errorf("invalid case id %q: %w", id, err)
	}
	if _, err := strconv.ParseInt(strings.ToLower(parts[2]), 36, 64); err != nil {
		return ParsedID{}, fmt.Errorf("invalid case id %q: %w", id, err)
	}
	return ParsedID{Prefix: parts[0], Timestamp: time.UnixMilli(ms).UTC(), Suffix: parts[2]}, nil
}
