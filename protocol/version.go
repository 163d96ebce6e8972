package protocol

import (
	"strconv"
	"strings"
)

// ParseVersion parses a contract version string of the form "abp/vMAJOR.MINOR"
// and returns (major, minor, true), or (0, 0, false) if s is not well-formed.
// The prefix is case-sensitive, whitespace is never tolerated, and there must
// be exactly two numeric components.
func ParseVersion(s string) (major, minor uint64, ok bool) {
	const prefix = "abp/v"
	if !strings.HasPrefix(s, prefix) {
		return 0, 0, false
	}
	rest := s[len(prefix):]
	dot := strings.IndexByte(rest, '.')
	if dot < 0 {
		return 0, 0, false
	}
	majorStr, minorStr := rest[:dot], rest[dot+1:]
	if majorStr == "" || minorStr == "" {
		return 0, 0, false
	}
	maj, err := strconv.ParseUint(majorStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	min, err := strconv.ParseUint(minorStr, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return maj, min, true
}

// IsCompatibleVersion reports whether two contract version strings are
// compatible: both must parse, and their MAJOR components must be equal.
func IsCompatibleVersion(a, b string) bool {
	majorA, _, okA := ParseVersion(a)
	if !okA {
		return false
	}
	majorB, _, okB := ParseVersion(b)
	if !okB {
		return false
	}
	return majorA == majorB
}
