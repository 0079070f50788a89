package model

import "strings"

// Flag is the tri-state answer a driver gives for column facts it may not
// know, such as whether a column auto-increments. Drivers that expose the
// fact answer YES or NO; drivers (or views) that cannot tell answer UNKNOWN.
type Flag int

const (
	// FlagUnknown means introspection could not determine the fact.
	FlagUnknown Flag = iota
	// FlagYes means introspection confirmed the fact.
	FlagYes
	// FlagNo means introspection ruled the fact out.
	FlagNo
)

// ParseFlag maps the strings databases report for yes/no metadata columns
// (IS_AUTOINCREMENT, EXTRA, is_identity, ...) onto a Flag. Anything
// unrecognized, including the empty string, is FlagUnknown.
func ParseFlag(s string) Flag {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "Y", "TRUE", "1":
		return FlagYes
	case "NO", "N", "FALSE", "0":
		return FlagNo
	default:
		return FlagUnknown
	}
}

// IsYes reports whether the fact was positively confirmed. UNKNOWN is
// treated as not confirmed.
func (f Flag) IsYes() bool {
	return f == FlagYes
}

// String returns YES, NO, or UNKNOWN.
func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "YES"
	case FlagNo:
		return "NO"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so Flag serializes as its
// name in JSON and YAML dumps.
func (f Flag) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flag) UnmarshalText(text []byte) error {
	*f = ParseFlag(string(text))
	return nil
}
