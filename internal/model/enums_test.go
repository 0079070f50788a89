package model

import "testing"

func TestParseFlag(t *testing.T) {
	tests := []struct {
		in   string
		want Flag
	}{
		{"YES", FlagYes},
		{"yes", FlagYes},
		{" Y ", FlagYes},
		{"1", FlagYes},
		{"true", FlagYes},
		{"NO", FlagNo},
		{"n", FlagNo},
		{"0", FlagNo},
		{"false", FlagNo},
		{"", FlagUnknown},
		{"maybe", FlagUnknown},
	}

	for _, tt := range tests {
		if got := ParseFlag(tt.in); got != tt.want {
			t.Errorf("ParseFlag(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFlagString(t *testing.T) {
	if got := FlagYes.String(); got != "YES" {
		t.Errorf("FlagYes.String() = %q, want YES", got)
	}
	if got := FlagNo.String(); got != "NO" {
		t.Errorf("FlagNo.String() = %q, want NO", got)
	}
	if got := FlagUnknown.String(); got != "UNKNOWN" {
		t.Errorf("FlagUnknown.String() = %q, want UNKNOWN", got)
	}
}

func TestFlagTextRoundTrip(t *testing.T) {
	for _, f := range []Flag{FlagYes, FlagNo, FlagUnknown} {
		text, err := f.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v) error: %v", f, err)
		}
		var back Flag
		if err := back.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error: %v", text, err)
		}
		if back != f {
			t.Errorf("round trip of %v produced %v", f, back)
		}
	}
}

func TestParseTableType(t *testing.T) {
	tests := []struct {
		in   string
		want TableType
	}{
		{"TABLE", TableTypeTable},
		{"BASE TABLE", TableTypeTable},
		{"base table", TableTypeTable},
		{"VIEW", TableTypeView},
		{"MATERIALIZED VIEW", TableTypeView},
		{"SYSTEM TABLE", TableTypeSystemTable},
		{"SYSTEM_TABLE", TableTypeSystemTable},
		{"GLOBAL TEMPORARY", TableTypeGlobalTemporary},
		{"LOCAL TEMPORARY", TableTypeLocalTemporary},
		{"TEMPORARY", TableTypeLocalTemporary},
		{"ALIAS", TableTypeAlias},
		{"SYNONYM", TableTypeSynonym},
		{"SEQUENCE", TableTypeOther},
		{"", TableTypeOther},
	}

	for _, tt := range tests {
		if got := ParseTableType(tt.in); got != tt.want {
			t.Errorf("ParseTableType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
