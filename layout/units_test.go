package layout

import "testing"

func TestParseLength(t *testing.T) {
	cases := []struct {
		in   string
		want Length
		ok   bool
	}{
		{"10px", Length{Value: 10, Unit: UnitPX}, true},
		{" 12pt ", Length{Value: 12, Unit: UnitPT}, true},
		{"120%", Length{Value: 120, Unit: UnitPercent}, true},
		{"8", Length{Value: 8, Unit: UnitNone}, true},
		{"1.5PX", Length{Value: 1.5, Unit: UnitPX}, true},
		{"", Length{}, false},
		{"abc", Length{}, false},
	}
	for _, c := range cases {
		got, ok := ParseLength(c.in)
		if ok != c.ok {
			t.Fatalf("ParseLength(%q) ok=%v want %v", c.in, ok, c.ok)
		}
		if got != c.want {
			t.Fatalf("ParseLength(%q)=%+v want %+v", c.in, got, c.want)
		}
	}
}

func TestLengthPX(t *testing.T) {
	if got := (Length{Value: 72, Unit: UnitPT}).PX(); got != 96 {
		t.Fatalf("72pt should be 96px, got %g", got)
	}
	if got := (Length{Value: 10, Unit: UnitPX}).PX(); got != 10 {
		t.Fatalf("10px should stay 10, got %g", got)
	}
}

func TestPaddingScale(t *testing.T) {
	if got := PaddingScale(Length{Value: 100, Unit: UnitPercent}); got != ReferencePercent {
		t.Fatalf("100%% should map to %g, got %g", ReferencePercent, got)
	}
	if got := PaddingScale(Length{Value: 200, Unit: UnitPercent}); got != 100 {
		t.Fatalf("200%% should map to 100, got %g", got)
	}
	if got := PaddingScale(Length{Value: 30}); got != 30 {
		t.Fatalf("unit-less value should pass through, got %g", got)
	}
}

func TestUnitToString(t *testing.T) {
	if UnitToString(UnitPX) != "px" || UnitToString(UnitPT) != "pt" || UnitToString(UnitPercent) != "%" || UnitToString(UnitNone) != "" {
		t.Fatalf("unexpected unit names")
	}
	for _, in := range []string{"12pt", "1.5px", "80%", "3"} {
		l, _ := ParseLength(in)
		if l.String() != in {
			t.Fatalf("Length.String() = %q, want %q", l.String(), in)
		}
	}
}
