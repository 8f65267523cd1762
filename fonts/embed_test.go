package fonts

import "testing"

func TestLoadBuiltin(t *testing.T) {
	for _, name := range []string{"Go-Regular", "embed:Go-Bold", "Go-Italic.ttf", "embed:Go-BoldItalic.ttf"} {
		data, err := Load(name)
		if err != nil {
			t.Fatalf("Load(%q) error: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("Load(%q) returned no data", name)
		}
	}
}

func TestLoadUnknown(t *testing.T) {
	if _, err := Load("embed:Missing"); err == nil {
		t.Fatalf("expected error for unknown font")
	}
}

func TestFace(t *testing.T) {
	if got := Face(true, true); got != "Go-BoldItalic" {
		t.Fatalf("unexpected face %s", got)
	}
	if got := Face(false, false); got != "Go-Regular" {
		t.Fatalf("unexpected face %s", got)
	}
	if _, err := Load(Face(true, false)); err != nil {
		t.Fatalf("Face must name a loadable font: %v", err)
	}
}
