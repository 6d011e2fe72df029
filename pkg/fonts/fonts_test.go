package fonts

import "testing"

func TestFaceStyles(t *testing.T) {
	for _, s := range []Style{Regular, Bold, Italic} {
		face, err := Face(s, 12, 150)
		if err != nil {
			t.Fatalf("Face(%s): %v", s, err)
		}
		if h := face.Metrics().Height; h <= 0 {
			t.Errorf("Face(%s) height = %v", s, h)
		}
	}
}

func TestFontCached(t *testing.T) {
	a, err := Font(Bold)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Font(Bold)
	if a != b {
		t.Error("Font(Bold) returned a new font on second call")
	}
	if _, err := Font(Style(42)); err == nil {
		t.Error("Font(42) succeeded")
	}
}
