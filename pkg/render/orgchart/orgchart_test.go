package orgchart

import (
	"strings"
	"testing"

	"github.com/suratkita/suratkita/pkg/document"
)

func sampleTiers() []document.Tier {
	return []document.Tier{
		{Name: "Pelindung", Members: []document.Signatory{{Role: "Lurah", Name: "H. Ahmad"}}},
		{Name: "Pengurus Inti", Members: []document.Signatory{
			{Role: "Ketua", Name: "Budi"},
			{Role: "Sekretaris", Name: "Sari"},
		}},
		{Name: "Anggota"},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleTiers(), Options{})

	tests := []struct {
		name string
		want string
	}{
		{"header", "digraph G {"},
		{"direction", "rankdir=TB;"},
		{"default color", `color="#1F2A5A"`},
		{"tier heading", `"tier0" [label="Pelindung", shape=plaintext`},
		{"member label", `"tier1_m1" [label="Sekretaris\nSari"]`},
		{"membership edge", `"tier1" -> "tier1_m0";`},
		{"tier chain", `"tier0_m0" -> "tier1" [style=invis];`},
		{"empty tier chain", `"tier1_m0" -> "tier2" [style=invis];`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(dot, tt.want) {
				t.Errorf("DOT missing %q\n%s", tt.want, dot)
			}
		})
	}

	if strings.Contains(dot, `"tier2_m0"`) {
		t.Error("empty tier produced a member node")
	}
}

func TestToDOTOptions(t *testing.T) {
	dot := ToDOT(sampleTiers(), Options{Color: "#7A1F1F", FontSize: 20})
	if !strings.Contains(dot, `color="#7A1F1F"`) || !strings.Contains(dot, "fontsize=20") {
		t.Errorf("options not applied:\n%s", dot)
	}
}

func TestMemberLabel(t *testing.T) {
	tests := []struct {
		in   document.Signatory
		want string
	}{
		{document.Signatory{Role: "Ketua", Name: "Budi"}, "Ketua\nBudi"},
		{document.Signatory{Name: "Budi"}, "Budi"},
		{document.Signatory{Role: " Bendahara "}, "Bendahara"},
	}
	for _, tt := range tests {
		if got := memberLabel(tt.in); got != tt.want {
			t.Errorf("memberLabel(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
