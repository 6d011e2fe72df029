package errors

import (
	"testing"
)

func TestValidateDocumentID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "6f1c3a5e-8d2b-4c7a-9f10-2a3b4c5d6e7f", false},
		{"simple", "doc-42", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 200)), true},
		{"traversal", "../etc", true},
		{"slash", "a/b", true},
		{"query", "a?b=1", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDocumentID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"1_Budi_Santoso.pdf", false},
		{"Proposal_Kegiatan.pdf", false},
		{"", true},
		{"dir/file.pdf", true},
		{"..\\file.pdf", true},
		{".hidden", true},
		{"bad\x00name", true},
	}

	for _, tt := range tests {
		err := ValidateFileName(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFileName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"http://localhost:8080", false},
		{"https://store.example.org", false},
		{"", true},
		{"ftp://example.org", true},
		{"localhost:8080", true},
	}

	for _, tt := range tests {
		err := ValidateURL(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestIsHexColor(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"#000000", true},
		{"#1a2B3c", true},
		{"#fff", false},
		{"oklch(0.5 0.1 200)", false},
		{"rgb(0,0,0)", false},
		{"000000", false},
	}
	for _, tt := range tests {
		if got := IsHexColor(tt.input); got != tt.want {
			t.Errorf("IsHexColor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
