package symbol

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantCode string
		wantName string
		wantErr  bool
	}{
		{"simple", "600519&Kweichow Moutai", "600519", "Kweichow Moutai", false},
		{"non-ascii name", "600519&貴州茅台", "600519", "貴州茅台", false},
		{"ampersand in name", "000001&Ping & An Bank", "000001", "Ping & An Bank", false},
		{"no separator", "600519", "", "", true},
		{"empty string", "", "", "", true},
		{"empty code", "&Some Name", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sym, err := Parse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got nil", tt.raw)
				}
				if !errors.Is(err, ErrMalformedIdentifier) {
					t.Errorf("Parse(%q) error = %v, want ErrMalformedIdentifier", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) returned unexpected error: %v", tt.raw, err)
			}
			if sym.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", sym.Code, tt.wantCode)
			}
			if sym.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", sym.Name, tt.wantName)
			}
		})
	}
}

func TestQueryKey(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"600519", "600519.SS"},
		{"601318", "601318.SS"},
		{"688981", "688981.SS"},
		{"000001", "000001.SZ"},
		{"002594", "002594.SZ"},
		{"300750", "300750.SZ"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			sym := Symbol{Code: tt.code, Name: "x"}
			if got := sym.QueryKey(); got != tt.want {
				t.Errorf("QueryKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		code string
		name string
		want string
	}{
		{"600519", "Kweichow Moutai", "600519_Kweichow Moutai.csv"},
		{"600519", "貴州茅台", "600519_貴州茅台.csv"},
		{"000001", "Ping & An", "000001_Ping & An.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			sym := Symbol{Code: tt.code, Name: tt.name}
			if got := sym.ArtifactName(); got != tt.want {
				t.Errorf("ArtifactName() = %q, want %q", got, tt.want)
			}
		})
	}
}
