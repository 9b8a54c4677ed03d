package csv

import "testing"

func TestDecodeDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{in: "", want: ','},
		{in: ";", want: ';'},
		{in: "tab", want: '\t'},
		{in: `\t`, want: '\t'},
		{in: "Pipe", want: '|'},
		{in: "\t", want: '\t'},
		{in: "ab", wantErr: true},
		{in: `"`, wantErr: true},
		{in: "\n", wantErr: true},
	}
	for _, tt := range tests {
		got, err := DecodeDelimiter(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DecodeDelimiter(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("DecodeDelimiter(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}
