package webcmp

import "testing"

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"42", 42, true},
		{" -7 ", -7, true},
		{"4.2", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseInt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseInt(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseFloat(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"2.5", 2.5, true},
		{" 1e3", 1000, true},
		{"x", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseFloat(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseFloat(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		in     string
		want   bool
		wantOK bool
	}{
		{"", true, true},
		{"true", true, true},
		{"ON", true, true},
		{"false", false, true},
		{"0", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		got, ok := ParseBool(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseBool(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseString(t *testing.T) {
	if got, ok := ParseString(" as is "); got != " as is " || !ok {
		t.Errorf("ParseString() = %q, %v", got, ok)
	}
}
