package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Code Constellation", "Code Constellation"},
		{"  Robotics  ", "Robotics"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEmailList(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"nil", nil, nil},
		{"comma string", "a@x.com, B@x.com ,,c@x.com", []string{"a@x.com", "b@x.com", "c@x.com"}},
		{"single", "solo@x.com", []string{"solo@x.com"}},
		{"empty string", "", []string{}},
		{"string slice", []string{"a@x.com", "A@X.COM"}, []string{"a@x.com"}},
		{"json array", []any{"a@x.com", 42, " b@x.com "}, []string{"a@x.com", "b@x.com"}},
		{"unsupported", 12, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EmailList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("EmailList(%v) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}
