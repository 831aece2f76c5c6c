package inputval

import (
	"testing"
)

func TestIsValidSectionID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"heroSection", true},
		{"section-2_b", true},
		{"9lives", true},
		{"", false},
		{"-leading", false},
		{"has space", false},
		{"../escape", false},
		{"x" + string(make([]byte, 64)), false},
	}
	for _, tt := range tests {
		if got := IsValidSectionID(tt.id); got != tt.want {
			t.Errorf("IsValidSectionID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"+1 (555) 123-4567", true},
		{"555.123.4567", true},
		{"12345", false},
		{"call me", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidPhone(tt.phone); got != tt.want {
			t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
		}
	}
}

func TestValidate_Messages(t *testing.T) {
	type Input struct {
		Email  string `json:"email" validate:"required,email" label:"Email"`
		Name   string `json:"name" validate:"required,max=10" label:"Name"`
		Phone  string `json:"phone" validate:"phone" label:"Phone"`
		Status string `json:"status" validate:"required,poststatus" label:"Status"`
	}

	tests := []struct {
		name  string
		input Input
		want  string
	}{
		{"valid", Input{Email: "a@b.co", Name: "Ann", Status: "draft"}, ""},
		{"missing email", Input{Name: "Ann", Status: "draft"}, "Email is required."},
		{"bad email", Input{Email: "nope", Name: "Ann", Status: "draft"}, "A valid email address is required."},
		{"long name", Input{Email: "a@b.co", Name: "abcdefghijk", Status: "draft"}, "Name must be at most 10 characters."},
		{"bad phone", Input{Email: "a@b.co", Name: "Ann", Phone: "x", Status: "draft"}, "Phone must be a valid phone number."},
		{"bad status", Input{Email: "a@b.co", Name: "Ann", Status: "archived"}, "Status must be draft or published."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)
			if tt.want == "" {
				if res.HasErrors() {
					t.Errorf("Validate() unexpected error: %s", res.First())
				}
				return
			}
			if got := res.First(); got != tt.want {
				t.Errorf("Validate().First() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidate_SectionIDRule(t *testing.T) {
	type Input struct {
		Section string `json:"section" validate:"required,sectionid" label:"Section"`
	}
	if res := Validate(Input{Section: "hero"}); res.HasErrors() {
		t.Errorf("Validate() hero should pass, got %s", res.First())
	}
	if res := Validate(&Input{Section: "bad id"}); !res.HasErrors() {
		t.Error("Validate() 'bad id' should fail")
	}
}

func TestResult(t *testing.T) {
	r := &Result{}
	if r.HasErrors() || r.First() != "" || r.All() != "" {
		t.Error("empty Result should report no errors")
	}
	r.Errors = []FieldError{{Message: "a"}, {Message: "b"}}
	if r.First() != "a" || r.All() != "a; b" {
		t.Errorf("First/All = %q/%q", r.First(), r.All())
	}
}

func TestValidate_NonStruct(t *testing.T) {
	if Validate("not a struct") == nil {
		t.Error("Validate() non-struct should return non-nil result")
	}
}
