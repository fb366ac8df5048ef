package semver

import "testing"

func TestParseSpecifier(t *testing.T) {
	tests := []struct {
		in   string
		spec string // expected String() form
	}{
		{"", "any"},
		{"any", "any"},
		{"== 1.2.3", "== 1.2.3"},
		{"==v1.2.3", "== 1.2.3"},
		{">= 2.0.0", ">= 2.0.0"},
		{"~> 1.4.0", "~> 1.4.0"},
		{"> 1.0.0, < 2.0.0", "> 1.0.0, < 2.0.0"},
		{"1.2.x", "1.2.x"},
	}
	for _, tt := range tests {
		spec, err := ParseSpecifier(tt.in)
		if err != nil {
			t.Errorf("ParseSpecifier(%q) error: %v", tt.in, err)
			continue
		}
		if spec.String() != tt.spec {
			t.Errorf("ParseSpecifier(%q).String() = %q, want %q", tt.in, spec, tt.spec)
		}
	}
}

func TestParseSpecifierInvalid(t *testing.T) {
	for _, in := range []string{"== not-a-version", "~> 1.2", "carrots"} {
		if _, err := ParseSpecifier(in); err == nil {
			t.Errorf("ParseSpecifier(%q) should fail", in)
		}
	}
}

func TestSatisfiedBy(t *testing.T) {
	tests := []struct {
		spec    string
		version string
		want    bool
	}{
		{"any", "0.0.1", true},
		{"== 1.2.3", "1.2.3", true},
		{"== 1.2.3", "1.2.4", false},
		{">= 1.2.3", "1.2.3", true},
		{">= 1.2.3", "2.0.0", true},
		{">= 1.2.3", "1.2.2", false},
		{"~> 1.4.0", "1.4.0", true},
		{"~> 1.4.0", "1.9.9", true},
		{"~> 1.4.0", "2.0.0", false},
		{"~> 1.4.0", "1.3.9", false},
		{"> 1.0.0, < 2.0.0", "1.5.0", true},
		{"> 1.0.0, < 2.0.0", "2.0.0", false},
	}
	for _, tt := range tests {
		spec, err := ParseSpecifier(tt.spec)
		if err != nil {
			t.Fatalf("ParseSpecifier(%q): %v", tt.spec, err)
		}
		if got := spec.SatisfiedBy(MustParse(tt.version)); got != tt.want {
			t.Errorf("(%s).SatisfiedBy(%s) = %v, want %v", tt.spec, tt.version, got, tt.want)
		}
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		a, b string
		want string // expected String() of the intersection
	}{
		{"any", ">= 1.0.0", ">= 1.0.0"},
		{">= 1.0.0", "any", ">= 1.0.0"},
		{"== 1.2.3", "== 1.2.3", "== 1.2.3"},
		{"== 1.5.0", ">= 1.0.0", "== 1.5.0"},
		{">= 1.0.0", "== 1.5.0", "== 1.5.0"},
		{">= 1.0.0", ">= 1.4.0", ">= 1.4.0"},
		{"~> 1.2.0", "~> 1.5.0", "~> 1.5.0"},
		{"~> 1.2.0", ">= 1.5.0", "~> 1.5.0"},
		{">= 1.5.0", "~> 1.2.0", "~> 1.5.0"},
	}
	for _, tt := range tests {
		a, _ := ParseSpecifier(tt.a)
		b, _ := ParseSpecifier(tt.b)
		got, ok := Intersect(a, b)
		if !ok {
			t.Errorf("Intersect(%s, %s) reported empty", tt.a, tt.b)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("Intersect(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIntersectEmpty(t *testing.T) {
	tests := []struct{ a, b string }{
		{"== 1.0.0", "== 2.0.0"},
		{"== 1.0.0", ">= 2.0.0"},
		{">= 2.0.0", "== 1.0.0"},
		{"~> 1.2.0", "~> 2.0.0"},
		{"~> 1.2.0", ">= 2.0.0"},
		{"== 2.5.0", "~> 1.0.0"},
	}
	for _, tt := range tests {
		a, _ := ParseSpecifier(tt.a)
		b, _ := ParseSpecifier(tt.b)
		if spec, ok := Intersect(a, b); ok {
			t.Errorf("Intersect(%s, %s) = %s, want empty", tt.a, tt.b, spec)
		}
	}
}

func TestIntersectConjunction(t *testing.T) {
	a, _ := ParseSpecifier("> 1.0.0, < 3.0.0")
	b, _ := ParseSpecifier(">= 2.0.0")
	spec, ok := Intersect(a, b)
	if !ok {
		t.Fatal("range conjunction should not be statically empty")
	}
	if !spec.SatisfiedBy(MustParse("2.5.0")) {
		t.Error("2.5.0 should satisfy both sides")
	}
	if spec.SatisfiedBy(MustParse("1.5.0")) {
		t.Error("1.5.0 violates the >= 2.0.0 side")
	}
	if spec.SatisfiedBy(MustParse("3.0.0")) {
		t.Error("3.0.0 violates the range side")
	}
}
