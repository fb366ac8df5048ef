package semver

import (
	"testing"

	"github.com/ballast-sh/ballast/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		tag                 string
		major, minor, patch uint64
	}{
		{"1.2.3", 1, 2, 3},
		{"v1.2.3", 1, 2, 3},
		{"release-2.0.11", 2, 0, 11},
		{"ballast-10.20.30", 10, 20, 30},
		{"0.0.1", 0, 0, 1},
	}
	for _, tt := range tests {
		v, err := Parse(tt.tag)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.tag, err)
			continue
		}
		if v.Major() != tt.major || v.Minor() != tt.minor || v.Patch() != tt.patch {
			t.Errorf("Parse(%q) = %d.%d.%d, want %d.%d.%d",
				tt.tag, v.Major(), v.Minor(), v.Patch(), tt.major, tt.minor, tt.patch)
		}
		if v.Tag() != tt.tag {
			t.Errorf("Parse(%q).Tag() = %q, want original tag", tt.tag, v.Tag())
		}
	}
}

func TestParseInvalid(t *testing.T) {
	tags := []string{
		"",
		"main",
		"v1",
		"1.2",
		"1.2.x",
		"1.2.3.4",
		"1.two.3",
		"1.2.3-beta.1",
		"1.2.3+build5",
		"latest",
	}
	for _, tag := range tags {
		if _, err := Parse(tag); err == nil {
			t.Errorf("Parse(%q) should fail", tag)
		} else if !errors.Is(err, errors.ErrCodeInvalidVersion) {
			t.Errorf("Parse(%q) error code = %q, want INVALID_VERSION", tag, errors.GetCode(err))
		}
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"v1.0.0", "release-1.0.0", 0}, // prefix does not affect ordering
		{"2.0.0", "1.9.9", 1},
		{"1.2.0", "1.10.0", -1},
		{"1.0.2", "1.0.10", -1},
		{"0.9.0", "1.0.0", -1},
	}
	for _, tt := range tests {
		a, b := MustParse(tt.a), MustParse(tt.b)
		got := a.Compare(b)
		if sign(got) != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want sign %d", tt.a, tt.b, got, tt.want)
		}
		if sign(b.Compare(a)) != -tt.want {
			t.Errorf("Compare(%s, %s) not antisymmetric", tt.b, tt.a)
		}
	}
}

func TestSortDescending(t *testing.T) {
	versions := []Version{
		MustParse("1.0.0"),
		MustParse("v2.1.0"),
		MustParse("0.9.9"),
		MustParse("2.0.5"),
	}
	SortDescending(versions)

	want := []string{"2.1.0", "2.0.5", "1.0.0", "0.9.9"}
	for i, w := range want {
		if versions[i].String() != w {
			t.Errorf("versions[%d] = %s, want %s", i, versions[i], w)
		}
	}
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
