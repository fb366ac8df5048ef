package semver

import (
	"strings"

	masterminds "github.com/Masterminds/semver/v3"

	"github.com/ballast-sh/ballast/pkg/errors"
)

// Specifier is a constraint a manifest entry places on a dependency's
// version. Implementations are immutable values.
type Specifier interface {
	// SatisfiedBy reports whether the version meets the constraint.
	SatisfiedBy(Version) bool
	// String returns the manifest spelling of the constraint.
	String() string
}

// Any matches every version.
type Any struct{}

func (Any) SatisfiedBy(Version) bool { return true }
func (Any) String() string           { return "any" }

// Exactly matches a single version.
type Exactly struct{ Version Version }

func (s Exactly) SatisfiedBy(v Version) bool { return v.Equal(s.Version) }
func (s Exactly) String() string             { return "== " + s.Version.String() }

// AtLeast matches the given version and anything newer.
type AtLeast struct{ Version Version }

func (s AtLeast) SatisfiedBy(v Version) bool { return v.Compare(s.Version) >= 0 }
func (s AtLeast) String() string             { return ">= " + s.Version.String() }

// CompatibleWith matches versions that are at least the given version and
// share its major component (the "~>" pessimistic operator).
type CompatibleWith struct{ Version Version }

func (s CompatibleWith) SatisfiedBy(v Version) bool {
	return v.Major() == s.Version.Major() && v.Compare(s.Version) >= 0
}
func (s CompatibleWith) String() string { return "~> " + s.Version.String() }

// Range matches versions against an arbitrary semver range expression
// (e.g. "> 1.0, < 2.4" or "1.2.x"), evaluated by Masterminds constraints.
type Range struct {
	raw string
	c   *masterminds.Constraints
}

// NewRange parses a semver range expression into a Range specifier.
func NewRange(expr string) (Range, error) {
	c, err := masterminds.NewConstraint(expr)
	if err != nil {
		return Range{}, errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid version range %q", expr)
	}
	return Range{raw: expr, c: c}, nil
}

func (s Range) SatisfiedBy(v Version) bool { return s.c.Check(v.v) }
func (s Range) String() string             { return s.raw }

// both is the conjunction of two specifiers, produced by Intersect when
// neither side can be folded into the other symbolically.
type both struct{ a, b Specifier }

func (s both) SatisfiedBy(v Version) bool { return s.a.SatisfiedBy(v) && s.b.SatisfiedBy(v) }
func (s both) String() string             { return s.a.String() + ", " + s.b.String() }

// ParseSpecifier parses the version field of a manifest entry. An empty
// string or "any" places no constraint. The operators "==", ">=" and "~>"
// take a single version; anything else is treated as a range expression.
func ParseSpecifier(s string) (Specifier, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "any" {
		return Any{}, nil
	}
	if op, rest, ok := splitOperator(s); ok {
		v, err := Parse(rest)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid version in specifier %q", s)
		}
		switch op {
		case "==":
			return Exactly{Version: v}, nil
		case ">=":
			return AtLeast{Version: v}, nil
		case "~>":
			return CompatibleWith{Version: v}, nil
		}
	}
	return NewRange(s)
}

func splitOperator(s string) (op, rest string, ok bool) {
	for _, op := range []string{"==", ">=", "~>"} {
		if strings.HasPrefix(s, op) {
			return op, strings.TrimSpace(s[len(op):]), true
		}
	}
	return "", "", false
}

// Intersect combines two specifiers into one that admits exactly the
// versions both admit. It returns ok=false when the constraints provably
// admit no common version. Range conjunctions are kept symbolic; their
// emptiness surfaces later when candidate filtering finds no match.
func Intersect(a, b Specifier) (Specifier, bool) {
	if _, ok := a.(Any); ok {
		return b, true
	}
	if _, ok := b.(Any); ok {
		return a, true
	}
	if ea, ok := a.(Exactly); ok {
		if !b.SatisfiedBy(ea.Version) {
			return nil, false
		}
		return ea, true
	}
	if eb, ok := b.(Exactly); ok {
		if !a.SatisfiedBy(eb.Version) {
			return nil, false
		}
		return eb, true
	}

	switch sa := a.(type) {
	case AtLeast:
		switch sb := b.(type) {
		case AtLeast:
			return AtLeast{Version: newest(sa.Version, sb.Version)}, true
		case CompatibleWith:
			return intersectFloor(sb, sa.Version)
		}
	case CompatibleWith:
		switch sb := b.(type) {
		case AtLeast:
			return intersectFloor(sa, sb.Version)
		case CompatibleWith:
			if sa.Version.Major() != sb.Version.Major() {
				return nil, false
			}
			return CompatibleWith{Version: newest(sa.Version, sb.Version)}, true
		}
	}
	return both{a: a, b: b}, true
}

// intersectFloor raises a pessimistic constraint's lower bound to floor.
// The result stays within the original major version or is empty.
func intersectFloor(c CompatibleWith, floor Version) (Specifier, bool) {
	lower := newest(c.Version, floor)
	if lower.Major() != c.Version.Major() {
		return nil, false
	}
	return CompatibleWith{Version: lower}, true
}

func newest(a, b Version) Version {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

// Describe renders a specifier list for conflict messages.
func Describe(specs ...Specifier) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.String()
	}
	return out
}
