package scalar

import (
	"fmt"
	"strings"

	"xmlrpc-binder/internal/diagnostic"
)

// Category is a bit set of permitted wire-to-field coercions.
type Category int

// ConversionPair is a source and target kind.
type ConversionPair struct {
	From, To Kind
}

const (
	CategorySafeNumber   Category = 1 << iota // int, uint, float without precision loss
	CategoryUnsafeNumber                      // int, uint, float with precision loss
	CategoryTextNumber                        // int, uint, float <-> string: textual number representation
	CategoryNumericBool                       // int <-> bool: 0, 1 representation of boolean values
	CategoryTextualBool                       // string <-> bool: yes, no, on, off, true, false
	CategoryDatetime                          // string(RFC3339Nano) <-> time.Time
	CategoryTimestamp                         // int(Unix seconds) <-> time.Time
	CategoryDuration                          // string(2h45m) <-> time.Duration
	CategoryNanoseconds                       // int(nanoseconds) <-> time.Duration
	CategorySeconds                           // float(seconds) <-> time.Duration
	CategoryEnumString                        // string <-> enum via encoding.TextMarshaler/TextUnmarshaler

	CategoryAll  = (1 << iota) - 1 // all categories combined
	CategoryNone = 0               // no categories selected
)

var categoryNames = []struct {
	name     string
	category Category
}{
	{"safe-number", CategorySafeNumber},
	{"unsafe-number", CategoryUnsafeNumber},
	{"text-number", CategoryTextNumber},
	{"numeric-bool", CategoryNumericBool},
	{"textual-bool", CategoryTextualBool},
	{"datetime", CategoryDatetime},
	{"timestamp", CategoryTimestamp},
	{"duration", CategoryDuration},
	{"nanoseconds", CategoryNanoseconds},
	{"seconds", CategorySeconds},
	{"enum-string", CategoryEnumString},
}

// ParseCategories parses category names such as "safe-number" or
// "textual-bool". "all" and "none" are accepted as well.
func ParseCategories(names ...string) (Category, error) {
	var res Category

next:
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "", "none":
			continue
		case "all":
			res |= CategoryAll
			continue
		}

		for _, cn := range categoryNames {
			if cn.name == name {
				res |= cn.category
				continue next
			}
		}

		return 0, diagnostic.Errorf(diagnostic.CodeInvalidDeclaration, "", "",
			"unknown coercion category %q", name)
	}

	return res, nil
}

// Has reports whether every category of other is in c.
func (c Category) Has(other Category) bool {
	return c&other == other
}

// Permits reports whether any category in c allows pair.
func (c Category) Permits(pair ConversionPair) bool {
	for category := Category(1); category&CategoryAll != 0; category <<= 1 {
		if c&category != 0 && category.allows(pair) {
			return true
		}
	}

	return false
}

func (c Category) String() string {
	if c == CategoryNone {
		return "none"
	}

	var parts []string
	for _, cn := range categoryNames {
		if c&cn.category != 0 {
			parts = append(parts, cn.name)
		}
	}

	if rest := c &^ CategoryAll; rest != 0 {
		parts = append(parts, fmt.Sprintf("Category(%d)", int(rest)))
	}

	return strings.Join(parts, ",")
}

// allows reports whether the single category c covers pair.
func (c Category) allows(p ConversionPair) bool {
	switch c {
	case CategorySafeNumber:
		return p.From.IsNumber() && p.To.IsNumber() && lossless(p.From, p.To)
	case CategoryUnsafeNumber:
		return p.From.IsNumber() && p.To.IsNumber() && !lossless(p.From, p.To)
	case CategoryTextNumber:
		return p.either(Kind.IsNumber, isKind(KindString))
	case CategoryNumericBool:
		return p.either(Kind.IsInteger, isKind(KindBool))
	case CategoryTextualBool:
		return p.either(isKind(KindString), isKind(KindBool))
	case CategoryDatetime:
		return p.either(isKind(KindString), isKind(KindTime))
	case CategoryTimestamp:
		return p.either(Kind.IsInteger, isKind(KindTime))
	case CategoryDuration:
		return p.either(isKind(KindString), isKind(KindDuration))
	case CategoryNanoseconds:
		// uint64 cannot hold negative durations
		return p.either(func(k Kind) bool { return k.IsInteger() && k != KindUint64 }, isKind(KindDuration))
	case CategorySeconds:
		return p.either(Kind.IsFloat, isKind(KindDuration))
	case CategoryEnumString:
		return p.either(isKind(KindString), isKind(KindPrimitiveEnum))
	default:
		return false
	}
}

// either reports whether the pair joins a kind matching a with one
// matching b, in either direction.
func (p ConversionPair) either(a, b func(Kind) bool) bool {
	return a(p.From) && b(p.To) || b(p.From) && a(p.To)
}

func isKind(k Kind) func(Kind) bool {
	return func(other Kind) bool { return other == k }
}

// mantissa is the number of integer bits a float kind holds exactly.
func mantissa(k Kind) int {
	if k == KindFloat32 {
		return 24
	}

	return 53
}

// lossless reports whether every value of from fits in to on any platform.
func lossless(from, to Kind) bool {
	if from == to {
		return true
	}

	_, fromHi := from.width()
	toLo, _ := to.width()

	switch {
	case from.IsFloat():
		return to == KindFloat64
	case to.IsFloat():
		return fromHi <= mantissa(to)
	case from.IsSigned():
		return to.IsSigned() && fromHi <= toLo
	case to.IsSigned():
		// the sign bit is lost to an unsigned source
		return fromHi < toLo
	default:
		return fromHi <= toLo
	}
}
