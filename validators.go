package formz

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Length bounds for the text fields.
const (
	IDMinLength          = 3
	IDMaxLength          = 10
	NameMinLength        = 5
	NameMaxLength        = 100
	DescriptionMinLength = 10
	DescriptionMaxLength = 200
)

// validate is the shared validator instance.
var validate = validator.New()

// ValidatorFunc checks a single value and returns the errors it finds,
// or nil. Implementations must be pure.
type ValidatorFunc func(value string) ErrorBag

// Rule is a synchronous validator that owns exactly one error kind.
// Owning the kind lets a field merge the rule's outcome into its bag
// without touching kinds produced elsewhere.
type Rule struct {
	Kind  ErrorKind
	Check ValidatorFunc
}

// Validate runs the rule against value.
func (r Rule) Validate(value string) ErrorBag {
	return r.Check(value)
}

// apply merges the rule's outcome for value into bag.
func (r Rule) apply(bag ErrorBag, value string) ErrorBag {
	return bag.Apply(r.Kind, r.Check(value).Has(r.Kind))
}

// Required fails when the value is empty or whitespace only.
func Required() Rule {
	return Rule{Kind: KindRequired, Check: func(value string) ErrorBag {
		if validate.Var(strings.TrimSpace(value), "required") != nil {
			return ErrorBag{KindRequired: true}
		}
		return nil
	}}
}

// MinLength fails when the trimmed value has fewer than n characters.
// Empty values pass; Required reports those.
func MinLength(n int) Rule {
	tag := "min=" + strconv.Itoa(n)
	return Rule{Kind: KindMinLength, Check: func(value string) ErrorBag {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return nil
		}
		if validate.Var(trimmed, tag) != nil {
			return ErrorBag{KindMinLength: true}
		}
		return nil
	}}
}

// MaxLength fails when the trimmed value has more than n characters.
func MaxLength(n int) Rule {
	tag := "max=" + strconv.Itoa(n)
	return Rule{Kind: KindMaxLength, Check: func(value string) ErrorBag {
		if validate.Var(strings.TrimSpace(value), tag) != nil {
			return ErrorBag{KindMaxLength: true}
		}
		return nil
	}}
}

// MinDate fails when the value is a calendar day strictly earlier than the
// calendar day of ref, taken in ref's location. Comparing whole days keeps
// a release date of "today" valid at any time of day. Empty and unparsable
// values pass.
func MinDate(ref time.Time) Rule {
	floor := calendarDay(ref)
	return Rule{Kind: KindMinDate, Check: func(value string) ErrorBag {
		day, ok := ParseDate(value)
		if !ok {
			return nil
		}
		if day.Before(floor) {
			return ErrorBag{KindMinDate: true}
		}
		return nil
	}}
}

// DateFormat fails when a non-empty value is not a calendar day.
func DateFormat() Rule {
	return Rule{Kind: KindDate, Check: func(value string) ErrorBag {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		if _, ok := ParseDate(value); !ok {
			return ErrorBag{KindDate: true}
		}
		return nil
	}}
}

// Rules returns the synchronous rule set of a field. MinDate is not part
// of the release date's rule set; the release listener evaluates it
// against the form clock.
func Rules(name FieldKey) []Rule {
	switch name {
	case FieldID:
		return []Rule{Required(), MinLength(IDMinLength), MaxLength(IDMaxLength)}
	case FieldName:
		return []Rule{Required(), MinLength(NameMinLength), MaxLength(NameMaxLength)}
	case FieldDescription:
		return []Rule{Required(), MinLength(DescriptionMinLength), MaxLength(DescriptionMaxLength)}
	case FieldLogo:
		return []Rule{Required()}
	case FieldDateRelease, FieldDateRevision:
		return []Rule{Required(), DateFormat()}
	default:
		return nil
	}
}

// ValidateItem runs every field rule, MinDate against today, and the
// cross-field rule over item in one pass. The result maps each failing
// field to its bag; the cross-field bag is keyed by FieldDateRevision.
// An empty result means the item is valid.
func ValidateItem(item Item, today time.Time) map[FieldKey]ErrorBag {
	out := make(map[FieldKey]ErrorBag)
	for _, name := range FieldKeys {
		value := item.Value(name)
		var bag ErrorBag
		for _, r := range Rules(name) {
			bag = r.apply(bag, value)
		}
		if name == FieldDateRelease {
			bag = MinDate(today).apply(bag, value)
		}
		if name == FieldDateRevision {
			bag = bag.Merge(OneYearAfter(item.DateRelease, item.DateRevision))
		}
		if !bag.Empty() {
			out[name] = bag
		}
	}
	return out
}
