// Package validation holds the custom validator tags used by submitted forms.
package validation

import (
	"errors"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/users-web/internal/models"
)

var (
	ErrControlCharacter = errors.New("contains control or format characters")
	ErrMixedScript      = errors.New("mixes Latin and Cyrillic lookalike letters")
)

var blockedCategories = []*unicode.RangeTable{
	unicode.Cc,
	unicode.Cf,
	unicode.Cs,
	unicode.Co,
}

// Cyrillic letters that render identically to Latin ones.
var cyrillicLookalikes = map[rune]struct{}{
	'а': {}, 'е': {}, 'о': {}, 'р': {}, 'с': {}, 'х': {}, 'у': {},
	'А': {}, 'Е': {}, 'О': {}, 'Р': {}, 'С': {}, 'Х': {}, 'У': {},
}

// CheckText rejects names carrying invisible characters or Latin/Cyrillic
// homographs glued together. Pure Cyrillic and hyphen-joined names pass.
func CheckText(input string) error {
	normalized := norm.NFKC.String(input)
	for _, r := range normalized {
		if unicode.IsOneOf(blockedCategories, r) {
			return ErrControlCharacter
		}
	}
	if hasAdjacentLookalike([]rune(input)) || hasAdjacentLookalike([]rune(normalized)) {
		return ErrMixedScript
	}
	return nil
}

func hasAdjacentLookalike(runes []rune) bool {
	isLatin := func(r rune) bool { return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') }
	for i, r := range runes {
		if _, ok := cyrillicLookalikes[r]; !ok {
			continue
		}
		if i > 0 && isLatin(runes[i-1]) {
			return true
		}
		if i < len(runes)-1 && isLatin(runes[i+1]) {
			return true
		}
	}
	return false
}

// Register adds the safetext and notfuture tags to v.
func Register(v *validator.Validate, now func() time.Time) error {
	if now == nil {
		now = time.Now
	}
	if err := v.RegisterValidation("safetext", func(fl validator.FieldLevel) bool {
		return CheckText(fl.Field().String()) == nil
	}); err != nil {
		return err
	}
	return v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		d, err := models.ParseDate(fl.Field().String())
		if err != nil {
			return false
		}
		return !d.After(now())
	})
}

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v, nil); err != nil {
		panic(err)
	}
	return v
}
