package query

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// MaxKeywordLength bounds name searches.
const MaxKeywordLength = 100

// ValidationError reports a malformed query parameter. It is recoverable:
// callers show the message and keep running.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

// Fields returns the error as a field → message map for API responses.
func (e *ValidationError) Fields() map[string]string {
	return map[string]string{e.Field: e.Message}
}

type idInput struct {
	ID int `json:"id" validate:"gte=1"`
}

type keywordInput struct {
	Keyword string `json:"name" validate:"max=100"`
}

type countInput struct {
	N int `json:"n" validate:"gte=0,lte=1000"`
}

var validate, trans = newValidator()

func newValidator() (*validator.Validate, ut.Translator) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	t, _ := uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, t)
	return v, t
}

// ParseID parses a student ID typed by the user. IDs start at 1.
func ParseID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: "id", Message: "id is a required field"}
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: "id", Value: raw, Message: "id must be an integer"}
	}
	if err := check(idInput{ID: id}, raw); err != nil {
		return 0, err
	}
	return id, nil
}

// ParseKeyword trims a name search keyword. An empty keyword is allowed.
func ParseKeyword(raw string) (string, error) {
	keyword := strings.TrimSpace(raw)
	if err := check(keywordInput{Keyword: keyword}, raw); err != nil {
		return "", err
	}
	return keyword, nil
}

// ParseThreshold parses a numeric threshold for field. Any finite number
// is accepted; thresholds outside 0–100 simply match everything or nothing.
func ParseThreshold(field, raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, &ValidationError{Field: field, Message: field + " is a required field"}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ValidationError{Field: field, Value: raw, Message: field + " must be a finite number"}
	}
	return v, nil
}

// ParseCount parses an optional row count, returning def when raw is empty.
func ParseCount(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Field: "n", Value: raw, Message: "n must be an integer"}
	}
	if err := check(countInput{N: n}, raw); err != nil {
		return 0, err
	}
	return n, nil
}

func check(input interface{}, raw string) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return &ValidationError{Field: ve[0].Field(), Value: raw, Message: ve[0].Translate(trans)}
	}
	return &ValidationError{Field: "input", Value: raw, Message: err.Error()}
}
