// Package bind decodes request bodies and validates them with struct tags
package bind

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	perr "wikidomains/internal/platform/errors"
	"wikidomains/internal/platform/logger"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator pairs a validator with the english translator used for messages
type Validator struct {
	v  *validator.Validate
	tr ut.Translator
}

var dbNameRE = regexp.MustCompile(`^[a-z0-9]+$`)

// messages overrides the stock english text for a few tags
// {0} is the json field name, {1} the tag param
var messages = map[string]string{
	"min":    "{0} must be at least {1}",
	"max":    "{0} must be at most {1}",
	"dbname": "{0} must contain only lowercase letters and digits",
	"oneof":  "{0} must be one of: {1}",
}

// Default returns the process wide validator, built on first use
var Default = sync.OnceValue(newValidator)

func newValidator() *Validator {
	loc := en.New()
	tr, _ := ut.New(loc, loc).GetTranslator("en")

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = en_translations.RegisterDefaultTranslations(v, tr)
	_ = v.RegisterValidation("dbname", func(fl validator.FieldLevel) bool {
		return dbNameRE.MatchString(fl.Field().String())
	})

	for tag, text := range messages {
		_ = v.RegisterTranslation(tag, tr,
			func(t ut.Translator) error { return t.Add(tag, text, true) },
			func(t ut.Translator, fe validator.FieldError) string {
				msg, _ := t.T(tag, fe.Field(), fe.Param())
				return msg
			},
		)
	}
	return &Validator{v: v, tr: tr}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Struct validates s and reports the first failure as a validation error carrying its field
func (v *Validator) Struct(s any) error { return v.project(v.v.Struct(s)) }

// Var validates one value against tag; no field is attached
func (v *Validator) Var(val any, tag string) error { return v.project(v.v.Var(val, tag)) }

func (v *Validator) project(err error) error {
	if err == nil {
		return nil
	}
	var inv *validator.InvalidValidationError
	if errors.As(err, &inv) {
		logger.Get().Error().Err(inv).Msg("validator misuse")
		return perr.JSONErrf("validation error")
	}
	field, msg := v.FirstError(err)
	return perr.WithField(perr.Validationf("%s", msg), field)
}

// FirstError returns the field and translated message of the first validation failure
func (v *Validator) FirstError(err error) (field, msg string) {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return "", ""
	case errors.As(err, &verrs) && len(verrs) > 0:
		return verrs[0].Field(), verrs[0].Translate(v.tr)
	}
	return "", err.Error()
}

// Options tunes ParseJSON; the zero value is strict
type Options struct {
	MaxBytes     int64 // 0 means 1MB
	AllowUnknown bool
	AllowEmpty   bool
}

// ParseJSON decodes exactly one JSON document from r into T and validates it.
// An empty body on a read-only method yields the zero T
func ParseJSON[T any](r *http.Request, opts ...Options) (T, error) {
	var (
		zero T
		o    Options
	)
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = 1 << 20
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			logger.Get().Warn().Err(err).Msg("request body close failed")
		}
	}()

	br := bufio.NewReader(io.LimitReader(r.Body, o.MaxBytes))
	if _, err := br.Peek(1); err != nil {
		if o.AllowEmpty || readOnly(r.Method) {
			return zero, nil
		}
		return zero, perr.JSONErrf("empty body")
	}

	dec := json.NewDecoder(br)
	if !o.AllowUnknown {
		dec.DisallowUnknownFields()
	}
	var out T
	if err := dec.Decode(&out); err != nil {
		return zero, perr.JSONErrf("invalid JSON: %v", err)
	}
	if dec.More() {
		return zero, perr.JSONErrf("unexpected trailing data")
	}
	if err := Default().Struct(out); err != nil {
		return zero, err
	}
	return out, nil
}

func readOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}
