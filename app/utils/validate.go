package utils

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	academicYearRegex = regexp.MustCompile(`^\d{4}-\d{4}$`)
)

const (
	academicYearTag  = "academic_year"
	academicYearText = "{0} must be an academic year like 2024-2025"
	monthTag         = "month"
	monthText        = "{0} must be a month between 1 and 12"
	requiredText     = "{0} is required"
)

func init() {
	english := en.New()
	Translator, _ = ut.New(english, english).GetTranslator("en")
	Validate = validator.New()
	initValidators(Validate, Translator)
}

func initValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(academicYearTag, academicYearValidation)
	registerTranslation(validate, translator, academicYearTag, academicYearText, false)

	_ = validate.RegisterValidation(monthTag, monthValidation)
	registerTranslation(validate, translator, monthTag, monthText, false)

	registerTranslation(validate, translator, "required_if", requiredText, true)
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override bool) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// academicYearValidation accepts "YYYY-YYYY" where the second year follows the first.
func academicYearValidation(fl validator.FieldLevel) bool {
	return IsAcademicYear(fl.Field().String())
}

func monthValidation(fl validator.FieldLevel) bool {
	m := fl.Field().Int()
	return m >= 1 && m <= 12
}

func IsAcademicYear(s string) bool {
	if !academicYearRegex.MatchString(s) {
		return false
	}
	first, _ := strconv.Atoi(s[:4])
	second, _ := strconv.Atoi(s[5:])
	return second == first+1
}

// ParseBody decodes the JSON body into dst and validates it.
func ParseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return ErrInvalidBody
	}
	return errors.WithStack(Validate.Struct(dst))
}
