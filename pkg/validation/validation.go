package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/machinetrade/pos-api/pkg/apperror"
)

var (
	localPhone         = regexp.MustCompile(`^0[1-9]\d{8}$`)
	sriLankaPhone      = regexp.MustCompile(`^\+?94[1-9]\d{8}$`)
	internationalPhone = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)
	nationalIDOld      = regexp.MustCompile(`^\d{9}[VvXx]$`)
	nationalIDNew      = regexp.MustCompile(`^\d{12}$`)

	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
)

// NormalizePhone removes formatting characters so equal numbers compare equal
func NormalizePhone(phone string) string {
	return phoneStripper.Replace(strings.TrimSpace(phone))
}

// IsValidPhone accepts local, Sri Lankan international and generic E.164 numbers
func IsValidPhone(phone string) bool {
	p := NormalizePhone(phone)
	return localPhone.MatchString(p) || sriLankaPhone.MatchString(p) || internationalPhone.MatchString(p)
}

// NormalizeNationalID trims and upper-cases a national ID
func NormalizeNationalID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// IsValidNationalID accepts the old 9-digit+letter and new 12-digit formats
func IsValidNationalID(id string) bool {
	n := NormalizeNationalID(id)
	return nationalIDOld.MatchString(n) || nationalIDNew.MatchString(n)
}

// IsValidEmail reports whether s is a syntactically valid email address
func IsValidEmail(s string) bool {
	return validate.Var(strings.TrimSpace(s), "required,email") == nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Register installs the phone and national_id tags on v and reports
// fields by their json name. Used for both the package validator and
// gin's binding engine.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsValidPhone(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("national_id", func(fl validator.FieldLevel) bool {
		return IsValidNationalID(fl.Field().String())
	})
}

// Struct validates s and converts failures into field errors
func Struct(s interface{}) *apperror.AppError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	return FromError(err)
}

// FromError converts validator errors into an apperror validation error.
// Other errors become a plain bad request.
func FromError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.NewBadRequestError(err.Error())
	}
	fields := make([]apperror.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperror.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return apperror.NewValidationError(fields)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be a valid phone number"
	case "national_id":
		return "must be a valid national ID (9 digits + V/X or 12 digits)"
	case "email":
		return "must be a valid email address"
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "uuid":
		return "must be a valid UUID"
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
