package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/chatstore-backend/pkg/errors"
)

// DefaultMaxBodyBytes caps JSON bodies that carry no documents.
const DefaultMaxBodyBytes int64 = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	// money fields arrive as decimal strings; expose them to the validator as such
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("money", validateMoney)
	return v
}

// validateMoney accepts a non-negative amount with at most two decimals.
func validateMoney(fl validator.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return false
	}
	return !d.IsNegative() && d.Equal(d.Round(2))
}

// DecodeJSONBody decodes a strict JSON body of at most DefaultMaxBodyBytes
// and validates it.
func DecodeJSONBody(r *http.Request, dest any) error {
	return DecodeJSONBodyLimit(r, dest, DefaultMaxBodyBytes)
}

// DecodeJSONBodyLimit is DecodeJSONBody with a caller-chosen size cap.
func DecodeJSONBodyLimit(r *http.Request, dest any, maxBytes int64) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	body := http.MaxBytesReader(nil, r.Body, maxBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "request body too large").
				WithDetails(map[string]any{"maxBytes": maxBytes})
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldPath(fieldErr)] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

// fieldPath drops the root struct name so nested errors read items[0].quantity.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "money":
		return "must be a non-negative amount with at most two decimals"
	}
	return "is invalid"
}
