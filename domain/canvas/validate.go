package canvas

import (
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// Limits enforced on proposed segments.
const (
	MaxWidth     = 200
	MaxTagLength = 32
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("finite", isFinite); err != nil {
		panic(err)
	}
	return v
}

func isFinite(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	default:
		return false
	}
}

// ValidDraw reports whether a proposed segment is well formed. It has
// no side effects; callers drop invalid requests without replying.
func ValidDraw(req DrawRequest) bool {
	return validate.Struct(req) == nil
}

// ValidBegin reports whether a begin-stroke request names a stroke.
func ValidBegin(req BeginStrokeRequest) bool {
	return validate.Struct(req) == nil
}
