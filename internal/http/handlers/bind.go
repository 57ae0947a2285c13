package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// BindForm binds a form post into out. It returns nil on success, otherwise
// a field→message map keyed by the form tag names, ready for inline display.
func BindForm(ctx *gin.Context, out interface{}) map[string]string {
	err := ctx.ShouldBind(out)

	if err == nil {
		return nil
	}

	var validatorErrors validator.ValidationErrors

	if errors.As(err, &validatorErrors) {
		fields := make(map[string]string, len(validatorErrors))

		for _, fieldError := range validatorErrors {
			name := formName(out, fieldError.StructField())
			fields[name] = validationMessage(fieldError.Tag(), fieldError.Param())
		}

		return fields
	}

	return map[string]string{"form": "invalid form submission"}
}

// FirstMessage collapses a bind error map into a single "field message"
// string for the flash slot. Deterministic order.
func FirstMessage(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}

	names := make([]string, 0, len(fields))

	for name := range fields {
		names = append(names, name)
	}

	sort.Strings(names)

	return names[0] + " " + fields[names[0]]
}

func formName(out interface{}, structField string) string {
	t := reflect.TypeOf(out)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t == nil || t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}

	sf, ok := t.FieldByName(structField)

	if !ok {
		return strings.ToLower(structField)
	}

	tag := sf.Tag.Get("form")
	name, _, _ := strings.Cut(tag, ",")

	if name == "" || name == "-" {
		return strings.ToLower(structField)
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
