// Package request binds and validates HTTP input for the route handlers.
package request

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/PranayGaynarIKF/Address-Book-sub002/pkg/errs"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Bind decodes the request body into T and runs its validate tags.
func Bind[T any](c echo.Context) (T, error) {
	var req T
	if err := c.Bind(&req); err != nil {
		return req, errs.InvalidInput("invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return req, errs.InvalidInput("%s", describe(err))
	}
	return req, nil
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
			continue
		}
		messages = append(messages, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
	}
	return strings.Join(messages, "; ")
}

// Int reads an integer query parameter, falling back to def when absent.
func Int(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errs.InvalidInput("%s must be an integer", name)
	}
	return value, nil
}

// OptionalInt returns nil when the parameter is absent.
func OptionalInt(c echo.Context, name string) (*int, error) {
	if c.QueryParam(name) == "" {
		return nil, nil
	}
	value, err := Int(c, name, 0)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func OptionalBool(c echo.Context, name string) (*bool, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errs.InvalidInput("%s must be a boolean", name)
	}
	return &value, nil
}

func Bool(c echo.Context, name string) (bool, error) {
	value, err := OptionalBool(c, name)
	if err != nil || value == nil {
		return false, err
	}
	return *value, nil
}

// OptionalTime parses an RFC 3339 timestamp.
func OptionalTime(c echo.Context, name string) (*time.Time, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, errs.InvalidInput("%s must be an RFC 3339 timestamp", name)
	}
	return &value, nil
}

// List accepts both repeated parameters and comma separated values.
func List(c echo.Context, name string) []string {
	var values []string
	for _, raw := range c.QueryParams()[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}
