package handlers

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
)

type searchParams struct {
	Query    string   `query:"query" validate:"required"`
	Lat      *float64 `query:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lon      *float64 `query:"lon" validate:"omitempty,gte=-180,lte=180"`
	RadiusKm *float64 `query:"radius_km" validate:"omitempty,gt=0"`
	Days     *int     `query:"days" validate:"omitempty,gte=1,lte=3650"`
	Limit    int      `query:"limit" validate:"gte=0,lte=100"`
}

type hotspotParams struct {
	Days      int `query:"days" validate:"gte=1,lte=3650"`
	Threshold int `query:"threshold" validate:"gte=1"`
}

type daysParams struct {
	Days int `query:"days" validate:"gte=1,lte=3650"`
}

type trendParams struct {
	WindowDays int `query:"window_days" validate:"gte=1,lte=3650"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("query")
	})
	return v
}

// describeValidation turns validator errors into a short client message.
func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s", fe.Field(), fe.Tag(), fe.Param()))
		}
	}
	return strings.Join(msgs, "; ")
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return v, nil
}

func optIntParam(q url.Values, name string) (*int, error) {
	if strings.TrimSpace(q.Get(name)) == "" {
		return nil, nil
	}
	v, err := intParam(q, name, 0)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func optFloatParam(q url.Values, name string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}
