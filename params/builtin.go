package params

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// DateLayout is the layout of "format: date" params.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func registerBuiltins(r *Registry) {
	r.Register("integer", nil, Parser{
		StringValidation: map[string]any{"pattern": `^-?\d+$`},
		Parse:            parseInteger,
	})
	r.Register("number", nil, Parser{
		StringValidation: map[string]any{"pattern": `^-?\d+(\.\d+)?$`},
		Parse:            parseNumber,
	})
	r.Register("boolean", nil, Parser{
		StringValidation: map[string]any{"enum": []any{"true", "false"}},
		Parse:            parseBoolean,
	})
	r.Register("null", nil, Parser{
		StringValidation: map[string]any{"enum": []any{""}},
		Parse:            parseNull,
	})
	r.Register("string", nil, Parser{Parse: parseString})
	r.Register("string", map[string]any{"format": "date"}, Parser{Parse: parseDate})
	r.Register("string", map[string]any{"format": "date-time"}, Parser{Parse: parseDateTime})
	r.Register("string", map[string]any{"format": "uri"}, Parser{Parse: parseURI})
}

func parseInteger(value any) (any, error) {
	switch v := value.(type) {
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("could not convert %q to an integer", v)
		}
		return n, nil
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case json.Number:
		return v.Int64()
	case float64:
		if v == math.Trunc(v) {
			return int64(v), nil
		}
	}
	return nil, fmt.Errorf("could not convert %#v to an integer", value)
}

func parseNumber(value any) (any, error) {
	switch v := value.(type) {
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("could not convert %q to a float", v)
		}
		return f, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	}
	return nil, fmt.Errorf("could not convert %#v to a float", value)
}

func parseBoolean(value any) (any, error) {
	switch value {
	case "true", true:
		return true, nil
	case "false", false:
		return false, nil
	}
	return nil, fmt.Errorf("could not convert %#v to a boolean", value)
}

func parseNull(value any) (any, error) {
	if value == nil || value == "" {
		return nil, nil
	}
	return nil, fmt.Errorf("could not convert %#v to a null", value)
}

func parseString(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%#v is not a string", value)
	}
	return s, nil
}

func parseDate(value any) (any, error) {
	s, ok := value.(string)
	if !ok || !datePattern.MatchString(s) {
		return nil, fmt.Errorf("%#v is not in iso8601 format", value)
	}
	return time.Parse(DateLayout, s)
}

func parseDateTime(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%#v is not a string", value)
	}
	return time.Parse(time.RFC3339, s)
}

func parseURI(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%#v is not a string", value)
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not a valid full URI", s)
	}
	return u, nil
}
