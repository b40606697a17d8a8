package resource

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/fivetwenty-io/sforce/internal/constants"
	"github.com/fivetwenty-io/sforce/pkg/sforce"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

// RenderPath substitutes every {name} placeholder of template with the
// escaped value of params[name].
func RenderPath(template string, params sforce.Params) (string, error) {
	var missing []string

	rendered := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]

		value, ok := params[name]
		if !ok {
			missing = append(missing, name)

			return match
		}

		return Escape(fmt.Sprint(value))
	})

	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", sforce.ErrMissingParameter, strings.Join(missing, ", "))
	}

	return rendered, nil
}

// Escape percent-encodes s, leaving unreserved characters and "/" intact.
func Escape(s string) string {
	escaped := url.QueryEscape(s)
	escaped = strings.ReplaceAll(escaped, "+", "%20")

	return strings.ReplaceAll(escaped, "%2F", "/")
}

// JoinURL resolves path against base the way a browser resolves a link.
// Absolute paths (a full identity URL for instance) replace base entirely.
func JoinURL(base, path string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base URL %q: %w", sforce.ErrConfiguration, base, err)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: invalid path %q: %w", sforce.ErrConfiguration, path, err)
	}

	return baseURL.ResolveReference(ref).String(), nil
}

// Path renders the resource path for its addressing mode.
func (r *Resource) Path() (string, error) {
	template := r.template
	params := r.Params.Clone()

	switch r.Type.Addressing {
	case sforce.AddressDateRange:
		if err := r.formatDateRange(params); err != nil {
			return "", err
		}
	case sforce.AddressInstance:
		if _, ok := params["id"]; !ok {
			return "", fmt.Errorf("%w: 'id' is a mandatory parameter of %s", sforce.ErrMissingParameter, r.Type)
		}
	case sforce.AddressExternalID:
		_, hasName := params["fieldname"]
		_, hasValue := params["fieldvalue"]

		if !hasName || !hasValue {
			return "", fmt.Errorf("%w: 'fieldname' and 'fieldvalue' are both mandatory parameters of %s",
				sforce.ErrMissingParameter, r.Type)
		}
	case sforce.AddressModel:
		template = r.modelTemplate(template, params)
	case sforce.AddressCollection:
		if _, ok := params["id"]; ok && !strings.Contains(template, "{id}") {
			template += "{id}/"
		}
	}

	path, err := RenderPath(template, params)
	if err != nil {
		return "", fmt.Errorf("rendering path of %s: %w", r.Type, err)
	}

	return path, nil
}

// URL joins the client base URL with the rendered path.
func (r *Resource) URL() (string, error) {
	path, err := r.Path()
	if err != nil {
		return "", err
	}

	return JoinURL(r.backend.BaseURL(), path)
}

// modelTemplate appends an id segment when the bound record already carries
// a remote id and no explicit id was given.
func (r *Resource) modelTemplate(template string, params sforce.Params) string {
	if _, ok := params["id"]; ok || r.Record == nil || r.Type.Model == nil {
		return template
	}

	distantID, err := r.Record.Get(r.Type.Model.DistantID)
	if err != nil || IsEmpty(distantID) {
		return template
	}

	params["id"] = Deref(distantID)

	return template + "{id}/"
}

func (r *Resource) formatDateRange(params sforce.Params) error {
	startKey, endKey := r.Type.DateStartParam, r.Type.DateEndParam

	rawStart, hasStart := params[startKey]
	rawEnd, hasEnd := params[endKey]

	if !hasStart || !hasEnd {
		return fmt.Errorf("%w: '%s' and '%s' are both mandatory parameters for the %s resource",
			sforce.ErrMissingParameter, startKey, endKey, r.Type)
	}

	start, okStart := asTime(rawStart)
	end, okEnd := asTime(rawEnd)

	if !okStart || !okEnd {
		return fmt.Errorf("%w: '%s' and '%s' parameters for the %s resource should be dates",
			sforce.ErrTypeMismatch, startKey, endKey, r.Type)
	}

	if !start.Before(end) {
		return fmt.Errorf("%w: the '%s' parameter must chronologically precede '%s' for the %s resource",
			sforce.ErrInvalidRange, startKey, endKey, r.Type)
	}

	params[startKey] = start.UTC().Format(constants.DateRangeFormat)
	params[endKey] = end.UTC().Format(constants.DateRangeFormat)

	return nil
}

func asTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}

		return *v, true
	case string:
		t, err := dateparse.ParseIn(v, time.UTC)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	default:
		return time.Time{}, false
	}
}

// IsEmpty reports whether a record value is missing or blank.
func IsEmpty(value any) bool {
	if value == nil {
		return true
	}

	switch v := value.(type) {
	case string:
		return v == ""
	case *string:
		return v == nil || *v == ""
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return true
		}

		return fmt.Sprint(v) == ""
	}
}

// Deref returns the value a non-nil pointer points to, or value itself.
func Deref(value any) any {
	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface()
	}

	return value
}
