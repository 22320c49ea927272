package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-finder/services"
	"github.com/go-chi/chi/v5"
)

const maxJSONBytes = 1_048_576

// errorBody is the error envelope of every failed request.
type errorBody struct {
	StatusCode int               `json:"statusCode"`
	Error      string            `json:"error"`
	Message    string            `json:"message"`
	Code       string            `json:"code"`
	Fields     map[string]string `json:"fields,omitempty"`
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func respond(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := writeJSON(w, status, data, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", slog.Any("error", err))
	}
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, fields map[string]string) {
	body := errorBody{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
		Code:       code,
		Fields:     fields,
	}
	if err := writeJSON(w, status, body, nil); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, services.CodeValidationFailed, err.Error(), nil)
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, fields map[string]string) {
	errorResponse(w, r, http.StatusBadRequest, services.CodeValidationFailed, "validation failed", fields)
}

func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// mapServiceErrorToHTTP renders any error returned by a service. Internal
// details are logged, never sent.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := services.AsError(err)
	status := statusForKind(svcErr.Kind)

	message := svcErr.Message
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("code", svcErr.Code),
			slog.Any("error", err),
		)
		if svcErr.Kind == services.KindInternal {
			message = "the server encountered a problem and could not process your request"
		}
	}
	errorResponse(w, r, status, svcErr.Code, message, svcErr.Fields)
}

// WriteError is mapServiceErrorToHTTP for use outside this package.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	mapServiceErrorToHTTP(w, r, err)
}

// NotFound and MethodNotAllowed keep router-level failures in the API error
// shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusNotFound, "ROUTE_NOT_FOUND", "the requested resource could not be found", nil)
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	errorResponse(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
		fmt.Sprintf("the %s method is not supported for this resource", r.Method), nil)
}

func getIDFromURL(r *http.Request, paramName string) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, paramName))
	if id == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	return id, nil
}

// queryParser accumulates per-field parse failures so a request reports all
// malformed parameters at once.
type queryParser struct {
	fields map[string]string
}

func (p *queryParser) fail(name, msg string) {
	if p.fields == nil {
		p.fields = map[string]string{}
	}
	if _, ok := p.fields[name]; !ok {
		p.fields[name] = msg
	}
}

func (p *queryParser) floatParam(values map[string][]string, name string) *float64 {
	raw := strings.TrimSpace(first(values[name]))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		p.fail(name, "must be a number")
		return nil
	}
	return &f
}

func (p *queryParser) intParam(values map[string][]string, name string) int {
	raw := strings.TrimSpace(first(values[name]))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name, "must be an integer")
		return 0
	}
	return n
}

func (p *queryParser) boolParam(values map[string][]string, name string, required bool) bool {
	raw := strings.TrimSpace(first(values[name]))
	if raw == "" {
		if required {
			p.fail(name, "is required")
		}
		return false
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(name, "must be true or false")
		return false
	}
	return b
}

// list accepts both repeated parameters and comma-separated values.
func (p *queryParser) listParam(values map[string][]string, names ...string) []string {
	var out []string
	for _, name := range names {
		for _, v := range values[name] {
			for _, part := range strings.Split(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					out = append(out, part)
				}
			}
		}
	}
	return out
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
