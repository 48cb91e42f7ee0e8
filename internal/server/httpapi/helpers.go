package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/bookkeeper/internal/validator"
	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1_048_576

type envelope map[string]any

func (s *HTTPServer) readIDParam(r *http.Request) string {
	params := httprouter.ParamsFromContext(r.Context())
	return params.ByName("id")
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "  ")
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

// readJSON decodes exactly one JSON value from the body into dst, rejecting
// unknown fields and bodies larger than 1 MB.
func (s *HTTPServer) readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.Contains(err.Error(), "unknown field"):
			return errors.New("body contains an unknown field")
		default:
			return fmt.Errorf("body contains badly-formed JSON: %w", err)
		}
	}

	if dec.More() {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

// readInt returns the query value for key, or defaultValue when it is absent.
// A value that is not an integer is recorded on v.
func (s *HTTPServer) readInt(qs map[string][]string, key string, defaultValue int, v *validator.Validator) int {
	vals := qs[key]
	if len(vals) == 0 || vals[0] == "" {
		return defaultValue
	}

	i, err := strconv.Atoi(vals[0])
	if err != nil {
		v.AddError(key, "must be an integer value")
		return defaultValue
	}
	return i
}

func (s *HTTPServer) readString(qs map[string][]string, key string, defaultValue string) string {
	vals := qs[key]
	if len(vals) == 0 {
		return defaultValue
	}
	return vals[0]
}
