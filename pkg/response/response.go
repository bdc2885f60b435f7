// Package response writes the JSON envelope every endpoint answers with:
// {success, message, data}. Failures add errorSources for per-field
// validation problems and, outside production, the raw error text.
package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/apperror"
)

type Envelope struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message"`
	Data         any           `json:"data"`
	ErrorSources []ErrorSource `json:"errorSources,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// ErrorSource points at the request field that failed validation.
type ErrorSource struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// JSON writes env with the given status.
func JSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Send writes a successful envelope.
func Send(w http.ResponseWriter, status int, message string, data any) {
	JSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// Fail writes a failed envelope without touching any logger.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// ErrorWriter converts errors into failed envelopes.
type ErrorWriter struct {
	logger *zap.SugaredLogger
	// Verbose adds the underlying error text to the envelope.
	Verbose bool
}

func NewErrorWriter(logger *zap.SugaredLogger, verbose bool) *ErrorWriter {
	return &ErrorWriter{logger: logger, Verbose: verbose}
}

// Write maps err to a status: *apperror.AppError keeps its own,
// validation.Errors become 400, anything else is a 500.
func (ew *ErrorWriter) Write(w http.ResponseWriter, r *http.Request, err error) {
	env := Envelope{Success: false}
	status := http.StatusInternalServerError

	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		status = http.StatusBadRequest
		env.Message = "Validation Error"
		env.ErrorSources = sources(verrs)
	default:
		if ae, ok := apperror.As(err); ok {
			status = ae.Status
			env.Message = ae.Message
		} else {
			env.Message = "Something went wrong!"
		}
	}

	if status >= http.StatusInternalServerError {
		ew.logger.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	} else {
		ew.logger.Debugw("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	if ew.Verbose {
		env.Error = err.Error()
	}
	JSON(w, status, env)
}

func sources(verrs validation.Errors) []ErrorSource {
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]ErrorSource, 0, len(keys))
	for _, k := range keys {
		if verrs[k] == nil {
			continue
		}
		out = append(out, ErrorSource{Path: k, Message: verrs[k].Error()})
	}
	return out
}

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// Decode reads a JSON body of at most MaxBodyBytes into v. An empty body is
// accepted only when allowEmpty is set.
func Decode(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	if r.Body == nil {
		if allowEmpty {
			return nil
		}
		return apperror.BadRequest("Request body is required")
	}
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.Wrap(err, http.StatusBadRequest, "Request body too large")
		}
		if errors.Is(err, io.EOF) {
			if allowEmpty {
				return nil
			}
			return apperror.BadRequest("Request body is required")
		}
		return apperror.Wrap(err, http.StatusBadRequest, "Invalid request body")
	}
	return nil
}
