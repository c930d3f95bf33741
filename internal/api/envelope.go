package api

import (
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/http/response"
)

// EnvelopeVersion is the envelope "v" field.
const EnvelopeVersion = response.Version

// APIEnvelope is the body of every JSON response.
type APIEnvelope = response.Envelope

// EnvelopeTransformer wraps handler output and errors in APIEnvelope.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	switch body := v.(type) {
	case APIEnvelope:
		return body, nil
	case *APIError:
		return response.Failure(body.Code, body.Message, body.Details), nil
	case error:
		code, _ := strconv.Atoi(status)
		return response.Failure(string(response.StatusCode(code)), body.Error(), nil), nil
	}
	return response.Success(v), nil
}
