package lambda

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
)

// failureMessage is the only text a production failure reply carries.
const failureMessage = "Internal Server Error"

type failureBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// failure logs err and returns the fixed 500 reply. The error text is included
// only in debug builds.
func (a *Adapter) failure(ctx context.Context, err error) events.APIGatewayV2HTTPResponse {
	kvs := []any{"error", err}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		kvs = append(kvs, "aws_request_id", lc.AwsRequestID)
	}

	a.log.Errorw("Invocation failed", kvs...)

	payload := failureBody{Message: failureMessage}
	if a.debug {
		payload.Detail = err.Error()
	}

	// Marshaling two strings cannot fail.
	body, _ := json.Marshal(payload) //nolint:errchkjson // See above.

	return events.APIGatewayV2HTTPResponse{
		StatusCode:      http.StatusInternalServerError,
		Headers:         map[string]string{"content-type": "application/json"},
		Body:            string(body),
		IsBase64Encoded: false,
	}
}
