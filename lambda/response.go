package lambda

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

var errNilResponse = errors.New("server returned a nil response")

// translateResponse converts resp into the Lambda reply and closes its body.
// Header names are lowercased; for repeated names the last value wins, except
// Set-Cookie, whose values are carried in Cookies.
func translateResponse(resp *http.Response) (events.APIGatewayV2HTTPResponse, error) {
	if resp == nil {
		return events.APIGatewayV2HTTPResponse{}, errNilResponse
	}

	var body []byte

	if resp.Body != nil {
		defer func() {
			_ = resp.Body.Close()
		}()

		var err error

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return events.APIGatewayV2HTTPResponse{}, fmt.Errorf("read response body: %w", err)
		}
	}

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}

	sort.Strings(names)

	var (
		headers = make(map[string]string, len(names))
		cookies []string
	)

	for _, name := range names {
		values := resp.Header[name]
		if len(values) == 0 {
			continue
		}

		if http.CanonicalHeaderKey(name) == "Set-Cookie" {
			cookies = append(cookies, values...)

			continue
		}

		headers[strings.ToLower(name)] = values[len(values)-1]
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode:      status,
		Headers:         headers,
		Cookies:         cookies,
		Body:            string(body),
		IsBase64Encoded: false,
	}, nil
}
