package lambda

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

const (
	headerOrigin        = "Origin"
	headerHost          = "Host"
	headerCookie        = "Cookie"
	headerForwardedHost = "X-Forwarded-Host"
	headerForwardedFor  = "X-Forwarded-For"
)

var errInvalidOrigin = errors.New("invalid origin")

// buildRequest converts an invocation event into a request bound to ctx.
func (a *Adapter) buildRequest(ctx context.Context, event *events.APIGatewayV2HTTPRequest) (*http.Request, error) {
	header := make(http.Header, len(event.Headers)+1)
	for name, value := range event.Headers {
		header.Set(name, value)
	}

	if len(event.Cookies) > 0 {
		header.Set(headerCookie, strings.Join(event.Cookies, "; "))
	}

	target, err := a.requestURL(event, header)
	if err != nil {
		return nil, err
	}

	if a.trust == TrustForwardedHost {
		if forwarded := header.Get(headerForwardedHost); forwarded != "" {
			header.Set(headerHost, forwarded)
		}
	}

	body, err := eventBody(event)
	if err != nil {
		return nil, err
	}

	method := event.RequestContext.HTTP.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.URL = target
	req.Header = header
	req.RemoteAddr = event.RequestContext.HTTP.SourceIP

	req.Host = target.Host
	if host := header.Get(headerHost); host != "" {
		req.Host = host
	}

	if protocol := event.RequestContext.HTTP.Protocol; protocol != "" {
		if major, minor, ok := http.ParseHTTPVersion(protocol); ok {
			req.Proto, req.ProtoMajor, req.ProtoMinor = protocol, major, minor
		}
	}

	return req, nil
}

// requestURL joins the resolved origin with the raw path and query of the event.
func (a *Adapter) requestURL(event *events.APIGatewayV2HTTPRequest, header http.Header) (*url.URL, error) {
	target, err := a.resolveOrigin(event, header)
	if err != nil {
		return nil, err
	}

	rawPath := event.RawPath
	if rawPath == "" {
		rawPath = event.RequestContext.HTTP.Path
	}

	if rawPath == "" {
		rawPath = "/"
	}

	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, fmt.Errorf("unescape path %q: %w", rawPath, err)
	}

	target.Path = path
	target.RawPath = rawPath
	target.RawQuery = strings.TrimPrefix(event.RawQueryString, "?")
	target.Fragment = ""

	return target, nil
}

// resolveOrigin picks the configured override, then the origin header, then
// https://<domain>. A broken override fails the invocation; a broken header,
// such as the "null" origin browsers send from sandboxed frames, is skipped.
func (a *Adapter) resolveOrigin(event *events.APIGatewayV2HTTPRequest, header http.Header) (*url.URL, error) {
	if a.origin != "" {
		target, ok := parseOrigin(a.origin)
		if !ok {
			return nil, fmt.Errorf("%w %q", errInvalidOrigin, a.origin)
		}

		return target, nil
	}

	if origin := header.Get(headerOrigin); origin != "" {
		if target, ok := parseOrigin(origin); ok {
			return target, nil
		}

		a.log.Debugw("Ignoring unusable origin header", "origin", origin)
	}

	origin := "https://" + event.RequestContext.DomainName

	target, ok := parseOrigin(origin)
	if !ok {
		return nil, fmt.Errorf("%w %q", errInvalidOrigin, origin)
	}

	return target, nil
}

// parseOrigin accepts absolute http and https origins only.
func parseOrigin(origin string) (*url.URL, bool) {
	target, err := url.Parse(origin)
	if err != nil || target.Host == "" {
		return nil, false
	}

	switch target.Scheme {
	case "http", "https":
		return target, true
	default:
		return nil, false
	}
}

func eventBody(event *events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !event.IsBase64Encoded {
		return []byte(event.Body), nil
	}

	body, err := base64.StdEncoding.DecodeString(event.Body)
	if err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}

	return body, nil
}
