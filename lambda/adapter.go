package lambda

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/battleshiper-adapter/internal/logger"
)

const (
	// DefaultOriginEnv names the variable that overrides the request origin.
	DefaultOriginEnv = "ORIGIN"

	// TrustForwardedHostEnv overrides Options.TrustPolicy when set to a boolean.
	TrustForwardedHostEnv = "BATTLESHIPER_TRUST_FORWARDED_HOST"

	// logLevelEnv and awsLogLevelEnv select the log level, the first one set wins.
	logLevelEnv    = "LOG_LEVEL"
	awsLogLevelEnv = "AWS_LAMBDA_LOG_LEVEL"
)

var errFactoryRequired = errors.New("server factory must be provided")

// Options configures the adapter.
type Options struct {
	// Factory constructs the application server.
	Factory Factory
	// Manifest is passed to Factory.
	Manifest Manifest
	// Debug exposes error details in failure replies.
	Debug bool
	// TrustPolicy decides whether x-forwarded-host is honored.
	TrustPolicy TrustPolicy
	// OriginEnv names the origin override variable. Defaults to DefaultOriginEnv.
	OriginEnv string
	// Environ returns the function environment. Defaults to os.Environ.
	Environ func() []string
	// Logger receives failure logs. Defaults to a JSON logger on stdout.
	Logger *zap.SugaredLogger
}

// Adapter translates Lambda invocations into calls of the application server.
type Adapter struct {
	server *lazyServer
	debug  bool
	trust  TrustPolicy
	origin string
	log    *zap.SugaredLogger
}

// New validates opts and returns an adapter. The server is not constructed
// until the first invocation.
func New(opts Options) (*Adapter, error) {
	if opts.Factory == nil {
		return nil, errFactoryRequired
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ
	}

	env := parseEnviron(environ())

	originEnv := opts.OriginEnv
	if originEnv == "" {
		originEnv = DefaultOriginEnv
	}

	trust := opts.TrustPolicy
	if raw, ok := env[TrustForwardedHostEnv]; ok {
		enabled, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", TrustForwardedHostEnv, err)
		}

		trust = IgnoreForwardedHost
		if enabled {
			trust = TrustForwardedHost
		}
	}

	log := opts.Logger
	if log == nil {
		log = newRuntimeLogger(env)
	}

	return &Adapter{
		server: newLazyServer(opts.Factory, opts.Manifest, env),
		debug:  opts.Debug,
		trust:  trust,
		origin: strings.TrimSpace(env[originEnv]),
		log:    log.Named("battleshiper"),
	}, nil
}

// Handle serves one invocation. It never returns an error: every failure,
// including a panic, is answered with a 500 reply.
func (a *Adapter) Handle(ctx context.Context, event events.APIGatewayV2HTTPRequest) (reply events.APIGatewayV2HTTPResponse, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply, err = a.failure(ctx, fmt.Errorf("%w: %v", errPanic, r)), nil
		}
	}()

	reply, err = a.serve(ctx, &event)
	if err != nil {
		return a.failure(ctx, err), nil
	}

	return reply, nil
}

func (a *Adapter) serve(ctx context.Context, event *events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	srv, err := a.server.get(ctx)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	req, err := a.buildRequest(ctx, event)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, err
	}

	opts := RespondOptions{
		ClientAddress: clientAddressResolver(event.RequestContext.HTTP.SourceIP),
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		opts.Platform = lc
	}

	resp, err := srv.Respond(ctx, req, opts)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{}, fmt.Errorf("respond: %w", err)
	}

	return translateResponse(resp)
}

// Start runs the Lambda runtime loop with an adapter built from opts.
// It does not return.
func Start(opts Options) {
	adapter, err := New(opts)
	if err != nil {
		log := opts.Logger
		if log == nil {
			log = newRuntimeLogger(parseEnviron(os.Environ()))
		}

		log.Fatalw("Invalid adapter options", "error", err)
	}

	awslambda.Start(adapter.Handle)
}

// newRuntimeLogger returns a JSON logger on stdout, which Lambda forwards to CloudWatch.
func newRuntimeLogger(env map[string]string) *zap.SugaredLogger {
	level := zapcore.InfoLevel

	for _, key := range []string{logLevelEnv, awsLogLevelEnv} {
		if parsed, ok := logger.ParseLogLevel(env[key]); ok {
			level = parsed

			break
		}
	}

	return logger.NewJSON(os.Stdout, zapcore.DebugLevel, logger.WithLevel(level))
}

func parseEnviron(environ []string) map[string]string {
	env := make(map[string]string, len(environ))

	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}

		env[key] = value
	}

	return env
}
