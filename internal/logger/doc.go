// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder for the CLI,
//   - a JSON logger for the Lambda runtime, where stdout ends up in CloudWatch,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities.
//
// Build steps and the runtime adapter accept a context and extract the logger
// from it, so a build ID or request ID added once shows up on every line.
package logger
