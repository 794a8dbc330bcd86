package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"
)

// ExitWithCode logs msg with the foundry exit code metadata and exits.
// A nil logger falls back to stderr.
func ExitWithCode(logger *logging.Logger, exitCode foundry.ExitCode, msg string, err error) {
	info, ok := foundry.GetExitCodeInfo(exitCode)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v (exit code: %d)\n", msg, err, exitCode)
		os.Exit(int(exitCode))
	}

	if logger == nil {
		writeFatal(msg, err)
		fmt.Fprintf(os.Stderr, "Exit Code: %d (%s) - %s\n", info.Code, info.Name, info.Description)
		os.Exit(info.Code)
	}

	fields := []zap.Field{
		zap.Int("exit_code", info.Code),
		zap.String("exit_name", info.Name),
		zap.String("exit_category", info.Category),
	}
	fields = append(fields, envelopeFields(err)...)
	logger.Error(msg, fields...)

	os.Exit(info.Code)
}

// ExitWithCodeStderr exits without a logger, for failures before logging is up.
func ExitWithCodeStderr(exitCode foundry.ExitCode, msg string, err error) {
	ExitWithCode(nil, exitCode, msg, err)
}

// envelopeFields flattens an ErrorEnvelope into log fields, logging the
// original error in place of the envelope.
func envelopeFields(err error) []zap.Field {
	envelope, ok := err.(*errors.ErrorEnvelope)
	if !ok {
		return []zap.Field{zap.Error(err)}
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.String("error_message", envelope.Message),
		zap.String("correlation_id", envelope.CorrelationID),
	}
	if envelope.Context != nil {
		fields = append(fields, zap.Any("error_context", envelope.Context))
	}
	if original, ok := envelope.Original.(error); ok {
		err = original
	}
	return append(fields, zap.Error(err))
}

func writeFatal(msg string, err error) {
	if err == nil {
		fmt.Fprintf(os.Stderr, "FATAL: %s\n", msg)
		return
	}

	envelope, ok := err.(*errors.ErrorEnvelope)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: %s: %v\n", msg, err)
		return
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s [%s]: %v (correlation: %s)\n", msg, envelope.Code, envelope.Message, envelope.CorrelationID)
	if original, ok := envelope.Original.(error); ok {
		fmt.Fprintf(os.Stderr, "Underlying error: %v\n", original)
	}
}
