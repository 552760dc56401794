package commands

import (
	"context"
	"errors"
	"io/fs"

	goerrors "github.com/goliatone/go-errors"
)

const (
	codeInvalidMessage = "SITESYNC_COMMAND_INVALID"
	codeCanceled       = "SITESYNC_COMMAND_CANCELED"
	codeTimeout        = "SITESYNC_COMMAND_TIMEOUT"
	codeContext        = "SITESYNC_COMMAND_CONTEXT"
	codeInputMissing   = "SITESYNC_INPUT_MISSING"
	codeFailed         = "SITESYNC_COMMAND_FAILED"
)

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid command payload").
		WithTextCode(codeInvalidMessage)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command cancelled").
			WithTextCode(codeCanceled)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command deadline exceeded").
			WithTextCode(codeTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(codeContext)
	}
}

// wrapExecuteError classifies handler failures. A missing input file (home
// page, article list, reference template) gets its own code so callers can
// tell a misconfigured path from a failed render.
func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	if errors.Is(err, fs.ErrNotExist) {
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command input not found").
			WithTextCode(codeInputMissing)
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "command failed").
		WithTextCode(codeFailed)
}
