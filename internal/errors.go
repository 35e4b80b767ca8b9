package internal

import (
	"errors"

	"github.com/NYCU-SDC/summer/pkg/problem"
)

var (
	// Workflow Errors
	ErrWorkflowNotFound         = errors.New("workflow not found")
	ErrNoActiveWorkflow         = errors.New("no active workflow")
	ErrTemplateNotFound         = errors.New("template not found")
	ErrWorkflowValidationFailed = errors.New("workflow validation failed")
	ErrInvalidActiveParameter   = errors.New("invalid active parameter")

	// Chat Errors
	ErrSessionRequired = errors.New("session id is required")
	ErrMenuNodeUnknown = errors.New("menu node not found")
	ErrOptionNotFound  = errors.New("menu option not found")

	// Knowledge Base Errors
	ErrInvalidDocument = errors.New("knowledge base document must be a JSON object")
	ErrPatchFieldCount = errors.New("request body must have exactly one field")
)

func NewProblemWriter() *problem.HttpWriter {
	return problem.NewWithMapping(ErrorHandler)
}

func ErrorHandler(err error) problem.Problem {
	switch {
	// Workflow Errors
	case errors.Is(err, ErrWorkflowNotFound):
		return problem.NewNotFoundProblem("workflow not found")
	case errors.Is(err, ErrNoActiveWorkflow):
		return problem.NewNotFoundProblem("no active workflow")
	case errors.Is(err, ErrTemplateNotFound):
		return problem.NewNotFoundProblem("template not found")
	case errors.Is(err, ErrWorkflowValidationFailed):
		return problem.NewValidateProblem(err.Error())
	case errors.Is(err, ErrInvalidActiveParameter):
		return problem.NewValidateProblem("invalid active parameter")

	// Chat Errors
	case errors.Is(err, ErrSessionRequired):
		return problem.NewValidateProblem("session id is required")
	case errors.Is(err, ErrMenuNodeUnknown):
		return problem.NewNotFoundProblem("menu node not found")
	case errors.Is(err, ErrOptionNotFound):
		return problem.NewValidateProblem("menu option not found")

	// Knowledge Base Errors
	case errors.Is(err, ErrInvalidDocument):
		return problem.NewValidateProblem("knowledge base document must be a JSON object")
	case errors.Is(err, ErrPatchFieldCount):
		return problem.NewValidateProblem("request body must have exactly one field")
	}
	return problem.Problem{}
}
