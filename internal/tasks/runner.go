package tasks

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	registryNotConfiguredMessageConstant = "task registry not configured"
	unknownTaskTemplateConstant          = "unknown task %q"
	taskFailedTemplateConstant           = "task %s failed: %v"
	taskStartingMessageConstant          = "task starting"
	taskCompletedMessageConstant         = "task completed"
	taskFailedMessageConstant            = "task failed"
	taskNameFieldNameConstant            = "task"
	prerequisiteCountFieldNameConstant   = "prerequisite_count"
)

// Status reports a task's progress within a single run.
type Status string

// Task statuses observed during a run.
const (
	StatusPending       Status = "pending"
	StatusPrerequisites Status = "prerequisites_running"
	StatusRunning       Status = "action_running"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// ErrRegistryNotConfigured indicates the runner was built without a registry.
var ErrRegistryNotConfigured = errors.New(registryNotConfiguredMessageConstant)

// UnknownTaskError indicates the requested task name is not registered.
type UnknownTaskError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails UnknownTaskError) Error() string {
	return fmt.Sprintf(unknownTaskTemplateConstant, errorDetails.TaskName)
}

// TaskFailedError names the task whose action or prerequisite failed.
type TaskFailedError struct {
	TaskName string
	Cause    error
}

// Error identifies the failing task and its cause.
func (errorDetails TaskFailedError) Error() string {
	return fmt.Sprintf(taskFailedTemplateConstant, errorDetails.TaskName, errorDetails.Cause)
}

// Unwrap exposes the underlying failure.
func (errorDetails TaskFailedError) Unwrap() error {
	return errorDetails.Cause
}

// Result reports what a single run executed.
type Result struct {
	ExecutedTaskNames []string
	StatusByTask      map[string]Status
}

// Runner executes registered tasks after their prerequisites, at most once per run.
type Runner struct {
	registry *Registry
	logger   *zap.Logger
}

// NewRunner constructs a Runner over the provided registry.
func NewRunner(registry *Registry, logger *zap.Logger) (*Runner, error) {
	if registry == nil {
		return nil, ErrRegistryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{registry: registry, logger: logger}, nil
}

type runState struct {
	statusByTask      map[string]Status
	executedTaskNames []string
}

// Run resolves the named task depth-first and executes it with its prerequisites.
//
// Prerequisites execute in declaration order; a task reachable through several
// paths executes only once. The first failure aborts the run and propagates
// without executing sibling or dependent tasks.
func (runner *Runner) Run(executionContext context.Context, taskName string) (Result, error) {
	state := &runState{statusByTask: make(map[string]Status, len(runner.registry.orderedTaskNames))}
	for _, registeredName := range runner.registry.orderedTaskNames {
		state.statusByTask[registeredName] = StatusPending
	}

	if _, exists := runner.registry.Lookup(taskName); !exists {
		return runner.resultFromState(state), UnknownTaskError{TaskName: taskName}
	}

	runError := runner.runTask(executionContext, taskName, state)
	return runner.resultFromState(state), runError
}

func (runner *Runner) runTask(executionContext context.Context, taskName string, state *runState) error {
	if state.statusByTask[taskName] == StatusCompleted {
		return nil
	}

	descriptor, _ := runner.registry.Lookup(taskName)

	state.statusByTask[taskName] = StatusPrerequisites
	for _, prerequisiteName := range descriptor.Prerequisites {
		if prerequisiteError := runner.runTask(executionContext, prerequisiteName, state); prerequisiteError != nil {
			state.statusByTask[taskName] = StatusFailed
			return prerequisiteError
		}
	}

	state.statusByTask[taskName] = StatusRunning
	runner.logger.Info(taskStartingMessageConstant,
		zap.String(taskNameFieldNameConstant, taskName),
		zap.Int(prerequisiteCountFieldNameConstant, len(descriptor.Prerequisites)),
	)

	if actionError := descriptor.Action(executionContext); actionError != nil {
		state.statusByTask[taskName] = StatusFailed
		runner.logger.Error(taskFailedMessageConstant,
			zap.String(taskNameFieldNameConstant, taskName),
			zap.Error(actionError),
		)
		return TaskFailedError{TaskName: taskName, Cause: actionError}
	}

	state.statusByTask[taskName] = StatusCompleted
	state.executedTaskNames = append(state.executedTaskNames, taskName)
	runner.logger.Info(taskCompletedMessageConstant, zap.String(taskNameFieldNameConstant, taskName))
	return nil
}

func (runner *Runner) resultFromState(state *runState) Result {
	executed := make([]string, len(state.executedTaskNames))
	copy(executed, state.executedTaskNames)
	return Result{ExecutedTaskNames: executed, StatusByTask: state.statusByTask}
}
