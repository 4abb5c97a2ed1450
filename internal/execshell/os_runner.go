package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

const startFailureTemplateConstant = "unable to start %s: %w"

// OSCommandRunner executes shell commands against the host operating system.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs an operating system backed command runner.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes the command, capturing standard output, standard error, and the exit code.
//
// A non-zero exit status is reported through ExecutionResult.ExitCode with a nil
// error; only failures to launch the process surface as errors.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executableCommand := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	executableCommand.Dir = command.Details.WorkingDirectory

	if len(command.Details.EnvironmentVariables) > 0 {
		environment := os.Environ()
		for variableName, variableValue := range command.Details.EnvironmentVariables {
			environment = append(environment, fmt.Sprintf("%s=%s", variableName, variableValue))
		}
		executableCommand.Env = environment
	}

	var standardOutputBuffer bytes.Buffer
	var standardErrorBuffer bytes.Buffer
	executableCommand.Stdout = &standardOutputBuffer
	executableCommand.Stderr = &standardErrorBuffer

	runError := executableCommand.Run()

	executionResult := ExecutionResult{
		StandardOutput: standardOutputBuffer.String(),
		StandardError:  standardErrorBuffer.String(),
	}

	if runError != nil {
		var exitError *exec.ExitError
		if errors.As(runError, &exitError) {
			executionResult.ExitCode = exitError.ExitCode()
			return executionResult, nil
		}
		return ExecutionResult{}, fmt.Errorf(startFailureTemplateConstant, command.Name, runError)
	}

	executionResult.ExitCode = executableCommand.ProcessState.ExitCode()
	return executionResult, nil
}
