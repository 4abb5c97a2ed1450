package tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	integrationUnexpectedSuccessMessageConstant = "command succeeded unexpectedly"
	integrationUnexpectedSuccessFormatConstant  = "%s\n%s"
	integrationCommandFailureFormatConstant     = "command failed: %v\n%s"
	pathEnvironmentVariableNameConstant         = "PATH"
	environmentAssignmentSeparatorConstant      = "="
	stubExecutablePermissionConstant            = 0o755
	pythonStubFileNameConstant                  = "python"
	zipStubFileNameConstant                     = "zip"
	pythonInvocationMarkerFileNameConstant      = "python-invoked.txt"
)

// pythonStubScript records its invocation in the working directory so tests can
// observe that installation was delegated.
const pythonStubScript = `#!/bin/sh
printf '%s\n' "$@" > ` + pythonInvocationMarkerFileNameConstant + `
`

// zipStubScript imitates the archiving utility: it creates the first
// non-flag argument as the archive file in the current directory.
const zipStubScript = `#!/bin/sh
for argument in "$@"; do
  case "$argument" in
    -*) ;;
    *)
      printf 'archive' > "$argument"
      exit 0
      ;;
  esac
done
exit 1
`

type integrationCommandOptions struct {
	PathVariable         string
	EnvironmentOverrides map[string]string
}

func runIntegrationCommand(testInstance *testing.T, repositoryRoot string, options integrationCommandOptions, timeout time.Duration, arguments []string) string {
	testInstance.Helper()
	outputText, commandError := executeIntegrationCommand(testInstance, repositoryRoot, options, timeout, arguments)
	if commandError != nil {
		testInstance.Fatalf(integrationCommandFailureFormatConstant, commandError, outputText)
	}
	return outputText
}

func runFailingIntegrationCommand(testInstance *testing.T, repositoryRoot string, options integrationCommandOptions, timeout time.Duration, arguments []string) (string, error) {
	testInstance.Helper()
	outputText, commandError := executeIntegrationCommand(testInstance, repositoryRoot, options, timeout, arguments)
	if commandError == nil {
		testInstance.Fatalf(integrationUnexpectedSuccessFormatConstant, integrationUnexpectedSuccessMessageConstant, outputText)
	}
	return outputText, commandError
}

func executeIntegrationCommand(testInstance *testing.T, repositoryRoot string, options integrationCommandOptions, timeout time.Duration, arguments []string) (string, error) {
	testInstance.Helper()
	executionContext, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	command := exec.CommandContext(executionContext, "go", arguments...)
	command.Dir = repositoryRoot
	command.Env = buildCommandEnvironment(options)

	outputBytes, runError := command.CombinedOutput()
	outputText := string(outputBytes)
	return outputText, runError
}

func buildCommandEnvironment(options integrationCommandOptions) []string {
	environmentAssignments := append([]string{}, os.Environ()...)
	environmentValues := make(map[string]string, len(environmentAssignments))
	for _, assignment := range environmentAssignments {
		separatorIndex := strings.Index(assignment, environmentAssignmentSeparatorConstant)
		if separatorIndex <= 0 {
			continue
		}
		name := assignment[:separatorIndex]
		value := assignment[separatorIndex+len(environmentAssignmentSeparatorConstant):]
		environmentValues[name] = value
	}

	if len(options.PathVariable) > 0 {
		environmentValues[pathEnvironmentVariableNameConstant] = options.PathVariable
	}

	for variableName, variableValue := range options.EnvironmentOverrides {
		environmentValues[variableName] = variableValue
	}

	environmentNames := make([]string, 0, len(environmentValues))
	for variableName := range environmentValues {
		environmentNames = append(environmentNames, variableName)
	}
	sort.Strings(environmentNames)

	mergedEnvironment := make([]string, 0, len(environmentNames))
	for _, variableName := range environmentNames {
		mergedEnvironment = append(mergedEnvironment, variableName+environmentAssignmentSeparatorConstant+environmentValues[variableName])
	}

	return mergedEnvironment
}

// installCollaboratorStubs writes fake python and zip executables into a fresh
// directory and returns a PATH value that resolves them first.
func installCollaboratorStubs(testInstance *testing.T) string {
	testInstance.Helper()

	stubDirectory := testInstance.TempDir()
	require.NoError(testInstance, os.WriteFile(filepath.Join(stubDirectory, pythonStubFileNameConstant), []byte(pythonStubScript), stubExecutablePermissionConstant))
	require.NoError(testInstance, os.WriteFile(filepath.Join(stubDirectory, zipStubFileNameConstant), []byte(zipStubScript), stubExecutablePermissionConstant))

	return stubDirectory + string(os.PathListSeparator) + os.Getenv(pathEnvironmentVariableNameConstant)
}
