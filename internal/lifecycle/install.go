package lifecycle

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/creachadair/kmeans/internal/execshell"
)

const (
	installerNotConfiguredMessageConstant = "installation collaborator not configured"
	installCommandArgumentConstant        = "install"
	installStartingMessageConstant        = "installing module into the active runtime"
	setupScriptFieldNameConstant          = "setup_script"
)

// ErrInstallerNotConfigured indicates the installation collaborator dependency was missing.
var ErrInstallerNotConfigured = errors.New(installerNotConfiguredMessageConstant)

// PythonExecutor runs the Python interpreter against the project's build descriptor.
type PythonExecutor interface {
	ExecutePython(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// InstallService delegates module installation to the external packaging collaborator.
type InstallService struct {
	configuration InstallConfiguration
	installer     PythonExecutor
	logger        *zap.Logger
}

// NewInstallService constructs an InstallService.
func NewInstallService(configuration InstallConfiguration, installer PythonExecutor, logger *zap.Logger) (*InstallService, error) {
	if installer == nil {
		return nil, ErrInstallerNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstallService{configuration: configuration.Sanitize(), installer: installer, logger: logger}, nil
}

// Execute runs the build descriptor's install command in the working directory.
//
// A collaborator failure surfaces as InstallError wrapping the shell error
// verbatim; there is no retry.
func (service *InstallService) Execute(executionContext context.Context) error {
	service.logger.Debug(installStartingMessageConstant, zap.String(setupScriptFieldNameConstant, service.configuration.SetupScriptName))

	_, executionError := service.installer.ExecutePython(executionContext, execshell.CommandDetails{
		Arguments:        []string{service.configuration.SetupScriptName, installCommandArgumentConstant},
		WorkingDirectory: service.configuration.WorkingDirectory,
	})
	if executionError != nil {
		return InstallError{Cause: executionError}
	}
	return nil
}
