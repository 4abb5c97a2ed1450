package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

const (
	buildDirectoryRemoveFailureTemplateConstant = "unable to remove build directory %s: %w"
	cacheDirectoryRemoveFailureTemplateConstant = "unable to remove cache directory %s: %w"
	bytecodePatternFailureTemplateConstant      = "unable to expand bytecode pattern %q: %w"
	bytecodeRemoveFailureTemplateConstant       = "unable to remove compiled artifact %s: %w"
	buildOutputsRemovedMessageConstant          = "build outputs removed"
	buildDirectoryFieldNameConstant             = "build_directory"
)

// DistcleanService removes transient build output and compiled cache artifacts.
type DistcleanService struct {
	configuration DistcleanConfiguration
	logger        *zap.Logger
}

// NewDistcleanService constructs a DistcleanService.
func NewDistcleanService(configuration DistcleanConfiguration, logger *zap.Logger) *DistcleanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistcleanService{configuration: configuration.Sanitize(), logger: logger}
}

// Execute removes the build directory, bytecode cache, and compiled files.
//
// Running against a pristine tree is a no-op, not an error.
func (service *DistcleanService) Execute(executionContext context.Context) error {
	buildDirectoryPath := filepath.Join(service.configuration.WorkingDirectory, service.configuration.BuildDirectoryName)
	if removeError := os.RemoveAll(buildDirectoryPath); removeError != nil {
		return fmt.Errorf(buildDirectoryRemoveFailureTemplateConstant, buildDirectoryPath, removeError)
	}

	cacheDirectoryPath := filepath.Join(service.configuration.WorkingDirectory, service.configuration.CacheDirectoryName)
	if removeError := os.RemoveAll(cacheDirectoryPath); removeError != nil {
		return fmt.Errorf(cacheDirectoryRemoveFailureTemplateConstant, cacheDirectoryPath, removeError)
	}

	for _, bytecodePattern := range service.configuration.BytecodePatterns {
		matches, globError := filepath.Glob(filepath.Join(service.configuration.WorkingDirectory, bytecodePattern))
		if globError != nil {
			return fmt.Errorf(bytecodePatternFailureTemplateConstant, bytecodePattern, globError)
		}
		for _, matchedPath := range matches {
			removeError := os.Remove(matchedPath)
			if removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
				return fmt.Errorf(bytecodeRemoveFailureTemplateConstant, matchedPath, removeError)
			}
		}
	}

	service.logger.Debug(buildOutputsRemovedMessageConstant, zap.String(buildDirectoryFieldNameConstant, service.configuration.BuildDirectoryName))
	return nil
}
