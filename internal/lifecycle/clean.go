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
	scratchPatternFailureTemplateConstant = "unable to expand scratch pattern %q: %w"
	scratchRemoveFailureTemplateConstant  = "unable to remove scratch file %s: %w"
	scratchRemovedMessageConstant         = "scratch files removed"
	removedCountFieldNameConstant         = "removed_count"
)

// CleanService removes transient editor and backup files from the working tree.
type CleanService struct {
	configuration CleanConfiguration
	logger        *zap.Logger
}

// NewCleanService constructs a CleanService.
func NewCleanService(configuration CleanConfiguration, logger *zap.Logger) *CleanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CleanService{configuration: configuration.Sanitize(), logger: logger}
}

// Execute removes every file matching the configured scratch patterns.
//
// Matching nothing is success; directories matching a pattern are left in
// place, and only filesystem failures abort the run.
func (service *CleanService) Execute(executionContext context.Context) error {
	removedCount := 0
	for _, scratchPattern := range service.configuration.ScratchPatterns {
		matches, globError := filepath.Glob(filepath.Join(service.configuration.WorkingDirectory, scratchPattern))
		if globError != nil {
			return fmt.Errorf(scratchPatternFailureTemplateConstant, scratchPattern, globError)
		}
		for _, matchedPath := range matches {
			matchInfo, statError := os.Stat(matchedPath)
			if statError == nil && matchInfo.IsDir() {
				continue
			}
			removeError := os.Remove(matchedPath)
			if removeError != nil && !errors.Is(removeError, fs.ErrNotExist) {
				return fmt.Errorf(scratchRemoveFailureTemplateConstant, matchedPath, removeError)
			}
			removedCount++
		}
	}

	service.logger.Debug(scratchRemovedMessageConstant, zap.Int(removedCountFieldNameConstant, removedCount))
	return nil
}
