package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/creachadair/kmeans/internal/execshell"
)

const (
	archiverNotConfiguredMessageConstant      = "archiving collaborator not configured"
	staleStagingRemoveFailureTemplateConstant = "unable to remove stale staging directory %s: %w"
	archiveInspectFailureTemplateConstant     = "unable to inspect archive %s: %w"
	archiveRotateFailureTemplateConstant      = "unable to rotate archive %s: %w"
	stagingCreateFailureTemplateConstant      = "unable to create staging directory %s: %w"
	stagingRemoveFailureTemplateConstant      = "unable to remove staging directory %s: %w"
	artifactCopyFailureTemplateConstant       = "unable to stage artifact %s: %w"
	archiveRotatedMessageConstant             = "existing archive rotated to backup slot"
	artifactsStagedMessageConstant            = "artifacts staged"
	archiveCreatedMessageConstant             = "distribution archive created"
	archiveFieldNameConstant                  = "archive"
	backupArchiveFieldNameConstant            = "backup_archive"
	stagedCountFieldNameConstant              = "staged_count"
	zipMaximumCompressionFlagConstant         = "-9"
	zipRecursiveFlagConstant                  = "-r"
	zipQuietFlagConstant                      = "-q"
	stagingDirectoryPermissionConstant        = 0o755
	stagedArtifactFilePermissionConstant      = 0o644
)

// ErrArchiverNotConfigured indicates the archiving collaborator dependency was missing.
var ErrArchiverNotConfigured = errors.New(archiverNotConfiguredMessageConstant)

// ArchiveExecutor produces compressed archives through the external archiving utility.
type ArchiveExecutor interface {
	ExecuteZip(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// DistService stages the artifact manifest and packages it into the distribution archive.
type DistService struct {
	configuration DistConfiguration
	archiver      ArchiveExecutor
	logger        *zap.Logger
}

// NewDistService constructs a DistService.
func NewDistService(configuration DistConfiguration, archiver ArchiveExecutor, logger *zap.Logger) (*DistService, error) {
	if archiver == nil {
		return nil, ErrArchiverNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DistService{configuration: configuration.Sanitize(), archiver: archiver, logger: logger}, nil
}

// Execute produces the distribution archive in strict order: defensive removal
// of stale staging state, rotation of any existing archive into the backup
// slot, staging of the manifest, packaging, and unconditional staging removal.
func (service *DistService) Execute(executionContext context.Context) error {
	stagingDirectoryPath := service.stagingDirectoryPath()
	if removeError := os.RemoveAll(stagingDirectoryPath); removeError != nil {
		return fmt.Errorf(staleStagingRemoveFailureTemplateConstant, stagingDirectoryPath, removeError)
	}

	if rotateError := service.rotateArchive(); rotateError != nil {
		return rotateError
	}

	return service.withStagingDirectory(func() error {
		if stagingError := service.stageArtifacts(stagingDirectoryPath); stagingError != nil {
			return stagingError
		}
		return service.createArchive(executionContext)
	})
}

func (service *DistService) stagingDirectoryPath() string {
	return filepath.Join(service.configuration.WorkingDirectory, service.configuration.ProjectName)
}

func (service *DistService) archivePath() string {
	return filepath.Join(service.configuration.WorkingDirectory, service.configuration.ArchiveFileName())
}

func (service *DistService) backupArchivePath() string {
	return filepath.Join(service.configuration.WorkingDirectory, service.configuration.BackupArchiveFileName())
}

// rotateArchive moves an existing archive into the backup slot, overwriting any
// previous backup. Only one backup generation is retained.
func (service *DistService) rotateArchive() error {
	archivePath := service.archivePath()
	_, statError := os.Stat(archivePath)
	if errors.Is(statError, fs.ErrNotExist) {
		return nil
	}
	if statError != nil {
		return fmt.Errorf(archiveInspectFailureTemplateConstant, archivePath, statError)
	}

	backupArchivePath := service.backupArchivePath()
	if renameError := os.Rename(archivePath, backupArchivePath); renameError != nil {
		return fmt.Errorf(archiveRotateFailureTemplateConstant, archivePath, renameError)
	}

	service.logger.Debug(archiveRotatedMessageConstant,
		zap.String(archiveFieldNameConstant, archivePath),
		zap.String(backupArchiveFieldNameConstant, backupArchivePath),
	)
	return nil
}

// withStagingDirectory creates the staging directory, runs the operation, and
// removes the directory on every exit path.
func (service *DistService) withStagingDirectory(operation func() error) error {
	stagingDirectoryPath := service.stagingDirectoryPath()
	if createError := os.Mkdir(stagingDirectoryPath, stagingDirectoryPermissionConstant); createError != nil {
		return fmt.Errorf(stagingCreateFailureTemplateConstant, stagingDirectoryPath, createError)
	}

	operationError := operation()

	removalError := os.RemoveAll(stagingDirectoryPath)
	if operationError != nil {
		return operationError
	}
	if removalError != nil {
		return fmt.Errorf(stagingRemoveFailureTemplateConstant, stagingDirectoryPath, removalError)
	}
	return nil
}

// stageArtifacts copies each manifest entry into the staging directory,
// preserving filenames only. Copies already made are left in place when a
// later entry is missing; the staging directory removal still runs.
func (service *DistService) stageArtifacts(stagingDirectoryPath string) error {
	stagedCount := 0
	for _, artifactName := range service.configuration.Manifest {
		sourcePath := filepath.Join(service.configuration.WorkingDirectory, artifactName)
		artifactContent, readError := os.ReadFile(sourcePath)
		if readError != nil {
			if errors.Is(readError, fs.ErrNotExist) {
				return MissingArtifactError{ArtifactName: artifactName}
			}
			return MissingArtifactError{ArtifactName: artifactName, Cause: readError}
		}

		destinationPath := filepath.Join(stagingDirectoryPath, filepath.Base(artifactName))
		if writeError := os.WriteFile(destinationPath, artifactContent, stagedArtifactFilePermissionConstant); writeError != nil {
			return fmt.Errorf(artifactCopyFailureTemplateConstant, artifactName, writeError)
		}
		stagedCount++
	}

	service.logger.Debug(artifactsStagedMessageConstant, zap.Int(stagedCountFieldNameConstant, stagedCount))
	return nil
}

// createArchive invokes the archiving collaborator with maximal compression.
func (service *DistService) createArchive(executionContext context.Context) error {
	_, executionError := service.archiver.ExecuteZip(executionContext, execshell.CommandDetails{
		Arguments: []string{
			zipMaximumCompressionFlagConstant,
			zipRecursiveFlagConstant,
			zipQuietFlagConstant,
			service.configuration.ArchiveFileName(),
			service.configuration.ProjectName,
		},
		WorkingDirectory: service.configuration.WorkingDirectory,
	})
	if executionError != nil {
		return PackagingError{Cause: executionError}
	}

	service.logger.Info(archiveCreatedMessageConstant, zap.String(archiveFieldNameConstant, service.configuration.ArchiveFileName()))
	return nil
}
