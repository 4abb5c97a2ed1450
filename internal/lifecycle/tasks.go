package lifecycle

import (
	"go.uber.org/zap"

	"github.com/creachadair/kmeans/internal/tasks"
)

// Fixed lifecycle task names.
const (
	TaskNameClean     = "clean"
	TaskNameInstall   = "install"
	TaskNameDistclean = "distclean"
	TaskNameDist      = "dist"
)

// TaskSetDependencies enumerates collaborators and configuration for the task graph.
type TaskSetDependencies struct {
	Logger    *zap.Logger
	Installer PythonExecutor
	Archiver  ArchiveExecutor
	Clean     CleanConfiguration
	Install   InstallConfiguration
	Distclean DistcleanConfiguration
	Dist      DistConfiguration
}

// NewTaskRegistry registers the fixed lifecycle task graph:
// clean has no prerequisites, install and distclean require clean,
// and dist requires distclean.
func NewTaskRegistry(dependencies TaskSetDependencies) (*tasks.Registry, error) {
	cleanService := NewCleanService(dependencies.Clean, dependencies.Logger)
	distcleanService := NewDistcleanService(dependencies.Distclean, dependencies.Logger)

	installService, installServiceError := NewInstallService(dependencies.Install, dependencies.Installer, dependencies.Logger)
	if installServiceError != nil {
		return nil, installServiceError
	}

	distService, distServiceError := NewDistService(dependencies.Dist, dependencies.Archiver, dependencies.Logger)
	if distServiceError != nil {
		return nil, distServiceError
	}

	return tasks.NewRegistry([]tasks.Task{
		{Name: TaskNameClean, Action: cleanService.Execute},
		{Name: TaskNameInstall, Prerequisites: []string{TaskNameClean}, Action: installService.Execute},
		{Name: TaskNameDistclean, Prerequisites: []string{TaskNameClean}, Action: distcleanService.Execute},
		{Name: TaskNameDist, Prerequisites: []string{TaskNameDistclean}, Action: distService.Execute},
	})
}
