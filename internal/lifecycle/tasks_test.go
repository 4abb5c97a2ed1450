package lifecycle_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/creachadair/kmeans/internal/execshell"
	"github.com/creachadair/kmeans/internal/lifecycle"
	"github.com/creachadair/kmeans/internal/tasks"
)

// snapshottingPythonExecutor records the working tree contents visible at the
// moment the installation collaborator runs.
type snapshottingPythonExecutor struct {
	workingDirectory string
	observedFiles    []string
	invocationCount  int
}

func (executor *snapshottingPythonExecutor) ExecutePython(_ context.Context, _ execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.invocationCount++
	entries, readError := os.ReadDir(executor.workingDirectory)
	if readError != nil {
		return execshell.ExecutionResult{}, readError
	}
	executor.observedFiles = nil
	for _, entry := range entries {
		executor.observedFiles = append(executor.observedFiles, entry.Name())
	}
	return execshell.ExecutionResult{}, nil
}

func newLifecycleRegistry(testInstance *testing.T, workingDirectory string, installer lifecycle.PythonExecutor, archiver lifecycle.ArchiveExecutor) *tasks.Registry {
	testInstance.Helper()
	registry, registryError := lifecycle.NewTaskRegistry(lifecycle.TaskSetDependencies{
		Installer: installer,
		Archiver:  archiver,
		Clean:     lifecycle.CleanConfiguration{WorkingDirectory: workingDirectory},
		Install:   lifecycle.InstallConfiguration{WorkingDirectory: workingDirectory},
		Distclean: lifecycle.DistcleanConfiguration{WorkingDirectory: workingDirectory},
		Dist:      lifecycle.DistConfiguration{WorkingDirectory: workingDirectory, Manifest: []string{"KMeans.py"}},
	})
	require.NoError(testInstance, registryError)
	return registry
}

func TestNewTaskRegistryRegistersLifecycleGraph(testInstance *testing.T) {
	registry := newLifecycleRegistry(testInstance, testInstance.TempDir(), &recordingPythonExecutor{}, &archivingStub{})

	require.Equal(testInstance, []string{
		lifecycle.TaskNameClean,
		lifecycle.TaskNameInstall,
		lifecycle.TaskNameDistclean,
		lifecycle.TaskNameDist,
	}, registry.TaskNames())
}

func TestNewTaskRegistryPropagatesMissingCollaborators(testInstance *testing.T) {
	_, missingInstallerError := lifecycle.NewTaskRegistry(lifecycle.TaskSetDependencies{Archiver: &archivingStub{}})
	require.ErrorIs(testInstance, missingInstallerError, lifecycle.ErrInstallerNotConfigured)

	_, missingArchiverError := lifecycle.NewTaskRegistry(lifecycle.TaskSetDependencies{Installer: &recordingPythonExecutor{}})
	require.ErrorIs(testInstance, missingArchiverError, lifecycle.ErrArchiverNotConfigured)
}

func TestInstallTaskCleansBeforeInstalling(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeWorkspaceFile(testInstance, workingDirectory, "KMeans.py", "source")
	writeWorkspaceFile(testInstance, workingDirectory, "KMeans.py~", "scratch")

	installer := &snapshottingPythonExecutor{workingDirectory: workingDirectory}
	registry := newLifecycleRegistry(testInstance, workingDirectory, installer, &archivingStub{})

	runner, runnerError := tasks.NewRunner(registry, nil)
	require.NoError(testInstance, runnerError)

	result, runError := runner.Run(context.Background(), lifecycle.TaskNameInstall)
	require.NoError(testInstance, runError)

	require.Equal(testInstance, []string{lifecycle.TaskNameClean, lifecycle.TaskNameInstall}, result.ExecutedTaskNames)
	require.Equal(testInstance, 1, installer.invocationCount)
	require.ElementsMatch(testInstance, []string{"KMeans.py"}, installer.observedFiles)
}

func TestDistTaskRunsFullPackagingChain(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeWorkspaceFile(testInstance, workingDirectory, "KMeans.py", "source")
	createWorkspaceDirectory(testInstance, workingDirectory, "build")
	writeWorkspaceFile(testInstance, workingDirectory, "KMeans.py~", "scratch")

	archiver := &archivingStub{}
	registry := newLifecycleRegistry(testInstance, workingDirectory, &recordingPythonExecutor{}, archiver)

	runner, runnerError := tasks.NewRunner(registry, nil)
	require.NoError(testInstance, runnerError)

	result, runError := runner.Run(context.Background(), lifecycle.TaskNameDist)
	require.NoError(testInstance, runError)

	require.Equal(testInstance, []string{
		lifecycle.TaskNameClean,
		lifecycle.TaskNameDistclean,
		lifecycle.TaskNameDist,
	}, result.ExecutedTaskNames)

	require.FileExists(testInstance, filepath.Join(workingDirectory, "KMeans.zip"))
	require.NoDirExists(testInstance, filepath.Join(workingDirectory, "build"))
	require.NoFileExists(testInstance, filepath.Join(workingDirectory, "KMeans.py~"))
}
