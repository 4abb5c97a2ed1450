package lifecycle_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/creachadair/kmeans/internal/lifecycle"
)

func createWorkspaceDirectory(testInstance *testing.T, workingDirectory string, directoryName string) {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Join(workingDirectory, directoryName), 0o755))
}

func TestDistcleanServiceRemovesBuildOutputs(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	createWorkspaceDirectory(testInstance, workingDirectory, "build")
	writeWorkspaceFile(testInstance, workingDirectory, filepath.Join("build", "lib.py"), "compiled")
	createWorkspaceDirectory(testInstance, workingDirectory, "__pycache__")
	writeWorkspaceFile(testInstance, workingDirectory, "module.pyc", "bytecode")
	writeWorkspaceFile(testInstance, workingDirectory, "module.pyo", "bytecode")
	writeWorkspaceFile(testInstance, workingDirectory, "module.py", "source")

	service := lifecycle.NewDistcleanService(lifecycle.DistcleanConfiguration{WorkingDirectory: workingDirectory}, nil)

	require.NoError(testInstance, service.Execute(context.Background()))
	require.ElementsMatch(testInstance, []string{"module.py"}, workspaceFileNames(testInstance, workingDirectory))
}

func TestDistcleanServiceIsIdempotentOnPristineTree(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	writeWorkspaceFile(testInstance, workingDirectory, "module.py", "source")

	service := lifecycle.NewDistcleanService(lifecycle.DistcleanConfiguration{WorkingDirectory: workingDirectory}, nil)

	require.NoError(testInstance, service.Execute(context.Background()))
	require.NoError(testInstance, service.Execute(context.Background()))
	require.ElementsMatch(testInstance, []string{"module.py"}, workspaceFileNames(testInstance, workingDirectory))
}

func TestDistcleanServiceHonorsConfiguredDirectories(testInstance *testing.T) {
	workingDirectory := testInstance.TempDir()
	createWorkspaceDirectory(testInstance, workingDirectory, "out")
	createWorkspaceDirectory(testInstance, workingDirectory, "build")

	service := lifecycle.NewDistcleanService(lifecycle.DistcleanConfiguration{
		WorkingDirectory:   workingDirectory,
		BuildDirectoryName: "out",
		CacheDirectoryName: "cache",
	}, nil)

	require.NoError(testInstance, service.Execute(context.Background()))
	require.ElementsMatch(testInstance, []string{"build"}, workspaceFileNames(testInstance, workingDirectory))
}
