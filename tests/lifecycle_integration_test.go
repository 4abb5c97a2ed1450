package tests

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	repositoryRootConstant                = ".."
	integrationTimeoutConstant            = 3 * time.Minute
	searchPathEnvironmentVariableConstant = "KMDIST_CONFIG_SEARCH_PATH"
	archiveFileNameConstant               = "KMeans.zip"
	backupArchiveFileNameConstant         = "KMeans-old.zip"
	stagingDirectoryNameConstant          = "KMeans"
)

func createProjectWorkingTree(testInstance *testing.T) string {
	testInstance.Helper()

	workingDirectory := testInstance.TempDir()
	for fileName, content := range map[string]string{
		"KMeans.py":  "def cluster():\n    pass\n",
		"Makefile":   "install:\n",
		"setup.py":   "from distutils.core import setup\n",
		"KMeans.py~": "scratch",
	} {
		require.NoError(testInstance, os.WriteFile(filepath.Join(workingDirectory, fileName), []byte(content), 0o644))
	}
	return workingDirectory
}

func integrationOptions(testInstance *testing.T) integrationCommandOptions {
	testInstance.Helper()
	return integrationCommandOptions{
		PathVariable: installCollaboratorStubs(testInstance),
		EnvironmentOverrides: map[string]string{
			searchPathEnvironmentVariableConstant: testInstance.TempDir(),
		},
	}
}

func TestDistCommandPackagesArchive(testInstance *testing.T) {
	workingDirectory := createProjectWorkingTree(testInstance)

	runIntegrationCommand(testInstance, repositoryRootConstant, integrationOptions(testInstance), integrationTimeoutConstant,
		[]string{"run", ".", "dist", "--directory", workingDirectory})

	require.FileExists(testInstance, filepath.Join(workingDirectory, archiveFileNameConstant))
	require.NoFileExists(testInstance, filepath.Join(workingDirectory, backupArchiveFileNameConstant))
	require.NoDirExists(testInstance, filepath.Join(workingDirectory, stagingDirectoryNameConstant))
	require.NoFileExists(testInstance, filepath.Join(workingDirectory, "KMeans.py~"))
}

func TestDistCommandRotatesPreviousArchive(testInstance *testing.T) {
	workingDirectory := createProjectWorkingTree(testInstance)
	previousArchivePath := filepath.Join(workingDirectory, archiveFileNameConstant)
	require.NoError(testInstance, os.WriteFile(previousArchivePath, []byte("previous generation"), 0o644))

	runIntegrationCommand(testInstance, repositoryRootConstant, integrationOptions(testInstance), integrationTimeoutConstant,
		[]string{"run", ".", "dist", "--directory", workingDirectory})

	backupContent, readError := os.ReadFile(filepath.Join(workingDirectory, backupArchiveFileNameConstant))
	require.NoError(testInstance, readError)
	require.Equal(testInstance, "previous generation", string(backupContent))
	require.FileExists(testInstance, previousArchivePath)
}

func TestInstallCommandDelegatesToSetupScript(testInstance *testing.T) {
	workingDirectory := createProjectWorkingTree(testInstance)

	runIntegrationCommand(testInstance, repositoryRootConstant, integrationOptions(testInstance), integrationTimeoutConstant,
		[]string{"run", ".", "install", "--directory", workingDirectory})

	markerContent, readError := os.ReadFile(filepath.Join(workingDirectory, pythonInvocationMarkerFileNameConstant))
	require.NoError(testInstance, readError)
	require.Contains(testInstance, string(markerContent), "setup.py")
	require.Contains(testInstance, string(markerContent), "install")
	require.NoFileExists(testInstance, filepath.Join(workingDirectory, "KMeans.py~"))
}

func TestDistcleanCommandRemovesBuildOutputs(testInstance *testing.T) {
	workingDirectory := createProjectWorkingTree(testInstance)
	require.NoError(testInstance, os.MkdirAll(filepath.Join(workingDirectory, "build"), 0o755))
	require.NoError(testInstance, os.WriteFile(filepath.Join(workingDirectory, "KMeans.pyc"), []byte("bytecode"), 0o644))

	runIntegrationCommand(testInstance, repositoryRootConstant, integrationOptions(testInstance), integrationTimeoutConstant,
		[]string{"run", ".", "distclean", "--directory", workingDirectory})

	require.NoDirExists(testInstance, filepath.Join(workingDirectory, "build"))
	require.NoFileExists(testInstance, filepath.Join(workingDirectory, "KMeans.pyc"))
}

func TestMissingManifestEntryFailsWithoutArchive(testInstance *testing.T) {
	workingDirectory := createProjectWorkingTree(testInstance)
	require.NoError(testInstance, os.Remove(filepath.Join(workingDirectory, "setup.py")))

	outputText, _ := runFailingIntegrationCommand(testInstance, repositoryRootConstant, integrationOptions(testInstance), integrationTimeoutConstant,
		[]string{"run", ".", "dist", "--directory", workingDirectory})

	require.Contains(testInstance, outputText, "setup.py")
	require.NoFileExists(testInstance, filepath.Join(workingDirectory, archiveFileNameConstant))
	require.NoDirExists(testInstance, filepath.Join(workingDirectory, stagingDirectoryNameConstant))
}

func TestUnknownTaskFails(testInstance *testing.T) {
	outputText, _ := runFailingIntegrationCommand(testInstance, repositoryRootConstant, integrationOptions(testInstance), integrationTimeoutConstant,
		[]string{"run", ".", "package"})

	require.Contains(testInstance, outputText, "package")
}
