package lifecycle

import "strings"

const (
	// DefaultProjectName names the staging directory and the distribution archive.
	DefaultProjectName = "KMeans"

	defaultBuildDirectoryNameConstant = "build"
	defaultCacheDirectoryNameConstant = "__pycache__"
	defaultSetupScriptNameConstant    = "setup.py"
	archiveSuffixConstant             = ".zip"
	backupArchiveSuffixConstant       = "-old.zip"
)

func defaultScratchPatterns() []string {
	return []string{"*~", "#*#", ".#*", "*.bak"}
}

func defaultBytecodePatterns() []string {
	return []string{"*.pyc", "*.pyo"}
}

func defaultManifest() []string {
	return []string{"KMeans.py", "Makefile", "setup.py"}
}

// CleanConfiguration controls scratch file removal.
type CleanConfiguration struct {
	WorkingDirectory string   `mapstructure:"working_directory"`
	ScratchPatterns  []string `mapstructure:"scratch_patterns"`
}

// Sanitize fills unset fields with defaults.
func (configuration CleanConfiguration) Sanitize() CleanConfiguration {
	sanitized := configuration
	sanitized.WorkingDirectory = sanitizeWorkingDirectory(configuration.WorkingDirectory)
	if len(sanitized.ScratchPatterns) == 0 {
		sanitized.ScratchPatterns = defaultScratchPatterns()
	}
	return sanitized
}

// InstallConfiguration controls the installation collaborator invocation.
type InstallConfiguration struct {
	WorkingDirectory string `mapstructure:"working_directory"`
	SetupScriptName  string `mapstructure:"setup_script"`
}

// Sanitize fills unset fields with defaults.
func (configuration InstallConfiguration) Sanitize() InstallConfiguration {
	sanitized := configuration
	sanitized.WorkingDirectory = sanitizeWorkingDirectory(configuration.WorkingDirectory)
	if len(strings.TrimSpace(sanitized.SetupScriptName)) == 0 {
		sanitized.SetupScriptName = defaultSetupScriptNameConstant
	}
	return sanitized
}

// DistcleanConfiguration controls build output removal.
type DistcleanConfiguration struct {
	WorkingDirectory   string   `mapstructure:"working_directory"`
	BuildDirectoryName string   `mapstructure:"build_directory"`
	CacheDirectoryName string   `mapstructure:"cache_directory"`
	BytecodePatterns   []string `mapstructure:"bytecode_patterns"`
}

// Sanitize fills unset fields with defaults.
func (configuration DistcleanConfiguration) Sanitize() DistcleanConfiguration {
	sanitized := configuration
	sanitized.WorkingDirectory = sanitizeWorkingDirectory(configuration.WorkingDirectory)
	if len(strings.TrimSpace(sanitized.BuildDirectoryName)) == 0 {
		sanitized.BuildDirectoryName = defaultBuildDirectoryNameConstant
	}
	if len(strings.TrimSpace(sanitized.CacheDirectoryName)) == 0 {
		sanitized.CacheDirectoryName = defaultCacheDirectoryNameConstant
	}
	if len(sanitized.BytecodePatterns) == 0 {
		sanitized.BytecodePatterns = defaultBytecodePatterns()
	}
	return sanitized
}

// DistConfiguration controls distribution staging and packaging.
type DistConfiguration struct {
	WorkingDirectory string   `mapstructure:"working_directory"`
	ProjectName      string   `mapstructure:"project_name"`
	Manifest         []string `mapstructure:"manifest"`
}

// Sanitize fills unset fields with defaults.
func (configuration DistConfiguration) Sanitize() DistConfiguration {
	sanitized := configuration
	sanitized.WorkingDirectory = sanitizeWorkingDirectory(configuration.WorkingDirectory)
	if len(strings.TrimSpace(sanitized.ProjectName)) == 0 {
		sanitized.ProjectName = DefaultProjectName
	}
	if len(sanitized.Manifest) == 0 {
		sanitized.Manifest = defaultManifest()
	}
	return sanitized
}

// ArchiveFileName returns the distribution archive name for the configured project.
func (configuration DistConfiguration) ArchiveFileName() string {
	return configuration.ProjectName + archiveSuffixConstant
}

// BackupArchiveFileName returns the single-generation backup archive name.
func (configuration DistConfiguration) BackupArchiveFileName() string {
	return configuration.ProjectName + backupArchiveSuffixConstant
}

func sanitizeWorkingDirectory(workingDirectory string) string {
	trimmed := strings.TrimSpace(workingDirectory)
	if len(trimmed) == 0 {
		return "."
	}
	return trimmed
}
