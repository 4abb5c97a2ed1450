package cli

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/creachadair/kmeans/internal/execshell"
	"github.com/creachadair/kmeans/internal/lifecycle"
	"github.com/creachadair/kmeans/internal/tasks"
)

const (
	cleanCommandShortDescriptionConstant        = "Remove scratch files from the working tree"
	cleanCommandLongDescriptionConstant         = "clean removes editor backups, autosave files, and other scratch files from the working tree."
	installCommandShortDescriptionConstant      = "Install the module into the active Python runtime"
	installCommandLongDescriptionConstant       = "install cleans the working tree and delegates installation to the project's setup script."
	distcleanCommandShortDescriptionConstant    = "Remove build outputs and compiled artifacts"
	distcleanCommandLongDescriptionConstant     = "distclean cleans the working tree and removes the build directory, bytecode cache, and compiled files."
	distCommandShortDescriptionConstant         = "Package the distribution archive"
	distCommandLongDescriptionConstant          = "dist resets the working tree, rotates any previous archive into the backup slot, stages the release manifest, and packages it with the zip utility."
	taskConfigurationDecodeErrorMessageConstant = "unable to decode task defaults"
	taskNameLogFieldConstant                    = "task"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// LifecycleConfiguration aggregates the per-task settings resolved from the loaded configuration.
type LifecycleConfiguration struct {
	Clean     lifecycle.CleanConfiguration
	Install   lifecycle.InstallConfiguration
	Distclean lifecycle.DistcleanConfiguration
	Dist      lifecycle.DistConfiguration
}

// TaskCommandBuilder assembles the lifecycle task commands.
type TaskCommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() LifecycleConfiguration
	CommandRunnerProvider        func() execshell.CommandRunner
}

// Build constructs one Cobra command per lifecycle task.
func (builder *TaskCommandBuilder) Build() ([]*cobra.Command, error) {
	taskDescriptors := []struct {
		taskName         string
		shortDescription string
		longDescription  string
	}{
		{lifecycle.TaskNameClean, cleanCommandShortDescriptionConstant, cleanCommandLongDescriptionConstant},
		{lifecycle.TaskNameInstall, installCommandShortDescriptionConstant, installCommandLongDescriptionConstant},
		{lifecycle.TaskNameDistclean, distcleanCommandShortDescriptionConstant, distcleanCommandLongDescriptionConstant},
		{lifecycle.TaskNameDist, distCommandShortDescriptionConstant, distCommandLongDescriptionConstant},
	}

	taskCommands := make([]*cobra.Command, 0, len(taskDescriptors))
	for _, descriptor := range taskDescriptors {
		requestedTaskName := descriptor.taskName
		taskCommand := &cobra.Command{
			Use:           requestedTaskName,
			Short:         descriptor.shortDescription,
			Long:          descriptor.longDescription,
			Args:          cobra.NoArgs,
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(command *cobra.Command, arguments []string) error {
				return builder.runTask(command, requestedTaskName)
			},
		}
		taskCommands = append(taskCommands, taskCommand)
	}

	return taskCommands, nil
}

func (builder *TaskCommandBuilder) runTask(command *cobra.Command, taskName string) error {
	logger := builder.resolveLogger()

	humanReadableLogging := false
	if builder.HumanReadableLoggingProvider != nil {
		humanReadableLogging = builder.HumanReadableLoggingProvider()
	}

	var commandRunner execshell.CommandRunner
	if builder.CommandRunnerProvider != nil {
		commandRunner = builder.CommandRunnerProvider()
	}
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner, humanReadableLogging)
	if executorError != nil {
		return executorError
	}

	configuration := builder.resolveConfiguration()
	registry, registryError := lifecycle.NewTaskRegistry(lifecycle.TaskSetDependencies{
		Logger:    logger,
		Installer: shellExecutor,
		Archiver:  shellExecutor,
		Clean:     configuration.Clean,
		Install:   configuration.Install,
		Distclean: configuration.Distclean,
		Dist:      configuration.Dist,
	})
	if registryError != nil {
		return registryError
	}

	taskRunner, runnerError := tasks.NewRunner(registry, logger)
	if runnerError != nil {
		return runnerError
	}

	_, runError := taskRunner.Run(command.Context(), taskName)
	return runError
}

func (builder *TaskCommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *TaskCommandBuilder) resolveConfiguration() LifecycleConfiguration {
	if builder.ConfigurationProvider == nil {
		return LifecycleConfiguration{}
	}
	return builder.ConfigurationProvider()
}

func (application *Application) lifecycleConfiguration() LifecycleConfiguration {
	workingDirectory := application.configuration.Project.Directory
	projectName := application.configuration.Project.Name

	configuration := LifecycleConfiguration{
		Clean:     lifecycle.CleanConfiguration{WorkingDirectory: workingDirectory},
		Install:   lifecycle.InstallConfiguration{WorkingDirectory: workingDirectory},
		Distclean: lifecycle.DistcleanConfiguration{WorkingDirectory: workingDirectory},
		Dist:      lifecycle.DistConfiguration{WorkingDirectory: workingDirectory, ProjectName: projectName},
	}

	application.decodeTaskConfiguration(lifecycle.TaskNameClean, &configuration.Clean)
	application.decodeTaskConfiguration(lifecycle.TaskNameInstall, &configuration.Install)
	application.decodeTaskConfiguration(lifecycle.TaskNameDistclean, &configuration.Distclean)
	application.decodeTaskConfiguration(lifecycle.TaskNameDist, &configuration.Dist)

	// Flags and the project section always win over per-task options.
	configuration.Clean.WorkingDirectory = workingDirectory
	configuration.Install.WorkingDirectory = workingDirectory
	configuration.Distclean.WorkingDirectory = workingDirectory
	configuration.Dist.WorkingDirectory = workingDirectory
	configuration.Dist.ProjectName = projectName

	return configuration
}

func (application *Application) decodeTaskConfiguration(taskName string, target any) {
	decodeError := application.taskConfigurations.decode(taskName, target)
	if decodeError == nil {
		return
	}

	missingConfigurationError := MissingTaskConfigurationError{}
	if errors.As(decodeError, &missingConfigurationError) {
		return
	}

	if application.logger != nil {
		application.logger.Warn(
			taskConfigurationDecodeErrorMessageConstant,
			zap.String(taskNameLogFieldConstant, taskName),
			zap.Error(decodeError),
		)
	}
}
