package cli

import (
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"

	"github.com/creachadair/kmeans/internal/utils"
)

const (
	duplicateTaskConfigurationTemplateConstant = "duplicate configuration for task %q"
	missingTaskConfigurationTemplateConstant   = "missing configuration for task %q"
)

// DuplicateTaskConfigurationError indicates that the configuration file defines the same task multiple times.
type DuplicateTaskConfigurationError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails DuplicateTaskConfigurationError) Error() string {
	return fmt.Sprintf(duplicateTaskConfigurationTemplateConstant, errorDetails.TaskName)
}

// MissingTaskConfigurationError indicates that a referenced task configuration is absent.
type MissingTaskConfigurationError struct {
	TaskName string
}

// Error implements the error interface.
func (errorDetails MissingTaskConfigurationError) Error() string {
	return fmt.Sprintf(missingTaskConfigurationTemplateConstant, errorDetails.TaskName)
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common  ApplicationCommonConfiguration  `mapstructure:"common"`
	Project ApplicationProjectConfiguration `mapstructure:"project"`
	Tasks   []ApplicationTaskConfiguration  `mapstructure:"tasks"`
}

// ApplicationCommonConfiguration stores logging defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationProjectConfiguration stores the project identity and working tree location.
type ApplicationProjectConfiguration struct {
	Name      string `mapstructure:"name"`
	Directory string `mapstructure:"directory"`
}

// ApplicationTaskConfiguration captures reusable task defaults from the configuration file.
type ApplicationTaskConfiguration struct {
	Name    string         `mapstructure:"task"`
	Options map[string]any `mapstructure:"with"`
}

// TaskConfigurations stores reusable task defaults indexed by normalized task name.
type TaskConfigurations struct {
	entries map[string]map[string]any
}

// MergeDefaults ensures default task configurations are available when not overridden.
func (configurations TaskConfigurations) MergeDefaults(defaults TaskConfigurations) TaskConfigurations {
	if len(defaults.entries) == 0 {
		return configurations
	}
	if configurations.entries == nil {
		configurations.entries = map[string]map[string]any{}
	}
	for defaultName, defaultOptions := range defaults.entries {
		if _, exists := configurations.entries[defaultName]; exists {
			continue
		}
		copiedOptions := make(map[string]any, len(defaultOptions))
		for optionKey, optionValue := range defaultOptions {
			copiedOptions[optionKey] = optionValue
		}
		configurations.entries[defaultName] = copiedOptions
	}
	return configurations
}

func newTaskConfigurations(definitions []ApplicationTaskConfiguration) (TaskConfigurations, error) {
	entries := make(map[string]map[string]any)
	seenTasks := make(map[string]struct{})
	for definitionIndex := range definitions {
		normalizedName := normalizeTaskName(definitions[definitionIndex].Name)
		if len(normalizedName) == 0 {
			continue
		}

		if _, exists := seenTasks[normalizedName]; exists {
			return TaskConfigurations{}, DuplicateTaskConfigurationError{TaskName: normalizedName}
		}
		seenTasks[normalizedName] = struct{}{}

		options := make(map[string]any)
		for optionKey, optionValue := range definitions[definitionIndex].Options {
			options[optionKey] = optionValue
		}

		entries[normalizedName] = options
	}

	return TaskConfigurations{entries: entries}, nil
}

// Lookup returns the configuration options for the provided task name or an error if the configuration is absent.
func (configurations TaskConfigurations) Lookup(taskName string) (map[string]any, error) {
	normalizedName := normalizeTaskName(taskName)
	if len(normalizedName) == 0 {
		return nil, MissingTaskConfigurationError{TaskName: taskName}
	}

	if configurations.entries == nil {
		return nil, MissingTaskConfigurationError{TaskName: normalizedName}
	}

	options, exists := configurations.entries[normalizedName]
	if !exists {
		return nil, MissingTaskConfigurationError{TaskName: normalizedName}
	}

	duplicatedOptions := make(map[string]any, len(options))
	for optionKey, optionValue := range options {
		duplicatedOptions[optionKey] = optionValue
	}

	return duplicatedOptions, nil
}

func (configurations TaskConfigurations) decode(taskName string, target any) error {
	if target == nil {
		return nil
	}

	options, lookupError := configurations.Lookup(taskName)
	if lookupError != nil {
		return lookupError
	}

	if len(options) == 0 {
		return nil
	}

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		Result:           target,
		WeaklyTypedInput: true,
	})
	if decoderError != nil {
		return decoderError
	}

	return decoder.Decode(options)
}

func normalizeTaskName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func loadEmbeddedTaskConfigurations() TaskConfigurations {
	configurationData, configurationType := EmbeddedDefaultConfiguration()
	if len(configurationData) == 0 {
		return TaskConfigurations{}
	}

	loader := utils.NewConfigurationLoader(configurationNameConstant, configurationTypeConstant, environmentPrefixConstant, nil)
	loader.SetEmbeddedConfiguration(configurationData, configurationType)

	var configuration ApplicationConfiguration
	if _, err := loader.LoadConfiguration("", nil, &configuration); err != nil {
		return TaskConfigurations{}
	}

	embeddedConfigurations, configurationError := newTaskConfigurations(configuration.Tasks)
	if configurationError != nil {
		return TaskConfigurations{}
	}

	return embeddedConfigurations
}
