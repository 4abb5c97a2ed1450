package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	embeddedConfigurationReadErrorTemplateConstant = "unable to read embedded configuration: %w"
	configurationFileReadErrorTemplateConstant     = "unable to read configuration file %s: %w"
	configurationUnmarshalErrorTemplateConstant    = "unable to decode configuration: %w"
	environmentKeySeparatorConstant                = "."
	environmentKeyReplacementConstant              = "_"
)

// LoadedConfiguration reports metadata about the configuration sources that were applied.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers embedded defaults, configuration files, and environment variables.
//
// Precedence from lowest to highest: default values, embedded configuration,
// configuration file (explicit path or first match on the search paths), and
// environment variables carrying the configured prefix.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// NewConfigurationLoader constructs a loader for the named configuration.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       searchPaths,
	}
}

// SetEmbeddedConfiguration registers embedded default configuration content.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(content []byte, configurationType string) {
	loader.embeddedConfiguration = content
	loader.embeddedConfigurationType = configurationType
}

// LoadConfiguration merges every configured source and decodes the result into target.
func (loader *ConfigurationLoader) LoadConfiguration(explicitFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	viperInstance := viper.New()
	viperInstance.SetConfigName(loader.configurationName)
	viperInstance.SetConfigType(loader.configurationType)

	for defaultKey, defaultValue := range defaultValues {
		viperInstance.SetDefault(defaultKey, defaultValue)
	}

	if len(loader.embeddedConfiguration) > 0 {
		embeddedType := loader.embeddedConfigurationType
		if len(embeddedType) == 0 {
			embeddedType = loader.configurationType
		}
		viperInstance.SetConfigType(embeddedType)
		if readError := viperInstance.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationReadErrorTemplateConstant, readError)
		}
		viperInstance.SetConfigType(loader.configurationType)
	}

	configurationFileUsed := ""
	trimmedExplicitPath := strings.TrimSpace(explicitFilePath)
	if len(trimmedExplicitPath) > 0 {
		viperInstance.SetConfigFile(trimmedExplicitPath)
		if mergeError := viperInstance.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationFileReadErrorTemplateConstant, trimmedExplicitPath, mergeError)
		}
		configurationFileUsed = trimmedExplicitPath
	} else if len(loader.searchPaths) > 0 {
		for _, searchPath := range loader.searchPaths {
			trimmedSearchPath := strings.TrimSpace(searchPath)
			if len(trimmedSearchPath) == 0 {
				continue
			}
			viperInstance.AddConfigPath(trimmedSearchPath)
		}

		mergeError := viperInstance.MergeInConfig()
		if mergeError != nil {
			var configFileNotFoundError viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &configFileNotFoundError) {
				return LoadedConfiguration{}, fmt.Errorf(configurationFileReadErrorTemplateConstant, loader.configurationName, mergeError)
			}
		} else {
			configurationFileUsed = viperInstance.ConfigFileUsed()
		}
	}

	if len(loader.environmentPrefix) > 0 {
		viperInstance.SetEnvPrefix(loader.environmentPrefix)
		viperInstance.SetEnvKeyReplacer(strings.NewReplacer(environmentKeySeparatorConstant, environmentKeyReplacementConstant))
		viperInstance.AutomaticEnv()
	}

	if target != nil {
		if unmarshalError := viperInstance.Unmarshal(target); unmarshalError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, unmarshalError)
		}
	}

	return LoadedConfiguration{ConfigFileUsed: configurationFileUsed}, nil
}
