package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/temirov/contextify/internal/utils"
)

const (
	// SettingsFileName is the project-level application settings file.
	SettingsFileName = ".contextify.yaml"
	// GlobalSettingsFileName is the settings file inside the global configuration directory.
	GlobalSettingsFileName = "config.yaml"
)

// ApplicationConfiguration holds capture defaults that flags may
// override. Pointer fields distinguish "unset" from explicit values so
// the merge can overlay local settings onto global ones.
type ApplicationConfiguration struct {
	Output       string                     `mapstructure:"output"`
	Stats        *bool                      `mapstructure:"stats"`
	Copy         *bool                      `mapstructure:"copy"`
	Gitignore    *bool                      `mapstructure:"gitignore"`
	TokenModel   string                     `mapstructure:"token_model"`
	TokenDivisor *int                       `mapstructure:"token_divisor"`
	Blacklist    PatternSourceConfiguration `mapstructure:"blacklist"`
	Whitelist    PatternSourceConfiguration `mapstructure:"whitelist"`
}

// PatternSourceConfiguration configures one pattern list source.
type PatternSourceConfiguration struct {
	Enabled  *bool    `mapstructure:"enabled"`
	File     string   `mapstructure:"file"`
	Patterns []string `mapstructure:"patterns"`
}

// LoadOptions controls how application settings are discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// LoadApplicationConfiguration merges the global settings file under the
// home directory with the project-level one; local values win.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, GlobalConfigDirectoryName, GlobalSettingsFileName)
		globalConfiguration, loadError := loadSettingsFromPath(globalPath)
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.Merge(globalConfiguration)
	}

	localPath := options.ExplicitFilePath
	if localPath == "" {
		localPath = filepath.Join(workingDirectory, SettingsFileName)
	} else if !filepath.IsAbs(localPath) {
		localPath = filepath.Join(workingDirectory, localPath)
	}
	localConfiguration, loadError := loadSettingsFromPath(localPath)
	if loadError != nil {
		return ApplicationConfiguration{}, loadError
	}
	merged = merged.Merge(localConfiguration)

	merged.Blacklist.Patterns = utils.DeduplicatePatterns(merged.Blacklist.Patterns)
	merged.Whitelist.Patterns = utils.DeduplicatePatterns(merged.Whitelist.Patterns)
	return merged, nil
}

// loadSettingsFromPath reads one settings file through viper. A missing
// file yields the zero configuration.
func loadSettingsFromPath(settingsPath string) (ApplicationConfiguration, error) {
	if settingsPath == "" {
		return ApplicationConfiguration{}, nil
	}
	fileInformation, statError := os.Stat(settingsPath)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, &ConfigurationError{Source: settingsPath, Err: statError}
	}
	if fileInformation.IsDir() {
		return ApplicationConfiguration{}, &ConfigurationError{Source: settingsPath, Err: fmt.Errorf("path is a directory")}
	}

	settingsReader := viper.New()
	settingsReader.SetConfigFile(settingsPath)
	if readError := settingsReader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, &ConfigurationError{Source: settingsPath, Err: readError}
	}
	var loadedConfiguration ApplicationConfiguration
	if decodeError := settingsReader.Unmarshal(&loadedConfiguration); decodeError != nil {
		return ApplicationConfiguration{}, &ConfigurationError{Source: settingsPath, Err: decodeError}
	}
	return loadedConfiguration, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	if override.Output != "" {
		result.Output = override.Output
	}
	if override.Stats != nil {
		result.Stats = cloneBool(override.Stats)
	}
	if override.Copy != nil {
		result.Copy = cloneBool(override.Copy)
	}
	if override.Gitignore != nil {
		result.Gitignore = cloneBool(override.Gitignore)
	}
	if override.TokenModel != "" {
		result.TokenModel = override.TokenModel
	}
	if override.TokenDivisor != nil {
		result.TokenDivisor = cloneInt(override.TokenDivisor)
	}
	result.Blacklist = result.Blacklist.merge(override.Blacklist)
	result.Whitelist = result.Whitelist.merge(override.Whitelist)
	return result
}

func (configuration PatternSourceConfiguration) merge(override PatternSourceConfiguration) PatternSourceConfiguration {
	result := configuration
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.File != "" {
		result.File = override.File
	}
	if len(override.Patterns) > 0 {
		result.Patterns = append([]string{}, utils.DeduplicatePatterns(override.Patterns)...)
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

func cloneInt(value *int) *int {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
