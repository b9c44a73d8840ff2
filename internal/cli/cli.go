// Package cli provides the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/temirov/contextify/internal/aggregate"
	"github.com/temirov/contextify/internal/config"
	"github.com/temirov/contextify/internal/output"
	"github.com/temirov/contextify/internal/pattern"
	"github.com/temirov/contextify/internal/services/clipboard"
	"github.com/temirov/contextify/internal/stats"
	"github.com/temirov/contextify/internal/tokenizer"
	"github.com/temirov/contextify/internal/utils"
	"github.com/temirov/contextify/internal/walker"
)

const (
	rootUse              = "contextify [paths...]"
	rootShortDescription = "capture project structure and contents into one document"
	rootLongDescription  = `contextify walks one or more project paths, filters them through
gitignore-style blacklist and whitelist patterns, and renders the structure
and file contents into a single document for downstream tooling.`
	rootUsageExample = `  # Capture the current directory into project_contents.txt
  contextify

  # Whitelist Go and Markdown sources, print statistics
  contextify --whitelist-patterns "*.go,*.md" --stats

  # Respect .gitignore and emit the document to standard output
  contextify --gitignore --output - .`

	initUse                       = "init"
	initShortDescription          = "initialize global configuration files"
	showLocationsUse              = "show-locations"
	showLocationsShortDescription = "show the location of configuration files"

	blacklistFlagName         = "blacklist"
	whitelistFlagName         = "whitelist"
	gitignoreFlagName         = "gitignore"
	blacklistFileFlagName     = "blacklist-file"
	whitelistFileFlagName     = "whitelist-file"
	blacklistPatternsFlagName = "blacklist-patterns"
	whitelistPatternsFlagName = "whitelist-patterns"
	outputFlagName            = "output"
	statsFlagName             = "stats"
	copyFlagName              = "copy"
	modelFlagName             = "model"
	settingsFlagName          = "config"
	versionFlagName           = "version"

	blacklistFlagDescription         = "use the blacklist file (" + config.LocalBlacklistFileName + ")"
	whitelistFlagDescription         = "use the whitelist file (" + config.LocalWhitelistFileName + ")"
	gitignoreFlagDescription         = "merge " + utils.GitIgnoreFileName + " patterns into the blacklist"
	blacklistFileFlagDescription     = "custom blacklist file path"
	whitelistFileFlagDescription     = "custom whitelist file path"
	blacklistPatternsFlagDescription = "blacklist patterns (comma separated)"
	whitelistPatternsFlagDescription = "whitelist patterns (comma separated)"
	outputFlagDescription            = "output file path, or '" + output.StdoutSentinel + "' for standard output"
	statsFlagDescription             = "display statistics about the capture"
	copyFlagDescription              = "copy the rendered document to the clipboard"
	modelFlagDescription             = "tokenizer model for token estimates (empty selects the heuristic)"
	settingsFlagDescription          = "explicit settings file path"
	versionFlagDescription           = "display application version"
	versionTemplate                  = "contextify version: %s\n"

	defaultOutputFileName = "project_contents.txt"
	defaultPath           = "."

	savedMessageFormat          = "Project structure and contents saved to %s\n"
	initializedMessageFormat    = "Created %s\n"
	nothingInitializedMessage   = "Global configuration files already exist."
	locationsLocalFormat        = "Local blacklist:  %s\nLocal whitelist:  %s\nLocal settings:   %s\n"
	locationsGlobalFormat       = "Global blacklist: %s\nGlobal whitelist: %s\nGlobal settings:  %s\n"
	workingDirectoryErrorFormat = "unable to determine working directory: %w"
)

// captureOptions stores the capture command's flag values.
type captureOptions struct {
	useBlacklistFile  bool
	useWhitelistFile  bool
	useGitignore      bool
	blacklistFilePath string
	whitelistFilePath string
	blacklistInline   string
	whitelistInline   string
	outputPath        string
	showStats         bool
	copyToClipboard   bool
	tokenModel        string
	settingsFilePath  string
}

// Execute runs the contextify application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command and its subcommands.
func createRootCommand() *cobra.Command {
	var showVersion bool
	var options captureOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if len(arguments) == 0 {
				arguments = []string{defaultPath}
			}
			return runCapture(command, arguments, options)
		},
	}

	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootFlags := rootCommand.Flags()
	rootFlags.BoolVar(&options.useBlacklistFile, blacklistFlagName, false, blacklistFlagDescription)
	rootFlags.BoolVar(&options.useWhitelistFile, whitelistFlagName, false, whitelistFlagDescription)
	rootFlags.BoolVar(&options.useGitignore, gitignoreFlagName, false, gitignoreFlagDescription)
	rootFlags.StringVar(&options.blacklistFilePath, blacklistFileFlagName, "", blacklistFileFlagDescription)
	rootFlags.StringVar(&options.whitelistFilePath, whitelistFileFlagName, "", whitelistFileFlagDescription)
	rootFlags.StringVar(&options.blacklistInline, blacklistPatternsFlagName, "", blacklistPatternsFlagDescription)
	rootFlags.StringVar(&options.whitelistInline, whitelistPatternsFlagName, "", whitelistPatternsFlagDescription)
	rootFlags.StringVarP(&options.outputPath, outputFlagName, "o", defaultOutputFileName, outputFlagDescription)
	rootFlags.BoolVarP(&options.showStats, statsFlagName, "s", false, statsFlagDescription)
	rootFlags.BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	rootFlags.StringVar(&options.tokenModel, modelFlagName, "", modelFlagDescription)
	rootFlags.StringVar(&options.settingsFilePath, settingsFlagName, "", settingsFlagDescription)

	rootCommand.AddCommand(
		createInitCommand(),
		createShowLocationsCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createInitCommand returns the init subcommand.
func createInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
			}
			createdPaths, initializeError := config.InitializeGlobalFiles(workingDirectory)
			if initializeError != nil {
				return initializeError
			}
			if len(createdPaths) == 0 {
				fmt.Fprintln(command.OutOrStdout(), nothingInitializedMessage)
				return nil
			}
			for _, createdPath := range createdPaths {
				fmt.Fprintf(command.OutOrStdout(), initializedMessageFormat, createdPath)
			}
			return nil
		},
	}
}

// createShowLocationsCommand returns the show-locations subcommand.
func createShowLocationsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   showLocationsUse,
		Short: showLocationsShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			workingDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
			}
			resolvedLocations, locationsError := config.ResolveLocations(workingDirectory)
			if locationsError != nil {
				return locationsError
			}
			fmt.Fprintf(command.OutOrStdout(), locationsLocalFormat,
				resolvedLocations.LocalBlacklist, resolvedLocations.LocalWhitelist, resolvedLocations.LocalSettings)
			fmt.Fprintf(command.OutOrStdout(), locationsGlobalFormat,
				resolvedLocations.GlobalBlacklist, resolvedLocations.GlobalWhitelist, resolvedLocations.GlobalSettings)
			return nil
		},
	}
}

// runCapture executes the capture: configuration, filtering, traversal,
// aggregation, and delivery.
func runCapture(command *cobra.Command, inputPaths []string, options captureOptions) error {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFormat, workingDirectoryError)
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
		ExplicitFilePath: options.settingsFilePath,
	})
	if configurationError != nil {
		return configurationError
	}
	options = applyConfiguredDefaults(command, options, applicationConfiguration)

	pathFilter, filterError := buildFilter(workingDirectory, options, applicationConfiguration)
	if filterError != nil {
		return filterError
	}

	documentSink, sinkError := resolveSink(command, options.outputPath)
	if sinkError != nil {
		return sinkError
	}

	tokenDivisor := 0
	if applicationConfiguration.TokenDivisor != nil {
		tokenDivisor = *applicationConfiguration.TokenDivisor
	}
	tokenCounter, resolvedModelName, counterError := tokenizer.NewCounter(tokenizer.Config{
		Model:            options.tokenModel,
		HeuristicDivisor: tokenDivisor,
	})
	if counterError != nil {
		return counterError
	}

	collector := stats.NewCollector()
	collector.SetTokenModel(resolvedModelName)

	snapshot, walkError := walker.Walk(walker.Options{
		Roots:               inputPaths,
		Filter:              pathFilter,
		ExcludeAbsolutePath: documentSink.AbsolutePath(),
	})
	if walkError != nil {
		return walkError
	}

	contentBlocks, aggregateError := aggregate.ReadBlocks(context.Background(), snapshot, collector, aggregate.Options{
		TokenCounter: tokenCounter,
	})
	if aggregateError != nil {
		return aggregateError
	}
	collector.SetExcludedFiles(snapshot.ExcludedCount)
	statistics := collector.Finalize()

	document := aggregate.RenderDocument(snapshot, contentBlocks)
	if writeError := documentSink.Write(document); writeError != nil {
		return writeError
	}
	if documentSink.AbsolutePath() != "" {
		displayDestination := utils.RelativePathOrSelf(documentSink.AbsolutePath(), workingDirectory)
		fmt.Fprintf(command.OutOrStdout(), savedMessageFormat, displayDestination)
	}

	if options.copyToClipboard {
		if copyError := clipboard.NewService().Copy(document); copyError != nil {
			return copyError
		}
	}

	if options.showStats {
		summaryDestination := command.OutOrStdout()
		if documentSink.AbsolutePath() == "" {
			summaryDestination = command.ErrOrStderr()
		}
		stats.WriteSummary(summaryDestination, statistics)
	}
	return nil
}

// applyConfiguredDefaults overlays settings-file defaults onto flags the
// user did not set explicitly.
func applyConfiguredDefaults(command *cobra.Command, options captureOptions, configuration config.ApplicationConfiguration) captureOptions {
	flags := command.Flags()
	if !flags.Changed(outputFlagName) && configuration.Output != "" {
		options.outputPath = configuration.Output
	}
	if !flags.Changed(statsFlagName) && configuration.Stats != nil {
		options.showStats = *configuration.Stats
	}
	if !flags.Changed(copyFlagName) && configuration.Copy != nil {
		options.copyToClipboard = *configuration.Copy
	}
	if !flags.Changed(gitignoreFlagName) && configuration.Gitignore != nil {
		options.useGitignore = *configuration.Gitignore
	}
	if !flags.Changed(modelFlagName) && configuration.TokenModel != "" {
		options.tokenModel = configuration.TokenModel
	}
	if !flags.Changed(blacklistFlagName) && configuration.Blacklist.Enabled != nil {
		options.useBlacklistFile = *configuration.Blacklist.Enabled
	}
	if !flags.Changed(whitelistFlagName) && configuration.Whitelist.Enabled != nil {
		options.useWhitelistFile = *configuration.Whitelist.Enabled
	}
	if !flags.Changed(blacklistFileFlagName) && configuration.Blacklist.File != "" {
		options.blacklistFilePath = configuration.Blacklist.File
	}
	if !flags.Changed(whitelistFileFlagName) && configuration.Whitelist.File != "" {
		options.whitelistFilePath = configuration.Whitelist.File
	}
	return options
}

// buildFilter assembles the blacklist and whitelist sets from every
// configured source. Within the blacklist, settings-file patterns come
// first, then list-file patterns, then inline flag patterns; .gitignore
// patterns are appended after all explicit ones.
func buildFilter(workingDirectory string, options captureOptions, configuration config.ApplicationConfiguration) (pattern.Filter, error) {
	blacklistRaw := append([]string{}, configuration.Blacklist.Patterns...)
	whitelistRaw := append([]string{}, configuration.Whitelist.Patterns...)

	blacklistFromFile, blacklistFileError := loadListPatterns(
		workingDirectory, options.useBlacklistFile, options.blacklistFilePath,
		config.LocalBlacklistFileName, config.GlobalBlacklistFileName)
	if blacklistFileError != nil {
		return pattern.Filter{}, blacklistFileError
	}
	blacklistRaw = append(blacklistRaw, blacklistFromFile...)
	blacklistRaw = append(blacklistRaw, config.ParseInlinePatterns(options.blacklistInline)...)

	if options.useGitignore {
		gitignorePatterns, gitignoreError := config.LoadGitIgnorePatterns(workingDirectory)
		if gitignoreError != nil {
			return pattern.Filter{}, gitignoreError
		}
		blacklistRaw = append(blacklistRaw, gitignorePatterns...)
	}

	whitelistFromFile, whitelistFileError := loadListPatterns(
		workingDirectory, options.useWhitelistFile, options.whitelistFilePath,
		config.LocalWhitelistFileName, config.GlobalWhitelistFileName)
	if whitelistFileError != nil {
		return pattern.Filter{}, whitelistFileError
	}
	whitelistRaw = append(whitelistRaw, whitelistFromFile...)
	whitelistRaw = append(whitelistRaw, config.ParseInlinePatterns(options.whitelistInline)...)

	blacklistSet, blacklistError := pattern.Compile(utils.DeduplicatePatternsKeepingLast(blacklistRaw))
	if blacklistError != nil {
		return pattern.Filter{}, blacklistError
	}
	whitelistSet, whitelistError := pattern.Compile(utils.DeduplicatePatternsKeepingLast(whitelistRaw))
	if whitelistError != nil {
		return pattern.Filter{}, whitelistError
	}
	return pattern.Filter{Blacklist: blacklistSet, Whitelist: whitelistSet}, nil
}

// loadListPatterns loads a pattern list file when the source is enabled.
// An explicitly named file must exist; the resolved default location may
// be absent.
func loadListPatterns(workingDirectory string, enabled bool, explicitPath string, localFileName string, globalFileName string) ([]string, error) {
	if !enabled && explicitPath == "" {
		return nil, nil
	}
	resolvedPath := config.ResolveListFilePath(explicitPath, workingDirectory, localFileName, globalFileName)
	if explicitPath != "" {
		return config.LoadPatternListFile(resolvedPath)
	}
	return config.LoadOptionalPatternListFile(resolvedPath)
}

// resolveSink turns the output flag into a destination sink.
func resolveSink(command *cobra.Command, outputPath string) (*output.Sink, error) {
	if outputPath == output.StdoutSentinel || outputPath == "" {
		return output.NewStreamSink(command.OutOrStdout()), nil
	}
	return output.NewFileSink(outputPath)
}
