// Package cli implements the docquery command-line interface.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/archivist-labs/docquery-cli/internal/core/ports/driving"
	"github.com/archivist-labs/docquery-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services bundles the use-case entry points the commands depend on.
type Services struct {
	Builder  driving.CorpusBuilder
	Answerer driving.QuestionAnswerer
	Index    driving.IndexManager
}

// ServiceFactory constructs the services after flags are parsed, so the
// --config flag can influence wiring.
type ServiceFactory func(configDir string) (*Services, error)

var (
	serviceFactory ServiceFactory

	builderService driving.CorpusBuilder
	answerService  driving.QuestionAnswerer
	indexManager   driving.IndexManager
)

// Persistent flags.
var (
	verbose   bool
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "docquery",
	Short: "Build a searchable index of your documents and ask questions against it",
	Long: `docquery ingests a directory of documents, splits them into
title-bounded chunks, embeds the chunks, and answers natural-language
questions from the most relevant passages with source citations.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "config directory (default ~/.docquery)")
}

// SetServiceFactory registers deferred service construction. Called from
// main before Execute.
func SetServiceFactory(f ServiceFactory) {
	serviceFactory = f
}

// SetServices injects pre-built services directly, bypassing the factory.
func SetServices(s *Services) {
	builderService = s.Builder
	answerService = s.Answerer
	indexManager = s.Index
}

// ensureServices wires the services on first use. Commands that touch no
// service (version, help) never trigger wiring.
func ensureServices() error {
	if builderService != nil || answerService != nil || indexManager != nil {
		return nil
	}
	if serviceFactory == nil {
		return errors.New("services not configured")
	}
	svcs, err := serviceFactory(configDir)
	if err != nil {
		return err
	}
	SetServices(svcs)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
