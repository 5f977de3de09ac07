package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/logger"
)

var buildWatch bool

// watchDebounce coalesces bursts of filesystem events into one rebuild.
const watchDebounce = 500 * time.Millisecond

var buildCmd = &cobra.Command{
	Use:   "build [corpus-dir]",
	Short: "Ingest a directory of documents into the index",
	Long: `Partitions every document in the directory, chunks the extracted
text at title boundaries, embeds each chunk, and persists the result so
questions can be answered without re-reading the corpus.

Rebuilding over an unchanged corpus is idempotent: entries are keyed by
chunk id, so the index does not grow.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVarP(&buildWatch, "watch", "w", false, "rebuild whenever the corpus directory changes")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	corpusDir := args[0]

	if err := ensureServices(); err != nil {
		return err
	}
	if builderService == nil {
		return errors.New("build service not configured")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := buildOnce(ctx, cmd, corpusDir); err != nil {
		if !buildWatch {
			return err
		}
		// In watch mode a failed first pass is not fatal: the corpus may
		// simply be empty until the user drops files in.
		cmd.PrintErrf("Build failed: %v\n", err)
	}

	if !buildWatch {
		return nil
	}
	return watchAndRebuild(ctx, cmd, corpusDir)
}

func buildOnce(ctx context.Context, cmd *cobra.Command, corpusDir string) error {
	report, err := builderService.Build(ctx, corpusDir)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoDocuments):
			return fmt.Errorf("no documents found in %s", corpusDir)
		case errors.Is(err, domain.ErrBuildInProgress):
			return errors.New("another build is already running against this index")
		}
		return err
	}

	printReport(cmd, report)
	return nil
}

func printReport(cmd *cobra.Command, report *domain.BuildReport) {
	cmd.Printf("Build %s complete\n", report.RunID)
	cmd.Printf("  Documents: %d ingested", report.Documents)
	if len(report.SkippedDocuments) > 0 {
		cmd.Printf(", %d skipped", len(report.SkippedDocuments))
	}
	cmd.Println()
	cmd.Printf("  Chunks:    %d\n", report.Chunks)
	cmd.Printf("  Indexed:   %d\n", report.Indexed)

	for _, doc := range report.SkippedDocuments {
		cmd.PrintErrf("  skipped document %s: %v\n", doc.ID, doc.Err)
	}
	for _, entry := range report.Skipped {
		cmd.PrintErrf("  skipped chunk %s: %v\n", entry.ID, entry.Err)
	}
}

// watchAndRebuild re-runs the build whenever the corpus directory changes,
// until interrupted.
func watchAndRebuild(ctx context.Context, cmd *cobra.Command, corpusDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(corpusDir); err != nil {
		return fmt.Errorf("watching %s: %w", corpusDir, err)
	}
	cmd.Printf("Watching %s for changes (Ctrl-C to stop)\n", corpusDir)

	var debounce *time.Timer
	rebuild := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("Corpus change: %s", event)
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watchDebounce, func() {
				select {
				case rebuild <- struct{}{}:
				default:
				}
			})

		case <-rebuild:
			cmd.Println("Corpus changed, rebuilding...")
			if err := buildOnce(ctx, cmd, corpusDir); err != nil {
				cmd.PrintErrf("Rebuild failed: %v\n", err)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cmd.PrintErrf("Watch error: %v\n", watchErr)
		}
	}
}
