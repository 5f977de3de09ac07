package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/archivist-labs/docquery-cli/internal/adapters/driving/tui"
	"github.com/archivist-labs/docquery-cli/internal/core/domain"
)

var askTopK int

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer questions from the indexed documents",
	Long: `Retrieves the chunks most relevant to the question and composes an
answer from them, with citations back to the source documents.

With a question argument, answers once and exits. Without one, starts an
interactive session: a terminal UI when attached to a terminal, or a plain
line-by-line loop when input is piped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := ensureServices(); err != nil {
		return err
	}
	if answerService == nil || indexManager == nil {
		return errors.New("ask service not configured")
	}

	ctx := context.Background()

	if err := indexManager.Open(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrIndexNotFound):
			return errors.New("no index found; run 'docquery build <corpus-dir>' first")
		case errors.Is(err, domain.ErrModelMismatch):
			return fmt.Errorf("%v\nrebuild the index or restore the embedding model it was built with", err)
		}
		return err
	}
	defer indexManager.Close()

	if len(args) == 1 {
		return askOnce(ctx, cmd, args[0])
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return askInteractive(ctx)
	}
	return askLoop(ctx, cmd)
}

// askOnce answers one question and prints the result.
func askOnce(ctx context.Context, cmd *cobra.Command, question string) error {
	answer, err := answerService.Ask(ctx, question, askTopK)
	if err != nil {
		return err
	}
	printAnswer(cmd, answer)
	return nil
}

// askInteractive runs the terminal UI session.
func askInteractive(ctx context.Context) error {
	count, err := indexManager.Count(ctx)
	if err != nil {
		return err
	}

	model := tui.New(answerService, askTopK, count)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// askLoop reads questions line by line from stdin. Used when input is
// piped, e.g. docquery ask < questions.txt.
func askLoop(ctx context.Context, cmd *cobra.Command) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		answer, err := answerService.Ask(ctx, question, askTopK)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			continue
		}
		cmd.Printf("Q: %s\n", question)
		printAnswer(cmd, answer)
		cmd.Println()
	}
	return scanner.Err()
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println(answer.Text)

	if len(answer.Citations) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, c := range answer.Citations {
		line := fmt.Sprintf("  [%d] %s", i+1, c.SourceID)
		if c.Pages != "" {
			line += fmt.Sprintf(" (p. %s)", c.Pages)
		}
		line += fmt.Sprintf("  score=%.3f", c.Score)
		cmd.Println(line)
		if c.Snippet != "" {
			cmd.Printf("      %s\n", c.Snippet)
		}
	}
}
