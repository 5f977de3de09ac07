package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	configfile "github.com/archivist-labs/docquery-cli/internal/adapters/driven/config/file"
	openaiembed "github.com/archivist-labs/docquery-cli/internal/adapters/driven/embedding/openai"
	openaillm "github.com/archivist-labs/docquery-cli/internal/adapters/driven/llm/openai"
	"github.com/archivist-labs/docquery-cli/internal/adapters/driven/parser/unstructured"
	"github.com/archivist-labs/docquery-cli/internal/adapters/driven/storage/sqlite"
	"github.com/archivist-labs/docquery-cli/internal/adapters/driving/cli"
	"github.com/archivist-labs/docquery-cli/internal/chunker"
	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/services"
)

func main() {
	// Secrets may live in a .env file next to the invocation. Absence is
	// fine; the environment itself may carry the keys.
	_ = godotenv.Load()

	cli.SetServiceFactory(buildServices)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildServices wires the adapters and core services from configuration.
func buildServices(configDir string) (*cli.Services, error) {
	cfg, err := configfile.Load(configDir)
	if err != nil {
		return nil, err
	}

	apiKey := configfile.OpenAIAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", configfile.EnvOpenAIAPIKey)
	}

	embedder, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:  apiKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}

	llm, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:  apiKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.ChatModel,
	})
	if err != nil {
		return nil, err
	}

	parser := unstructured.NewPartitionService(unstructured.Config{
		APIKey:  configfile.UnstructuredAPIKey(),
		BaseURL: cfg.Parser.BaseURL,
	})

	ch, err := chunker.New(chunker.Config{
		MaxCharacters:          cfg.Chunking.MaxCharacters,
		NewAfterNChars:         cfg.Chunking.NewAfterNChars,
		CombineTextUnderNChars: cfg.Chunking.CombineTextUnderNChars,
		OverlapChars:           cfg.Chunking.OverlapChars,
	})
	if err != nil {
		return nil, err
	}

	indexService := services.NewIndexService(sqlite.Opener{}, embedder, cfg.Index.DataDir)

	buildService, err := services.NewBuildService(
		parser,
		ch,
		indexService,
		domain.PartitionStrategy(cfg.Parser.Strategy),
		cfg.Parser.Workers,
	)
	if err != nil {
		return nil, err
	}

	answerService := services.NewAnswerServiceWithTopK(indexService, llm, cfg.Ask.TopK)

	return &cli.Services{
		Builder:  buildService,
		Answerer: answerService,
		Index:    indexService,
	}, nil
}
