package main

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"clarabill/internal/config"
	"clarabill/internal/handler"
	"clarabill/internal/llm"
	"clarabill/internal/normalize"
	"clarabill/internal/ocr"
	"clarabill/internal/port"
	"clarabill/internal/refdata"
	"clarabill/internal/repository/postgres"
	"clarabill/internal/router"
	"clarabill/internal/service"
	s3storage "clarabill/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Reference data
	dict, err := refdata.LoadDictionary(cfg.Pipeline.CodeDictionaryPath)
	if err != nil {
		return fmt.Errorf("failed to load code dictionary: %w", err)
	}
	gloss, err := refdata.LoadGlossary(cfg.Pipeline.GlossaryPath)
	if err != nil {
		return fmt.Errorf("failed to load glossary: %w", err)
	}
	headers, err := normalize.NewHeaderMap(cfg.Pipeline.HeaderSynonymsPath)
	if err != nil {
		return fmt.Errorf("failed to load header synonyms: %w", err)
	}

	// Optional collaborators
	var ocrProvider port.OCRProvider
	if cfg.OCR.Enabled {
		ocrProvider = ocr.NewExtractor(cfg.OCR)
	}
	var rewriter port.SentenceRewriter
	if cfg.LLM.Enabled {
		rewriter = llm.NewClient(cfg.LLM)
	}

	// Optional persistence
	var db *sqlx.DB
	var repo port.ParseResultRepository
	if cfg.Persist.Results {
		db, err = postgres.NewDB(&cfg.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()
		repo = postgres.NewParseResultRepo(db)
	}
	var storage port.ObjectStorage
	if cfg.Persist.Uploads {
		storage, err = s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
	}

	// Pipeline service
	parseSvc, err := service.NewParseService(cfg, dict, gloss, headers, ocrProvider, rewriter, repo)
	if err != nil {
		return fmt.Errorf("failed to build parse pipeline: %w", err)
	}

	// Handlers and router
	parseH := handler.NewParseHandler(parseSvc, storage, cfg)
	healthH := handler.NewHealthHandler(db)
	r := router.Setup(parseH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
