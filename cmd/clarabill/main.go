// Command clarabill parses a medical bill PDF from the command line and
// prints the structured payload or a ledger export.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"clarabill/internal/config"
	"clarabill/internal/csvexport"
	"clarabill/internal/llm"
	"clarabill/internal/normalize"
	"clarabill/internal/ocr"
	"clarabill/internal/port"
	"clarabill/internal/refdata"
	"clarabill/internal/service"
	"clarabill/internal/xlsxexport"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	format := flag.String("format", "json", "output format: json, csv or xlsx")
	output := flag.String("o", "", "output file (default stdout; required for xlsx)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: clarabill [flags] <statement.pdf>\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

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

	var ocrProvider port.OCRProvider
	if cfg.OCR.Enabled {
		ocrProvider = ocr.NewExtractor(cfg.OCR)
	}
	var rewriter port.SentenceRewriter
	if cfg.LLM.Enabled {
		rewriter = llm.NewClient(cfg.LLM)
	}

	parseSvc, err := service.NewParseService(cfg, dict, gloss, headers, ocrProvider, rewriter, nil)
	if err != nil {
		return fmt.Errorf("failed to build parse pipeline: %w", err)
	}

	payload, err := parseSvc.ParseFile(context.Background(), path, filepath.Base(path))
	if err != nil {
		return err
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "csv":
		if _, err := out.Write(csvexport.BOM); err != nil {
			return err
		}
		w := csvexport.NewWriter(out)
		if err := w.WriteHeader(); err != nil {
			return err
		}
		if err := w.WritePayload(payload); err != nil {
			return err
		}
		w.Flush()
		return w.Error()
	case "xlsx":
		if *output == "" {
			return fmt.Errorf("xlsx output requires -o <file>")
		}
		return xlsxexport.Write(out, payload)
	default:
		return fmt.Errorf("unknown format %q (json, csv or xlsx)", *format)
	}
}
