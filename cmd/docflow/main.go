// Command docflow submits a single file to the document-processing API and
// prints the extracted document as JSON, CSV or XLSX.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"docflow/internal/config"
	"docflow/internal/domain"
	"docflow/internal/export"
	"docflow/internal/logging"
	"docflow/internal/port"
	"docflow/internal/processor"
	"docflow/internal/transform"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("docflow", pflag.ContinueOnError)
	bindings := config.ProcessorFlags(fs)
	format := fs.StringP("format", "f", "json", "Output format (json, csv, xlsx)")
	output := fs.StringP("output", "o", "", "Write output to this file instead of stdout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: docflow [flags] <file>\n\nFlags:\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one file argument, got %d", fs.NArg())
	}

	v := viper.New()
	if err := config.BindFlags(v, fs, bindings); err != nil {
		return err
	}
	cfg, err := config.LoadFrom(v)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := processFile(ctx, cfg, logger, fs.Arg(0))
	if err != nil {
		return err
	}

	out := stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writeDocument(out, *format, doc)
}

func processFile(ctx context.Context, cfg *config.Config, logger *zap.Logger, path string) (*domain.ProcessedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	name := filepath.Base(path)
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	fileType, ok := domain.AllowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedFileType, ext)
	}

	client := processor.NewClient(&cfg.Processor, processor.WithLogger(logger.Named("processor")))
	raw, err := client.Submit(ctx, port.FileInput{
		Name:        name,
		ContentType: domain.AllowedFileTypes[fileType],
		Size:        info.Size(),
		Body:        f,
	}, func(job domain.UploadJob) {
		logger.Info("job update",
			zap.String("job_id", job.ID),
			zap.String("status", string(job.Status)),
			zap.Int("attempts", job.Attempts))
	})
	if err != nil {
		return nil, err
	}

	doc := transform.Transform(raw)
	return &doc, nil
}

func writeDocument(w io.Writer, format string, doc *domain.ProcessedDocument) error {
	if strings.EqualFold(format, "json") {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	return export.Write(w, f, doc)
}
