// prepare-emails converts Outlook .msg files to Markdown and uploads them to a
// Gemini File Search store.
//
// Usage:
//
//	prepare-emails --msg-dir ./data/msg_files
//	prepare-emails --msg-dir ./data/msg_files --store-name fileSearchStores/my-email-store
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"emailwriter/internal/config"
	"emailwriter/internal/converter"
	"emailwriter/internal/gemini"
	"emailwriter/internal/models"

	"github.com/spf13/cobra"
)

// DefaultStoreDisplayName is used when no existing store is given
const DefaultStoreDisplayName = "email-patterns"

type options struct {
	msgDir       string
	outputDir    string
	storeName    string
	pollInterval time.Duration
	maxWait      time.Duration
	trace        bool
}

type batchConverter interface {
	ConvertBatch(inputDir, outputDir string) ([]*models.EmailMetadata, error)
}

type uploader interface {
	CreateStore(ctx context.Context, displayName string) (string, error)
	UploadMarkdown(ctx context.Context, storeName, path string, metadata *models.EmailMetadata, opts ...gemini.UploadOption) error
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "prepare-emails",
		Short:         "Convert .msg files and register them in a File Search store",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("output-dir") && cfg.MDOutputDir != "" {
				opts.outputDir = cfg.MDOutputDir
			}
			if opts.trace {
				cfg.TraceHTTP = true
			}

			logger := cfg.SetupLogger()
			conv := converter.New(logger)
			manager := gemini.NewFileSearchManager(cfg, logger)

			return prepare(cmd.Context(), cmd.OutOrStdout(), opts, conv, manager)
		},
	}

	cmd.Flags().StringVar(&opts.msgDir, "msg-dir", "", "Directory containing .msg files")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "./data/converted_md", "Directory for converted Markdown files")
	cmd.Flags().StringVar(&opts.storeName, "store-name", "", "Existing File Search store name (a new store is created when empty)")
	cmd.Flags().DurationVar(&opts.pollInterval, "poll-interval", gemini.DefaultPollInterval, "Delay between upload status checks")
	cmd.Flags().DurationVar(&opts.maxWait, "max-wait", gemini.DefaultMaxWait, "Maximum time to wait for each upload")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Dump Gemini API HTTP traffic to stderr")
	_ = cmd.MarkFlagRequired("msg-dir")

	return cmd
}

// prepare converts every .msg file, then uploads the results one by one.
// Failed uploads are reported and skipped; an error is returned at the end
// when any upload failed.
func prepare(ctx context.Context, out io.Writer, opts options, conv batchConverter, up uploader) error {
	// 1. Convert .msg files to Markdown
	metadataList, err := conv.ConvertBatch(opts.msgDir, opts.outputDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Converted %d files\n", len(metadataList))

	// 2. Create a store or use the given one
	storeName := opts.storeName
	if storeName == "" {
		storeName, err = up.CreateStore(ctx, DefaultStoreDisplayName)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Store created: %s\n", storeName)
	}

	// 3. Upload converted files
	uploadOpts := []gemini.UploadOption{
		gemini.WithPollInterval(opts.pollInterval),
		gemini.WithMaxWait(opts.maxWait),
	}
	failed := 0
	for _, metadata := range metadataList {
		if err := up.UploadMarkdown(ctx, storeName, metadata.MarkdownPath, metadata, uploadOpts...); err != nil {
			failed++
			fmt.Fprintf(out, "Upload failed: %s: %v\n", metadata.FileName, err)
			continue
		}
		fmt.Fprintf(out, "Uploaded: %s\n", metadata.FileName)
	}

	// 4. Show the store name to configure
	fmt.Fprintln(out, "\nDone! Add the following to your .env file:")
	fmt.Fprintf(out, "%sFILE_SEARCH_STORE_NAME=%s\n", config.EnvPrefix, storeName)

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(metadataList))
	}
	return nil
}
