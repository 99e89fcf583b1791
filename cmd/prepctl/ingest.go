package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gopherai-interview/internal/app"
	"gopherai-interview/internal/docparse"
	"gopherai-interview/internal/watcher"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Turn PDF, PPTX or DOCX course material into study questions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			files := make([]docparse.File, 0, len(args))
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s failed: %w", path, err)
				}
				files = append(files, app.LoadFile(filepath.Base(path), data))
			}
			result, err := svc.knowledge.ProcessMaterials(cmd.Context(), files)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}
}

func watchCmd() *cobra.Command {
	var debounce time.Duration
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest course material as it is dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w := watcher.New(args[0], debounce, func(ctx context.Context, path string) error {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				result, err := svc.knowledge.ProcessMaterials(ctx, []docparse.File{app.LoadFile(filepath.Base(path), data)})
				if err != nil {
					return err
				}
				svc.logger.Info("material ingested",
					"file", filepath.Base(path),
					"questions", result.QuestionsGenerated,
					"uploaded", result.UploadResult.Success,
				)
				return nil
			}, svc.logger)
			return w.Run(ctx)
		},
	}
	cmd.Flags().DurationVar(&debounce, "debounce", watcher.DefaultDebounce, "quiet period before a new file is ingested")
	return cmd
}
