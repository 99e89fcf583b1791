package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the question and knowledge indexes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create or update both index schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := svc.bank.EnsureIndex(ctx); err != nil {
				return fmt.Errorf("create %s failed: %w", svc.cfg.Search.QuestionIndex, err)
			}
			if err := svc.knowledge.EnsureIndex(ctx); err != nil {
				return fmt.Errorf("create %s failed: %w", svc.cfg.Search.KnowledgeIndex, err)
			}
			fmt.Printf("indexes ready: %s, %s\n", svc.cfg.Search.QuestionIndex, svc.cfg.Search.KnowledgeIndex)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Create both indexes and load the built-in sample questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			result, err := svc.knowledge.SeedIndexes(cmd.Context(), svc.bank)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	})
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count questions in the interview bank by category, difficulty and position",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadServices()
			if err != nil {
				return err
			}
			stats, err := svc.bank.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}
