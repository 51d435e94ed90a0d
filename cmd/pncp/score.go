package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nexconsult/pncp-vagas/internal/api/handlers"
	"github.com/nexconsult/pncp-vagas/internal/services"
)

var scoreCmd = &cobra.Command{
	Use:   "score [text...]",
	Short: "Score procurement descriptions for medical hiring relevance",
	Long:  "Score the text given as arguments, or each line read from stdin when no argument is given, and print one JSON result per text.",
	RunE:  runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, _, err := setup(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	scorer, err := services.ScorerFrom(cfg)
	if err != nil {
		return err
	}

	texts := []string{strings.Join(args, " ")}
	if len(args) == 0 {
		texts = texts[:0]
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				texts = append(texts, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, text := range texts {
		if err := enc.Encode(handlers.NewScoreResponse(text, scorer.Score(text))); err != nil {
			return err
		}
	}
	return nil
}
