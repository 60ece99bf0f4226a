package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kisanmitra/advisory/internal/models"
	"github.com/spf13/cobra"
)

// askOutput mirrors the body of a successful POST /api/query.
type askOutput struct {
	Response string          `json:"response"`
	Category models.Category `json:"category"`
	Language string          `json:"language"`
	IsDemo   bool            `json:"is_demo"`
	Source   string          `json:"source"`
}

func newAskCmd(configPath *string) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and record it in the query log.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.advisory.Ask(cmd.Context(), strings.Join(args, " "), language)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(askOutput{
				Response: result.Response,
				Category: result.Category,
				Language: result.Language,
				IsDemo:   result.IsDemo,
				Source:   result.Source,
			}, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode answer: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", models.DefaultLanguage, "answer language (en, ml, hi, ta, te)")
	return cmd
}
