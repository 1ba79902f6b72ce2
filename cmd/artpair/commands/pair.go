package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/artpair/internal/domain/match"
)

type pairOutput struct {
	Query    string        `json:"query"`
	Recipe   recipeOutput  `json:"recipe"`
	Artworks []artworkLine `json:"artworks"`
}

type recipeOutput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Similarity  float64 `json:"similarity"`
}

type artworkLine struct {
	Title      string  `json:"title"`
	Artist     string  `json:"artist"`
	Style      string  `json:"style"`
	Category   string  `json:"category"`
	ImageURL   string  `json:"image_url"`
	Similarity float64 `json:"similarity"`
}

func newPairCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pair <food description>",
		Short: "Pair one food description and print the result as JSON",
		Long: `Run a single pairing against the configured corpus without starting the
server. All arguments are joined into one description.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runPair(ctx, opts, strings.Join(args, " "), cmd.OutOrStdout())
		},
	}
}

func runPair(ctx context.Context, opts *rootOptions, query string, out io.Writer) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("please enter a food description")
	}

	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := buildApp(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.pairing.Pair(ctx, query)
	if err != nil {
		return fmt.Errorf("pair %q: %w", query, err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(toPairOutput(query, res)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func toPairOutput(query string, res match.PairingResult) pairOutput {
	out := pairOutput{
		Query: query,
		Recipe: recipeOutput{
			Name:        res.Recipe.Recipe.Name,
			Description: res.Recipe.Recipe.Description,
			Similarity:  res.Recipe.Score,
		},
		Artworks: make([]artworkLine, len(res.Artworks)),
	}
	for i, m := range res.Artworks {
		out.Artworks[i] = artworkLine{
			Title:      m.Artwork.Title,
			Artist:     m.Artwork.Artist,
			Style:      m.Artwork.Style,
			Category:   m.Artwork.Category,
			ImageURL:   m.Artwork.ImageURL,
			Similarity: m.Score,
		}
	}
	return out
}
