package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gameshelf/backend/internal/domain"
	"github.com/gameshelf/backend/internal/usecase"
	"github.com/spf13/cobra"
)

func scanCommand(cli *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan [image-file]",
		Short: "Scan a shelf photo and print catalog matches",
		Long:  `Run text detection on a shelf photo and match every detected title against BoardGameGeek. The result is printed as JSON.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}

			a, err := newScanApp(cmd.Context(), cli.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return runScan(cmd.Context(), cmd.OutOrStdout(), a.services.Vision, a.services.Matcher, image)
		},
	}
}

// runScan analyzes raw image bytes and writes the ScanResponse as indented JSON
func runScan(
	ctx context.Context,
	out io.Writer,
	visionService *usecase.VisionService,
	matcher *usecase.ShelfMatcher,
	image []byte,
) error {
	detected, err := visionService.AnalyzeImage(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return fmt.Errorf("analyzing image: %w", err)
	}

	matches, err := matcher.MatchShelf(ctx, detected)
	if err != nil {
		return fmt.Errorf("matching titles: %w", err)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(domain.ScanResponse{DetectedGames: detected, Matches: matches})
}
