package cmd

import (
	"fmt"
	"image/png"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lakeshore-events/photostrip/internal/config"
	"github.com/lakeshore-events/photostrip/internal/frame"
	"github.com/lakeshore-events/photostrip/internal/settings"
	"github.com/lakeshore-events/photostrip/internal/strip"
	"github.com/lakeshore-events/photostrip/internal/submit"
	"github.com/lakeshore-events/photostrip/internal/template"
)

func newComposeCmd() *cobra.Command {
	var (
		output      string
		layoutPath  string
		label       string
		templateRef string
		settingsURL string
		uploadURL   string
	)

	cmd := &cobra.Command{
		Use:   "compose [image files]",
		Short: "Compose a strip from image files",
		Long: `Runs the full compositing pipeline against 1-3 image files: capture,
center-crop placement, template background, overlay, and validation.
The result is written as a PNG; with --upload-url it is also submitted
through the retrying upload pipeline.`,
		Example: `  # Compose three captures into a strip
  photostrip compose -o strip.png a.jpg b.jpg c.jpg

  # Compose and submit to a booth backend
  photostrip compose --upload-url http://localhost:8888/api/strips a.jpg b.jpg c.jpg`,
		Args: cobra.RangeArgs(1, strip.MaxPhotos),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if templateRef == "" {
				templateRef = cfg.TemplateRef
			}
			if label == "" {
				label = cfg.EventLabel
			}
			if uploadURL == "" {
				uploadURL = cfg.UploadURL
			}

			layout := frame.DefaultLayout()
			if layoutPath != "" {
				layout, err = frame.LoadLayout(layoutPath)
				if err != nil {
					return err
				}
			}

			ctx := cmd.Context()

			if settingsURL != "" {
				remote, err := settings.NewClient(settingsURL).Fetch(ctx)
				if err != nil {
					slog.Warn("Settings fetch failed, using local values", "error", err)
				} else {
					if label == "" {
						label = remote.EventLabel
					}
					if templateRef == "" {
						templateRef = remote.TemplateRef
					}
				}
			}

			templates := template.NewProvider(cfg.CacheDir)
			templates.Refresh(ctx, templateRef)

			var pipeline *submit.Pipeline
			if uploadURL != "" {
				pipeline = submit.NewPipeline(submit.NewHTTPUploader(uploadURL), layout)
			}

			session := strip.NewSession(strip.Options{
				Layout:     layout,
				Templates:  templates,
				Pipeline:   pipeline,
				Label:      label,
				GraceDelay: cfg.GraceDelay,
			})
			defer session.Close()

			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				if err := session.Capture(ctx, data); err != nil {
					return fmt.Errorf("failed to capture %s: %w", path, err)
				}
			}

			surface, err := session.Render(ctx)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			defer f.Close()
			if err := png.Encode(f, surface); err != nil {
				return fmt.Errorf("failed to encode strip: %w", err)
			}
			slog.Info("Strip written", "path", output, "photos", session.PhotoCount())

			if pipeline != nil {
				receipt, err := session.Submit(ctx)
				if err != nil {
					return fmt.Errorf("failed to submit strip: %w", err)
				}
				slog.Info("Strip submitted", "strip_id", receipt.StripID, "image_ref", receipt.ImageRef)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "strip.png", "Output PNG path")
	cmd.Flags().StringVar(&layoutPath, "layout", "", "YAML slot layout file (defaults to the standard 3-slot strip)")
	cmd.Flags().StringVar(&label, "label", "", "Event label drawn on the strip footer")
	cmd.Flags().StringVar(&templateRef, "template", "", "Template reference (URL or data URI)")
	cmd.Flags().StringVar(&settingsURL, "settings-url", "", "Settings endpoint to read label/template from")
	cmd.Flags().StringVar(&uploadURL, "upload-url", "", "Submit the finished strip to this endpoint")

	return cmd
}
