package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sebasite/internal/blobstore"
	"sebasite/internal/fileutil"
	"sebasite/internal/imaging"
	"sebasite/internal/textutil"
)

type compressedImage struct {
	Name         string `json:"name"`
	SourceWidth  int    `json:"source_width"`
	SourceHeight int    `json:"source_height"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Bytes        int    `json:"bytes"`
	Written      string `json:"written,omitempty"`
}

type compressFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type compressReport struct {
	Images   []compressedImage `json:"images"`
	Failures []compressFailure `json:"failures"`
}

func newImagesCommand(ctx *commandContext) *cobra.Command {
	imagesCmd := &cobra.Command{
		Use:   "images",
		Short: "Compress and export project images",
	}
	imagesCmd.AddCommand(newImagesCompressCommand(ctx))
	imagesCmd.AddCommand(newImagesExportCommand(ctx))
	return imagesCmd
}

func newImagesCompressCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "compress <file>...",
		Short: "Compress images the way uploads are compressed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			opts := imaging.Options{
				MaxDimension: cfg.Images.MaxDimension,
				Quality:      cfg.Images.Quality,
				MaxBytes:     cfg.MaxUploadBytes(),
			}
			files := make([]imaging.File, 0, len(args))
			for _, path := range args {
				files = append(files, imaging.PathFile(path))
			}
			batch := imaging.ProcessBatch(cmd.Context(), files, opts, cfg.Images.Workers)

			report := compressReport{Images: []compressedImage{}, Failures: []compressFailure{}}
			for _, img := range batch.Images {
				data, _, err := imaging.ParseDataURI(img.DataURI)
				if err != nil {
					return err
				}
				entry := compressedImage{
					Name:         img.Name,
					SourceWidth:  img.SourceWidth,
					SourceHeight: img.SourceHeight,
					Width:        img.Width,
					Height:       img.Height,
					Bytes:        len(data),
				}
				if outDir != "" {
					base := strings.TrimSuffix(filepath.Base(img.Name), filepath.Ext(img.Name))
					target := filepath.Join(outDir, textutil.Slug(base)+".jpg")
					if err := fileutil.WriteAtomic(target, data, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", target, err)
					}
					entry.Written = target
				}
				report.Images = append(report.Images, entry)
			}
			for _, failure := range batch.Errors {
				report.Failures = append(report.Failures, compressFailure{Name: failure.Name, Error: failure.Err.Error()})
			}

			return ctx.emit(cmd, report, func(w io.Writer) error {
				rows := make([][]string, 0, len(report.Images))
				for _, img := range report.Images {
					rows = append(rows, []string{
						img.Name,
						fmt.Sprintf("%dx%d", img.SourceWidth, img.SourceHeight),
						fmt.Sprintf("%dx%d", img.Width, img.Height),
						strconv.Itoa(img.Bytes),
						img.Written,
					})
				}
				if err := printTable(w, []string{"File", "Source", "Output", "Bytes", "Written"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}); err != nil {
					return err
				}
				for _, failure := range report.Failures {
					fmt.Fprintf(w, "skipped %s: %s\n", failure.Name, failure.Error)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write compressed JPEGs to this directory")
	return cmd
}

func newImagesExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export every project image to the configured blob store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				store, err := blobstore.Open(cmd.Context(), rt.cfg)
				if err != nil {
					return err
				}
				listing := rt.projects().List(cmd.Context())
				warnFallback(cmd, listing.Source, "projects")
				report, err := blobstore.Export(cmd.Context(), store, listing.Records, rt.imageOptions(), rt.logger)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, report, func(w io.Writer) error {
					fmt.Fprintf(w, "Run %s: exported %d images from %d projects to %s\n",
						report.RunID, len(report.Images), report.Projects, report.Driver)
					rows := make([][]string, 0, len(report.Images))
					for _, img := range report.Images {
						rows = append(rows, []string{img.ProjectID.String(), img.Key, strconv.FormatInt(img.Size, 10)})
					}
					if err := printTable(w, []string{"Project", "Key", "Bytes"}, rows,
						[]columnAlignment{alignRight, alignLeft, alignRight}); err != nil {
						return err
					}
					for _, failure := range report.Failures {
						fmt.Fprintf(w, "failed project %s image %d: %s\n", failure.ProjectID, failure.Index+1, failure.Error)
					}
					return nil
				})
			})
		},
	}
}
