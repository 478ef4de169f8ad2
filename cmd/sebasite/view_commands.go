package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"sebasite/internal/datasource"
	"sebasite/internal/gallery"
	"sebasite/internal/views"
)

type galleryView struct {
	Source datasource.Source `json:"source"`
	Items  []gallery.Item    `json:"items"`
}

type tickerView struct {
	Source datasource.Source `json:"source"`
	Ticker views.Ticker      `json:"ticker"`
}

type layoutView struct {
	Source     datasource.Source `json:"source"`
	Placements []views.Placement `json:"placements"`
}

func newGalleryCommand(ctx *commandContext) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Sample random project images for the homepage gallery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				n := rt.cfg.Gallery.SampleSize
				if cmd.Flags().Changed("size") {
					n = size
				}
				listing := rt.projects().List(cmd.Context())
				warnFallback(cmd, listing.Source, "projects")
				view := galleryView{Source: listing.Source, Items: gallery.Sample(listing.Records, n, gallery.DefaultRand)}
				return ctx.emit(cmd, view, func(w io.Writer) error {
					rows := make([][]string, 0, len(view.Items))
					for _, item := range view.Items {
						rows = append(rows, []string{item.Title, item.Location, shorten(item.Image, 48)})
					}
					return printTable(w, []string{"Title", "Location", "Image"}, rows, nil)
				})
			})
		},
	}
	cmd.Flags().IntVarP(&size, "size", "n", gallery.DefaultSampleSize, "Number of images to sample")
	return cmd
}

func newTickerCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ticker",
		Short: "Preview the scrolling news ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				listing := rt.news(rt.cfg.RecordStore.NewsLimit).List(cmd.Context())
				warnFallback(cmd, listing.Source, "news")
				view := tickerView{Source: listing.Source, Ticker: views.NewTicker(listing.Records, rt.cfg.TickerItemDuration())}
				return ctx.emit(cmd, view, func(w io.Writer) error {
					if !view.Ticker.Visible {
						_, err := fmt.Fprintln(w, "Ticker hidden (no news)")
						return err
					}
					fmt.Fprintf(w, "Loop: %s for %d items\n", view.Ticker.Duration, len(view.Ticker.Items)/2)
					rows := make([][]string, 0, len(view.Ticker.Items))
					for i, item := range view.Ticker.Items {
						rows = append(rows, []string{strconv.Itoa(i + 1), item.Date, item.Title})
					}
					return printTable(w, []string{"#", "Date", "Title"}, rows, []columnAlignment{alignRight})
				})
			})
		},
	}
}

func newLayoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "layout",
		Short: "Show the scattered card layout for projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				listing := rt.projects().List(cmd.Context())
				warnFallback(cmd, listing.Source, "projects")
				view := layoutView{Source: listing.Source, Placements: views.ScatteredLayout(listing.Records)}
				return ctx.emit(cmd, view, func(w io.Writer) error {
					return printTable(w, []string{"#", "Title", "Size", "Top", "Left", "Rotation"}, layoutRows(view.Placements),
						[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight})
				})
			})
		},
	}
}

func layoutRows(placements []views.Placement) [][]string {
	rows := make([][]string, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, []string{
			strconv.Itoa(p.Index + 1),
			p.Card.Title,
			fmt.Sprintf("%dx%d", p.Size.Width, p.Size.Height),
			fmt.Sprintf("%dpx", p.Position.TopPx),
			fmt.Sprintf("%g%%", p.Position.LeftPercent),
			fmt.Sprintf("%+gdeg", p.RotationDeg),
		})
	}
	return rows
}

