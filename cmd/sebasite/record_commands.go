package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"sebasite/internal/admin"
	"sebasite/internal/datasource"
	"sebasite/internal/imaging"
	"sebasite/internal/records"
	"sebasite/internal/services"
)

type projectListing struct {
	Source      datasource.Source `json:"source"`
	RemoteError string            `json:"remote_error,omitempty"`
	Projects    []records.Project `json:"projects"`
}

type newsListing struct {
	Source      datasource.Source `json:"source"`
	RemoteError string            `json:"remote_error,omitempty"`
	News        []records.News    `json:"news"`
}

func remoteError(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func warnFallback(cmd *cobra.Command, source datasource.Source, what string) {
	if source == datasource.SourceLocal {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: record store unavailable; showing cached %s\n", what)
	}
}

func newProjectsCommand(ctx *commandContext) *cobra.Command {
	projectsCmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List and manage portfolio projects",
	}

	projectsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				listing := rt.projects().List(cmd.Context())
				warnFallback(cmd, listing.Source, "projects")
				view := projectListing{Source: listing.Source, RemoteError: remoteError(listing.RemoteErr), Projects: listing.Records}
				return ctx.emit(cmd, view, func(w io.Writer) error {
					rows := make([][]string, 0, len(listing.Records))
					for _, p := range listing.Records {
						rows = append(rows, []string{
							p.ID.String(), p.Title, p.Location, p.Year, string(p.Category),
							strconv.Itoa(len(p.ImageList())),
						})
					}
					return printTable(w, []string{"ID", "Title", "Location", "Year", "Category", "Images"}, rows,
						[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignRight})
				})
			})
		},
	})

	projectsCmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				listing := rt.projects().List(cmd.Context())
				warnFallback(cmd, listing.Source, "projects")
				id := records.ID(strings.TrimSpace(args[0]))
				for _, p := range listing.Records {
					if p.ID != id {
						continue
					}
					return ctx.emit(cmd, p, func(w io.Writer) error {
						pairs := [][2]string{
							{"ID", p.ID.String()},
							{"Title", p.Title},
							{"Location", p.Location},
							{"Year", p.Year},
							{"Category", string(p.Category)},
							{"Description", p.Description},
							{"Created", p.CreatedAt},
						}
						for i, img := range p.ImageList() {
							pairs = append(pairs, [2]string{fmt.Sprintf("Image %d", i+1), shorten(img, 60)})
						}
						_, err := fmt.Fprintln(w, renderFields(pairs))
						return err
					})
				}
				return services.Wrap(services.ErrNotFound, "cli", "project", "project "+id.String()+" not found", nil)
			})
		},
	})

	projectsCmd.AddCommand(newProjectWriteCommand(ctx, false))
	projectsCmd.AddCommand(newProjectWriteCommand(ctx, true))
	projectsCmd.AddCommand(newDeleteCommand(ctx, admin.KindProject))
	return projectsCmd
}

// newProjectWriteCommand builds "add" or, when editing, "edit <id>". Edits
// only change the fields whose flags were given.
func newProjectWriteCommand(ctx *commandContext, editing bool) *cobra.Command {
	var fields admin.ProjectFields
	var category string
	var images []string
	var clearImages bool

	use, short := "add", "Create a project"
	args := cobra.NoArgs
	if editing {
		use, short, args = "edit <id>", "Update a project", cobra.ExactArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				controller := rt.controller()
				defer controller.Close()
				controller.Load(cmd.Context())

				draft := controller.BeginCreate(admin.KindProject)
				if editing {
					var err error
					draft, err = controller.BeginEdit(admin.KindProject, records.ID(strings.TrimSpace(args[0])))
					if err != nil {
						return err
					}
				}
				next := draft.Project
				flags := cmd.Flags()
				if !editing || flags.Changed("title") {
					next.Title = fields.Title
				}
				if !editing || flags.Changed("location") {
					next.Location = fields.Location
				}
				if !editing || flags.Changed("year") {
					next.Year = fields.Year
				}
				if !editing || flags.Changed("description") {
					next.Description = fields.Description
				}
				if flags.Changed("category") {
					next.Category = records.Category(category)
				}
				if _, err := controller.SetProjectFields(next); err != nil {
					return err
				}
				if clearImages {
					for range draft.Previews {
						if _, err := controller.RemoveImage(admin.KindProject, 0); err != nil {
							return err
						}
					}
				}
				if err := addImageFiles(cmd, controller, admin.KindProject, images); err != nil {
					return err
				}
				outcome, err := controller.Submit(cmd.Context(), admin.KindProject)
				if err != nil {
					return err
				}
				return emitOutcome(ctx, cmd, outcome)
			})
		},
	}

	cmd.Flags().StringVar(&fields.Title, "title", "", "Project title")
	cmd.Flags().StringVar(&fields.Location, "location", "", "Project location")
	cmd.Flags().StringVar(&fields.Year, "year", "", "Completion year")
	cmd.Flags().StringVar(&fields.Description, "description", "", "Project description")
	cmd.Flags().StringVar(&category, "category", string(records.DefaultCategory), "Project category")
	cmd.Flags().StringSliceVar(&images, "image", nil, "Image file to attach (repeatable)")
	if editing {
		cmd.Flags().BoolVar(&clearImages, "clear-images", false, "Remove existing images before attaching new ones")
	}
	return cmd
}

func newNewsCommand(ctx *commandContext) *cobra.Command {
	newsCmd := &cobra.Command{
		Use:   "news",
		Short: "List and manage news items",
	}

	var all bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List news newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				limit := rt.cfg.RecordStore.NewsLimit
				if all {
					limit = 0
				}
				listing := rt.news(limit).List(cmd.Context())
				warnFallback(cmd, listing.Source, "news")
				view := newsListing{Source: listing.Source, RemoteError: remoteError(listing.RemoteErr), News: listing.Records}
				return ctx.emit(cmd, view, func(w io.Writer) error {
					rows := make([][]string, 0, len(listing.Records))
					for _, n := range listing.Records {
						rows = append(rows, []string{n.ID.String(), n.Date, n.Title, yesNo(n.Image != "")})
					}
					return printTable(w, []string{"ID", "Date", "Title", "Image"}, rows,
						[]columnAlignment{alignRight})
				})
			})
		},
	}
	listCmd.Flags().BoolVar(&all, "all", false, "Ignore the configured news limit")
	newsCmd.AddCommand(listCmd)

	var fields admin.NewsFields
	var image string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Publish a news item",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				controller := rt.controller()
				defer controller.Close()
				controller.Load(cmd.Context())

				draft := controller.BeginCreate(admin.KindNews)
				next := fields
				if !cmd.Flags().Changed("date") {
					next.Date = draft.News.Date
				}
				if _, err := controller.SetNewsFields(next); err != nil {
					return err
				}
				if image != "" {
					if err := addImageFiles(cmd, controller, admin.KindNews, []string{image}); err != nil {
						return err
					}
				}
				outcome, err := controller.Submit(cmd.Context(), admin.KindNews)
				if err != nil {
					return err
				}
				return emitOutcome(ctx, cmd, outcome)
			})
		},
	}
	addCmd.Flags().StringVar(&fields.Title, "title", "", "Headline")
	addCmd.Flags().StringVar(&fields.Content, "content", "", "Body text")
	addCmd.Flags().StringVar(&fields.Date, "date", "", "Publication date (YYYY-MM-DD, default today)")
	addCmd.Flags().StringVar(&image, "image", "", "Image file to attach")
	newsCmd.AddCommand(addCmd)

	newsCmd.AddCommand(newDeleteCommand(ctx, admin.KindNews))
	return newsCmd
}

func newDeleteCommand(ctx *commandContext, kind admin.Kind) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(func(rt *runtime) error {
				controller := rt.controller()
				defer controller.Close()
				controller.Load(cmd.Context())
				outcome, err := controller.Delete(cmd.Context(), kind, records.ID(strings.TrimSpace(args[0])))
				if err != nil {
					return err
				}
				return emitOutcome(ctx, cmd, outcome)
			})
		},
	}
}

func addImageFiles(cmd *cobra.Command, controller *admin.Controller, kind admin.Kind, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	files := make([]imaging.File, 0, len(paths))
	for _, path := range paths {
		files = append(files, imaging.PathFile(path))
	}
	_, rejected, err := controller.AddImages(cmd.Context(), kind, files)
	for _, failure := range rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %s: %v\n", failure.Name, failure.Err)
	}
	return err
}

func emitOutcome(ctx *commandContext, cmd *cobra.Command, outcome admin.Outcome) error {
	return ctx.emit(cmd, outcome, func(w io.Writer) error {
		verb := map[admin.Action]string{
			admin.ActionCreate: "Created",
			admin.ActionUpdate: "Updated",
			admin.ActionDelete: "Deleted",
		}[outcome.Action]
		fmt.Fprintf(w, "%s %s %s\n", verb, strings.TrimSuffix(string(outcome.Kind), "s"), outcome.ID)
		if outcome.Degraded {
			fmt.Fprintln(w, "Record store unavailable; the change was saved to the local cache only")
		}
		return nil
	})
}
