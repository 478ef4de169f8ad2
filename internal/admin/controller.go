package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"sebasite/internal/datasource"
	"sebasite/internal/imaging"
	"sebasite/internal/logging"
	"sebasite/internal/records"
	"sebasite/internal/services"
)

// Success message keys shown after a write, degraded or not.
const (
	MessageAdded   = "admin.dashboard.successAdd"
	MessageUpdated = "admin.dashboard.successUpdate"
	MessageDeleted = "admin.dashboard.successDelete"
)

// ErrOperationInFlight rejects a submit or delete while another one runs.
var ErrOperationInFlight = errors.New("another admin operation is in progress")

// ErrNoDraft is returned by draft operations when no form is open.
var ErrNoDraft = fmt.Errorf("%w: no open draft", services.ErrValidation)

// Action names a write.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Outcome reports a completed write. Degraded writes were applied locally
// only and still carry the regular success message.
type Outcome struct {
	Kind       Kind             `json:"kind"`
	Action     Action           `json:"action"`
	ID         records.ID       `json:"id"`
	Degraded   bool             `json:"degraded"`
	MessageKey string           `json:"message_key"`
	Project    *records.Project `json:"project,omitempty"`
	News       *records.News    `json:"news,omitempty"`
}

// Observer is notified of completed writes.
type Observer interface {
	WriteCompleted(kind Kind, action Action, degraded bool)
}

// Options configures a Controller.
type Options struct {
	Images   imaging.Options
	Workers  int
	Observer Observer
	Logger   *slog.Logger
	// Now overrides the clock for ids, timestamps and draft defaults.
	Now func() time.Time
}

// Controller is the admin dashboard state machine. It is safe for
// concurrent use.
type Controller struct {
	projects *datasource.Collection[records.Project]
	news     *datasource.Collection[records.News]
	images   imaging.Options
	workers  int
	observer Observer
	logger   *slog.Logger
	now      func() time.Time

	inFlight atomic.Bool
	closed   atomic.Bool

	mu              sync.Mutex
	projectList     []records.Project
	newsList        []records.News
	drafts          map[Kind]*Draft
	degradedDeletes map[Kind]map[records.ID]bool
}

// New creates a controller over the given collections. The news collection
// should be unlimited so the dashboard sees every item.
func New(projects *datasource.Collection[records.Project], news *datasource.Collection[records.News], opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Controller{
		projects:        projects,
		news:            news,
		images:          opts.Images,
		workers:         opts.Workers,
		observer:        opts.Observer,
		logger:          logging.NewComponentLogger(opts.Logger, "admin"),
		now:             opts.Now,
		projectList:     []records.Project{},
		newsList:        []records.News{},
		drafts:          make(map[Kind]*Draft),
		degradedDeletes: map[Kind]map[records.ID]bool{KindProject: {}, KindNews: {}},
	}
}

// Load refreshes both lists through the data source. Remote listings are
// mirrored into the fallback cache.
func (c *Controller) Load(ctx context.Context) (projects, news datasource.Source) {
	projectListing := c.projects.List(ctx)
	newsListing := c.news.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return projectListing.Source, newsListing.Source
	}
	c.projectList = projectListing.Records
	c.newsList = newsListing.Records

	if projectListing.Source == datasource.SourceRemote {
		c.noteResurrections(ctx, KindProject, projectIDs(c.projectList))
		c.mirrorProjects(ctx)
	}
	if newsListing.Source == datasource.SourceRemote {
		c.noteResurrections(ctx, KindNews, newsIDs(c.newsList))
		c.mirrorNews(ctx)
	}
	return projectListing.Source, newsListing.Source
}

// Projects returns a copy of the loaded projects.
func (c *Controller) Projects() []records.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.projectList)
}

// News returns a copy of the loaded news.
func (c *Controller) News() []records.News {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.newsList)
}

// Project returns the loaded project with id.
func (c *Controller) Project(id records.ID) (records.Project, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := indexOfProject(c.projectList, id)
	if i < 0 {
		return records.Project{}, false
	}
	return c.projectList[i], true
}

// BeginCreate opens an empty form for kind, replacing any open one.
func (c *Controller) BeginCreate(kind Kind) Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	var d *Draft
	if kind == KindNews {
		d = newNewsDraft(c.now())
	} else {
		d = newProjectDraft(c.now())
	}
	c.drafts[kind] = d
	return d.clone()
}

// BeginEdit opens a form pre-filled from the record with id. Existing
// images become previews without queued files.
func (c *Controller) BeginEdit(kind Kind, id records.ID) (Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var d *Draft
	switch kind {
	case KindProject:
		i := indexOfProject(c.projectList, id)
		if i < 0 {
			return Draft{}, notFound(kind, id)
		}
		p := c.projectList[i]
		d = &Draft{
			Kind:      KindProject,
			EditingID: p.ID,
			Project: ProjectFields{
				Title:       p.Title,
				Location:    p.Location,
				Year:        p.Year,
				Description: p.Description,
				Category:    p.Category,
			},
		}
		for _, img := range p.ImageList() {
			d.Previews = append(d.Previews, Preview{Image: img})
		}
	case KindNews:
		i := indexOfNews(c.newsList, id)
		if i < 0 {
			return Draft{}, notFound(kind, id)
		}
		n := c.newsList[i]
		d = &Draft{
			Kind:      KindNews,
			EditingID: n.ID,
			News:      NewsFields{Title: n.Title, Content: n.Content, Date: n.Date},
		}
		if n.Image != "" {
			d.Previews = append(d.Previews, Preview{Image: n.Image})
		}
	default:
		return Draft{}, notFound(kind, id)
	}
	if d.Previews == nil {
		d.Previews = []Preview{}
	}
	c.drafts[kind] = d
	return d.clone(), nil
}

// Draft returns a snapshot of the open form for kind.
func (c *Controller) Draft(kind Kind) (Draft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[kind]
	if !ok {
		return Draft{}, false
	}
	return d.clone(), true
}

// SetProjectFields replaces the project form fields.
func (c *Controller) SetProjectFields(fields ProjectFields) (Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[KindProject]
	if !ok {
		return Draft{}, ErrNoDraft
	}
	if fields.Category != "" {
		if parsed, err := records.ParseCategory(string(fields.Category)); err == nil {
			fields.Category = parsed
		}
	}
	d.Project = fields
	return d.clone(), nil
}

// SetNewsFields replaces the news form fields.
func (c *Controller) SetNewsFields(fields NewsFields) (Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[KindNews]
	if !ok {
		return Draft{}, ErrNoDraft
	}
	d.News = fields
	return d.clone(), nil
}

// AddImages runs files through the image pipeline and appends every success
// to the draft in selection order. Files that fail are returned for display
// and add nothing. News drafts keep only the last added image.
func (c *Controller) AddImages(ctx context.Context, kind Kind, files []imaging.File) (Draft, []*imaging.DecodeError, error) {
	c.mu.Lock()
	d, ok := c.drafts[kind]
	c.mu.Unlock()
	if !ok {
		return Draft{}, nil, ErrNoDraft
	}

	batch := imaging.ProcessBatch(ctx, files, c.images, c.workers)
	for _, failure := range batch.Errors {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "image rejected", "image_rejected",
			logging.String("file", failure.Name),
			logging.Error(failure),
			logging.String(logging.FieldErrorHint, "upload a JPEG, PNG, GIF, WebP, BMP or TIFF image"),
			logging.String(logging.FieldImpact, "the file was not added to the form"))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.drafts[kind] != d {
		// The form was cancelled or replaced while images were processing.
		return Draft{}, batch.Errors, ErrNoDraft
	}
	for _, img := range batch.Images {
		d.Previews = append(d.Previews, Preview{Image: img.DataURI, File: img.Name})
	}
	if kind == KindNews && len(d.Previews) > 1 {
		d.Previews = d.Previews[len(d.Previews)-1:]
	}
	return d.clone(), batch.Errors, nil
}

// RemoveImage drops the preview at index together with its queued file.
func (c *Controller) RemoveImage(kind Kind, index int) (Draft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.drafts[kind]
	if !ok {
		return Draft{}, ErrNoDraft
	}
	if index < 0 || index >= len(d.Previews) {
		return Draft{}, services.Wrap(services.ErrValidation, "admin", "remove image",
			fmt.Sprintf("index %d out of range", index), nil)
	}
	d.Previews = slices.Delete(d.Previews, index, index+1)
	return d.clone(), nil
}

// Cancel discards the open form for kind.
func (c *Controller) Cancel(kind Kind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, kind)
}

// Close stops the controller. Results of operations still running are
// discarded.
func (c *Controller) Close() {
	c.closed.Store(true)
}

func (c *Controller) begin() error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrOperationInFlight
	}
	return nil
}

func (c *Controller) end() { c.inFlight.Store(false) }

func (c *Controller) observe(kind Kind, action Action, degraded bool) {
	if c.observer != nil {
		c.observer.WriteCompleted(kind, action, degraded)
	}
}

func notFound(kind Kind, id records.ID) error {
	return services.Wrap(services.ErrNotFound, "admin", string(kind), fmt.Sprintf("record %s not found", id), nil)
}

func indexOfProject(list []records.Project, id records.ID) int {
	return slices.IndexFunc(list, func(p records.Project) bool { return p.ID == id })
}

func indexOfNews(list []records.News, id records.ID) int {
	return slices.IndexFunc(list, func(n records.News) bool { return n.ID == id })
}

func projectIDs(list []records.Project) []records.ID {
	ids := make([]records.ID, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	return ids
}

func newsIDs(list []records.News) []records.ID {
	ids := make([]records.ID, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	return ids
}
