package admin

import (
	"context"
	"errors"
	"slices"

	"sebasite/internal/datasource"
	"sebasite/internal/logging"
	"sebasite/internal/records"
	"sebasite/internal/services"
)

// ErrClosed is returned for writes started after Close, and for writes that
// finish after it. A late result is not applied.
var ErrClosed = errors.New("admin controller closed")

// Submit saves the open form for kind. When the record store cannot be
// reached the write is applied to the local copy only and the outcome is
// marked degraded.
func (c *Controller) Submit(ctx context.Context, kind Kind) (Outcome, error) {
	if err := c.begin(); err != nil {
		return Outcome{}, err
	}
	defer c.end()

	c.mu.Lock()
	d, ok := c.drafts[kind]
	var snapshot Draft
	if ok {
		snapshot = d.clone()
	}
	c.mu.Unlock()
	if !ok {
		return Outcome{}, ErrNoDraft
	}
	if err := snapshot.validate(); err != nil {
		return Outcome{}, err
	}

	ctx = services.WithCollection(ctx, string(kind))
	var (
		outcome Outcome
		err     error
	)
	switch kind {
	case KindProject:
		outcome, err = c.submitProject(ctx, snapshot)
	case KindNews:
		outcome, err = c.submitNews(ctx, snapshot)
	default:
		return Outcome{}, notFound(kind, snapshot.EditingID)
	}
	if err != nil {
		return Outcome{}, err
	}

	c.mu.Lock()
	if c.drafts[kind] == d {
		delete(c.drafts, kind)
	}
	c.mu.Unlock()
	c.observe(kind, outcome.Action, outcome.Degraded)
	return outcome, nil
}

func (c *Controller) submitProject(ctx context.Context, d Draft) (Outcome, error) {
	now := c.now()
	rec := records.Project{
		ID:          d.EditingID,
		Title:       d.Project.Title,
		Location:    d.Project.Location,
		Year:        d.Project.Year,
		Description: d.Project.Description,
		Category:    d.Project.Category,
		Images:      d.Images(),
	}.WithCompatImage()

	action := ActionCreate
	var result datasource.Result[records.Project]
	if d.Editing() {
		action = ActionUpdate
		if existing, ok := c.Project(d.EditingID); ok {
			rec.CreatedAt = existing.CreatedAt
		}
		ctx = services.WithOperation(ctx, "update")
		result = c.projects.Update(ctx, d.EditingID, rec)
	} else {
		ctx = services.WithOperation(ctx, "create")
		result = c.projects.Create(ctx, rec)
	}

	degraded := false
	saved, err := result.OrElse(func(err error) datasource.Result[records.Project] {
		if !degradable(err) {
			return datasource.Fail[records.Project](err)
		}
		degraded = true
		c.warnDegradedWrite(ctx, action, err)
		local := rec
		if local.ID.IsZero() {
			local.ID = records.NewTimeID(now)
		}
		if local.CreatedAt == "" {
			local.CreatedAt = records.Timestamp(now)
		}
		return datasource.Ok(local)
	}).Value()
	if err != nil {
		return Outcome{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return Outcome{}, ErrClosed
	}
	c.projectList = upsertProject(c.projectList, saved)
	c.amendProjects(ctx, func(list []records.Project) []records.Project {
		return upsertProject(list, saved)
	})
	return Outcome{
		Kind:       KindProject,
		Action:     action,
		ID:         saved.ID,
		Degraded:   degraded,
		MessageKey: messageFor(action),
		Project:    &saved,
	}, nil
}

func (c *Controller) submitNews(ctx context.Context, d Draft) (Outcome, error) {
	now := c.now()
	rec := records.News{
		ID:      d.EditingID,
		Title:   d.News.Title,
		Content: d.News.Content,
		Date:    d.News.Date,
	}
	if len(d.Previews) > 0 {
		rec.Image = d.Previews[0].Image
	}

	action := ActionCreate
	var result datasource.Result[records.News]
	if d.Editing() {
		action = ActionUpdate
		c.mu.Lock()
		if i := indexOfNews(c.newsList, d.EditingID); i >= 0 {
			rec.CreatedAt = c.newsList[i].CreatedAt
		}
		c.mu.Unlock()
		ctx = services.WithOperation(ctx, "update")
		result = c.news.Update(ctx, d.EditingID, rec)
	} else {
		ctx = services.WithOperation(ctx, "create")
		result = c.news.Create(ctx, rec)
	}

	degraded := false
	saved, err := result.OrElse(func(err error) datasource.Result[records.News] {
		if !degradable(err) {
			return datasource.Fail[records.News](err)
		}
		degraded = true
		c.warnDegradedWrite(ctx, action, err)
		local := rec
		if local.ID.IsZero() {
			local.ID = records.NewTimeID(now)
		}
		if local.CreatedAt == "" {
			local.CreatedAt = records.Timestamp(now)
		}
		return datasource.Ok(local)
	}).Value()
	if err != nil {
		return Outcome{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return Outcome{}, ErrClosed
	}
	c.newsList = upsertNews(c.newsList, saved)
	c.amendNews(ctx, func(list []records.News) []records.News {
		return upsertNews(list, saved)
	})
	return Outcome{
		Kind:       KindNews,
		Action:     action,
		ID:         saved.ID,
		Degraded:   degraded,
		MessageKey: messageFor(action),
		News:       &saved,
	}, nil
}

// Delete removes the record with id. A record store failure removes it from
// the local copy only; the next successful remote load brings it back.
func (c *Controller) Delete(ctx context.Context, kind Kind, id records.ID) (Outcome, error) {
	if err := c.begin(); err != nil {
		return Outcome{}, err
	}
	defer c.end()

	c.mu.Lock()
	var present bool
	switch kind {
	case KindProject:
		present = indexOfProject(c.projectList, id) >= 0
	case KindNews:
		present = indexOfNews(c.newsList, id) >= 0
	}
	c.mu.Unlock()
	if !present {
		return Outcome{}, notFound(kind, id)
	}

	ctx = services.WithOperation(services.WithCollection(ctx, string(kind)), "delete")
	var result datasource.Result[records.ID]
	if kind == KindProject {
		result = c.projects.Delete(ctx, id)
	} else {
		result = c.news.Delete(ctx, id)
	}

	degraded := false
	_, err := result.OrElse(func(err error) datasource.Result[records.ID] {
		if !degradable(err) {
			return datasource.Fail[records.ID](err)
		}
		degraded = true
		return datasource.Ok(id)
	}).Value()
	if err != nil {
		return Outcome{}, err
	}

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return Outcome{}, ErrClosed
	}
	if kind == KindProject {
		remove := func(list []records.Project) []records.Project {
			return slices.DeleteFunc(list, func(p records.Project) bool { return p.ID == id })
		}
		c.projectList = remove(c.projectList)
		c.amendProjects(ctx, remove)
	} else {
		remove := func(list []records.News) []records.News {
			return slices.DeleteFunc(list, func(n records.News) bool { return n.ID == id })
		}
		c.newsList = remove(c.newsList)
		c.amendNews(ctx, remove)
	}
	if degraded {
		c.degradedDeletes[kind][id] = true
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "record deleted locally only", "degraded_delete",
			logging.String(logging.FieldRecordID, id.String()),
			logging.String(logging.FieldErrorHint, "delete the record again once the record store is reachable"),
			logging.String(logging.FieldImpact, "the record reappears on the next successful load"))
	} else {
		delete(c.degradedDeletes[kind], id)
	}
	c.mu.Unlock()

	c.observe(kind, ActionDelete, degraded)
	return Outcome{
		Kind:       kind,
		Action:     ActionDelete,
		ID:         id,
		Degraded:   degraded,
		MessageKey: MessageDeleted,
	}, nil
}

// degradable reports whether err should fall back to a local-only write.
// Rejected input is surfaced instead.
func degradable(err error) bool {
	return !errors.Is(err, services.ErrValidation) && !errors.Is(err, context.Canceled)
}

func messageFor(action Action) string {
	switch action {
	case ActionUpdate:
		return MessageUpdated
	case ActionDelete:
		return MessageDeleted
	default:
		return MessageAdded
	}
}

func (c *Controller) warnDegradedWrite(ctx context.Context, action Action, err error) {
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "record store write failed; saved locally", "degraded_write",
		logging.String("action", string(action)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check record_store settings and connectivity"),
		logging.String(logging.FieldImpact, "the change is only visible on this host until it is saved again"))
}

// noteResurrections warns about records deleted while degraded that the
// record store still returns. Caller holds c.mu.
func (c *Controller) noteResurrections(ctx context.Context, kind Kind, ids []records.ID) {
	pending := c.degradedDeletes[kind]
	if len(pending) == 0 {
		return
	}
	ctx = services.WithCollection(ctx, string(kind))
	for _, id := range ids {
		if !pending[id] {
			continue
		}
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "locally deleted record returned by record store", "degraded_delete_resurrected",
			logging.String(logging.FieldRecordID, id.String()),
			logging.String(logging.FieldErrorHint, "delete the record again"),
			logging.String(logging.FieldImpact, "the record is visible to visitors again"))
	}
	clear(pending)
}

// Caller holds c.mu.
func (c *Controller) mirrorProjects(ctx context.Context) {
	if err := c.projects.Mirror(ctx, c.projectList); err != nil {
		c.warnMirror(ctx, KindProject, err)
	}
}

// Caller holds c.mu.
func (c *Controller) mirrorNews(ctx context.Context) {
	if err := c.news.Mirror(ctx, c.newsList); err != nil {
		c.warnMirror(ctx, KindNews, err)
	}
}

// amendProjects applies one write to the cached copy. Other processes
// sharing the cache may have written records this controller never loaded,
// so the cached list is merged rather than replaced. Caller holds c.mu.
func (c *Controller) amendProjects(ctx context.Context, change func([]records.Project) []records.Project) {
	if _, err := c.projects.Amend(ctx, change); err != nil {
		c.warnMirror(ctx, KindProject, err)
	}
}

// Caller holds c.mu.
func (c *Controller) amendNews(ctx context.Context, change func([]records.News) []records.News) {
	if _, err := c.news.Amend(ctx, change); err != nil {
		c.warnMirror(ctx, KindNews, err)
	}
}

// upsertProject replaces the record with p's id or puts p first.
func upsertProject(list []records.Project, p records.Project) []records.Project {
	if i := indexOfProject(list, p.ID); i >= 0 {
		list[i] = p
		return list
	}
	return slices.Insert(list, 0, p)
}

func upsertNews(list []records.News, n records.News) []records.News {
	if i := indexOfNews(list, n.ID); i >= 0 {
		list[i] = n
		return list
	}
	return slices.Insert(list, 0, n)
}

func (c *Controller) warnMirror(ctx context.Context, kind Kind, err error) {
	ctx = services.WithCollection(ctx, string(kind))
	logging.WarnWithContext(logging.WithContext(ctx, c.logger), "local cache write failed", "cache_write_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check cache.path permissions and free space"),
		logging.String(logging.FieldImpact, "the fallback copy is stale"))
}
