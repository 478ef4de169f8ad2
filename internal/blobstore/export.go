package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"sebasite/internal/fileutil"
	"sebasite/internal/imaging"
	"sebasite/internal/logging"
	"sebasite/internal/records"
	"sebasite/internal/textutil"
)

const jpegContentType = "image/jpeg"

// ImageKey returns the object key for the n-th (1-based) image of a project
// whose folder is slug.
func ImageKey(slug string, n int) string {
	return "projects/" + slug + "/" + strconv.Itoa(n) + ".jpg"
}

// ExportedImage is one uploaded object.
type ExportedImage struct {
	ProjectID records.ID `json:"project_id"`
	Key       string     `json:"key"`
	Size      int64      `json:"size"`
	SHA256    string     `json:"sha256"`
}

// ExportFailure is one image that could not be exported.
type ExportFailure struct {
	ProjectID records.ID `json:"project_id"`
	Index     int        `json:"index"`
	Error     string     `json:"error"`
}

// ExportReport summarises an export run.
type ExportReport struct {
	RunID    string          `json:"run_id"`
	Driver   string          `json:"driver"`
	Projects int             `json:"projects"`
	Images   []ExportedImage `json:"images"`
	Failures []ExportFailure `json:"failures"`
}

// Export uploads every project image to store as JPEG. Images stored in
// another format are re-encoded with opts. A failing image is recorded and
// the run continues; only context cancellation aborts it.
func Export(ctx context.Context, store Store, projects []records.Project, opts imaging.Options, logger *slog.Logger) (ExportReport, error) {
	logger = logging.NewComponentLogger(logger, "export")
	report := ExportReport{
		RunID:    uuid.NewString(),
		Driver:   store.Driver(),
		Projects: len(projects),
		Images:   []ExportedImage{},
		Failures: []ExportFailure{},
	}
	logger = logger.With(logging.String("run_id", report.RunID))

	used := make(map[string]bool, len(projects))
	for _, project := range projects {
		slug := textutil.Slug(project.Title)
		if used[slug] {
			slug = slug + "-" + textutil.SanitizeToken(project.ID.String())
		}
		used[slug] = true

		for i, uri := range project.ImageList() {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			key := ImageKey(slug, i+1)
			data, err := jpegBytes(uri, opts)
			if err == nil {
				sum := fileutil.SHA256Hex(data)
				var info Info
				info, err = store.Put(ctx, key, bytes.NewReader(data), PutOptions{
					ContentType: jpegContentType,
					Metadata: map[string]string{
						"project-id": project.ID.String(),
						"run-id":     report.RunID,
						"sha256":     sum,
					},
				})
				if err == nil {
					report.Images = append(report.Images, ExportedImage{ProjectID: project.ID, Key: key, Size: info.Size, SHA256: sum})
					continue
				}
			}
			report.Failures = append(report.Failures, ExportFailure{ProjectID: project.ID, Index: i, Error: err.Error()})
			logging.WarnWithContext(logger, "image export failed", "image_export_failed",
				logging.String(logging.FieldRecordID, project.ID.String()),
				logging.Int("index", i),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-save the project image from the admin panel"),
				logging.String(logging.FieldImpact, "the image is missing from the export"))
		}
	}
	logger.Info("image export finished",
		logging.Int("projects", report.Projects),
		logging.Int("images", len(report.Images)),
		logging.Int("failures", len(report.Failures)))
	return report, nil
}

func jpegBytes(uri string, opts imaging.Options) ([]byte, error) {
	data, mediaType, err := imaging.ParseDataURI(uri)
	if err != nil {
		return nil, err
	}
	if mediaType == jpegContentType {
		return data, nil
	}
	img, err := imaging.Compress(mediaType, bytes.NewReader(data), opts)
	if err != nil {
		return nil, fmt.Errorf("re-encode %s: %w", mediaType, err)
	}
	data, _, err = imaging.ParseDataURI(img.DataURI)
	return data, err
}
