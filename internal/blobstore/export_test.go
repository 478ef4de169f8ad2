package blobstore_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/jpeg"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sebasite/internal/blobstore"
	"sebasite/internal/imaging"
	"sebasite/internal/records"
	"sebasite/internal/testsupport"
)

func TestExportWritesProjectImages(t *testing.T) {
	ctx := context.Background()
	store, err := blobstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	compressed, err := imaging.Compress("a.png", bytes.NewReader(testsupport.PNG(t, 40, 20)), imaging.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	pngURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(testsupport.PNG(t, 12, 12))

	projects := []records.Project{
		{ID: "1", Title: "Çamlık Konutları", Images: []string{compressed.DataURI, pngURI}},
		{ID: "2", Title: "Çamlık Konutları", Image: compressed.DataURI},
		{ID: "3", Title: "Broken", Images: []string{"not-a-data-uri"}},
	}
	report, err := blobstore.Export(ctx, store, projects, imaging.DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if report.RunID == "" || report.Driver != "fs" || report.Projects != 3 {
		t.Fatalf("unexpected report header %+v", report)
	}

	var keys []string
	for _, img := range report.Images {
		keys = append(keys, img.Key)
	}
	want := []string{
		"projects/camlik-konutlari/1.jpg",
		"projects/camlik-konutlari/2.jpg",
		"projects/camlik-konutlari-2/1.jpg",
	}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	for _, img := range report.Images {
		if len(img.SHA256) != 64 {
			t.Fatalf("expected sha256 digest for %s, got %q", img.Key, img.SHA256)
		}
	}
	if report.Images[0].SHA256 != report.Images[2].SHA256 {
		t.Fatal("identical source images should share a digest")
	}
	if len(report.Failures) != 1 || report.Failures[0].ProjectID != "3" {
		t.Fatalf("expected one failure for project 3, got %+v", report.Failures)
	}

	// The PNG source must come out as a decodable JPEG.
	_, rc, err := store.Get(ctx, want[1])
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	if _, err := jpeg.Decode(rc); err != nil {
		t.Fatalf("exported object is not a jpeg: %v", err)
	}
}

func TestExportStopsOnCancel(t *testing.T) {
	store, err := blobstore.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = blobstore.Export(ctx, store, []records.Project{{ID: "1", Title: "x", Images: []string{"data:image/jpeg;base64,AA=="}}}, imaging.DefaultOptions(), nil)
	if err == nil || !strings.Contains(err.Error(), "canceled") {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestImageKey(t *testing.T) {
	if got := blobstore.ImageKey("tower", 3); got != "projects/tower/3.jpg" {
		t.Fatalf("unexpected key %q", got)
	}
}
