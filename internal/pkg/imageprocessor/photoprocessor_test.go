package imageprocessor

import (
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/trocalar/TrocaLar/app/models"
)

func testPhoto() *models.PropertyImage {
	return &models.PropertyImage{
		UUID:     "b8a9d0f2-1c2b-4a6f-9a44-0d9a2f6e3c11",
		FilePath: filepath.Join("photos", "2026", "08"),
		FileName: "b8a9d0f2-1c2b-4a6f-9a44-0d9a2f6e3c11.jpg",
	}
}

func TestVariantRelPath(t *testing.T) {
	photo := testPhoto()

	got := VariantRelPath(photo, VariantSmall)
	want := filepath.Join("photos", "2026", "08", photo.UUID+"_small.jpg")
	if got != want {
		t.Fatalf("VariantRelPath = %q, want %q", got, want)
	}

	if got := OriginalRelPath(photo); got != filepath.Join(photo.FilePath, photo.FileName) {
		t.Fatalf("OriginalRelPath = %q", got)
	}
}

func TestApplyOrientationSwapsDimensions(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))

	// Orientations 5-8 involve a 90 degree rotation
	for _, orientation := range []int{5, 6, 7, 8} {
		out := ApplyOrientation(src, orientation)
		if out.Bounds().Dx() != 200 || out.Bounds().Dy() != 400 {
			t.Errorf("orientation %d: got %dx%d, want 200x400", orientation, out.Bounds().Dx(), out.Bounds().Dy())
		}
	}

	// Orientations 1-4 keep dimensions
	for _, orientation := range []int{1, 2, 3, 4} {
		out := ApplyOrientation(src, orientation)
		if out.Bounds().Dx() != 400 || out.Bounds().Dy() != 200 {
			t.Errorf("orientation %d: got %dx%d, want 400x200", orientation, out.Bounds().Dx(), out.Bounds().Dy())
		}
	}
}

func TestReadOrientationWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.jpg")
	if err := imaging.Save(image.NewNRGBA(image.Rect(0, 0, 10, 10)), path); err != nil {
		t.Fatalf("failed to write test image: %v", err)
	}

	if got := ReadOrientation(path); got != 1 {
		t.Fatalf("ReadOrientation = %d, want 1 for image without EXIF", got)
	}

	if got := ReadOrientation(filepath.Join(dir, "missing.jpg")); got != 1 {
		t.Fatalf("ReadOrientation = %d, want 1 for missing file", got)
	}
}

func TestSaveVariantResizesDownOnly(t *testing.T) {
	dir := t.TempDir()

	large := image.NewNRGBA(image.Rect(0, 0, 1000, 500))
	largePath := filepath.Join(dir, "large_small.jpg")
	if err := saveVariant(large, SmallWidth, largePath); err != nil {
		t.Fatalf("saveVariant: %v", err)
	}
	out, err := imaging.Open(largePath)
	if err != nil {
		t.Fatalf("opening variant: %v", err)
	}
	if out.Bounds().Dx() != SmallWidth || out.Bounds().Dy() != SmallWidth/2 {
		t.Fatalf("variant is %dx%d, want %dx%d", out.Bounds().Dx(), out.Bounds().Dy(), SmallWidth, SmallWidth/2)
	}

	// Images already smaller than the target are not upscaled
	small := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	smallPath := filepath.Join(dir, "small_small.jpg")
	if err := saveVariant(small, SmallWidth, smallPath); err != nil {
		t.Fatalf("saveVariant: %v", err)
	}
	out, err = imaging.Open(smallPath)
	if err != nil {
		t.Fatalf("opening variant: %v", err)
	}
	if out.Bounds().Dx() != 100 || out.Bounds().Dy() != 80 {
		t.Fatalf("variant is %dx%d, want 100x80 (no upscaling)", out.Bounds().Dx(), out.Bounds().Dy())
	}
}

func TestIsHEIC(t *testing.T) {
	if !IsHEIC("photo.HEIC") || !IsHEIC("photo.heic") {
		t.Fatal("expected .heic extensions to be detected")
	}
	if IsHEIC("photo.jpg") || IsHEIC("heic.png") {
		t.Fatal("unexpected HEIC detection")
	}
}
