package upload

import (
	"testing"
)

var (
	pngHead  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	jpegHead = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
)

func TestValidateImageBySniffAcceptsRealImages(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		mime string
	}{
		{"foto.png", pngHead, "image/png"},
		{"foto.jpg", jpegHead, "image/jpeg"},
		{"FOTO.JPEG", jpegHead, "image/jpeg"},
	}
	for _, tt := range tests {
		mime, err := ValidateImageBySniff(tt.name, tt.head)
		if err != nil {
			t.Errorf("ValidateImageBySniff(%q) error: %v", tt.name, err)
			continue
		}
		if mime != tt.mime {
			t.Errorf("ValidateImageBySniff(%q) = %q, want %q", tt.name, mime, tt.mime)
		}
	}
}

func TestValidateImageBySniffRejectsDisallowedExtension(t *testing.T) {
	if _, err := ValidateImageBySniff("script.svg", pngHead); err == nil {
		t.Fatalf("svg extension accepted")
	}
	if _, err := ValidateImageBySniff("doc.pdf", pngHead); err == nil {
		t.Fatalf("pdf extension accepted")
	}
}

func TestValidateImageBySniffRejectsHTMLContent(t *testing.T) {
	if _, err := ValidateImageBySniff("foto.png", []byte("<html><body>oi</body></html>")); err == nil {
		t.Fatalf("html content behind an image extension accepted")
	}
}

func TestValidateImageBySniffAllowsHEICByExtension(t *testing.T) {
	// HEIC sniffs as octet-stream on most Go versions.
	head := make([]byte, 16)
	mime, err := ValidateImageBySniff("foto.heic", head)
	if err != nil {
		t.Fatalf("ValidateImageBySniff heic: %v", err)
	}
	if mime != "application/octet-stream" {
		t.Fatalf("mime = %q", mime)
	}
}
