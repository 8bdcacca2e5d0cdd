package storage

import (
	"testing"
	"time"
)

func TestPhotoKeyLayout(t *testing.T) {
	ts := time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

	key := PhotoKey("0b2d7c1e-aaaa-bbbb-cccc-000000000001", ".JPG", ts)
	want := "photos/2026/03/0b2d7c1e-aaaa-bbbb-cccc-000000000001.jpg"
	if key != want {
		t.Fatalf("PhotoKey = %q, want %q", key, want)
	}
}

func TestPublicURLWithDomain(t *testing.T) {
	t.Setenv("PUBLIC_DOMAIN", "https://trocalar.com.br/")

	m := NewManager()
	got := m.PublicURL("photos/2026/03/abc.jpg")
	want := "https://trocalar.com.br/uploads/photos/2026/03/abc.jpg"
	if got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}

func TestPublicURLWithoutDomainIsRelative(t *testing.T) {
	t.Setenv("PUBLIC_DOMAIN", "")

	m := NewManager()
	got := m.PublicURL("photos/2026/03/abc.jpg")
	want := "/uploads/photos/2026/03/abc.jpg"
	if got != want {
		t.Fatalf("PublicURL = %q, want %q", got, want)
	}
}
