package factory

import (
	"context"
	"errors"
	"image"
	"testing"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/storage"
)

func TestStorageTypeFor(t *testing.T) {
	tests := []struct {
		location string
		want     StorageType
	}{
		{"https://example.com/shot.png", HTTPStorage},
		{"http://localhost:8080/shot.png", HTTPStorage},
		{"https://acct.blob.core.windows.net/screens/shot.png", AzureStorage},
		{"screen://1", ScreenStorage},
		{"/tmp/shot.png", LocalStorage},
		{"file:///tmp/shot.png", LocalStorage},
		{"shots/home.png", LocalStorage},
		{"HTTPS://example.com/shot.png", HTTPStorage},
		{"Http://example.com/shot.png", HTTPStorage},
		{"HTTPS://ACCT.Blob.Core.Windows.Net/screens/shot.png", AzureStorage},
		{"SCREEN://0", ScreenStorage},
		{"FILE:///tmp/shot.png", LocalStorage},
	}

	for _, tt := range tests {
		if got := StorageTypeFor(tt.location); got != tt.want {
			t.Errorf("StorageTypeFor(%q) = %s, want %s", tt.location, got, tt.want)
		}
	}
}

func TestStorageFactory_CreateStorage(t *testing.T) {
	f := NewStorageFactory(SourceOptions{})

	for _, st := range []StorageType{HTTPStorage, LocalStorage, ScreenStorage} {
		if fetcher, err := f.CreateStorage(st); err != nil || fetcher == nil {
			t.Errorf("CreateStorage(%s) = %v, %v", st, fetcher, err)
		}
	}
	if _, err := f.CreateStorage(AzureStorage); err == nil {
		t.Error("Expected error creating azure storage without credentials")
	}
	if _, err := f.CreateStorage("ftp"); err == nil {
		t.Error("Expected error for unsupported storage type")
	}
}

type stubFetcher struct {
	calls int
}

func (s *stubFetcher) FetchImage(ctx context.Context, location string) (image.Image, error) {
	s.calls++
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

type stubFactory struct {
	created map[StorageType]int
	fetcher *stubFetcher
}

func (s *stubFactory) CreateStorage(st StorageType) (storage.ImageFetcher, error) {
	s.created[st]++
	return s.fetcher, nil
}

func TestRouter_ReusesFetchers(t *testing.T) {
	sf := &stubFactory{created: map[StorageType]int{}, fetcher: &stubFetcher{}}
	r := NewRouter(sf)

	for _, loc := range []string{"a.png", "b.png", "https://example.com/c.png"} {
		if _, err := r.FetchImage(context.Background(), loc); err != nil {
			t.Fatalf("FetchImage(%q) failed: %v", loc, err)
		}
	}

	if sf.created[LocalStorage] != 1 || sf.created[HTTPStorage] != 1 {
		t.Errorf("Expected one fetcher per type, got %v", sf.created)
	}
	if sf.fetcher.calls != 3 {
		t.Errorf("Expected 3 fetch calls, got %d", sf.fetcher.calls)
	}
}

func TestRouter_EmptyLocation(t *testing.T) {
	r := NewRouter(NewStorageFactory(SourceOptions{}))
	_, err := r.FetchImage(context.Background(), "  ")
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestStorageFactory_PublicOnly(t *testing.T) {
	f := NewStorageFactory(SourceOptions{PublicOnly: true})

	fetcher, err := f.CreateStorage(HTTPStorage)
	if err != nil {
		t.Fatalf("CreateStorage(http) failed: %v", err)
	}
	_, err = fetcher.FetchImage(context.Background(), "http://127.0.0.1:1/shot.png")
	if !errors.Is(err, storage.ErrInternalAddress) {
		t.Errorf("Expected public-only fetcher to refuse loopback, got %v", err)
	}
}
