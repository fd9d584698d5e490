package factory

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"
	"sync"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/storage"
)

// StorageType represents different types of image sources
type StorageType string

const (
	// HTTPStorage for http(s) URLs
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob URLs
	AzureStorage StorageType = "azure"
	// LocalStorage for local file paths and file:// URLs
	LocalStorage StorageType = "local"
	// ScreenStorage for screen://<display> captures
	ScreenStorage StorageType = "screen"
)

// StorageFactory creates image fetchers
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// AzureCredentials holds the optional blob storage account
type AzureCredentials struct {
	AccountName string
	AccountKey  string
}

// SourceOptions configures the fetchers a factory creates
type SourceOptions struct {
	Azure AzureCredentials

	// PublicOnly makes HTTP fetchers refuse loopback, private and
	// link-local addresses.
	PublicOnly bool
}

// storageFactory implements StorageFactory
type storageFactory struct {
	opts SourceOptions
}

// NewStorageFactory creates a new storage factory. Azure fetchers are only
// available when credentials are supplied.
func NewStorageFactory(opts SourceOptions) StorageFactory {
	return &storageFactory{opts: opts}
}

// CreateStorage creates a fetcher for the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		if f.opts.PublicOnly {
			return storage.NewPublicHTTPImageFetcher(), nil
		}
		return storage.NewHTTPImageFetcher(), nil
	case AzureStorage:
		azure := f.opts.Azure
		if azure.AccountName == "" || azure.AccountKey == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureImageFetcher(azure.AccountName, azure.AccountKey)
	case LocalStorage:
		return storage.NewFileImageFetcher(), nil
	case ScreenStorage:
		return storage.NewScreenImageFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// StorageTypeFor picks the storage type that serves a location. Schemes are
// matched case-insensitively; anything without a known scheme is a path.
func StorageTypeFor(location string) StorageType {
	u, err := url.Parse(location)
	if err != nil {
		return LocalStorage
	}
	switch strings.ToLower(u.Scheme) {
	case "screen":
		return ScreenStorage
	case "http", "https":
		if storage.IsBlobURL(location) {
			return AzureStorage
		}
		return HTTPStorage
	default:
		return LocalStorage
	}
}

// Router is an ImageFetcher that dispatches each location to the fetcher for
// its storage type. Fetchers are created lazily and reused.
type Router struct {
	factory StorageFactory

	mu       sync.Mutex
	fetchers map[StorageType]storage.ImageFetcher
}

// NewRouter creates a routing fetcher backed by factory
func NewRouter(factory StorageFactory) *Router {
	return &Router{
		factory:  factory,
		fetchers: make(map[StorageType]storage.ImageFetcher),
	}
}

// FetchImage implements storage.ImageFetcher
func (r *Router) FetchImage(ctx context.Context, location string) (image.Image, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperrors.NewValidationError("image location is required", nil)
	}

	fetcher, err := r.fetcherFor(StorageTypeFor(location))
	if err != nil {
		return nil, apperrors.NewValidationError("no image source for "+location, err)
	}
	return fetcher.FetchImage(ctx, location)
}

func (r *Router) fetcherFor(storageType StorageType) (storage.ImageFetcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.fetchers[storageType]; ok {
		return f, nil
	}
	f, err := r.factory.CreateStorage(storageType)
	if err != nil {
		return nil, err
	}
	r.fetchers[storageType] = f
	return f, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(opts SourceOptions) *ComponentFactory {
	return &ComponentFactory{
		StorageFactory: NewStorageFactory(opts),
	}
}
