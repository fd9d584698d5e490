package storage

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureImageFetcher reads screenshots uploaded to Azure Blob Storage, e.g. by
// a CI job. Locations look like
// https://<account>.blob.core.windows.net/<container>/<blob path>.
type AzureImageFetcher struct {
	client *azblob.Client
}

func NewAzureImageFetcher(accountName string, accountKey string) (ImageFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("invalid azure credentials: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create blob client: %w", err)
	}

	return &AzureImageFetcher{client: client}, nil
}

func (s *AzureImageFetcher) FetchImage(ctx context.Context, blobURL string) (image.Image, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := s.client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	img, _, err := DecodeImage(retryReader)
	return img, err
}

// IsBlobURL reports whether the location points at Azure Blob Storage.
func IsBlobURL(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "https") &&
		strings.HasSuffix(strings.ToLower(u.Hostname()), ".blob.core.windows.net")
}

// ParseBlobURL splits a blob URL into container and blob name. The older
// ?blob=<name> query form is also accepted.
func ParseBlobURL(blobURL string) (container string, blob string, err error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid blob URL: %w", err)
	}

	path := strings.TrimPrefix(parsedURL.Path, "/")
	container, blob, _ = strings.Cut(path, "/")
	if q := parsedURL.Query().Get("blob"); q != "" && blob == "" {
		blob = q
	}
	if container == "" || blob == "" {
		return "", "", fmt.Errorf("invalid blob URL %q: expected /<container>/<blob>", blobURL)
	}
	return container, blob, nil
}
