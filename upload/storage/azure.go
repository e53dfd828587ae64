package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// AzureConfig holds configuration for the Azure Blob Storage backend.
type AzureConfig struct {
	AccountName string // Azure storage account name (required)
	AccountKey  string // Azure storage account key (required)
	Container   string // Blob container name (required)
	BaseURL     string // Custom base URL for public access (optional)
}

// AzureBlobStorage stores gallery objects in an Azure Blob container.
type AzureBlobStorage struct {
	client  *azblob.Client
	keyCred *azblob.SharedKeyCredential
	config  AzureConfig
}

// NewAzureBlob creates an Azure Blob backend authenticated with a shared key.
func NewAzureBlob(config AzureConfig) (*AzureBlobStorage, error) {
	if config.AccountName == "" || config.AccountKey == "" || config.Container == "" {
		return nil, fmt.Errorf("account name, account key, and container are required")
	}
	cred, err := azblob.NewSharedKeyCredential(config.AccountName, config.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credentials: %w", err)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(config.serviceURL(), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}
	return &AzureBlobStorage{client: client, keyCred: cred, config: config}, nil
}

func (c AzureConfig) serviceURL() string {
	return fmt.Sprintf("https://%s.blob.core.windows.net/", c.AccountName)
}

func (a *AzureBlobStorage) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = cleanKey(key)
	opts := &azblob.UploadStreamOptions{}
	if contentType != "" {
		opts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}
	if _, err := a.client.UploadStream(ctx, a.config.Container, key, r, opts); err != nil {
		return "", fmt.Errorf("failed to upload to Azure Blob: %w", err)
	}
	return key, nil
}

func (a *AzureBlobStorage) URL(key string) string {
	if a.config.BaseURL != "" {
		return joinURL(a.config.BaseURL, key)
	}
	return joinURL(a.config.serviceURL()+a.config.Container, cleanKey(key))
}

func (a *AzureBlobStorage) Delete(ctx context.Context, key string) error {
	_, err := a.client.DeleteBlob(ctx, a.config.Container, cleanKey(key), nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return fmt.Errorf("failed to delete from Azure Blob: %w", err)
	}
	return nil
}

func (a *AzureBlobStorage) Exists(ctx context.Context, key string) (bool, error) {
	blobClient := a.client.ServiceClient().NewContainerClient(a.config.Container).NewBlobClient(cleanKey(key))
	_, err := blobClient.GetProperties(ctx, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read blob properties: %w", err)
	}
	return true, nil
}

// SignedURL returns a SAS URL granting create and write access to key until expiry.
func (a *AzureBlobStorage) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	key = cleanKey(key)
	values := sas.BlobSignatureValues{
		Protocol:      sas.ProtocolHTTPS,
		ContainerName: a.config.Container,
		BlobName:      key,
		Permissions:   (&sas.BlobPermissions{Create: true, Write: true}).String(),
		StartTime:     time.Now().Add(-5 * time.Minute).UTC(),
		ExpiryTime:    time.Now().Add(expiry).UTC(),
	}
	q, err := values.SignWithSharedKey(a.keyCred)
	if err != nil {
		return "", fmt.Errorf("failed to generate SAS token: %w", err)
	}
	return joinURL(a.config.serviceURL()+a.config.Container, key) + "?" + q.Encode(), nil
}

func (a *AzureBlobStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	pager := a.client.NewListBlobsFlatPager(a.config.Container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	return keys, nil
}

func (a *AzureBlobStorage) Close() error {
	return nil
}
