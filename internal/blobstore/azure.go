package blobstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type AzureStore struct {
	client    *azblob.Client
	container string
	logger    *slog.Logger
	now       func() time.Time
}

// NewAzureStore connects and makes sure the container exists.
func NewAzureStore(ctx context.Context, connectionString, container string, logger *slog.Logger) (*AzureStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client failed: %w", err)
	}
	if _, err := client.CreateContainer(ctx, container, nil); err != nil {
		if !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
			return nil, fmt.Errorf("create blob container failed: %w", err)
		}
	} else {
		logger.Info("blob container created", "container", container)
	}
	return &AzureStore{
		client:    client,
		container: container,
		logger:    logger,
		now:       time.Now,
	}, nil
}

func (s *AzureStore) Save(ctx context.Context, userID, sessionType string, data any) (string, error) {
	at := s.now()
	name := BlobName(userID, sessionType, at)
	payload, err := encode(userID, sessionType, at, data)
	if err != nil {
		return "", err
	}
	if _, err := s.client.UploadBuffer(ctx, s.container, name, payload, nil); err != nil {
		return "", fmt.Errorf("upload blob %s failed: %w", name, err)
	}
	s.logger.Info("session archived to blob", "blob", name, "bytes", len(payload))
	return name, nil
}

func (s *AzureStore) List(ctx context.Context, userID, sessionType string) ([]string, error) {
	prefix := Prefix(userID, sessionType)
	pager := s.client.NewListBlobsFlatPager(s.container, &azblob.ListBlobsFlatOptions{Prefix: &prefix})

	var names []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list blobs failed: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}
