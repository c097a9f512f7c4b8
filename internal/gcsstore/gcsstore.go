package gcsstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// StorageService provides an interface for cloud storage operations.
// This interface enables mocking and testing of storage functionality.
type StorageService interface {
	// DownloadObject fetches the whole object at bucket/key. The pipeline
	// reads entire CSV tables; there are no partial or streamed reads.
	DownloadObject(ctx context.Context, bucket, key string) ([]byte, error)

	// UploadFile uploads a local file to a storage bucket under the given
	// object name.
	UploadFile(ctx context.Context, bucket, object, filePath string) error
}

// Client is the concrete StorageService backed by Google Cloud Storage.
// A nil options slice means Application Default Credentials.
type Client struct {
	opts []option.ClientOption
}

// NewClient creates a storage client. credentialsFile may be empty, in which
// case ADC is used (gcloud auth application-default login).
func NewClient(credentialsFile string) *Client {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return &Client{opts: opts}
}

// DownloadObject fetches the whole object at bucket/key.
func (c *Client) DownloadObject(ctx context.Context, bucket, key string) ([]byte, error) {
	client, err := storage.NewClient(ctx, c.opts...)
	if err != nil {
		return nil, fmt.Errorf("downloadObject: creating storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("downloadObject: reading object %s/%s: %w", bucket, key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("downloadObject: reading bytes: %w", err)
	}

	return data, nil
}

// UploadFile uploads a local file to a storage bucket under the given object
// name. Used by the CLI to push fixed dataset CSVs back to the bucket.
func (c *Client) UploadFile(ctx context.Context, bucket, object, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file %q: %w", filePath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx, c.opts...)
	if err != nil {
		return fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(bucket).Object(object).NewWriter(ctx)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy file to storage writer: %w", err)
	}

	// Close finalizes the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload: %w", err)
	}

	return nil
}
