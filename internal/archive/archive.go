// Package archive keeps a copy of every verified webhook body in Cloud Storage.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"

	"cloud.google.com/go/storage"
)

// Archiver stores raw event payloads.
type Archiver interface {
	Archive(ctx context.Context, eventType, deliveryID string, body []byte) error
}

// GCSArchiver writes payloads to <prefix>/<event type>/<delivery id>.json in a bucket.
type GCSArchiver struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSArchiver creates a storage client using application default credentials.
func NewGCSArchiver(ctx context.Context, bucket, prefix string) (*GCSArchiver, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSArchiver{client: client, bucket: bucket, prefix: prefix}, nil
}

func (a *GCSArchiver) Archive(ctx context.Context, eventType, deliveryID string, body []byte) error {
	objectPath := ObjectPath(a.prefix, eventType, deliveryID)
	w := a.client.Bucket(a.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{
		"delivery-id": deliveryID,
		"event-type":  eventType,
	}

	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return fmt.Errorf("write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close %s: %w", objectPath, err)
	}
	return nil
}

// Close releases the storage client.
func (a *GCSArchiver) Close() error {
	return a.client.Close()
}

// ObjectPath builds the object name, replacing characters that would create extra path segments.
func ObjectPath(prefix, eventType, deliveryID string) string {
	return path.Join(strings.Trim(prefix, "/"), safeSegment(eventType, "unknown"), safeSegment(deliveryID, "no-id")+".json")
}

func safeSegment(s, fallback string) string {
	s = strings.TrimSpace(s)
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\':
			return '_'
		}
		return r
	}, s)
	if s == "" || s == "." || s == ".." {
		return fallback
	}
	return s
}
