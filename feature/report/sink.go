package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pp9653/warera-ranking-sys/core/storage"

	"github.com/minio/minio-go/v7"
)

// Sink receives export artifacts.
type Sink interface {
	// Write stores data under name and returns where it ended up.
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// FileSink writes artifacts into a local directory.
type FileSink struct {
	Dir string
}

// Write implements Sink.
func (s FileSink) Write(ctx context.Context, name string, data []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return target, nil
}

// BucketSink uploads artifacts to an object storage bucket.
type BucketSink struct {
	Client storage.Client
	Bucket string
	Region string
	Prefix string
	// Keep is how many weeks of artifacts per country survive Prune. Zero keeps all.
	Keep   int
}

func (s BucketSink) key(name string) string {
	if s.Prefix == "" {
		return name
	}
	return path.Join(s.Prefix, name)
}

// Write implements Sink.
func (s BucketSink) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := storage.EnsureBucket(ctx, s.Client, s.Bucket, s.Region); err != nil {
		return "", err
	}
	key := s.key(name)
	_, err := s.Client.PutObject(ctx, s.Bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType(name),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.Bucket + "/" + key, nil
}

// Open downloads an artifact previously written under name.
func (s BucketSink) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	key := s.key(name)
	obj, err := s.Client.GetObject(ctx, s.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return obj, nil
}

// Prune keeps the artifacts of the newest Keep weeks of a country and removes
// the rest. Objects are grouped by week, so a week is kept or removed whole.
// currentWeek is always kept. It returns the removed keys.
func (s BucketSink) Prune(ctx context.Context, stem, currentWeek string) ([]string, error) {
	if s.Keep <= 0 {
		return nil, nil
	}

	type week struct {
		id     string
		latest time.Time
		keys   []string
	}
	weeks := make(map[string]*week)
	prefix := s.key(stem)
	for obj := range s.Client.ListObjects(ctx, s.Bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %s: %w", stem, obj.Err)
		}
		id, ok := weekOf(strings.TrimPrefix(obj.Key, prefix))
		if !ok {
			continue
		}
		w, exists := weeks[id]
		if !exists {
			w = &week{id: id}
			weeks[id] = w
		}
		w.keys = append(w.keys, obj.Key)
		if obj.LastModified.After(w.latest) {
			w.latest = obj.LastModified
		}
	}
	if len(weeks) <= s.Keep {
		return nil, nil
	}

	ordered := make([]*week, 0, len(weeks))
	for _, w := range weeks {
		ordered = append(ordered, w)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if (ordered[i].id == currentWeek) != (ordered[j].id == currentWeek) {
			return ordered[i].id == currentWeek
		}
		if !ordered[i].latest.Equal(ordered[j].latest) {
			return ordered[i].latest.After(ordered[j].latest)
		}
		return ordered[i].id > ordered[j].id
	})

	var removed []string
	for _, w := range ordered[s.Keep:] {
		sort.Strings(w.keys)
		for _, key := range w.keys {
			if err := s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
				return removed, fmt.Errorf("remove %s: %w", key, err)
			}
			removed = append(removed, key)
		}
	}
	return removed, nil
}

// weekOf extracts the week id from an artifact name with the country stem
// already stripped, e.g. "week_2025_10_export.json" -> "week_2025_10".
func weekOf(name string) (string, bool) {
	if !strings.HasPrefix(name, "week_") {
		return "", false
	}
	for _, kind := range []string{KindSummaryJSON, KindSummaryText, KindExport} {
		if id, ok := strings.CutSuffix(name, "_"+kind); ok {
			return id, true
		}
	}
	return "", false
}

func contentType(name string) string {
	switch {
	case strings.HasSuffix(name, ".json"):
		return "application/json"
	case strings.HasSuffix(name, ".txt"):
		return "text/plain; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
