package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pp9653/warera-ranking-sys/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

func TestFileName(t *testing.T) {
	assert.Equal(t, "argentina_week_2025_10_export.json", FileName("Argentina", "week_2025_10", KindExport))
	assert.Equal(t, "united_states_week_2025_1_summary.txt", FileName(" United States ", "week_2025_1", KindSummaryText))
}

func TestExport_FileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")

	written, err := Export(context.Background(), testView(), FileSink{Dir: dir}, exportTime)
	require.NoError(t, err)
	require.Len(t, written, 3)

	for _, kind := range []string{KindSummaryJSON, KindSummaryText, KindExport} {
		assert.FileExists(t, filepath.Join(dir, FileName("Argentina", "week_2025_10", kind)))
	}

	f, err := os.Open(filepath.Join(dir, "argentina_week_2025_10_export.json"))
	require.NoError(t, err)
	defer f.Close()

	doc, err := ReadDocument(f)
	require.NoError(t, err)
	assert.Equal(t, "Argentina", doc.Country)
	assert.Equal(t, exportTime, doc.ExportTimestamp)

	view := doc.View()
	want := testView()
	want.LastUpdated = exportTime
	assert.Equal(t, want, view)
}

func TestReadDocument_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"NotJSON", "nope"},
		{"MissingCountry", `{"players":[]}`},
		{"PlayerWithoutID", `{"country":"Argentina","players":[{"name":"x"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadDocument(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestExport_BucketSink(t *testing.T) {
	client := new(mocks.Client)
	sink := BucketSink{Client: client, Bucket: "reports", Prefix: "warera"}

	client.On("BucketExists", mock.Anything, "reports").Return(false, nil).Once()
	client.On("MakeBucket", mock.Anything, "reports", mock.Anything).Return(nil).Once()
	client.On("BucketExists", mock.Anything, "reports").Return(true, nil)
	client.On("PutObject", mock.Anything, "reports", mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "warera/argentina_week_2025_10_")
	}), mock.Anything, mock.Anything, mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
		return opts.ContentType != ""
	})).Return(minio.UploadInfo{}, nil)

	written, err := Export(context.Background(), testView(), sink, exportTime)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"reports/warera/argentina_week_2025_10_summary.json",
		"reports/warera/argentina_week_2025_10_summary.txt",
		"reports/warera/argentina_week_2025_10_export.json",
	}, written)
	client.AssertNumberOfCalls(t, "PutObject", 3)
	client.AssertNotCalled(t, "ListObjects", mock.Anything, mock.Anything, mock.Anything)
}

func TestExport_BucketSinkUploadFails(t *testing.T) {
	client := new(mocks.Client)
	sink := BucketSink{Client: client, Bucket: "reports"}

	client.On("BucketExists", mock.Anything, "reports").Return(true, nil)
	client.On("PutObject", mock.Anything, "reports", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, errors.New("denied"))

	written, err := Export(context.Background(), testView(), sink, exportTime)
	assert.ErrorContains(t, err, "upload argentina_week_2025_10_summary.json")
	assert.Empty(t, written)
}

func weekArtifacts(ch chan minio.ObjectInfo, week string, modified time.Time) {
	for _, kind := range []string{KindSummaryJSON, KindSummaryText, KindExport} {
		ch <- minio.ObjectInfo{Key: FileName("Argentina", week, kind), LastModified: modified}
	}
}

func TestBucketSink_Prune(t *testing.T) {
	client := new(mocks.Client)
	sink := BucketSink{Client: client, Bucket: "reports", Keep: 2}

	ch := make(chan minio.ObjectInfo, 16)
	weekArtifacts(ch, "week_2025_8", exportTime.Add(-2*7*24*time.Hour))
	weekArtifacts(ch, "week_2025_10", exportTime)
	weekArtifacts(ch, "week_2025_7", exportTime.Add(-3*7*24*time.Hour))
	weekArtifacts(ch, "week_2025_9", exportTime.Add(-7*24*time.Hour))
	ch <- minio.ObjectInfo{Key: "argentina_notes.txt", LastModified: exportTime.Add(-100 * 24 * time.Hour)}
	close(ch)
	client.On("ListObjects", mock.Anything, "reports", minio.ListObjectsOptions{Prefix: "argentina_", Recursive: true}).
		Return((<-chan minio.ObjectInfo)(ch))
	client.On("RemoveObject", mock.Anything, "reports", mock.Anything, mock.Anything).Return(nil)

	removed, err := sink.Prune(context.Background(), Stem("Argentina"), "week_2025_10")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"argentina_week_2025_8_export.json",
		"argentina_week_2025_8_summary.json",
		"argentina_week_2025_8_summary.txt",
		"argentina_week_2025_7_export.json",
		"argentina_week_2025_7_summary.json",
		"argentina_week_2025_7_summary.txt",
	}, removed)
	client.AssertNumberOfCalls(t, "RemoveObject", 6)
}

func TestBucketSink_PruneKeepsCurrentWeek(t *testing.T) {
	client := new(mocks.Client)
	sink := BucketSink{Client: client, Bucket: "reports", Keep: 1}

	// An older week carries a later timestamp than the one just written.
	ch := make(chan minio.ObjectInfo, 6)
	weekArtifacts(ch, "week_2025_10", exportTime)
	weekArtifacts(ch, "week_2025_9", exportTime.Add(time.Hour))
	close(ch)
	client.On("ListObjects", mock.Anything, "reports", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))
	client.On("RemoveObject", mock.Anything, "reports", mock.Anything, mock.Anything).Return(nil)

	removed, err := sink.Prune(context.Background(), Stem("Argentina"), "week_2025_10")
	require.NoError(t, err)
	for _, key := range removed {
		assert.Contains(t, key, "week_2025_9")
	}
	assert.Len(t, removed, 3)
}

func TestExport_BucketSinkRetainsWrittenArtifacts(t *testing.T) {
	client := new(mocks.Client)
	sink := BucketSink{Client: client, Bucket: "reports", Keep: 2}

	ch := make(chan minio.ObjectInfo, 3)
	weekArtifacts(ch, "week_2025_10", exportTime)
	close(ch)
	client.On("BucketExists", mock.Anything, "reports").Return(true, nil)
	client.On("PutObject", mock.Anything, "reports", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil)
	client.On("ListObjects", mock.Anything, "reports", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	written, err := Export(context.Background(), testView(), sink, exportTime)
	require.NoError(t, err)
	assert.Len(t, written, 3)
	client.AssertNotCalled(t, "RemoveObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBucketSink_Open(t *testing.T) {
	client := new(mocks.Client)
	sink := BucketSink{Client: client, Bucket: "reports", Prefix: "warera"}

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(NewDocument(testView(), exportTime)))
	client.On("GetObject", mock.Anything, "reports", "warera/argentina_week_2025_10_export.json", mock.Anything).
		Return(io.NopCloser(&buf), nil)

	rc, err := sink.Open(context.Background(), "argentina_week_2025_10_export.json")
	require.NoError(t, err)
	defer rc.Close()

	doc, err := ReadDocument(rc)
	require.NoError(t, err)
	assert.Len(t, doc.Players, 4)
}
