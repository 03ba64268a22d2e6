package export

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (s *fakeStore) SaveWithKey(_ context.Context, key, contentType string, r io.Reader) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	s.key, s.contentType, s.body = key, contentType, data
	return int64(len(data)), nil
}

func (s *fakeStore) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type fakeUploader struct {
	params slack.UploadFileV2Parameters
	body   []byte
	err    error
}

func (u *fakeUploader) UploadFileV2Context(_ context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error) {
	if u.err != nil {
		return nil, u.err
	}
	u.params = params
	data, err := io.ReadAll(params.Reader)
	if err != nil {
		return nil, err
	}
	u.body = data
	return &slack.FileSummary{ID: "F1", Title: params.Title}, nil
}

func TestStoreSinkWritesUnderExports(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	sink := &StoreSink{Store: store, NewID: func() string { return "id-1" }}

	err := sink.Deliver(context.Background(), []byte("a,b\n1,2"), "report.csv", "text/csv")
	require.NoError(t, err)
	assert.Equal(t, "exports/id-1_report.csv", store.key)
	assert.Equal(t, "text/csv", store.contentType)
	assert.Equal(t, "a,b\n1,2", string(store.body))
}

func TestStoreSinkRejectsTraversal(t *testing.T) {
	t.Parallel()

	sink := &StoreSink{Store: &fakeStore{}}
	err := sink.Deliver(context.Background(), []byte("x"), "../report.csv", "text/csv")
	assert.Error(t, err)
}

func TestSlackSinkUploadsToChannel(t *testing.T) {
	t.Parallel()

	uploader := &fakeUploader{}
	sink := &SlackSink{
		Client:    uploader,
		ChannelID: "C123",
		Now:       func() time.Time { return time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC) },
	}

	err := sink.Deliver(context.Background(), []byte("[]"), "report.json", "application/json")
	require.NoError(t, err)
	assert.Equal(t, "C123", uploader.params.Channel)
	assert.Equal(t, "report.json", uploader.params.Filename)
	assert.Equal(t, 2, uploader.params.FileSize)
	assert.Equal(t, "Annotation report generated 2024-01-02 09:30 (application/json)", uploader.params.InitialComment)
	assert.Equal(t, "[]", string(uploader.body))
}

func TestSlackSinkRequiresChannel(t *testing.T) {
	t.Parallel()

	sink := &SlackSink{Client: &fakeUploader{}}
	err := sink.Deliver(context.Background(), []byte("x"), "report.csv", "text/csv")
	assert.ErrorIs(t, err, ErrSinkNotConfigured)
}

func TestExporterReportsDelivery(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	exp := &Exporter{Sink: &StoreSink{Store: store, NewID: func() string { return "x" }}}
	file := File{Filename: "report.csv", MIMEType: "text/csv", Content: []byte("a\n1")}

	got, err := exp.Export(context.Background(), FormatCSV, file)
	require.NoError(t, err)
	assert.Equal(t, Delivery{Filename: "report.csv", MIMEType: "text/csv", SizeBytes: 3}, got)
}

func TestExporterPropagatesSinkError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	exp := &Exporter{Sink: &StoreSink{Store: &fakeStore{err: boom}}}
	_, err := exp.Export(context.Background(), FormatCSV, File{Filename: "report.csv", Content: []byte("a")})
	assert.ErrorIs(t, err, boom)

	var nilExporter *Exporter
	_, err = nilExporter.Export(context.Background(), FormatCSV, File{})
	assert.ErrorIs(t, err, ErrSinkNotConfigured)
}
