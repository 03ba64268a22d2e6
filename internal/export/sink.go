package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/slack-go/slack"

	"annotation-stats/internal/shared/metrics"
	"annotation-stats/internal/shared/storage/object"
	"annotation-stats/internal/shared/telemetry"
	"annotation-stats/internal/shared/util"
)

// ErrSinkNotConfigured is returned when no delivery target is available.
var ErrSinkNotConfigured = errors.New("export sink not configured")

// Sink hands rendered export content to its destination.
type Sink interface {
	Deliver(ctx context.Context, content []byte, filename, mimeType string) error
}

// Delivery describes a file handed to a sink.
type Delivery struct {
	Filename  string `json:"filename"`
	MIMEType  string `json:"mimeType"`
	SizeBytes int    `json:"sizeBytes"`
}

// Exporter delivers rendered files through a Sink.
type Exporter struct {
	Sink Sink
}

// Export hands file to the configured sink.
func (e *Exporter) Export(ctx context.Context, format Format, file File) (Delivery, error) {
	if e == nil || e.Sink == nil {
		return Delivery{}, ErrSinkNotConfigured
	}
	if err := e.Sink.Deliver(ctx, file.Content, file.Filename, file.MIMEType); err != nil {
		telemetry.Error("export.delivery_failed", map[string]any{
			"filename": file.Filename,
			"format":   string(format),
			"error":    err,
		})
		return Delivery{}, err
	}
	metrics.IncExportDelivered(string(format))
	telemetry.Info("export.delivered", map[string]any{
		"filename":   file.Filename,
		"format":     string(format),
		"size_bytes": len(file.Content),
	})
	return Delivery{
		Filename:  file.Filename,
		MIMEType:  file.MIMEType,
		SizeBytes: len(file.Content),
	}, nil
}

// StoreSink writes exports to an object store under exports/<uuid>_<filename>.
type StoreSink struct {
	Store object.ObjectStore
	// NewID returns the unique key component. Defaults to a random UUID.
	NewID func() string
}

// Deliver implements Sink.
func (s *StoreSink) Deliver(ctx context.Context, content []byte, filename, mimeType string) error {
	if s == nil || s.Store == nil {
		return ErrSinkNotConfigured
	}
	name, err := util.SanitizeFileName(filename)
	if err != nil {
		return fmt.Errorf("sanitize file name: %w", err)
	}
	newID := s.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	key := path.Join("exports", newID()+"_"+name)
	if _, err := s.Store.SaveWithKey(ctx, key, mimeType, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("save export %s: %w", key, err)
	}
	telemetry.Info("export.stored", map[string]any{"storage_key": key})
	return nil
}

// SlackUploader is the subset of the Slack client used for file uploads.
type SlackUploader interface {
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// SlackSink uploads exports to a Slack channel.
type SlackSink struct {
	Client    SlackUploader
	ChannelID string
	Now       func() time.Time
}

// NewSlackSink builds a sink backed by a bot token.
func NewSlackSink(token, channelID string) *SlackSink {
	return &SlackSink{Client: slack.New(token), ChannelID: channelID}
}

// Deliver implements Sink.
func (s *SlackSink) Deliver(ctx context.Context, content []byte, filename, mimeType string) error {
	if s == nil || s.Client == nil || s.ChannelID == "" {
		return ErrSinkNotConfigured
	}
	if len(content) == 0 {
		return fmt.Errorf("upload %s: empty file", filename)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	_, err := s.Client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Reader:         bytes.NewReader(content),
		FileSize:       len(content),
		Filename:       filename,
		Channel:        s.ChannelID,
		Title:          filename,
		InitialComment: fmt.Sprintf("Annotation report generated %s (%s)", now().Format("2006-01-02 15:04"), mimeType),
	})
	if err != nil {
		return fmt.Errorf("slack upload %s: %w", filename, err)
	}
	return nil
}

var (
	_ Sink = (*StoreSink)(nil)
	_ Sink = (*SlackSink)(nil)
)
