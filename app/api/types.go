package api

import (
	"context"

	"github.com/Reaperrhs/RSS-Feed-Generator/app/database"
	"github.com/Reaperrhs/RSS-Feed-Generator/app/feed"
)

type GeneratorPipeline interface {
	Run(ctx context.Context, pageURL string) (*feed.Channel, string, error)
	UnavailableFeed(pageURL string) string
}

var _ GeneratorPipeline = (*feed.Processor)(nil)

type ChannelParser interface {
	Run(xmlContent string) (*feed.Channel, error)
}

var _ ChannelParser = (*feed.Parser)(nil)

type FeedRepository interface {
	Upsert(record *database.FeedRecord) (string, error)
	GetByID(id string) (*database.FeedRecord, error)
	List() ([]database.FeedRecord, error)
	UpdateContent(id string, xmlContent string) error
	SetUpload(id, fileID, publicURL string) error
	Delete(id string) error
	Count() (int, error)
}

var _ FeedRepository = (*database.FeedRepository)(nil)

// UploadConfig carries the destination settings for a single upload
// call. The uploader holds no client state between calls.
type UploadConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"access_key"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
}

type UploadRequest struct {
	XML      string
	FileName string
	Config   UploadConfig
}

type UploadResult struct {
	FileID  string
	ViewURL string
}

type Uploader interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

type Handler struct {
	repo            FeedRepository
	pipeline        GeneratorPipeline
	parser          ChannelParser
	uploader        Uploader
	defaultCacheAge int
}
