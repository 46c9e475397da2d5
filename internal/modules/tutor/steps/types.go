package steps

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	repos "github.com/yungbote/summit-backend/internal/data/repos/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/mediacodec"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/platform/alert"
	"github.com/yungbote/summit-backend/internal/platform/openai"
	"github.com/yungbote/summit-backend/internal/services"
)

const (
	DefaultStreamInterval        = 200 * time.Millisecond
	DefaultMaxResponseAttempts   = 3
	DefaultAnalyzerParseAttempts = 3
	DefaultThreadTokenCeiling    = 25000
)

type Config struct {
	TutorModel    string
	AnalyzerModel string
	MediaModel    string

	StreamInterval        time.Duration
	MaxResponseAttempts   int
	AnalyzerParseAttempts int
	ThreadTokenCeiling    int
}

func (c Config) withDefaults() Config {
	if c.StreamInterval <= 0 {
		c.StreamInterval = DefaultStreamInterval
	}
	if c.MaxResponseAttempts <= 0 {
		c.MaxResponseAttempts = DefaultMaxResponseAttempts
	}
	if c.AnalyzerParseAttempts <= 0 {
		c.AnalyzerParseAttempts = DefaultAnalyzerParseAttempts
	}
	if c.ThreadTokenCeiling <= 0 {
		c.ThreadTokenCeiling = DefaultThreadTokenCeiling
	}
	if c.MediaModel == "" {
		c.MediaModel = c.AnalyzerModel
	}
	return c
}

// Deps is shared by every pipeline step.
type Deps struct {
	DB  *gorm.DB
	Log *logger.Logger
	AI  openai.Client

	Activities  repos.ActivityRepo
	Items       repos.ItemRepo
	Catalog     repos.CatalogRepo
	Threads     repos.ThreadRepo
	Messages    repos.MessageRepo
	Completions repos.CompletionRepo
	ViewPieces  repos.ViewPieceRepo
	Flags       repos.FlagRepo
	Attempts    repos.AttemptRepo

	Notify services.TutorNotifier
	Alert  alert.Alerter
	Codec  *mediacodec.Codec
	Scorer Scorer

	Config Config
}

// WithRepos fills the repository fields of d from r.
func (d Deps) WithRepos(r *repos.Repos) Deps {
	d.DB = r.DB
	d.Activities = r.Activity
	d.Items = r.Item
	d.Catalog = r.Catalog
	d.Threads = r.Thread
	d.Messages = r.Message
	d.Completions = r.Completion
	d.ViewPieces = r.ViewPiece
	d.Flags = r.Flag
	d.Attempts = r.Attempt
	return d
}

func (d Deps) validate() error {
	if d.DB == nil || d.Log == nil || d.AI == nil {
		return fmt.Errorf("tutor pipeline: missing deps")
	}
	if d.Activities == nil || d.Items == nil || d.Catalog == nil || d.Threads == nil || d.Messages == nil ||
		d.Completions == nil || d.ViewPieces == nil || d.Flags == nil || d.Attempts == nil {
		return fmt.Errorf("tutor pipeline: missing repos")
	}
	if d.Notify == nil || d.Codec == nil || d.Scorer == nil {
		return fmt.Errorf("tutor pipeline: missing collaborators")
	}
	return nil
}

func (d Deps) alerter() alert.Alerter {
	if d.Alert == nil {
		return alert.Nop{}
	}
	return d.Alert
}
