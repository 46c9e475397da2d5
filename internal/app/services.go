package app

import (
	"fmt"

	"gorm.io/gorm"

	tutorrepos "github.com/yungbote/summit-backend/internal/data/repos/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor"
	"github.com/yungbote/summit-backend/internal/modules/tutor/mediacodec"
	"github.com/yungbote/summit-backend/internal/modules/tutor/steps"
	"github.com/yungbote/summit-backend/internal/pkg/logger"
	"github.com/yungbote/summit-backend/internal/services"
)

type Services struct {
	Notify services.TutorNotifier
	Scorer steps.Scorer
	Tutor  tutor.Usecases
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet *tutorrepos.Repos, clients Clients) (Services, error) {
	log.Info("Wiring services...")
	codec, err := mediacodec.New(cfg.codecConfig())
	if err != nil {
		return Services{}, fmt.Errorf("init media codec: %w", err)
	}

	notify := services.NewTutorNotifier(&services.PubSubEmitter{PubSub: clients.PubSub, Log: log})

	var scorer steps.Scorer
	if cfg.Pipeline.ScoringJudgeEnabled {
		scorer = steps.NewDefaultScorer(log, clients.AI, cfg.judgeModel())
	} else {
		scorer = steps.NewDefaultScorer(log, nil, "")
	}

	usecases := tutor.New(tutor.UsecasesDeps{
		DB:                   db,
		Log:                  log.With("module", "tutor"),
		AI:                   clients.AI,
		Repos:                reposet,
		Notify:               notify,
		Alert:                clients.Alert,
		Codec:                codec,
		Scorer:               scorer,
		Pipeline:             cfg.pipelineConfig(),
		MaxConcurrentThreads: cfg.Pipeline.MaxConcurrentThreads,
	})

	return Services{Notify: notify, Scorer: scorer, Tutor: usecases}, nil
}
