package service

import (
	"golang.org/x/text/language"

	"opportunity-engine/internal/config"
	"opportunity-engine/pkg/api"
	"opportunity-engine/pkg/extraction"
	"opportunity-engine/pkg/logger"
	"opportunity-engine/pkg/pipeline"
	"opportunity-engine/pkg/trends"
)

type runService struct {
	cfg         *config.Config
	extractDoer api.Doer
	trendDoer   api.Doer
	sleep       api.SleepFunc
}

// NewRunService builds one HTTP client per API and shares them across runs.
func NewRunService(cfg *config.Config) RunService {
	return &runService{
		cfg:         cfg,
		extractDoer: api.NewHTTPDoer(api.ExtractionConnectionConfig(cfg.Extraction.Timeout)),
		trendDoer:   api.NewHTTPDoer(api.TrendConnectionConfig(cfg.Trends.Timeout)),
	}
}

// NewRunServiceWithDoers is NewRunService with caller-supplied transports and sleep.
func NewRunServiceWithDoers(cfg *config.Config, extractDoer, trendDoer api.Doer, sleep api.SleepFunc) RunService {
	return &runService{cfg: cfg, extractDoer: extractDoer, trendDoer: trendDoer, sleep: sleep}
}

func (s *runService) Settings(in pipeline.Settings) pipeline.Settings {
	out := in
	if out.Year == 0 {
		out.Year = s.cfg.Extraction.Year
	}
	if out.Country == "" {
		out.Country = s.cfg.Extraction.Country
	}
	out.EnableTrends = out.EnableTrends && s.cfg.Trends.Enabled
	return out
}

func (s *runService) NewRunner(settings pipeline.Settings, sink logger.Sink, progress logger.ProgressFunc) *pipeline.Runner {
	ec := s.cfg.Extraction
	engine := extraction.NewEngine(s.extractDoer, extraction.Config{
		Endpoint:      ec.Endpoint,
		Token:         settings.Token,
		Property:      settings.Property,
		Country:       settings.Country,
		Location:      ec.Location,
		ShowKeywords:  ec.ShowKeywords,
		Year:          settings.Year,
		Locale:        language.Make(ec.Locale),
		MaxAttempts:   ec.MaxAttempts,
		CourtesyDelay: ec.CourtesyDelay,
		Timeout:       ec.Timeout,
		Sleep:         s.sleep,
	})

	var enricher pipeline.Enricher
	if s.cfg.Trends.Enabled {
		tc := s.cfg.Trends
		enricher = trends.NewEnricher(s.trendDoer, trends.Config{
			Endpoint:       tc.Endpoint,
			Username:       tc.Username,
			Password:       tc.Password,
			LocationCode:   tc.LocationCode,
			LanguageCode:   tc.LanguageCode,
			Year:           settings.Year,
			Delay:          tc.Delay,
			RateLimitPause: tc.RateLimitPause,
			Timeout:        tc.Timeout,
			Sleep:          s.sleep,
		})
	}

	return pipeline.NewRunner(engine, enricher, s.cfg.Report.OutputDir, sink, progress)
}
