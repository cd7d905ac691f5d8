package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"sigmapips/internal/domain/models"
	"sigmapips/internal/domain/repository"
	"sigmapips/internal/domain/service"
	"sigmapips/pkg/cache"
	"sigmapips/pkg/config"
	"sigmapips/pkg/logger"
)

// Pipeline turns one inbound signal into cached artifacts and delivered
// per-subscriber messages. All collaborators are injected so tests can
// substitute fakes.
type Pipeline struct {
	logger    *logger.Logger
	matcher   *Matcher
	cache     cache.Service
	sentiment service.SentimentAnalyzer
	chart     service.ChartRenderer
	calendar  service.EconomicCalendar
	delivery  service.DeliveryChannel
	audit     repository.AuditLog
	metrics   repository.Metrics

	cacheTTL          time.Duration
	enrichmentTimeout time.Duration
	deliveryTimeout   time.Duration
}

// NewPipeline creates the signal pipeline.
func NewPipeline(
	lgr *logger.Logger,
	cfg *config.Config,
	matcher *Matcher,
	cacheSvc cache.Service,
	sentiment service.SentimentAnalyzer,
	chart service.ChartRenderer,
	calendar service.EconomicCalendar,
	delivery service.DeliveryChannel,
	audit repository.AuditLog,
	metrics repository.Metrics,
) *Pipeline {
	return &Pipeline{
		logger:            lgr,
		matcher:           matcher,
		cache:             cacheSvc,
		sentiment:         sentiment,
		chart:             chart,
		calendar:          calendar,
		delivery:          delivery,
		audit:             audit,
		metrics:           metrics,
		cacheTTL:          cfg.Pipeline.CacheTTL,
		enrichmentTimeout: cfg.Pipeline.EnrichmentTimeout,
		deliveryTimeout:   cfg.Pipeline.DeliveryTimeout,
	}
}

// HandleSignal runs the full pipeline for one raw payload. A malformed
// payload fails fast with ValidationError and produces no cache writes or
// delivery attempts. Everything after validation degrades instead of
// aborting: failed enrichment drops a message section, per-subscriber
// delivery failures are counted, and the operation still reports success.
func (p *Pipeline) HandleSignal(ctx context.Context, req *models.SignalRequest) (*models.DeliveryReport, error) {
	start := time.Now()

	sig, err := req.ToSignal(start)
	if err != nil {
		p.metrics.RecordError("validation")
		return nil, err
	}

	p.metrics.RecordSignalReceived(sig.Instrument, sig.Timeframe)
	p.logger.Info("signal accepted",
		logger.String("instrument", sig.Instrument),
		logger.String("timeframe", sig.Timeframe),
		logger.String("action", sig.Action))

	if err := p.audit.RecordSignal(ctx, sig); err != nil {
		p.logger.Warn("audit signal failed", logger.Error(err))
	}

	subs := p.matchSubscribers(ctx, sig)
	enr := p.enrich(ctx, sig)
	text := FormatSignalMessage(sig, enr)

	p.cacheArtifacts(ctx, sig.Instrument, text, enr)

	report := p.deliver(ctx, sig, text, enr, subs)

	if err := p.audit.RecordDelivery(ctx, sig, *report); err != nil {
		p.logger.Warn("audit delivery failed", logger.Error(err))
	}
	p.metrics.RecordLatency("handle_signal", time.Since(start).Seconds())

	p.logger.Info("signal processed",
		logger.String("instrument", sig.Instrument),
		logger.Int("matched", report.TotalMatched),
		logger.Int("sent", report.SentCount),
		logger.Int("failed", report.FailedCount))
	return report, nil
}

// matchSubscribers resolves recipients. An unreachable store degrades to
// "no recipients" but is logged distinctly from a genuine zero-match.
func (p *Pipeline) matchSubscribers(ctx context.Context, sig *models.TradingSignal) []models.Subscriber {
	subs, err := p.matcher.Match(ctx, sig.RoutingKey())
	if err != nil {
		if models.IsStoreUnavailable(err) {
			p.logger.Error("preference store unreachable, skipping delivery", logger.Error(err))
		} else {
			p.logger.Error("subscriber match failed", logger.Error(err))
		}
		p.metrics.RecordError("store_unavailable")
		return nil
	}
	return subs
}

// enrich fans out to the three collaborators concurrently. Each call is
// independently fallible and bounded by its own timeout.
func (p *Pipeline) enrich(ctx context.Context, sig *models.TradingSignal) *models.Enrichment {
	enr := &models.Enrichment{}
	var wg sync.WaitGroup

	if p.sentiment != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, p.enrichmentTimeout)
			defer cancel()
			text, err := p.sentiment.Analyze(cctx, sig.Instrument)
			if err != nil {
				p.recordEnrichmentFailure("sentiment", sig.Instrument, err)
				return
			}
			enr.Sentiment = text
		}()
	}

	if p.chart != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, p.enrichmentTimeout)
			defer cancel()
			img, err := p.chart.Render(cctx, sig.Instrument, sig.Timeframe)
			if err != nil {
				p.recordEnrichmentFailure("chart", sig.Instrument, err)
				return
			}
			enr.Chart = img
		}()
	}

	if p.calendar != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, p.enrichmentTimeout)
			defer cancel()
			text, err := p.calendar.Upcoming(cctx, sig.Instrument)
			if err != nil {
				p.recordEnrichmentFailure("calendar", sig.Instrument, err)
				return
			}
			enr.Calendar = text
		}()
	}

	wg.Wait()
	return enr
}

func (p *Pipeline) recordEnrichmentFailure(source, instrument string, err error) {
	p.logger.Warn("enrichment unavailable",
		logger.String("source", source),
		logger.String("instrument", instrument),
		logger.Error(err))
	p.metrics.RecordEnrichmentFailure(source)
}

// cacheArtifacts writes whatever the run produced so refresh handlers can
// read it without recomputing. Last write wins on concurrent runs for the
// same instrument.
func (p *Pipeline) cacheArtifacts(ctx context.Context, instrument, text string, enr *models.Enrichment) {
	p.cachePut(ctx, cache.Key(cache.KindSignal, instrument), text)
	if enr.Sentiment != "" {
		p.cachePut(ctx, cache.Key(cache.KindSentiment, instrument), enr.Sentiment)
	}
	if len(enr.Chart) > 0 {
		p.cachePut(ctx, cache.Key(cache.KindChart, instrument), enr.Chart)
	}
	if enr.Calendar != "" {
		p.cachePut(ctx, cache.Key(cache.KindCalendar, instrument), enr.Calendar)
	}
}

func (p *Pipeline) cachePut(ctx context.Context, key string, value interface{}) {
	if err := p.cache.Set(ctx, key, value, p.cacheTTL); err != nil {
		p.logger.Warn("cache write failed", logger.String("key", key), logger.Error(err))
	}
}

// deliver fans out to every matched subscriber concurrently. One failing
// recipient never blocks the rest.
func (p *Pipeline) deliver(ctx context.Context, sig *models.TradingSignal, text string, enr *models.Enrichment, subs []models.Subscriber) *models.DeliveryReport {
	var sent, failed atomic.Int64
	var wg sync.WaitGroup

	buttons := signalButtons(sig.Instrument)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub models.Subscriber) {
			defer wg.Done()

			dctx, cancel := context.WithTimeout(ctx, p.deliveryTimeout)
			defer cancel()

			var err error
			if len(enr.Chart) > 0 {
				err = p.delivery.SendPhoto(dctx, sub.ChatID, enr.Chart, text, buttons)
			} else {
				err = p.delivery.SendText(dctx, sub.ChatID, text, buttons)
			}

			if err != nil {
				failed.Add(1)
				p.metrics.RecordDelivery(sig.Instrument, "failed")
				p.logger.Warn("delivery failed",
					logger.Int64("chat_id", sub.ChatID),
					logger.String("instrument", sig.Instrument),
					logger.Error(err))
				return
			}
			sent.Add(1)
			p.metrics.RecordDelivery(sig.Instrument, "sent")
		}(sub)
	}

	wg.Wait()

	report := &models.DeliveryReport{
		TotalMatched: len(subs),
		SentCount:    int(sent.Load()),
		FailedCount:  int(failed.Load()),
	}

	if report.TotalMatched > 0 && report.SentCount == 0 {
		p.logger.Error("all deliveries failed",
			logger.String("instrument", sig.Instrument),
			logger.Int("matched", report.TotalMatched))
	}
	return report
}

// signalButtons are the refresh actions attached to every signal message.
func signalButtons(instrument string) [][]service.Button {
	return [][]service.Button{
		{{Label: "📊 Technical Analysis", Callback: "analysis_" + instrument}},
		{{Label: "📰 Market Sentiment", Callback: "sentiment_" + instrument}},
		{{Label: "📅 Economic Calendar", Callback: "calendar_" + instrument}},
	}
}
