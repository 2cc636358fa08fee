// Package orchestrator drives the diff analysis pipeline off a
// "translation completed" signal: cache lookup (exact key, then content
// hashes), then chunk → prompt → LLM → normalize → complete, with a
// single parse-failure retry against the default model.
//
// Dependencies are injected explicitly and notifications go through
// caller-supplied callbacks; the orchestrator owns no global state.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/valpere/noveldiff/internal"
	"github.com/valpere/noveldiff/internal/chunker"
	"github.com/valpere/noveldiff/internal/hasher"
	"github.com/valpere/noveldiff/internal/normalizer"
	"github.com/valpere/noveldiff/internal/prompt"
	"github.com/valpere/noveldiff/internal/store"
	"github.com/valpere/noveldiff/internal/translator"
	"github.com/valpere/noveldiff/internal/validator"
)

// systemPrompt frames every analysis call; the per-request instructions
// travel in the request text built from the template.
const systemPrompt = "You are a meticulous reviewer of web-novel translations. " +
	"Respond only with the requested JSON, no prose."

type Config struct {
	// Enabled gates the whole pipeline; when false a completed
	// translation is ignored entirely (no cache write, no events).
	Enabled bool
	// AlgoVersion tags the chunking+prompt+schema combination; bumping
	// it invalidates previously cached results.
	AlgoVersion string
	// Template overrides prompt.DefaultTemplate when non-empty.
	Template    string
	Temperature float64

	// SkipCache bypasses both cache lookups and forces a fresh analysis.
	// The result is still written back.
	SkipCache bool

	// Preferred provider/model, used when the provider is registered.
	PreferredProvider string
	PreferredModel    string
	// Default provider/model, the parse-failure fallback.
	DefaultProvider string
	DefaultModel    string
}

// ChangeEvent is emitted once per completed-or-reused analysis.
type ChangeEvent struct {
	ChapterID string `json:"chapterId"`
	CacheHit  bool   `json:"cacheHit,omitempty"`
}

// ErrorEvent is emitted when an active analysis attempt fails.
type ErrorEvent struct {
	ChapterID string `json:"chapterId"`
	Error     string `json:"error"`
}

// Events are the host's notification callbacks. Either may be nil.
type Events struct {
	OnChange func(ChangeEvent)
	OnError  func(ErrorEvent)
}

// Request is one "translation completed" signal. FanVersionID and
// FanText are empty when the chapter has no fan translation.
type Request struct {
	ChapterID    string
	AIVersionID  string
	FanVersionID string
	RawVersionID string

	AIText           string
	FanText          string
	RawText          string
	PreviousFeedback string
}

type Analyzer struct {
	services map[string]translator.Service
	cache    *store.Store
	cfg      Config
	events   Events
	logf     func(format string, args ...interface{})
}

// New wires an Analyzer from its collaborators. services maps provider
// names to adapters; logf may be nil to log to stderr.
func New(services map[string]translator.Service, cache *store.Store, cfg Config, events Events, logf func(format string, args ...interface{})) *Analyzer {
	if logf == nil {
		logf = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return &Analyzer{
		services: services,
		cache:    cache,
		cfg:      cfg,
		events:   events,
		logf:     logf,
	}
}

// OnTranslationCompleted runs the pipeline for one chapter. It returns
// the (possibly cached) result; all failures after the cache lookups are
// logged with chapter context and surfaced through the error callback as
// well as the returned error, so the triggering flow can ignore them.
//
// Concurrent signals for the same chapter are not coalesced: both
// analyses run and both write; last write wins.
func (a *Analyzer) OnTranslationCompleted(ctx context.Context, req Request) (*internal.Result, error) {
	if !a.cfg.Enabled {
		return nil, nil
	}

	key := internal.ResultKey{
		ChapterID:    req.ChapterID,
		AIVersionID:  req.AIVersionID,
		FanVersionID: req.FanVersionID,
		RawVersionID: req.RawVersionID,
		AlgoVersion:  a.cfg.AlgoVersion,
	}

	if !a.cfg.SkipCache {
		if cached := a.lookup(ctx, key, req); cached != nil {
			a.recordRequest(ctx, req.ChapterID, cached.Model, 0, true)
			a.emitChange(ChangeEvent{ChapterID: req.ChapterID, CacheHit: true})
			return cached, nil
		}
	}

	res, err := a.analyze(ctx, key, req)
	if err != nil {
		a.logf("diff analysis failed for chapter %s: %v", req.ChapterID, err)
		if a.events.OnError != nil {
			a.events.OnError(ErrorEvent{ChapterID: req.ChapterID, Error: err.Error()})
		}
		return nil, err
	}

	a.recordRequest(ctx, req.ChapterID, res.Model, res.CostUSD, false)
	a.emitChange(ChangeEvent{ChapterID: req.ChapterID})
	return res, nil
}

// lookup tries the exact composite key, then the content-hash fallback.
// Cache read errors are logged and treated as a miss.
func (a *Analyzer) lookup(ctx context.Context, key internal.ResultKey, req Request) *internal.Result {
	cached, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logf("cache lookup failed for chapter %s: %v", req.ChapterID, err)
		return nil
	}
	if cached != nil {
		return cached
	}

	cached, err = a.cache.FindByHashes(ctx, req.ChapterID,
		hasher.Content(req.AIText), fanHash(req.FanText), hasher.Content(req.RawText),
		a.cfg.AlgoVersion)
	if err != nil {
		a.logf("hash lookup failed for chapter %s: %v", req.ChapterID, err)
		return nil
	}
	return cached
}

func (a *Analyzer) analyze(ctx context.Context, key internal.ResultKey, req Request) (*internal.Result, error) {
	chunks := chunker.Split(req.AIText)

	template := a.cfg.Template
	if template == "" {
		template = prompt.DefaultTemplate
	}
	promptText := prompt.Build(template, chunks, req.FanText, req.RawText, req.PreviousFeedback)

	markers, resp, err := a.callAndNormalize(ctx, promptText, chunks, req.ChapterID)
	if err != nil {
		return nil, err
	}

	report := validator.Check(chunks, markers)
	for _, p := range report.Problems() {
		a.logf("coverage (chapter %s): %s", req.ChapterID, p)
	}

	res := &internal.Result{
		ResultKey:  key,
		AIHash:     hasher.Content(req.AIText),
		FanHash:    fanHash(req.FanText),
		RawHash:    hasher.Content(req.RawText),
		Markers:    normalizer.Complete(chunks, markers),
		AnalyzedAt: time.Now(),
		CostUSD:    resp.CostUSD,
		Model:      resp.Model,
	}

	// A failed write only costs future cache hits; the in-memory result
	// is still good.
	if err := a.cache.Save(ctx, res); err != nil {
		a.logf("cache write failed for chapter %s: %v", req.ChapterID, err)
	}

	return res, nil
}

// callAndNormalize performs the LLM call with the preferred model and
// normalizes the response. A parse failure is retried exactly once
// against the default provider/model; transport failures are not
// retried here.
func (a *Analyzer) callAndNormalize(ctx context.Context, promptText string, chunks []internal.Chunk, chapterID string) ([]internal.Marker, *translator.Response, error) {
	svc, model, err := a.pickService(true)
	if err != nil {
		return nil, nil, err
	}

	resp, err := svc.Translate(ctx, translator.Request{
		Text:         promptText,
		SystemPrompt: systemPrompt,
		Model:        model,
		Temperature:  a.cfg.Temperature,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("LLM call failed: %w", err)
	}

	markers, diags, err := normalizer.Normalize(resp.TranslatedText, chunks)

	var parseErr *normalizer.ParseError
	if errors.As(err, &parseErr) {
		a.logf("chapter %s: %v; retrying with default model", chapterID, err)

		svc, model, err = a.pickService(false)
		if err != nil {
			return nil, nil, err
		}
		resp, err = svc.Translate(ctx, translator.Request{
			Text:         promptText,
			SystemPrompt: systemPrompt,
			Model:        model,
			Temperature:  a.cfg.Temperature,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("LLM retry failed: %w", err)
		}
		markers, diags, err = normalizer.Normalize(resp.TranslatedText, chunks)
	}
	if err != nil {
		return nil, nil, err
	}

	for _, d := range diags {
		a.logf("chapter %s: %s", chapterID, d)
	}
	return markers, resp, nil
}

// pickService resolves the provider/model to call. The preferred pair is
// used only when its provider is registered; everything else falls back
// to the default pair.
func (a *Analyzer) pickService(preferred bool) (translator.Service, string, error) {
	if preferred && a.cfg.PreferredProvider != "" {
		if svc, ok := a.services[a.cfg.PreferredProvider]; ok {
			return svc, a.cfg.PreferredModel, nil
		}
	}
	svc, ok := a.services[a.cfg.DefaultProvider]
	if !ok {
		return nil, "", fmt.Errorf("no service registered for provider %q", a.cfg.DefaultProvider)
	}
	return svc, a.cfg.DefaultModel, nil
}

func (a *Analyzer) emitChange(ev ChangeEvent) {
	if a.events.OnChange != nil {
		a.events.OnChange(ev)
	}
}

func (a *Analyzer) recordRequest(ctx context.Context, chapterID, model string, cost float64, cacheHit bool) {
	if err := a.cache.SaveAnalysisRequest(ctx, chapterID, model, cost, cacheHit); err != nil {
		a.logf("audit write failed for chapter %s: %v", chapterID, err)
	}
}

// fanHash returns the content hash of a fan translation, or "" when the
// chapter has none — "" is the null fan hash everywhere in the cache.
func fanHash(fanText string) string {
	if fanText == "" {
		return ""
	}
	return hasher.Content(fanText)
}
