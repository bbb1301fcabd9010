package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Conceptual-Machines/vibify-api/internal/analyzer"
	"github.com/Conceptual-Machines/vibify-api/internal/config"
	"github.com/Conceptual-Machines/vibify-api/internal/features"
	"github.com/Conceptual-Machines/vibify-api/internal/metrics"
	"github.com/Conceptual-Machines/vibify-api/internal/observability"
	"github.com/Conceptual-Machines/vibify-api/internal/recommend"
	"github.com/Conceptual-Machines/vibify-api/internal/storage"
	"github.com/Conceptual-Machines/vibify-api/internal/vectorstore"
)

const (
	ruleWidth    = 68
	similarLimit = 5
	previewChars = 100
)

var errNoInput = errors.New("no audio file specified and default file not found")

type pipelineOptions struct {
	Audio       string
	NoAPI       bool
	StoreVector bool
	FindSimilar bool
	Verbose     bool
}

func pipelineOptionsFrom(v *viper.Viper) pipelineOptions {
	return pipelineOptions{
		Audio:       v.GetString("audio"),
		NoAPI:       v.GetBool("no-api"),
		StoreVector: v.GetBool("store-vector"),
		FindSimilar: v.GetBool("find-similar"),
		Verbose:     v.GetBool("verbose"),
	}
}

func (o pipelineOptions) vectorOps() bool {
	return o.StoreVector || o.FindSimilar
}

// fetchFunc downloads a remote input into dir and returns the local path
type fetchFunc func(ctx context.Context, url, dir string) (string, error)

// pipeline is one run of analyze, save, recommend and the optional store steps
type pipeline struct {
	cfg         config.Config
	opts        pipelineOptions
	out         io.Writer
	analyzer    *analyzer.Analyzer
	recommender recommend.Recommender
	openStore   func(config.Config) (vectorstore.Store, error)
	fetch       fetchFunc
}

func newPipeline(ctx context.Context, cfg config.Config, opts pipelineOptions, out io.Writer) *pipeline {
	recorder := metrics.NewSentryMetrics()
	return &pipeline{
		cfg:      cfg,
		opts:     opts,
		out:      out,
		analyzer: analyzer.NewDefault(cfg, analyzer.WithMetrics(recorder)),
		recommender: recommend.FromConfig(ctx, cfg,
			recommend.WithMetrics(recorder),
			recommend.WithTracer(observability.InitializeLangfuse(ctx, cfg)),
		),
		openStore: vectorstore.FromConfig,
		fetch:     fetchS3(cfg.AWSRegion),
	}
}

func fetchS3(region string) fetchFunc {
	return func(ctx context.Context, url, dir string) (string, error) {
		fetcher, err := storage.NewS3Fetcher(region)
		if err != nil {
			return "", err
		}
		return fetcher.Fetch(ctx, url, dir)
	}
}

func (p *pipeline) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *pipeline) rule() string {
	return "   " + strings.Repeat("─", ruleWidth-2)
}

func (p *pipeline) banner(title ...string) {
	line := "🎵" + strings.Repeat("=", ruleWidth) + "🎵"
	p.printf("%s\n", line)
	for _, t := range title {
		p.printf("   %s\n", t)
	}
	p.printf("%s\n", line)
}

func (p *pipeline) run(ctx context.Context) error {
	p.banner("VIBIFY - AI-Powered Music Recommendation System", "Analyze musical DNA and discover similar songs")

	if err := storage.EnsureDirectories(p.cfg); err != nil {
		return err
	}

	audio, err := p.resolveInput(ctx)
	if err != nil {
		return err
	}
	if err := storage.ValidateInputFile(audio, p.cfg.SupportedFormats); err != nil {
		p.printf("\n❌ %v\n", err)
		return err
	}

	p.printf("\n🎧 Analyzing: %s\n", filepath.Base(audio))

	p.printf("\n🔍 Step 1: Extracting musical features...\n")
	analysis, err := p.analyzer.Analyze(ctx, audio)
	if err != nil {
		p.printf("❌ Failed to extract features from audio file.\n")
		return err
	}
	p.printFeatureSummary(analysis.Summary)

	if p.opts.vectorOps() || p.opts.Verbose {
		p.printf("\n📝 Text Analysis for Vectorization:\n")
		p.printf("%s\n   %s\n%s\n", p.rule(), analysis.Text, p.rule())
	}

	p.printf("\n💾 Step 2: Saving analysis results...\n")
	paths := storage.NewPaths(p.cfg)
	analysisPath := paths.AnalysisPath(audio)
	if err := storage.SaveAnalysis(analysis.Summary, analysisPath); err != nil {
		p.printf("   ❌ Failed to save analysis: %v\n", err)
	} else {
		p.printf("   ✅ Analysis saved: %s\n", analysisPath)
	}

	p.printf("\n🤖 Step 3: Generating recommendations...\n")
	switch {
	case p.opts.NoAPI:
		p.printf("   ℹ️  API disabled - generating prompt only\n")
	case !p.cfg.RecommenderEnabled():
		p.printf("   ⚠️  No API key found - generating prompt only\n")
		p.printf("   💡 Set OPENAI_API_KEY (or GEMINI_API_KEY for gemini models) to enable API calls\n")
	}

	text, err := p.recommender.Recommend(ctx, analysis.Summary, analysis.SongName)
	if err != nil {
		return err
	}

	p.printf("\n")
	p.banner("MUSIC RECOMMENDATIONS")
	p.printf("%s\n", text)
	p.banner()

	recommendationsPath := paths.RecommendationsPath(audio)
	if err := storage.SaveRecommendations(text, recommendationsPath, audio); err != nil {
		p.printf("\n❌ Failed to save recommendations: %v\n", err)
	} else {
		p.printf("\n✅ Recommendations saved: %s\n", recommendationsPath)
	}

	if p.opts.vectorOps() {
		p.vectorOperations(ctx, analysis)
	}

	p.printTips(analysisPath)
	return nil
}

// resolveInput picks the default input when none is given and downloads
// s3:// inputs into the input directory
func (p *pipeline) resolveInput(ctx context.Context) (string, error) {
	audio := p.opts.Audio
	if audio == "" {
		audio = p.cfg.DefaultAudioPath()
		if _, err := os.Stat(audio); err != nil {
			p.printf("\n❌ No audio file specified and default file not found.\n")
			p.printf("Expected: %s\n", audio)
			p.printf("\nUsage: vibify --audio path/to/your/song.mp3\n")
			p.printf("Or place '%s' in %s/\n", p.cfg.DefaultAudioFile, p.cfg.InputDir)
			return "", errNoInput
		}
		return audio, nil
	}

	if storage.IsS3URL(audio) {
		p.printf("\n☁️  Fetching %s...\n", audio)
		local, err := p.fetch(ctx, audio, p.cfg.InputDir)
		if err != nil {
			p.printf("❌ Failed to fetch input: %v\n", err)
			return "", err
		}
		p.printf("   ✅ Downloaded to %s\n", local)
		return local, nil
	}
	return audio, nil
}

func (p *pipeline) printFeatureSummary(summary *features.Summary) {
	if summary.IsSentinel() {
		p.printf("❌ Analysis failed: %s\n", summary.Error)
		return
	}

	p.printf("\n📊 Musical Analysis Summary:\n")
	p.printf("   • Notes detected: %d\n", summary.Rhythm.TotalNotes)
	p.printf("   • Song duration: %.1fs\n", summary.Temporal.SongDuration)
	p.printf("   • Estimated tempo: %.0f BPM\n", summary.Temporal.TempoEstimate)
	p.printf("   • Pitch range: %.0f-%.0f (MIDI)\n", summary.PitchRange.Min, summary.PitchRange.Max)
	p.printf("   • Note density: %.1f notes/second\n", summary.Rhythm.NoteDensity)
	p.printf("   • Average velocity: %.0f/127\n", summary.Dynamics.AvgVelocity)
}

func (p *pipeline) vectorOperations(ctx context.Context, analysis *analyzer.Analysis) {
	store, err := p.openStore(p.cfg)
	if err != nil {
		p.printf("\n❌ Could not open the similarity store: %v. Vector operations skipped.\n", err)
		return
	}
	defer store.Close()

	if !vectorstore.Enabled(store) {
		p.printf("\n❌ No similarity store configured (set STORE_DSN or --store-dsn). Vector operations skipped.\n")
		return
	}

	if p.opts.StoreVector {
		p.printf("\n🗄️  Step 4: Storing analysis in the similarity store...\n")
		id, err := store.Save(ctx, analysis)
		if err != nil {
			p.printf("   ❌ Failed to store analysis: %v\n", err)
		} else {
			p.printf("   ✅ Analysis stored with ID: %s\n", id)
		}
	}

	if p.opts.FindSimilar {
		p.printf("\n🔍 Step 5: Finding similar songs in database...\n")
		matches, err := store.FindSimilar(ctx, analysis.Text, similarLimit)
		if err != nil {
			p.printf("   ❌ Similarity search failed: %v\n", err)
			return
		}
		if len(matches) == 0 {
			p.printf("   📭 No similar songs found in database\n")
			return
		}

		p.printf("\n🎯 Found %d similar songs:\n", len(matches))
		p.printf("%s\n", p.rule())
		for i, m := range matches {
			p.printMatch(i+1, m)
		}
		p.printf("%s\n", p.rule())
	}
}

func (p *pipeline) printMatch(rank int, m vectorstore.Match) {
	song := m.Song
	p.printf("   %d. %s\n", rank, song.SongName)
	p.printf("      Similarity: %.1f%%\n", m.Similarity())
	p.printf("      Tempo: %.0f BPM\n", deref(song.Tempo))
	p.printf("      Notes: %d\n", deref(song.NoteCount))
	p.printf("      Duration: %.1fs\n", deref(song.SongDuration))
	if p.opts.Verbose && song.AnalysisText != "" {
		p.printf("      Analysis: %s...\n", truncate(song.AnalysisText, previewChars))
	}
	p.printf("\n")
}

func (p *pipeline) printTips(analysisPath string) {
	p.printf("\n🎉 Analysis complete!\n")
	p.printf("   📁 Output directory: %s\n", filepath.Dir(analysisPath))

	if p.opts.StoreVector {
		p.printf("\n💡 Next time, use --find-similar to discover similar songs!\n")
	} else if !p.opts.FindSimilar {
		p.printf("\n💡 Use --store-vector to save this analysis for future similarity searches\n")
		p.printf("   Use --find-similar to search for similar songs in your database\n")
	}

	if !p.opts.NoAPI && !p.cfg.RecommenderEnabled() {
		p.printf("\n💡 To enable automatic API recommendations:\n")
		p.printf("   export OPENAI_API_KEY='your-key-here'\n")
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
