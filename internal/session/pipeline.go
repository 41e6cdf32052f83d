package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/analysis"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/artifact"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/audio"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/meeting"
	"github.com/chiraglokhande04/AI-meet-Summarizer/internal/metrics"
)

// Transcriber converts encoded audio to transcript text.
type Transcriber interface {
	Transcribe(ctx context.Context, enc audio.EncodedAudio) (string, error)
}

// Analyzer derives structured meeting insights from a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (meeting.Analysis, error)
}

// Publisher stores an artifact and returns its retrievable URL.
type Publisher interface {
	Upload(ctx context.Context, data []byte, category, identifier string) (string, error)
}

// PipelineConfig bounds the external calls made during post-processing.
type PipelineConfig struct {
	TranscribeTimeout time.Duration
	AnalyzeTimeout    time.Duration
	UploadTimeout     time.Duration
}

// Pipeline runs the post-processing fan-out for one finalized session.
// The two top-level branches run concurrently and degrade independently:
// a failed upload never blocks transcription and vice versa. Every
// failure maps to a degraded value in the output rather than an abort.
type Pipeline struct {
	transcriber Transcriber
	analyzer    Analyzer
	publisher   Publisher
	config      PipelineConfig
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

// NewPipeline creates a post-processing pipeline.
func NewPipeline(transcriber Transcriber, analyzer Analyzer, publisher Publisher, config PipelineConfig, m *metrics.Metrics, logger *slog.Logger) *Pipeline {
	if config.TranscribeTimeout <= 0 {
		config.TranscribeTimeout = 5 * time.Minute
	}
	if config.AnalyzeTimeout <= 0 {
		config.AnalyzeTimeout = 2 * time.Minute
	}
	if config.UploadTimeout <= 0 {
		config.UploadTimeout = 2 * time.Minute
	}
	return &Pipeline{
		transcriber: transcriber,
		analyzer:    analyzer,
		publisher:   publisher,
		config:      config,
		metrics:     m,
		logger:      logger,
	}
}

// Run executes both branches for an encoded recording and returns the
// merged output. Run never fails; degraded branches leave their fields
// empty or filled with the documented defaults.
func (p *Pipeline) Run(ctx context.Context, sessionID string, enc audio.EncodedAudio) meeting.PipelineOutput {
	start := time.Now()
	identifier := fmt.Sprintf("meet_%s_%d", sessionID, start.Unix())

	out := meeting.PipelineOutput{}

	if enc.Empty() {
		// Nothing to upload or transcribe. The record still gets
		// persisted with the no-audio defaults.
		out.Analysis = analysis.NoAudio()
		p.metrics.RecordPipelineDuration(time.Since(start).Seconds())
		return out
	}

	var wg sync.WaitGroup
	wg.Add(2)

	// Branch A: recording upload.
	go func() {
		defer wg.Done()
		out.AudioURL = p.uploadArtifact(ctx, enc.Data, artifact.CategoryRecording, identifier)
	}()

	// Branch B: transcribe, then analyze and upload the transcript.
	go func() {
		defer wg.Done()
		out.Transcript, out.Analysis, out.TranscriptURL = p.runTranscriptBranch(ctx, identifier, enc)
	}()

	wg.Wait()

	p.metrics.RecordPipelineDuration(time.Since(start).Seconds())
	return out
}

func (p *Pipeline) runTranscriptBranch(ctx context.Context, identifier string, enc audio.EncodedAudio) (string, meeting.Analysis, string) {
	transcript := p.transcribe(ctx, enc)
	if transcript == "" {
		// No recognized speech, or transcription failed. Either way
		// there is nothing to analyze or upload.
		return "", analysis.NoAudio(), ""
	}

	var (
		wg            sync.WaitGroup
		result        meeting.Analysis
		transcriptURL string
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		transcriptURL = p.uploadArtifact(ctx, []byte(transcript), artifact.CategoryTranscript, identifier)
	}()

	go func() {
		defer wg.Done()
		result = p.analyze(ctx, transcript)
	}()

	wg.Wait()
	return transcript, result, transcriptURL
}

func (p *Pipeline) transcribe(ctx context.Context, enc audio.EncodedAudio) string {
	ctx, cancel := context.WithTimeout(ctx, p.config.TranscribeTimeout)
	defer cancel()

	start := time.Now()
	p.metrics.RecordTranscriptionRequest()

	transcript, err := p.transcriber.Transcribe(ctx, enc)
	if err != nil {
		p.metrics.RecordTranscriptionFailure(time.Since(start).Seconds())
		p.metrics.RecordPipelineBranchFailure("transcription")
		p.logger.Error("Transcription failed",
			slog.Float64("audio_seconds", enc.Duration()),
			slog.String("error", err.Error()),
		)
		return ""
	}

	p.metrics.RecordTranscriptionSuccess(time.Since(start).Seconds())
	return transcript
}

func (p *Pipeline) analyze(ctx context.Context, transcript string) meeting.Analysis {
	ctx, cancel := context.WithTimeout(ctx, p.config.AnalyzeTimeout)
	defer cancel()

	start := time.Now()
	p.metrics.RecordAnalysisRequest()

	result, err := p.analyzer.Analyze(ctx, transcript)
	if err != nil {
		p.metrics.RecordAnalysisFailure(time.Since(start).Seconds())
		p.metrics.RecordPipelineBranchFailure("analysis")
		p.logger.Error("Transcript analysis failed", slog.String("error", err.Error()))
		return analysis.Failed()
	}

	p.metrics.RecordAnalysisSuccess(time.Since(start).Seconds())
	return result
}

func (p *Pipeline) uploadArtifact(ctx context.Context, data []byte, category, identifier string) string {
	ctx, cancel := context.WithTimeout(ctx, p.config.UploadTimeout)
	defer cancel()

	start := time.Now()
	url, err := p.publisher.Upload(ctx, data, category, identifier)
	if err != nil {
		p.metrics.RecordUploadFailure()
		p.metrics.RecordPipelineBranchFailure("upload_" + category)
		p.logger.Error("Artifact upload failed",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return ""
	}

	p.metrics.RecordUploadSuccess(time.Since(start).Seconds())
	return url
}
