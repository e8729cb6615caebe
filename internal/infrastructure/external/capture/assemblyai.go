package capture

import (
	"context"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"
	"go.uber.org/zap"

	"github.com/johnquangdev/call-copilot/internal/domain/entities"
	"github.com/johnquangdev/call-copilot/pkg/config"
)

// SegmentSink receives transcription fragments as absolute-timestamped
// tuples; the segment buffer converts them to call-relative offsets.
type SegmentSink func(ctx context.Context, side entities.Side, text string, isFinal bool, startAbs, endAbs time.Time)

// AssemblyAIStream is one realtime transcription session bound to a
// single call side. A two-party setup runs two streams: the microphone
// channel as caller, the system-audio channel as counterparty.
type AssemblyAIStream struct {
	client *aai.RealTimeClient
	side   entities.Side
	sink   SegmentSink
	logger *zap.Logger

	epoch time.Time
}

// NewAssemblyAIStream creates a realtime stream for one audio channel
func NewAssemblyAIStream(cfg *config.AssemblyAIConfig, side entities.Side, sink SegmentSink, logger *zap.Logger) *AssemblyAIStream {
	s := &AssemblyAIStream{side: side, sink: sink, logger: logger}

	transcriber := &aai.RealTimeTranscriber{
		OnSessionBegins: func(event aai.SessionBegins) {
			if s.logger != nil {
				s.logger.Info("🎧 transcription session started",
					zap.String("side", string(side)),
					zap.String("session_id", event.SessionID),
				)
			}
		},
		OnPartialTranscript: func(event aai.PartialTranscript) {
			s.emit(event.Text, false, event.AudioStart, event.AudioEnd)
		},
		OnFinalTranscript: func(event aai.FinalTranscript) {
			s.emit(event.Text, true, event.AudioStart, event.AudioEnd)
		},
		OnError: func(err error) {
			if s.logger != nil {
				s.logger.Error("transcription stream error",
					zap.String("side", string(side)),
					zap.Error(err),
				)
			}
		},
	}

	s.client = aai.NewRealTimeClientWithOptions(
		aai.WithRealTimeAPIKey(cfg.APIKey),
		aai.WithRealTimeSampleRate(cfg.SampleRate),
		aai.WithRealTimeTranscriber(transcriber),
	)
	return s
}

// Connect opens the websocket session. The connect instant becomes the
// epoch for converting stream offsets to absolute timestamps.
func (s *AssemblyAIStream) Connect(ctx context.Context) error {
	s.epoch = time.Now()
	return s.client.Connect(ctx)
}

// SendAudio forwards one PCM frame to the session
func (s *AssemblyAIStream) SendAudio(ctx context.Context, samples []byte) error {
	return s.client.Send(ctx, samples)
}

// Close terminates the session, waiting for the final transcripts
func (s *AssemblyAIStream) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx, true)
}

// emit converts the stream's millisecond offsets to absolute times and
// hands the fragment to the sink. Empty fragments are dropped.
func (s *AssemblyAIStream) emit(text string, isFinal bool, startMs, endMs int64) {
	if text == "" || s.sink == nil {
		return
	}
	startAbs := s.epoch.Add(time.Duration(startMs) * time.Millisecond)
	endAbs := s.epoch.Add(time.Duration(endMs) * time.Millisecond)
	s.sink(context.Background(), s.side, text, isFinal, startAbs, endAbs)
}
