package audio

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vuongmanhnghia/guild-music-bot/internal/domain/entities"
	"github.com/vuongmanhnghia/guild-music-bot/internal/services/youtube"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

const (
	// pipeBufferSize bounds how much transcoded PCM waits for the player (~5s)
	pipeBufferSize = 1 << 20

	pipelineStrategy = "pipeline"
	metadataStrategy = "metadata"
)

// Downloader builds the downloader process and reads full video metadata
type Downloader interface {
	PipeCommand(ctx context.Context, url string) *exec.Cmd
	FullInfo(ctx context.Context, url string) (*youtube.YouTubeInfo, error)
}

// PipelineStrategy pipes the downloader's best audio through ffmpeg into raw PCM.
// When the pipe stays silent it opens the best audio format URL over HTTP instead.
type PipelineStrategy struct {
	downloader Downloader
	ffmpegPath string
	httpClient *http.Client
	timeout    time.Duration
	logger     *logrus.Entry
}

// NewPipelineStrategy creates the subprocess strategy. timeout bounds the wait for first data.
func NewPipelineStrategy(downloader Downloader, ffmpegPath string, timeout time.Duration, log *logger.Logger) *PipelineStrategy {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &PipelineStrategy{
		downloader: downloader,
		ffmpegPath: ffmpegPath,
		httpClient: &http.Client{},
		timeout:    timeout,
		logger:     log.Component("pipeline"),
	}
}

// Name implements Strategy
func (p *PipelineStrategy) Name() string { return pipelineStrategy }

// Acquire implements Strategy
func (p *PipelineStrategy) Acquire(ctx context.Context, track *entities.Track) (*Stream, error) {
	return p.Open(ctx, track.Reference())
}

// Open streams url, falling back to the metadata format URL
func (p *PipelineStrategy) Open(ctx context.Context, url string) (*Stream, error) {
	stream, err := p.pipe(ctx, url)
	if err == nil {
		return stream, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	p.logger.WithError(err).WithField("url", url).Warn("Pipeline failed, trying format URL")

	stream, ferr := p.fromMetadata(ctx, url)
	if ferr != nil {
		return nil, fmt.Errorf("pipeline: %v; metadata fallback: %w", err, ferr)
	}
	return stream, nil
}

func (p *PipelineStrategy) pipe(ctx context.Context, url string) (*Stream, error) {
	ctx, cancel := context.WithCancel(ctx)

	download := p.downloader.PipeCommand(ctx, url)
	transcode := exec.CommandContext(ctx, p.ffmpegPath,
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"-loglevel", "error",
		"pipe:1",
	)

	var downloadErr, transcodeErr bytes.Buffer
	download.Stderr = &downloadErr
	transcode.Stderr = &transcodeErr

	downloadOut, err := download.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("downloader stdout: %w", err)
	}
	transcode.Stdin = downloadOut

	pcm, err := transcode.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("ffmpeg stdout: %w", err)
	}

	if err := download.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to start downloader: %w", err)
	}
	if err := transcode.Start(); err != nil {
		cancel()
		download.Wait()
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	log := p.logger.WithField("url", url)
	log.Debug("📻 Downloader -> ffmpeg pipeline started")

	var reap sync.Once
	wait := func(copyErr error) {
		reap.Do(func() {
			// Both processes die with the context
			cancel()
			transcode.Wait()
			download.Wait()

			if copyErr != nil && !strings.Contains(copyErr.Error(), "closed pipe") {
				log.WithError(copyErr).WithFields(logrus.Fields{
					"downloader": lastLine(downloadErr.String()),
					"ffmpeg":     lastLine(transcodeErr.String()),
				}).Debug("Pipeline ended with error")
			}
		})
	}

	reader := bufferedPipe(pcm, pipeBufferSize, wait)
	stream := &Stream{
		Format:   FormatPCM,
		Strategy: pipelineStrategy,
		body:     reader,
		closer: func() error {
			cancel()
			return reader.Close()
		},
	}

	if err := awaitFirstData(ctx, stream, p.timeout); err != nil {
		return nil, err
	}
	return stream, nil
}

func (p *PipelineStrategy) fromMetadata(ctx context.Context, url string) (*Stream, error) {
	info, err := p.downloader.FullInfo(ctx, url)
	if err != nil {
		return nil, err
	}

	format, err := youtube.BestAudioFormat(info)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, format.URL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("format request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("format request: unexpected status %d", resp.StatusCode)
	}

	p.logger.WithFields(logrus.Fields{
		"format": format.FormatID,
		"codec":  format.AudioCodec,
	}).Info("✅ Streaming from format URL")
	return NewStream(resp.Body, FormatEncoded, metadataStrategy), nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
