package audio

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/jonas747/ogg"
	"github.com/sirupsen/logrus"

	apperrors "github.com/vuongmanhnghia/guild-music-bot/internal/errors"
	"github.com/vuongmanhnghia/guild-music-bot/pkg/logger"
)

// waitDelay bounds how long a killed ffmpeg may hold its pipes
const waitDelay = 2 * time.Second

// EncodeOptions contains options for encoding
type EncodeOptions struct {
	Bitrate     int    // in kbps, default 128
	Application string // audio, voip, or lowdelay
	BufferSize  int    // frames buffered ahead of the player
}

// DefaultEncodeOptions returns default encoding options
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Bitrate:     128,
		Application: "audio",
		BufferSize:  256, // ~5 seconds of 20ms frames
	}
}

// Resource is a stream being encoded into Opus frames for the voice connection
type Resource struct {
	frames chan []byte
	volume *VolumeControl
	stream *Stream
	cancel context.CancelFunc

	errMu sync.Mutex
	err   error
}

// Frames returns the Opus frames; the channel closes when the stream ends
func (r *Resource) Frames() <-chan []byte {
	return r.frames
}

// Volume returns the live volume control, nil when the level was fixed at creation
func (r *Resource) Volume() *VolumeControl {
	return r.volume
}

// Err returns the error that ended encoding, if any
func (r *Resource) Err() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return r.err
}

// Close stops encoding and releases the stream
func (r *Resource) Close() {
	if r == nil {
		return
	}
	if r.cancel != nil {
		r.cancel()
	}
	if r.stream != nil {
		r.stream.Close()
	}
}

func (r *Resource) setErr(err error) {
	r.errMu.Lock()
	r.err = err
	r.errMu.Unlock()
}

// Encoder turns streams into Opus resources with ffmpeg
type Encoder struct {
	ffmpegPath string
	options    EncodeOptions
	logger     *logrus.Entry
}

// NewEncoder creates a new encoder
func NewEncoder(ffmpegPath string, options EncodeOptions, log *logger.Logger) *Encoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Encoder{
		ffmpegPath: ffmpegPath,
		options:    options,
		logger:     log.Component("encoder"),
	}
}

// NewResource starts encoding stream at volume percent.
// PCM streams get a live volume control; encoded streams have the level baked in.
func (e *Encoder) NewResource(ctx context.Context, stream *Stream, volume int) (*Resource, error) {
	if err := validateStream(stream); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrResourceCreation, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	res := &Resource{
		frames: make(chan []byte, e.options.BufferSize),
		stream: stream,
		cancel: cancel,
	}

	var (
		input io.Reader = stream
		args  []string
	)
	if stream.Format == FormatPCM {
		res.volume = NewVolumeControl(stream, volume)
		input = res.volume
		args = append(args, "-f", "s16le", "-ar", "48000", "-ac", "2", "-i", "pipe:0")
	} else {
		args = append(args, "-i", "pipe:0", "-filter:a", "volume="+strconv.FormatFloat(float64(volume)/100, 'f', 2, 64))
	}
	args = append(args,
		"-map", "0:a",
		"-acodec", "libopus",
		"-f", "ogg",
		"-compression_level", "5",
		"-ar", "48000",
		"-ac", "2",
		"-b:a", strconv.Itoa(e.options.Bitrate*1000),
		"-application", e.options.Application,
		"-frame_duration", "20",
		"-loglevel", "error",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	cmd.Stdin = input
	cmd.WaitDelay = waitDelay

	out, err := cmd.StdoutPipe()
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("%w: ffmpeg stdout: %v", apperrors.ErrResourceCreation, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		res.Close()
		return nil, fmt.Errorf("%w: ffmpeg stderr: %v", apperrors.ErrResourceCreation, err)
	}

	if err := cmd.Start(); err != nil {
		res.Close()
		return nil, fmt.Errorf("%w: failed to start ffmpeg: %v", apperrors.ErrResourceCreation, err)
	}

	// Log FFmpeg errors in background
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			e.logger.WithField("ffmpeg", scanner.Text()).Warn("FFmpeg output")
		}
	}()

	e.logger.WithFields(logrus.Fields{
		"format":   stream.Format,
		"strategy": stream.Strategy,
		"volume":   volume,
	}).Debug("Encoding started")

	go e.readFrames(ctx, cmd, out, res)
	return res, nil
}

// readFrames decodes OGG pages from ffmpeg into Opus packets
func (e *Encoder) readFrames(ctx context.Context, cmd *exec.Cmd, out io.Reader, res *Resource) {
	defer close(res.frames)
	defer func() {
		res.cancel()
		res.stream.Close()
		cmd.Wait()
	}()

	decoder := ogg.NewPacketDecoder(ogg.NewDecoder(out))

	// Skip first 2 packets (Opus header and comment metadata)
	skipPackets := 2
	frameCount := 0

	for {
		packet, _, err := decoder.Decode()
		if err != nil {
			if err == io.EOF || frameCount > 0 || ctx.Err() != nil {
				e.logger.WithField("frames", frameCount).Debug("Encoding finished")
				return
			}
			e.logger.WithError(err).Error("❌ Error decoding OGG packet")
			res.setErr(fmt.Errorf("%w: %v", apperrors.ErrResourceCreation, err))
			return
		}

		if skipPackets > 0 {
			skipPackets--
			continue
		}
		if len(packet) == 0 {
			continue
		}

		select {
		case res.frames <- packet:
			frameCount++
		case <-ctx.Done():
			return
		}
	}
}
