package browser

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// DefaultMaxFrames caps a recording at about 30 seconds at 10fps
const DefaultMaxFrames = 300

// Recorder saves screencast frames as numbered PNG files
type Recorder struct {
	ctx       context.Context
	dir       string
	maxFrames int
	logger    arbor.ILogger

	mu      sync.Mutex
	frames  int
	stopped bool
}

// StartRecording starts a screencast on the session's tab, writing frames under dir
func StartRecording(ctx context.Context, dir string, logger arbor.ILogger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create video directory: %w", err)
	}

	r := &Recorder{
		ctx:       ctx,
		dir:       dir,
		maxFrames: DefaultMaxFrames,
		logger:    logger,
	}

	chromedp.ListenTarget(ctx, func(ev interface{}) {
		frame, ok := ev.(*page.EventScreencastFrame)
		if !ok {
			return
		}
		r.saveFrame(frame)

		// Chrome stops sending frames until each one is acknowledged
		go func(sessionID int64) {
			chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
				return page.ScreencastFrameAck(sessionID).Do(ctx)
			}))
		}(frame.SessionID)
	})

	err := chromedp.Run(ctx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return page.StartScreencast().
				WithFormat(page.ScreencastFormatPng).
				WithQuality(80).
				WithEveryNthFrame(6). // ~10fps at 60fps base
				Do(ctx)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start screencast: %w", err)
	}

	logger.Debug().Str("dir", dir).Msg("Video recording started")
	return r, nil
}

func (r *Recorder) saveFrame(frame *page.EventScreencastFrame) {
	r.mu.Lock()
	if r.stopped || r.frames >= r.maxFrames {
		r.mu.Unlock()
		return
	}
	r.frames++
	n := r.frames
	r.mu.Unlock()

	data, err := base64.StdEncoding.DecodeString(frame.Data)
	if err != nil {
		r.logger.Warn().Err(err).Msg("Failed to decode screencast frame")
		return
	}
	path := filepath.Join(r.dir, fmt.Sprintf("frame_%04d.png", n))
	if err := os.WriteFile(path, data, 0644); err != nil {
		r.logger.Warn().Err(err).Str("path", path).Msg("Failed to write screencast frame")
	}
}

// Frames returns the number of frames written so far
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Stop ends the screencast and returns the frame count
func (r *Recorder) Stop() int {
	r.mu.Lock()
	if r.stopped {
		n := r.frames
		r.mu.Unlock()
		return n
	}
	r.stopped = true
	n := r.frames
	r.mu.Unlock()

	chromedp.Run(r.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.StopScreencast().Do(ctx)
	}))

	r.logger.Debug().Int("frames", n).Str("dir", r.dir).Msg("Video recording stopped")
	return n
}
