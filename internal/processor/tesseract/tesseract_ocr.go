/**
 * Tesseract OCR - long-lived recognition session
 *
 * A fixed pool of gosseract clients shares one mode. Configure holds the
 * whole pool while switching, so no recognition sees a half-applied mode.
 */

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"

	"github.com/adverant/nexus/boll-capture-worker/internal/logging"
	"github.com/adverant/nexus/boll-capture-worker/internal/processor"
)

var _ processor.Session = (*Session)(nil)

// Config holds Tesseract configuration
type Config struct {
	Language       string
	TessdataPrefix string
	Workers        int
}

// Session implements processor.Session on top of gosseract
type Session struct {
	clients []*gosseract.Client
	pool    chan *gosseract.Client

	mu     sync.Mutex
	mode   processor.Mode
	closed bool

	logger *logging.Logger
}

// NewSession creates the client pool and runs one warm-up
// recognition so engine initialization errors surface here.
func NewSession(cfg *Config) (*Session, error) {
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}

	s := &Session{
		pool:   make(chan *gosseract.Client, cfg.Workers),
		logger: logging.NewLogger("tesseract"),
	}

	for i := 0; i < cfg.Workers; i++ {
		client := gosseract.NewClient()
		s.clients = append(s.clients, client)

		if cfg.TessdataPrefix != "" {
			if err := client.SetTessdataPrefix(cfg.TessdataPrefix); err != nil {
				s.Close()
				return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
			}
		}
		if err := client.SetLanguage(cfg.Language); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to set language %q: %w", cfg.Language, err)
		}

		s.pool <- client
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.warmUp(ctx); err != nil {
		s.Close()
		return nil, err
	}

	s.logger.Info("Tesseract session ready",
		"language", cfg.Language,
		"workers", cfg.Workers,
		"version", gosseract.Version())

	return s, nil
}

// warmUp initializes every client against a blank image
func (s *Session) warmUp(ctx context.Context) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, image.NewGray(image.Rect(0, 0, 64, 32)), imaging.PNG); err != nil {
		return fmt.Errorf("failed to encode warm-up image: %w", err)
	}

	for range s.clients {
		client, err := s.acquire(ctx)
		if err != nil {
			return err
		}
		err = recognizeWith(client, buf.Bytes())
		s.pool <- client
		if err != nil {
			return fmt.Errorf("tesseract initialization failed: %w", err)
		}
	}

	return nil
}

// Configure applies mode to every client. It waits for in-flight
// recognitions to return their clients first.
func (s *Session) Configure(ctx context.Context, mode processor.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("tesseract session is closed")
	}
	if s.mode == mode {
		return nil
	}

	held := make([]*gosseract.Client, 0, len(s.clients))
	defer func() {
		for _, c := range held {
			s.pool <- c
		}
	}()

	for range s.clients {
		client, err := s.acquire(ctx)
		if err != nil {
			return err
		}
		held = append(held, client)
	}

	for _, client := range held {
		if err := client.SetWhitelist(mode.Whitelist); err != nil {
			return fmt.Errorf("failed to set whitelist: %w", err)
		}
		if err := client.SetPageSegMode(gosseract.PageSegMode(mode.Segmentation)); err != nil {
			return fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}

	s.logger.Debug("OCR mode switched", "from", s.mode.Name, "to", mode.Name)
	s.mode = mode
	return nil
}

// Recognize runs OCR on PNG bytes with whichever client is free
func (s *Session) Recognize(ctx context.Context, png []byte) (string, error) {
	client, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer func() { s.pool <- client }()

	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}

	return text, nil
}

// Close releases all clients. Callers must not use the session afterwards.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for _, client := range s.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Session) acquire(ctx context.Context) (*gosseract.Client, error) {
	select {
	case client := <-s.pool:
		return client, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func recognizeWith(client *gosseract.Client, png []byte) error {
	if err := client.SetImageFromBytes(png); err != nil {
		return err
	}
	_, err := client.Text()
	return err
}
