package snapshot

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"battle-tracker/internal/config"
	"battle-tracker/internal/domain"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// FileSystem is the slice of the os package the reader touches.
type FileSystem interface {
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
}

type osFS struct{}

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }
func (osFS) ReadFile(name string) ([]byte, error)  { return os.ReadFile(name) }

type Result struct {
	Snapshot *domain.Snapshot
	Raw      []byte
	ModTime  time.Time
	Attempts int
}

// Reader reads the stats file, retrying failures a concurrent writer can cause.
type Reader struct {
	fs       FileSystem
	attempts int
	delay    time.Duration
	logger   zerolog.Logger
}

func NewReader(cfg *config.Config, logger zerolog.Logger) *Reader {
	return newReader(osFS{}, cfg.ReadRetries, cfg.ReadRetryDelay, logger)
}

func newReader(fsys FileSystem, attempts int, delay time.Duration, logger zerolog.Logger) *Reader {
	if attempts < 1 {
		attempts = 1
	}
	return &Reader{
		fs:       fsys,
		attempts: attempts,
		delay:    delay,
		logger:   logger.With().Str("component", "reader").Logger(),
	}
}

// Read returns the decoded snapshot or a *ReadError. A missing file fails on the first
// attempt; parse and I/O failures are retried with a fixed delay; anything else is fatal.
func (r *Reader) Read(ctx context.Context, path string) (*Result, error) {
	var (
		result   *Result
		attempts int
		lastKind ErrorKind
	)

	backoff := retry.WithMaxRetries(uint64(r.attempts-1), retry.NewConstant(r.delay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		log := r.logger.With().Str("path", path).Int("attempt", attempts).Int("max_attempts", r.attempts).Logger()

		info, err := r.fs.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			lastKind = KindNotFound
			log.Warn().Msg("stats file not found")
			return err
		}
		if err != nil {
			lastKind = KindIOFailed
			log.Warn().Err(err).Msg("stat failed while reading stats")
			return retry.RetryableError(err)
		}

		raw, err := r.fs.ReadFile(path)
		if err != nil {
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				lastKind = KindIOFailed
				log.Warn().Err(err).Msg("io error while reading stats")
				return retry.RetryableError(err)
			}
			lastKind = KindUnexpected
			return err
		}

		snap, err := Decode(raw)
		if err != nil {
			if isParseError(err) {
				lastKind = KindParseFailed
				log.Warn().Err(err).Int("bytes", len(raw)).Msg("json parse error while reading stats")
				return retry.RetryableError(err)
			}
			lastKind = KindUnexpected
			return err
		}

		result = &Result{Snapshot: snap, Raw: raw, ModTime: info.ModTime()}
		return nil
	})

	if err != nil {
		if lastKind == 0 || ctx.Err() != nil {
			lastKind = KindUnexpected
		}
		readErr := &ReadError{Kind: lastKind, Path: path, Attempts: attempts, Err: err}
		if lastKind != KindNotFound {
			r.logger.Error().Err(err).Str("path", path).Str("kind", lastKind.String()).Int("attempts", attempts).Msg("failed to read stats")
		}
		return nil, readErr
	}

	result.Attempts = attempts
	r.logger.Info().
		Str("path", path).
		Int("party_members", len(result.Snapshot.Members)).
		Int("attempts", attempts).
		Msg("stats parsed successfully")
	return result, nil
}
