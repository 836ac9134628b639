package detections

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/sightline/internal/detection"
	"github.com/JaimeStill/sightline/internal/imaging"
	"github.com/JaimeStill/sightline/pkg/database"
	"github.com/JaimeStill/sightline/pkg/repository"
	"github.com/JaimeStill/sightline/pkg/storage"
)

// Normalizer persists validated image bytes and returns the stored file path.
type Normalizer interface {
	Save(ctx context.Context, data []byte, filename string) (string, error)
}

// Detector returns the labels found in the image at path. It never fails.
type Detector interface {
	Detect(ctx context.Context, path string) detection.Labels
}

// Observer receives pipeline outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	ObserveUpload(outcome string)
	ObserveRecord(rec Record)
}

// Upload outcomes reported to the Observer.
const (
	OutcomeStored  = "stored"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
)

// Deps collects the collaborators of the detection system.
// Archive and Observer are optional.
type Deps struct {
	DB         *sql.DB
	Driver     string
	Normalizer Normalizer
	Detector   Detector
	Uploads    storage.System
	Archive    storage.System
	Observer   Observer
	Logger     *slog.Logger
	Now        func() time.Time
}

type repo struct {
	db         *sql.DB
	driver     string
	normalizer Normalizer
	detector   Detector
	uploads    storage.System
	archive    storage.System
	observer   Observer
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a detection repository implementing the System interface.
func New(deps Deps) System {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &repo{
		db:         deps.DB,
		driver:     deps.Driver,
		normalizer: deps.Normalizer,
		detector:   deps.Detector,
		uploads:    deps.Uploads,
		archive:    deps.Archive,
		observer:   deps.Observer,
		logger:     deps.Logger.With("system", "detections"),
		now:        now,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*Record, error) {
	path, err := r.normalizer.Save(ctx, cmd.Data, cmd.Filename)
	if err != nil {
		if errors.Is(err, imaging.ErrInvalidImage) {
			r.observe(OutcomeInvalid)
			return nil, err
		}
		r.observe(OutcomeFailed)
		return nil, fmt.Errorf("save image: %w", err)
	}
	key := filepath.Base(path)

	var labels detection.Labels
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		labels = r.detector.Detect(gctx, path)
		return nil
	})
	if r.archive != nil {
		g.Go(func() error {
			r.mirror(gctx, path, key)
			return nil
		})
	}
	g.Wait()

	rec := Record{
		ID:              uuid.New(),
		Filename:        key,
		DetectedClasses: labels.String(),
		Timestamp:       FormatTimestamp(r.now()),
		Location:        optional(strings.TrimSpace(cmd.Location)),
		Incharge:        optional(strings.TrimSpace(cmd.Incharge)),
	}

	if err := r.Insert(ctx, rec); err != nil {
		if delErr := r.uploads.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			r.logger.Warn("compensating image delete failed", "key", key, "error", delErr)
		}
		r.observe(OutcomeFailed)
		return nil, err
	}

	r.observe(OutcomeStored)
	if r.observer != nil {
		r.observer.ObserveRecord(rec)
	}

	r.logger.Info("detection recorded",
		"id", rec.ID,
		"filename", rec.Filename,
		"detected", rec.DetectedClasses,
	)
	return &rec, nil
}

func (r *repo) Insert(ctx context.Context, rec Record) error {
	q := fmt.Sprintf(
		`INSERT INTO detections (id, filename, detected_classes, timestamp, location, incharge)
		VALUES (%s, %s, %s, %s, %s, %s)`,
		r.ph(1), r.ph(2), r.ph(3), r.ph(4), r.ph(5), r.ph(6),
	)

	err := repository.ExecExpectOne(ctx, r.db, q,
		rec.ID.String(),
		rec.Filename,
		rec.DetectedClasses,
		rec.Timestamp,
		rec.Location,
		rec.Incharge,
	)
	if err != nil {
		if repository.IsDuplicate(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("%w: insert: %w", ErrStore, err)
	}
	return nil
}

func (r *repo) ListAll(ctx context.Context) ([]Record, error) {
	q := `SELECT id, filename, detected_classes, timestamp, location, incharge
		FROM detections
		ORDER BY timestamp DESC`

	recs, err := repository.QueryMany(ctx, r.db, q, nil, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStore, err)
	}
	return recs, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Record, error) {
	q := fmt.Sprintf(
		`SELECT id, filename, detected_classes, timestamp, location, incharge
		FROM detections
		WHERE id = %s`,
		r.ph(1),
	)

	rec, err := repository.QueryOne(ctx, r.db, q, []any{id.String()}, scanRecord)
	if err != nil {
		mapped := repository.MapError(err, ErrNotFound, ErrDuplicate)
		if errors.Is(mapped, ErrNotFound) {
			return nil, mapped
		}
		return nil, fmt.Errorf("%w: find: %w", ErrStore, err)
	}
	return &rec, nil
}

// mirror copies the stored image to the archive. Failures are logged and
// never fail the upload.
func (r *repo) mirror(ctx context.Context, path, key string) {
	f, err := os.Open(path)
	if err != nil {
		r.logger.Warn("archive mirror skipped", "key", key, "error", err)
		return
	}
	defer f.Close()

	ext := strings.TrimPrefix(filepath.Ext(key), ".")
	if err := r.archive.Upload(ctx, key, f, imaging.ContentType(ext)); err != nil {
		r.logger.Warn("archive mirror failed", "key", key, "error", err)
		return
	}
	r.logger.Debug("image archived", "key", key)
}

func (r *repo) observe(outcome string) {
	if r.observer != nil {
		r.observer.ObserveUpload(outcome)
	}
}

func (r *repo) ph(n int) string {
	return database.Placeholder(r.driver, n)
}

func scanRecord(s repository.Scanner) (Record, error) {
	var (
		rec      Record
		id       string
		filename sql.NullString
		detected sql.NullString
		stamp    sql.NullString
	)
	if err := s.Scan(&id, &filename, &detected, &stamp, &rec.Location, &rec.Incharge); err != nil {
		return Record{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return Record{}, fmt.Errorf("parse id %q: %w", id, err)
	}

	rec.ID = parsed
	rec.Filename = filename.String
	rec.DetectedClasses = detected.String
	rec.Timestamp = stamp.String
	return rec, nil
}
