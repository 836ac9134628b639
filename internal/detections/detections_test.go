package detections_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/sightline/internal/detection"
	"github.com/JaimeStill/sightline/internal/detections"
	"github.com/JaimeStill/sightline/internal/imaging"
	"github.com/JaimeStill/sightline/internal/migrations"
	"github.com/JaimeStill/sightline/pkg/database"
	"github.com/JaimeStill/sightline/pkg/lifecycle"
	"github.com/JaimeStill/sightline/pkg/logging"
	"github.com/JaimeStill/sightline/pkg/storage"
)

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

type stubDetector struct {
	labels detection.Labels
}

func (s stubDetector) Detect(ctx context.Context, path string) detection.Labels {
	return s.labels
}

type memoryArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemoryArchive() *memoryArchive {
	return &memoryArchive{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryArchive) Start(lc *lifecycle.Coordinator) error { return nil }

func (m *memoryArchive) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryArchive) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryArchive) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryArchive) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []string
	records  []detections.Record
}

func (o *outcomeRecorder) ObserveUpload(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *outcomeRecorder) ObserveRecord(rec detections.Record) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, rec)
}

type fixture struct {
	sys       detections.System
	db        database.System
	uploadDir string
	archive   *memoryArchive
	observer  *outcomeRecorder
}

type fixtureOpts struct {
	labels  detection.Labels
	archive bool
	now     func() time.Time
}

func newFixture(t *testing.T, opts fixtureOpts) *fixture {
	t.Helper()
	dir := t.TempDir()
	ctx := context.Background()

	dbCfg := &database.Config{Path: filepath.Join(dir, "database.db")}
	require.NoError(t, dbCfg.Finalize(nil))
	db, err := database.New(dbCfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { db.Connection().Close() })
	require.NoError(t, migrations.Up(ctx, db.Connection(), db.Driver()))

	storeCfg := &storage.Config{
		UploadDir:    filepath.Join(dir, "uploads"),
		DetectionDir: filepath.Join(dir, "runs"),
	}
	require.NoError(t, storeCfg.Finalize(nil))
	uploads := storage.NewLocal(storeCfg, logging.Discard())

	imgCfg := &imaging.Config{}
	require.NoError(t, imgCfg.Finalize(nil))

	f := &fixture{
		db:        db,
		uploadDir: storeCfg.UploadDir,
		observer:  &outcomeRecorder{},
	}

	deps := detections.Deps{
		DB:         db.Connection(),
		Driver:     db.Driver(),
		Normalizer: imaging.New(imgCfg, uploads, logging.Discard()),
		Detector:   stubDetector{labels: opts.labels},
		Uploads:    uploads,
		Observer:   f.observer,
		Logger:     logging.Discard(),
		Now:        opts.now,
	}
	if opts.archive {
		f.archive = newMemoryArchive()
		deps.Archive = f.archive
	}

	f.sys = detections.New(deps)
	return f
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestCreateStoresRecordAndImage(t *testing.T) {
	f := newFixture(t, fixtureOpts{labels: detection.Labels{{Name: "small-crack"}, {Name: "large"}}})

	rec, err := f.sys.Create(context.Background(), detections.CreateCommand{
		Data:     pngBytes(t, 100, 100),
		Filename: "wall.png",
		Location: " 34.37,73.47 ",
		Incharge: "Ali",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "large, small-crack", rec.DetectedClasses)
	assert.Regexp(t, timestampPattern, rec.Timestamp)
	assert.Equal(t, "34.37,73.47", rec.LocationText())
	assert.Equal(t, "Ali", rec.InchargeText())
	assert.Regexp(t, `_wall\.png$`, rec.Filename)
	assert.FileExists(t, filepath.Join(f.uploadDir, rec.Filename))

	all, err := f.sys.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, *rec, all[0])

	assert.Equal(t, []string{detections.OutcomeStored}, f.observer.outcomes)
	assert.Len(t, f.observer.records, 1)
}

func TestCreateEmptyMetadataStoredAsNull(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	rec, err := f.sys.Create(context.Background(), detections.CreateCommand{
		Data:     pngBytes(t, 4, 4),
		Filename: "a.png",
		Location: "   ",
	})
	require.NoError(t, err)
	assert.Nil(t, rec.Location)
	assert.Nil(t, rec.Incharge)
	assert.Equal(t, "None", rec.DetectedClasses)

	var nulls int
	err = f.db.Connection().QueryRow(
		`SELECT COUNT(*) FROM detections WHERE location IS NULL AND incharge IS NULL`,
	).Scan(&nulls)
	require.NoError(t, err)
	assert.Equal(t, 1, nulls)
}

func TestCreateModelMissingLabel(t *testing.T) {
	f := newFixture(t, fixtureOpts{labels: detection.Labels{{Name: detection.LabelModelMissing}}})

	rec, err := f.sys.Create(context.Background(), detections.CreateCommand{Data: pngBytes(t, 4, 4), Filename: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "model_missing", rec.DetectedClasses)
}

func TestCreateInvalidImage(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	_, err := f.sys.Create(context.Background(), detections.CreateCommand{
		Data:     []byte("plain text, not pixels"),
		Filename: "notes.txt",
	})
	require.ErrorIs(t, err, imaging.ErrInvalidImage)

	all, err := f.sys.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, uploadedFiles(t, f.uploadDir))
	assert.Equal(t, []string{detections.OutcomeInvalid}, f.observer.outcomes)
}

func TestCreateMirrorsToArchive(t *testing.T) {
	f := newFixture(t, fixtureOpts{archive: true})

	rec, err := f.sys.Create(context.Background(), detections.CreateCommand{Data: pngBytes(t, 8, 8), Filename: "site.png"})
	require.NoError(t, err)

	ok, err := f.archive.Exists(context.Background(), rec.Filename)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "image/png", f.archive.types[rec.Filename])
}

func TestCreateStoreFailureRemovesImage(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	_, err := f.db.Connection().Exec(`DROP TABLE detections`)
	require.NoError(t, err)

	_, err = f.sys.Create(context.Background(), detections.CreateCommand{Data: pngBytes(t, 4, 4), Filename: "a.png"})
	require.ErrorIs(t, err, detections.ErrStore)
	assert.Equal(t, 500, detections.MapHTTPStatus(err))
	assert.Empty(t, uploadedFiles(t, f.uploadDir))
	assert.Equal(t, []string{detections.OutcomeFailed}, f.observer.outcomes)
}

func TestListAllNewestFirst(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	ctx := context.Background()

	for _, stamp := range []string{"2025-01-02 08:00:00", "2025-03-01 12:30:00", "2024-12-31 23:59:59"} {
		require.NoError(t, f.sys.Insert(ctx, detections.Record{
			ID:              uuid.New(),
			Filename:        stamp + ".jpg",
			DetectedClasses: "None",
			Timestamp:       stamp,
		}))
	}

	all, err := f.sys.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2025-03-01 12:30:00", all[0].Timestamp)
	assert.Equal(t, "2025-01-02 08:00:00", all[1].Timestamp)
	assert.Equal(t, "2024-12-31 23:59:59", all[2].Timestamp)
}

func TestInsertDuplicate(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	rec := detections.Record{ID: uuid.New(), Filename: "a.jpg", DetectedClasses: "None", Timestamp: "2025-01-01 00:00:00"}

	require.NoError(t, f.sys.Insert(context.Background(), rec))
	assert.ErrorIs(t, f.sys.Insert(context.Background(), rec), detections.ErrDuplicate)
}

func TestFind(t *testing.T) {
	fixed := time.Date(2026, 5, 4, 9, 8, 7, 0, time.Local)
	f := newFixture(t, fixtureOpts{now: func() time.Time { return fixed }})

	rec, err := f.sys.Create(context.Background(), detections.CreateCommand{Data: pngBytes(t, 4, 4), Filename: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04 09:08:07", rec.Timestamp)

	found, err := f.sys.Find(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, found)

	_, err = f.sys.Find(context.Background(), uuid.New())
	assert.ErrorIs(t, err, detections.ErrNotFound)
}

func TestMapHTTPStatus(t *testing.T) {
	assert.Equal(t, 400, detections.MapHTTPStatus(detections.ErrNoFile))
	assert.Equal(t, 400, detections.MapHTTPStatus(imaging.ErrInvalidImage))
	assert.Equal(t, 413, detections.MapHTTPStatus(detections.ErrFileTooLarge))
	assert.Equal(t, 404, detections.MapHTTPStatus(detections.ErrNotFound))
	assert.Equal(t, 500, detections.MapHTTPStatus(detections.ErrStore))

	assert.Equal(t, "Uploaded file is not a valid image", detections.Message(imaging.ErrInvalidImage))
	assert.Equal(t, "Internal Server Error", detections.Message(detections.ErrStore))
}
