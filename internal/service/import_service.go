package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"studentdash/internal/dataset"
	"studentdash/internal/model"
)

// Import statuses reported in ProgressInfo.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

type ProgressInfo struct {
	FileName     string    `json:"file_name"`
	TotalRecords int       `json:"total_records"`
	Processed    int       `json:"processed"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
}

// ErrImportInProgress is returned when another import holds the table.
var ErrImportInProgress = errors.New("import already in progress")

// ImportService copies a CSV dataset into the students table so the
// dashboard can later load it with DATASET_SOURCE=database.
type ImportService struct {
	db        *gorm.DB
	log       zerolog.Logger
	batchSize int

	fileProgressMap   map[string]*ProgressInfo
	fileProgressLock  sync.RWMutex
	progressListeners map[chan ProgressInfo]bool
	listenerLock      sync.RWMutex

	workerSemaphore chan struct{}

	// importLock is held for the whole of one import.
	importLock sync.Mutex
}

func NewImportService(db *gorm.DB, log zerolog.Logger, batchSize int) *ImportService {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &ImportService{
		db:                db,
		log:               log.With().Str("component", "import").Logger(),
		batchSize:         batchSize,
		fileProgressMap:   make(map[string]*ProgressInfo),
		progressListeners: make(map[chan ProgressInfo]bool),
		workerSemaphore:   make(chan struct{}, runtime.NumCPU()*2),
	}
}

func (s *ImportService) RegisterProgressListener(ch chan ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	s.progressListeners[ch] = true
}

func (s *ImportService) UnregisterProgressListener(ch chan ProgressInfo) {
	s.listenerLock.Lock()
	defer s.listenerLock.Unlock()
	delete(s.progressListeners, ch)
}

// BroadcastProgress sends a snapshot to every listener, skipping listeners
// that are not ready to receive.
func (s *ImportService) BroadcastProgress(progress ProgressInfo) {
	s.listenerLock.RLock()
	defer s.listenerLock.RUnlock()

	for listener := range s.progressListeners {
		select {
		case listener <- progress:
		default:
		}
	}
}

func (s *ImportService) GetFileProgress(fileName string) *ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	if progress, exists := s.fileProgressMap[fileName]; exists {
		copyProgress := *progress
		return &copyProgress
	}
	return nil
}

// GetAllFileProgress returns snapshots ordered by file name.
func (s *ImportService) GetAllFileProgress() []ProgressInfo {
	s.fileProgressLock.RLock()
	defer s.fileProgressLock.RUnlock()

	result := make([]ProgressInfo, 0, len(s.fileProgressMap))
	for _, progress := range s.fileProgressMap {
		result = append(result, *progress)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FileName < result[j].FileName
	})
	return result
}

// ImportCSV loads filePath with the dataset loader, replaces the contents of
// the students table and inserts the records in batches using a bounded
// worker pool. The table is only changed if every batch is written. It
// returns the number of records written, or ErrImportInProgress when another
// import is running.
func (s *ImportService) ImportCSV(ctx context.Context, filePath string) (int, error) {
	if err := s.claim(filePath); err != nil {
		return 0, err
	}
	return s.run(ctx, filePath)
}

// StartImport claims the table and runs the import in the background. The
// returned snapshot is the new import's progress, or the running import's
// progress together with ErrImportInProgress.
func (s *ImportService) StartImport(ctx context.Context, filePath string) (*ProgressInfo, error) {
	fileName := filepath.Base(filePath)
	if err := s.claim(filePath); err != nil {
		return s.GetFileProgress(fileName), err
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		_, _ = s.run(ctx, filePath)
	}()
	return s.GetFileProgress(fileName), nil
}

func (s *ImportService) claim(filePath string) error {
	if !s.importLock.TryLock() {
		return ErrImportInProgress
	}

	fileName := filepath.Base(filePath)
	s.fileProgressLock.Lock()
	s.fileProgressMap[fileName] = &ProgressInfo{
		FileName:  fileName,
		Status:    StatusProcessing,
		StartTime: time.Now(),
	}
	s.fileProgressLock.Unlock()
	return nil
}

// run performs an import claimed by claim and releases the claim.
func (s *ImportService) run(ctx context.Context, filePath string) (int, error) {
	defer s.importLock.Unlock()

	fileName := filepath.Base(filePath)
	startTime := time.Now()

	data, err := dataset.Load(filePath)
	if err != nil {
		s.updateProgressError(fileName, err)
		return 0, err
	}

	s.fileProgressLock.Lock()
	s.fileProgressMap[fileName].TotalRecords = data.Len()
	s.fileProgressLock.Unlock()

	batches := s.batches(data)
	numWorkers := calculateWorkers(fileSize(filePath), len(batches))
	s.log.Info().
		Str("file", fileName).
		Int("records", data.Len()).
		Int("batches", len(batches)).
		Int("workers", numWorkers).
		Msg("Import started")

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.StudentRow{}).Error; err != nil {
			return fmt.Errorf("clear students table: %w", err)
		}
		return s.insertBatches(ctx, tx, fileName, batches, numWorkers)
	})
	if err != nil {
		s.updateProgressError(fileName, err)
		return 0, err
	}

	s.fileProgressLock.Lock()
	progress := s.fileProgressMap[fileName]
	progress.Status = StatusCompleted
	progress.EndTime = time.Now()
	progress.Processed = progress.TotalRecords
	snapshot := *progress
	s.fileProgressLock.Unlock()
	s.BroadcastProgress(snapshot)

	s.log.Info().Str("file", fileName).Dur("took", time.Since(startTime)).Msg("Import completed")
	return data.Len(), nil
}

func (s *ImportService) insertBatches(ctx context.Context, tx *gorm.DB, fileName string, batches [][]model.StudentRow, numWorkers int) error {
	batchCh := make(chan []model.StudentRow, len(batches))
	for _, b := range batches {
		batchCh <- b
	}
	close(batchCh)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.worker(ctx, tx, fileName, batchCh); err != nil {
				errOnce.Do(func() { firstErr = err })
			}
		}()
	}
	wg.Wait()
	return firstErr
}

func (s *ImportService) worker(ctx context.Context, tx *gorm.DB, fileName string, batchCh <-chan []model.StudentRow) error {
	s.workerSemaphore <- struct{}{}
	defer func() { <-s.workerSemaphore }()

	for rows := range batchCh {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
		s.updateProgress(fileName, len(rows))
	}
	return nil
}

// batches splits the dataset into insert batches, recording each record's
// position so load order survives concurrent inserts.
func (s *ImportService) batches(data dataset.Dataset) [][]model.StudentRow {
	var (
		out     [][]model.StudentRow
		current []model.StudentRow
	)
	data.Each(func(i int, st model.Student) {
		current = append(current, model.NewStudentRow(i, st))
		if len(current) >= s.batchSize {
			out = append(out, current)
			current = nil
		}
	})
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func (s *ImportService) updateProgress(fileName string, processed int) {
	s.fileProgressLock.Lock()
	progress, exists := s.fileProgressMap[fileName]
	if !exists {
		s.fileProgressLock.Unlock()
		return
	}
	progress.Processed += processed
	if progress.Processed > progress.TotalRecords {
		progress.Processed = progress.TotalRecords
	}
	snapshot := *progress
	s.fileProgressLock.Unlock()

	s.BroadcastProgress(snapshot)
}

func (s *ImportService) updateProgressError(fileName string, err error) {
	s.fileProgressLock.Lock()
	progress, exists := s.fileProgressMap[fileName]
	if !exists {
		s.fileProgressLock.Unlock()
		return
	}
	progress.Status = StatusError
	progress.Error = err.Error()
	progress.EndTime = time.Now()
	snapshot := *progress
	s.fileProgressLock.Unlock()

	s.log.Error().Err(err).Str("file", fileName).Msg("Import failed")
	s.BroadcastProgress(snapshot)
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// calculateWorkers picks a worker count from the file size, never more than
// there are batches.
func calculateWorkers(size int64, batches int) int {
	cpus := runtime.NumCPU()

	var n int
	switch {
	case size < 1_000_000:
		n = min(2, cpus)
	case size < 10_000_000:
		n = min(4, cpus)
	case size < 100_000_000:
		n = min(8, cpus)
	default:
		n = min(16, cpus)
	}

	if n > batches {
		n = batches
	}
	if n < 1 {
		n = 1
	}
	return n
}
