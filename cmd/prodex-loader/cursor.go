package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cursor is the resume position of a load, persisted as JSON next to the data.
type Cursor struct {
	Stage          string    `json:"stage"`
	FileIndex      int       `json:"file_index"`
	RowOffset      int       `json:"row_offset"`
	TotalProcessed int       `json:"total_processed"`
	TotalFailed    int       `json:"total_failed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// cursorTracker is a thread-safe cursor saved every saveEvery processed rows.
type cursorTracker struct {
	mu        sync.Mutex
	cursor    Cursor
	path      string
	saveEvery int
	dirty     bool
	logger    *zap.Logger
}

func newCursorTracker(dataDir string, saveEvery int, logger *zap.Logger) (*cursorTracker, error) {
	if saveEvery <= 0 {
		saveEvery = 1
	}
	ct := &cursorTracker{
		path:      filepath.Join(filepath.Clean(dataDir), "cursor.json"),
		saveEvery: saveEvery,
		logger:    logger,
	}

	data, err := os.ReadFile(ct.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &ct.cursor); err != nil {
			return nil, fmt.Errorf("parse cursor %s: %w", ct.path, err)
		}
		logger.Info("Resuming from cursor",
			zap.String("stage", ct.cursor.Stage),
			zap.Int("file", ct.cursor.FileIndex),
			zap.Int("offset", ct.cursor.RowOffset),
			zap.Int("processed", ct.cursor.TotalProcessed))
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read cursor %s: %w", ct.path, err)
	}
	return ct, nil
}

// Get returns a copy of the cursor.
func (ct *cursorTracker) Get() Cursor {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.cursor
}

// SetStage records the current stage and saves immediately.
func (ct *cursorTracker) SetStage(stage string) {
	ct.mu.Lock()
	ct.cursor.Stage = stage
	ct.cursor.UpdatedAt = time.Now()
	ct.dirty = true
	ct.mu.Unlock()
	ct.save()
}

// Advance moves the cursor to fileIndex/rowOffset and adds the batch counts.
func (ct *cursorTracker) Advance(fileIndex, rowOffset, processed, failed int) {
	ct.update(true, fileIndex, rowOffset, processed, failed)
}

// Add counts rows of a batch that finished ahead of an earlier one; the
// position stays until the gap closes.
func (ct *cursorTracker) Add(processed, failed int) {
	ct.update(false, 0, 0, processed, failed)
}

func (ct *cursorTracker) update(move bool, fileIndex, rowOffset, processed, failed int) {
	ct.mu.Lock()
	before := ct.cursor.TotalProcessed + ct.cursor.TotalFailed
	if move {
		ct.cursor.FileIndex = fileIndex
		ct.cursor.RowOffset = rowOffset
	}
	ct.cursor.TotalProcessed += processed
	ct.cursor.TotalFailed += failed
	ct.cursor.UpdatedAt = time.Now()
	ct.dirty = true
	after := ct.cursor.TotalProcessed + ct.cursor.TotalFailed
	shouldSave := after/ct.saveEvery > before/ct.saveEvery
	ct.mu.Unlock()

	if shouldSave {
		ct.save()
	}
}

// Flush saves pending progress.
func (ct *cursorTracker) Flush() { ct.save() }

// Done marks the load complete.
func (ct *cursorTracker) Done() { ct.SetStage("done") }

// Reset clears the cursor to start from scratch.
func (ct *cursorTracker) Reset() {
	ct.mu.Lock()
	ct.cursor = Cursor{}
	ct.dirty = true
	ct.mu.Unlock()
	ct.save()
}

// save writes the cursor atomically via a temp file and rename.
func (ct *cursorTracker) save() {
	ct.mu.Lock()
	if !ct.dirty {
		ct.mu.Unlock()
		return
	}
	data, err := json.MarshalIndent(ct.cursor, "", "  ")
	ct.dirty = false
	ct.mu.Unlock()
	if err != nil {
		ct.logger.Error("Failed to marshal cursor", zap.Error(err))
		return
	}

	tmp := ct.path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o600); err == nil {
		err = os.Rename(tmp, ct.path)
	}
	if err != nil {
		ct.logger.Error("Failed to save cursor", zap.String("path", ct.path), zap.Error(err))
		ct.mu.Lock()
		ct.dirty = true
		ct.mu.Unlock()
	}
}
