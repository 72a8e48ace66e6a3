package media

import (
	"sync"
)

// ProgressTracker is the progress record of one download.
// The worker writes to it and any number of readers take snapshots.
type ProgressTracker struct {
	mu sync.RWMutex

	status   ProgressStatus
	filename string
	errText  string
	speed    float64

	// downloaded and total are the aggregated values reported to readers.
	downloaded int64
	total      int64

	// completedBytes is the size of the streams already finished.
	completedBytes int64
	// streamFile, streamBytes and streamTotal describe the stream being downloaded.
	streamFile  string
	streamBytes int64
	streamTotal int64
}

// NewProgressTracker returns a tracker in the not started state.
func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{status: ProgressStatusNotStarted}
}

// Reset starts a new download: status becomes downloading and every counter is cleared.
func (pt *ProgressTracker) Reset() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	pt.status = ProgressStatusDownloading
	pt.filename = ""
	pt.errText = ""
	pt.speed = 0
	pt.downloaded = 0
	pt.total = 0
	pt.completedBytes = 0
	pt.streamFile = ""
	pt.streamBytes = 0
	pt.streamTotal = 0
}

// RecordProgress stores a byte-count update of the current stream.
// It does nothing unless the status is downloading.
// A new filename means yt-dlp moved on to the next stream, so the previous one is counted as complete
// and the aggregated downloaded value never goes down.
func (pt *ProgressTracker) RecordProgress(downloaded, total int64, speed float64, filename string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.status != ProgressStatusDownloading {
		return
	}

	if filename != "" && pt.streamFile != "" && filename != pt.streamFile {
		pt.completeStream()
	}

	if filename != "" {
		pt.streamFile = filename
		pt.filename = filename
	}

	pt.streamBytes = max(pt.streamBytes, downloaded)
	if total > 0 {
		pt.streamTotal = total
	}

	pt.speed = max(speed, 0)
	pt.aggregate()
}

// RecordStreamFinished marks the current stream as complete.
// The download itself goes on: more streams or post-processing may follow.
func (pt *ProgressTracker) RecordStreamFinished(downloaded, total int64, filename string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.status != ProgressStatusDownloading {
		return
	}

	if filename != "" && pt.streamFile != "" && filename != pt.streamFile {
		pt.completeStream()
	}

	if filename != "" {
		pt.filename = filename
	}

	pt.streamBytes = max(pt.streamBytes, downloaded, total)
	pt.completeStream()
	pt.aggregate()
}

// RecordPostProcessing notes that conversion started; the transfer rate no longer applies.
func (pt *ProgressTracker) RecordPostProcessing() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.status != ProgressStatusDownloading {
		return
	}

	pt.speed = 0
}

// RecordFinished marks the download as successful.
// It is idempotent and ignored after an error.
func (pt *ProgressTracker) RecordFinished(filename string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.status == ProgressStatusError {
		return
	}

	pt.status = ProgressStatusFinished
	pt.speed = 0

	if filename != "" {
		pt.filename = filename
	}

	pt.total = max(pt.total, pt.downloaded)
	pt.downloaded = pt.total
}

// RecordError marks the download as failed. It is ignored once the status is terminal.
func (pt *ProgressTracker) RecordError(message string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.status.IsTerminal() {
		return
	}

	if message == "" {
		message = ErrDownloadFailed.Error()
	}

	pt.status = ProgressStatusError
	pt.errText = message
	pt.speed = 0
}

// Snapshot returns a copy of the record.
func (pt *ProgressTracker) Snapshot() ProgressSnapshot {
	pt.mu.RLock()
	defer pt.mu.RUnlock()

	snapshot := ProgressSnapshot{
		Status:          pt.status,
		DownloadedBytes: pt.downloaded,
		TotalBytes:      pt.total,
		Speed:           pt.speed,
		Percentage:      percentage(pt.downloaded, pt.total),
		Filename:        pt.filename,
		Error:           pt.errText,
	}

	if pt.status == ProgressStatusFinished {
		snapshot.Percentage = 100
	}

	return snapshot
}

// completeStream moves the current stream into the completed bytes.
func (pt *ProgressTracker) completeStream() {
	pt.completedBytes += max(pt.streamBytes, pt.streamTotal)
	pt.streamFile = ""
	pt.streamBytes = 0
	pt.streamTotal = 0
}

// aggregate recomputes the reported values, keeping downloaded non-decreasing and total at least downloaded.
func (pt *ProgressTracker) aggregate() {
	pt.downloaded = max(pt.downloaded, pt.completedBytes+pt.streamBytes)
	pt.total = max(pt.completedBytes+pt.streamTotal, pt.downloaded)
}
