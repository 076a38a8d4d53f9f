package service

import "time"

// Recorder receives pipeline outcomes for metrics export.
type Recorder interface {
	SyncFinished(source, status string, rows, inserted, errors int, elapsed time.Duration)
	RevisionsApplied(set, revised int)
	DedupFinished(merged, renamed int)
}

type nopRecorder struct{}

func (nopRecorder) SyncFinished(string, string, int, int, int, time.Duration) {}
func (nopRecorder) RevisionsApplied(int, int)                                 {}
func (nopRecorder) DedupFinished(int, int)                                    {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
