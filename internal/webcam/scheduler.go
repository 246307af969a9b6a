package webcam

import "time"

// Scheduler は処理を次のフレームまで遅延させる
// fnは呼び出し元とは別のタイミングで実行されなければならない
type Scheduler interface {
	Schedule(fn func())
}

// DefaultFrameRate はFrameSchedulerのデフォルトのフレームレート
const DefaultFrameRate = 60

// FrameScheduler は一定間隔のフレーム境界でfnを実行するScheduler
type FrameScheduler struct {
	interval time.Duration
}

// NewFrameScheduler は指定されたフレームレートのFrameSchedulerを作成する
func NewFrameScheduler(fps int) *FrameScheduler {
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &FrameScheduler{interval: time.Second / time.Duration(fps)}
}

// Interval はフレーム間隔を返す
func (s *FrameScheduler) Interval() time.Duration {
	return s.interval
}

// Schedule は次のフレーム境界でfnを実行する
func (s *FrameScheduler) Schedule(fn func()) {
	now := time.Now()
	next := now.Truncate(s.interval).Add(s.interval)
	time.AfterFunc(next.Sub(now), fn)
}
