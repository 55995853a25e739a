package progress

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// Observer receives pipeline milestones. Implementations are pure
// side-channels: the pipeline behaves identically with the no-op observer.
type Observer interface {
	// StageStarted marks the beginning of a stage with a known item count
	StageStarted(name string, total int)

	// ItemCompleted marks a single finished item in the current stage
	ItemCompleted()

	// StageDone marks the end of the current stage
	StageDone()
}

var (
	_ Observer = (*Bars)(nil)
	_ Observer = (*Noop)(nil)
)

// Bars renders each stage as a terminal progress bar
type Bars struct {
	bar *progressbar.ProgressBar
}

// NewBars creates a progress bar observer
func NewBars() *Bars {
	return &Bars{}
}

func (b *Bars) StageStarted(name string, total int) {
	b.bar = progressbar.NewOptions(
		total,
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}

func (b *Bars) ItemCompleted() {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *Bars) StageDone() {
	if b.bar != nil {
		_ = b.bar.Finish()
		b.bar = nil
	}
}

// Noop discards all milestones
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) StageStarted(_ string, _ int) {}
func (*Noop) ItemCompleted()               {}
func (*Noop) StageDone()                   {}
