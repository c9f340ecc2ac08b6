package removal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Stage tags reported by the services in this package.
const (
	StageFetchUpload      = "fetch:upload"
	StageComputeInference = "compute:inference"
	StageFetchDecode      = "fetch:decode"
	StageComputeMask      = "compute:mask"
)

// Remover kinds accepted by NewService.
const (
	KindLocal  = "local"
	KindRemote = "remote"
)

// ProgressFunc receives progress reports. It may be called from any
// goroutine and must not block.
type ProgressFunc func(stage string, current, total int64)

// Service removes the background of an encoded image.
type Service interface {
	// Name identifies the service in logs and reports.
	Name() string
	// RemoveBackground returns a PNG of input with a transparent
	// background. progress may be nil.
	RemoveBackground(ctx context.Context, input []byte, progress ProgressFunc) ([]byte, error)
}

// IsFetchStage reports whether stage belongs to the measurable phase.
func IsFetchStage(stage string) bool {
	return strings.Contains(stage, "fetch")
}

// IsComputeStage reports whether stage marks the start of inference.
func IsComputeStage(stage string) bool {
	return strings.Contains(stage, "compute")
}

// NewService builds the remover named by kind.
func NewService(kind string, local LocalOptions, remote RemoteOptions, logger *slog.Logger) (Service, error) {
	switch strings.ToLower(kind) {
	case "", KindLocal:
		return NewLocal(local, logger), nil
	case KindRemote:
		return NewRemote(remote, logger)
	default:
		return nil, fmt.Errorf("%w: got %q", ErrUnknownRemover, kind)
	}
}

func report(fn ProgressFunc, stage string, current, total int64) {
	if fn != nil {
		fn(stage, current, total)
	}
}
