//go:build !gocv
// +build !gocv

package vision

import (
	"grapeguard/internal/domain/entity"
	"grapeguard/internal/domain/port"
)

// DNNLoader загрузчик-заглушка (без OpenCV).
type DNNLoader struct {
	Config SegmenterConfig
}

// NewDNNLoader создаёт загрузчик-заглушку.
func NewDNNLoader(cfg SegmenterConfig) *DNNLoader {
	return &DNNLoader{Config: cfg}
}

// DependencyAvailable без тега gocv библиотека инференса не собрана.
func (l *DNNLoader) DependencyAvailable() bool {
	return false
}

// Load возвращает ошибку, если сборка без тега gocv.
func (l *DNNLoader) Load(weightsPath string) (port.Segmenter, error) {
	_ = weightsPath
	return nil, entity.ErrDependencyMissing
}

var _ port.SegmenterLoader = (*DNNLoader)(nil)
