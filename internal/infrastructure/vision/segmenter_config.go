package vision

import "grapeguard/internal/domain/entity"

// SegmenterConfig параметры модели instance-сегментации
type SegmenterConfig struct {
	ConfigPath  string  // текстовое описание графа (pbtxt), пусто для ONNX
	OutputLayer string  // слой с выходом формата [1,1,N,7]
	Threshold   float64 // минимальная уверенность находки
	InputSize   int     // сторона квадратного входа сети
	NumClasses  int
	Device      string
}

// NewSegmenterConfig заполняет фиксированные гиперпараметры: 5 классов и CPU.
func NewSegmenterConfig(configPath, outputLayer string, threshold float64, inputSize int) SegmenterConfig {
	return SegmenterConfig{
		ConfigPath:  configPath,
		OutputLayer: outputLayer,
		Threshold:   threshold,
		InputSize:   inputSize,
		NumClasses:  entity.ClassCount,
		Device:      entity.DeviceCPU,
	}
}
