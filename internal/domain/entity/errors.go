package entity

import "errors"

var (
	// ErrInvalidImage входные данные не являются изображением
	ErrInvalidImage = errors.New("invalid image")
	// ErrModelUnavailable модель недоступна, а эвристика выключена
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInference сбой одного вызова модели
	ErrInference = errors.New("inference failed")
	// ErrDownload не удалось скачать веса
	ErrDownload = errors.New("weights download failed")
	// ErrDependencyMissing сборка без OpenCV
	ErrDependencyMissing = errors.New("gocv build tag is not enabled")
)
