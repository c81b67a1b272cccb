package entity

import "time"

// Method каким путём получен отчёт
type Method string

const (
	MethodModel                  Method = "model"
	MethodModelNoDetections      Method = "model_no_detections"
	MethodColorAnalysis          Method = "color_analysis"
	MethodColorAnalysisUncertain Method = "color_analysis_uncertain"
	MethodColorAnalysisError     Method = "color_analysis_error"
	MethodError                  Method = "error"
)

// IsHeuristic сообщает, что метод относится к цветовой эвристике.
func (m Method) IsHeuristic() bool {
	switch m {
	case MethodColorAnalysis, MethodColorAnalysisUncertain, MethodColorAnalysisError:
		return true
	}
	return false
}

// DetectionView находка в отчёте, с публичным идентификатором класса
type DetectionView struct {
	ClassID    int          `json:"class_id"`
	ClassName  string       `json:"class_name"`
	Confidence float64      `json:"confidence"` // 0..1, как выдала модель
	Box        *BoundingBox `json:"bbox,omitempty"`
}

// DiseaseReport итоговый отчёт о заболевании листа
type DiseaseReport struct {
	RequestID       string          `json:"request_id"`
	Disease         string          `json:"disease"`
	Marathi         string          `json:"marathi,omitempty"`
	ClassID         int             `json:"class_id,omitempty"` // 1..5, у отчёта-ошибки отсутствует
	Confidence      float64         `json:"confidence"`         // проценты, один знак после запятой
	Severity        Severity        `json:"severity,omitempty"`
	Method          Method          `json:"method"`
	ProcessingTime  float64         `json:"processing_time"` // секунды
	Timestamp       time.Time       `json:"timestamp"`
	Detections      []DetectionView `json:"detections,omitempty"`
	Colors          *ColorStats     `json:"color_analysis,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	Error           string          `json:"error,omitempty"`
	Cached          bool            `json:"cached,omitempty"`
}

// IsError сообщает, что отчёт описывает сбой, а не диагноз.
func (r *DiseaseReport) IsError() bool {
	return r.Method == MethodError
}

// Class возвращает класс отчёта; ok=false для отчёта-ошибки.
func (r *DiseaseReport) Class() (DiseaseClass, bool) {
	c, err := ClassByID(r.ClassID)
	if err != nil {
		return DiseaseClass{}, false
	}
	return c, true
}
