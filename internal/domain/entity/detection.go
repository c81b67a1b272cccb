package entity

import "math"

// BoundingBox прямоугольник находки в пиксельных координатах
type BoundingBox struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NewBoundingBox создаёт прямоугольник, упорядочивая координаты так, чтобы x1<=x2 и y1<=y2.
func NewBoundingBox(x1, y1, x2, y2 float64) *BoundingBox {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return &BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width ширина прямоугольника
func (b BoundingBox) Width() float64 {
	return b.X2 - b.X1
}

// Height высота прямоугольника
func (b BoundingBox) Height() float64 {
	return b.Y2 - b.Y1
}

// Detection одна сырая находка классификатора
type Detection struct {
	ClassIndex int          `json:"class_index"` // индекс класса модели, 0..4
	Confidence float64      `json:"confidence"`  // уверенность, 0..1
	Box        *BoundingBox `json:"bbox,omitempty"`
}

// Valid проверяет, что индекс класса лежит в таблице классов, а уверенность конечна.
func (d Detection) Valid() bool {
	if math.IsNaN(d.Confidence) || math.IsInf(d.Confidence, 0) {
		return false
	}
	return d.ClassIndex >= 0 && d.ClassIndex < ClassCount
}

// ColorStats доли пикселей в цветовых диапазонах эвристики
type ColorStats struct {
	Green  float64 `json:"green"`
	Yellow float64 `json:"yellow"`
	Brown  float64 `json:"brown"`
}

// Classification результат одного классификатора до нормализации
type Classification struct {
	Method     Method
	Detections []Detection
	Colors     *ColorStats // заполняется только эвристикой
}
