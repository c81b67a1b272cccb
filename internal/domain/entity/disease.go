package entity

import "fmt"

// Severity уровень опасности заболевания
type Severity string

const (
	SeverityNone   Severity = "None"
	SeverityMedium Severity = "Medium"
	SeverityHigh   Severity = "High"
)

// ClassCount количество классов, на которых обучена модель
const ClassCount = 5

// Индексы классов модели (0-based)
const (
	ClassAnthracnose   = 0
	ClassPowderyMildew = 1
	ClassBorer         = 2
	ClassDownyMildew   = 3
	ClassHealthy       = 4
)

// DiseaseClass описывает один класс заболевания листа
type DiseaseClass struct {
	Index           int      `json:"index"`    // индекс в выходе модели, 0..4
	ID              int      `json:"id"`       // публичный идентификатор, 1..5
	Name            string   `json:"name"`     // каноническое имя
	Marathi         string   `json:"marathi"`  // имя на маратхи
	Severity        Severity `json:"severity"` // уровень опасности
	Recommendations []string `json:"recommendations"`
}

var diseaseClasses = [ClassCount]DiseaseClass{
	{
		Index:    ClassAnthracnose,
		ID:       1,
		Name:     "Karpa (Anthracnose)",
		Marathi:  "कर्पा रोग",
		Severity: SeverityHigh,
		Recommendations: []string{
			"Remove infected leaves early",
			"Spray Chlorothalonil or Carbendazim",
			"Improve air circulation within vines",
			"Avoid overhead watering",
		},
	},
	{
		Index:    ClassPowderyMildew,
		ID:       2,
		Name:     "Bhuri (Powdery Mildew)",
		Marathi:  "भुरी रोग",
		Severity: SeverityMedium,
		Recommendations: []string{
			"Apply sulfur-based fungicide spray",
			"Improve air circulation around plants",
			"Remove affected leaves immediately",
			"Monitor humidity levels (keep below 70%)",
		},
	},
	{
		Index:    ClassBorer,
		ID:       3,
		Name:     "Bokadlela (Borer Infestation)",
		Marathi:  "बोकाडलेला",
		Severity: SeverityHigh,
		Recommendations: []string{
			"Install pheromone traps (10 per acre)",
			"Use Spinosad or Neem oil spray",
			"Inspect vines weekly for larvae entry holes",
			"Remove and destroy affected branches",
		},
	},
	{
		Index:    ClassDownyMildew,
		ID:       4,
		Name:     "Davnya (Downy Mildew)",
		Marathi:  "दवयाचा रोग",
		Severity: SeverityHigh,
		Recommendations: []string{
			"Spray Metalaxyl + Mancozeb after rain",
			"Ensure canopy pruning for sunlight",
			"Avoid evening irrigation",
			"Improve air circulation",
		},
	},
	{
		Index:    ClassHealthy,
		ID:       5,
		Name:     "Healthy",
		Marathi:  "निरोगी पान",
		Severity: SeverityNone,
		Recommendations: []string{
			"Continue regular monitoring",
			"Maintain proper irrigation",
			"Keep optimal nutrient levels",
			"Regular preventive spraying",
		},
	},
}

// ClassByIndex возвращает класс по индексу модели (0..4).
func ClassByIndex(index int) (DiseaseClass, error) {
	if index < 0 || index >= ClassCount {
		return DiseaseClass{}, fmt.Errorf("class index %d out of range", index)
	}
	return copyClass(diseaseClasses[index]), nil
}

// ClassByID возвращает класс по публичному идентификатору (1..5).
func ClassByID(id int) (DiseaseClass, error) {
	if id < 1 || id > ClassCount {
		return DiseaseClass{}, fmt.Errorf("class id %d out of range", id)
	}
	return copyClass(diseaseClasses[id-1]), nil
}

// HealthyClass возвращает класс "Healthy".
func HealthyClass() DiseaseClass {
	return copyClass(diseaseClasses[ClassHealthy])
}

// Classes возвращает копию всей таблицы классов в порядке индексов.
func Classes() []DiseaseClass {
	out := make([]DiseaseClass, 0, ClassCount)
	for _, c := range diseaseClasses {
		out = append(out, copyClass(c))
	}
	return out
}

// ClassNames возвращает имена классов в порядке индексов модели.
func ClassNames() []string {
	names := make([]string, 0, ClassCount)
	for _, c := range diseaseClasses {
		names = append(names, c.Name)
	}
	return names
}

// IndexToID переводит индекс модели в публичный идентификатор.
func IndexToID(index int) int {
	return index + 1
}

// Таблица неизменяемая, поэтому наружу отдаём копию срезов.
func copyClass(c DiseaseClass) DiseaseClass {
	c.Recommendations = append([]string(nil), c.Recommendations...)
	return c
}
