package entity

// ModelPhase фаза жизненного цикла модели
type ModelPhase string

const (
	PhaseUnattempted ModelPhase = "unattempted"
	PhaseLoading     ModelPhase = "loading"
	PhaseReady       ModelPhase = "ready"
	PhaseUnavailable ModelPhase = "unavailable"
)

// FailureCategory на каком шаге загрузки модель отказала
type FailureCategory string

const (
	FailureNone           FailureCategory = ""
	FailureDependency     FailureCategory = "dependency"
	FailureWeightsMissing FailureCategory = "weights_missing"
	FailureConstruction   FailureCategory = "construction"
	FailureInference      FailureCategory = "inference"
)

// DeviceCPU устройство инференса; фиксировано ради переносимости деплоя
const DeviceCPU = "cpu"

// ModelState снимок состояния модели. Значение не меняется после создания.
type ModelState struct {
	Phase               ModelPhase
	Failure             FailureCategory
	FailureReason       string
	DependencyAvailable bool
	WeightsExist        bool
	WeightsPath         string
	Threshold           float64
	Classes             []string
	Device              string
}

// Ready модель загружена и прошла проверочный инференс
func (s ModelState) Ready() bool {
	return s.Phase == PhaseReady
}

// ActiveMethod метод, которым сейчас обслуживаются запросы.
func (s ModelState) ActiveMethod() Method {
	if s.Ready() {
		return MethodModel
	}
	return MethodColorAnalysis
}
