package ngsi

// ActionType определяет тип batch операции /v2/op/update
type ActionType string

const (
	ActionAppendStrict ActionType = "append_strict" // создание, ошибка если сущность существует
	ActionUpdate       ActionType = "update"        // обновление существующих атрибутов
	ActionDelete       ActionType = "delete"        // удаление сущностей
)

// BatchOperation представляет тело запроса POST /op/update
type BatchOperation struct {
	ActionType ActionType `json:"actionType"` // тип операции
	Entities   []Entity   `json:"entities"`   // сущности операции
}

// ErrorResponse представляет ответ брокера с ошибкой
type ErrorResponse struct {
	Error       string `json:"error"`                 // код ошибки (например, "NotFound")
	Description string `json:"description,omitempty"` // описание ошибки
}
