package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                   = errors.New("recurso no encontrado")
	ErrInvalidInput               = errors.New("entrada inválida")
	ErrUnauthorized               = errors.New("no autorizado")
	ErrConflict                   = errors.New("conflicto con el estado actual")
	ErrInvalidTransition          = errors.New("transición de estado no permitida")
	ErrInsufficientStock          = errors.New("stock insuficiente")
	ErrInsufficientWarehouseStock = errors.New("stock insuficiente en bodega")
	ErrValidationFailed           = errors.New("validación fallida")
	ErrTimeout                    = errors.New("tiempo de espera agotado")
)

// ValidationError precondición de negocio incumplida; Reason explica cuál.
// errors.Is(err, ErrValidationFailed) es verdadero para cualquier ValidationError.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return ErrValidationFailed.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// Validation construye un ValidationError.
func Validation(reason string) error {
	return &ValidationError{Reason: reason}
}

// ValidationReason devuelve el motivo si err es (o envuelve) un ValidationError.
func ValidationReason(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason
	}
	return ""
}

// IsBusiness errores esperables del dominio, frente a fallos de infraestructura.
func IsBusiness(err error) bool {
	for _, target := range []error{
		ErrNotFound, ErrInvalidInput, ErrUnauthorized, ErrConflict, ErrInvalidTransition,
		ErrInsufficientStock, ErrInsufficientWarehouseStock, ErrValidationFailed, ErrTimeout,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
