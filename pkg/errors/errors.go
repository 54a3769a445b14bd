package errors

import "fmt"

var (
	// Токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")

	// Realtime-подписки
	ErrNotConnected    = fmt.Errorf("нет соединения с каналом изменений")
	ErrChannelTaken    = fmt.Errorf("канал с таким именем уже занят")
	ErrInvalidScope    = fmt.Errorf("пустой идентификатор ресторана или пользователя")
	ErrNotSubscribed   = fmt.Errorf("подписка не активна")
	ErrSubscribeFailed = fmt.Errorf("не удалось открыть подписку на изменения")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")
)

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

// HttpError - ошибка с HTTP-кодом для отдачи наружу.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string { return e.Message }
func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}
