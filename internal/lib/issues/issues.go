// Package issues содержит чистую арифметику окна подписки: вычисление
// стартового и конечного номера, проверку выбранного покупателем старта
// и подсчёт оставшихся номеров.
package issues

import "errors"

// StartWindow задаёт допустимое отклонение стартового номера от самого
// свежего опубликованного: новый подписчик может начать не раньше чем за
// StartWindow номеров до него и не позже чем через StartWindow после.
const StartWindow = 3

var (
	// ErrInvalidLength возвращается при неположительной длине подписки.
	ErrInvalidLength = errors.New("subscription length must be positive")
	// ErrStartOutOfRange возвращается, когда выбранный старт выходит за допустимое окно.
	ErrStartOutOfRange = errors.New("start issue is outside the allowed range")
	// ErrRenewalStartMismatch возвращается, когда у покупателя есть действующая
	// подписка, а выбранный старт не продолжает её с следующего номера.
	ErrRenewalStartMismatch = errors.New("start issue must continue the active subscription")
)

// Window описывает рассчитанное окно подписки.
// Инвариант: End == Start + Length - 1.
type Window struct {
	Start      int // Первый номер окна
	Length     int // Длина подписки в номерах
	End        int // Последний номер окна, включительно
	IssuesLeft int // Сколько номеров окна ещё не опубликовано
}

// DefaultStart возвращает стартовый номер, предлагаемый покупателю по
// умолчанию: следующий за концом действующей подписки либо следующий за
// самым свежим опубликованным номером.
func DefaultStart(priorEnd *int, latest int) int {
	if priorEnd != nil {
		return *priorEnd + 1
	}
	return latest + 1
}

// ValidateStart проверяет выбранный покупателем стартовый номер.
// priorEnd — конец действующей (ещё не исчерпанной публикацией) подписки,
// nil — когда её нет. latest — самый свежий опубликованный номер.
func ValidateStart(priorEnd *int, start, latest int) error {
	if priorEnd != nil {
		if start != *priorEnd+1 {
			return ErrRenewalStartMismatch
		}
		return nil
	}
	if start < latest-StartWindow || start > latest+StartWindow {
		return ErrStartOutOfRange
	}
	return nil
}

// Compute рассчитывает окно подписки. Нулевой requestedStart означает,
// что покупатель старт не выбирал — берётся значение по умолчанию.
func Compute(priorEnd *int, requestedStart, latest, length int) (*Window, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}
	start := requestedStart
	if start == 0 {
		start = DefaultStart(priorEnd, latest)
	}
	if err := ValidateStart(priorEnd, start, latest); err != nil {
		return nil, err
	}
	end := start + length - 1
	return &Window{
		Start:      start,
		Length:     length,
		End:        end,
		IssuesLeft: Left(end, latest),
	}, nil
}

// Left считает количество ещё не опубликованных номеров окна,
// отрицательное значение обрезается до нуля.
func Left(end, latest int) int {
	left := end - latest
	if left < 0 {
		return 0
	}
	return left
}
