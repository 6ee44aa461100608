// Package points содержит правила начисления баллов за сдачу отходов.
package points

import (
	"errors"

	"github.com/mmeshcher/ecopoints-system/internal/model"
)

// ErrInvalidWasteType возвращается, если вид отходов не входит в таблицу ставок.
var (
	ErrInvalidWasteType = errors.New("invalid waste type")
	// ErrInvalidAmount возвращается, если вес отходов не является положительным числом.
	ErrInvalidAmount = errors.New("waste amount must be positive")
)

// rates задаёт фиксированную ставку баллов за грамм для каждого вида отходов.
var rates = map[model.WasteType]int64{
	model.WasteTypePlastic: 1,
	model.WasteTypePaper:   1,
	model.WasteTypeGlass:   2,
	model.WasteTypeMetal:   3,
}

// Compute вычисляет количество баллов за сдачу отходов указанного вида и веса в граммах.
func Compute(wasteType model.WasteType, amount int64) (int64, error) {
	rate, ok := rates[wasteType]
	if !ok {
		return 0, ErrInvalidWasteType
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return rate * amount, nil
}
