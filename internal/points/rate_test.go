package points

import (
	"errors"
	"testing"

	"github.com/mmeshcher/ecopoints-system/internal/model"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		wasteType model.WasteType
		amount    int64
		want      int64
		wantErr   error
	}{
		{
			name:      "plastic one point per gram",
			wasteType: model.WasteTypePlastic,
			amount:    100,
			want:      100,
		},
		{
			name:      "paper one point per gram",
			wasteType: model.WasteTypePaper,
			amount:    30,
			want:      30,
		},
		{
			name:      "glass two points per gram",
			wasteType: model.WasteTypeGlass,
			amount:    10,
			want:      20,
		},
		{
			name:      "metal three points per gram",
			wasteType: model.WasteTypeMetal,
			amount:    50,
			want:      150,
		},
		{
			name:      "unknown waste type",
			wasteType: "Cardboard",
			amount:    10,
			wantErr:   ErrInvalidWasteType,
		},
		{
			name:      "empty waste type",
			wasteType: "",
			amount:    10,
			wantErr:   ErrInvalidWasteType,
		},
		{
			name:      "zero amount",
			wasteType: model.WasteTypePlastic,
			amount:    0,
			wantErr:   ErrInvalidAmount,
		},
		{
			name:      "negative amount",
			wasteType: model.WasteTypeGlass,
			amount:    -5,
			wantErr:   ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.wasteType, tt.amount)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Compute() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("Compute() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	a, err := Compute(model.WasteTypeMetal, 7)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	b, err := Compute(model.WasteTypeMetal, 7)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if a != b {
		t.Fatalf("Compute must be deterministic, got %d and %d", a, b)
	}
}
