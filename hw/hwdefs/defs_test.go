package hwdefs

import "testing"

func TestIRQLineString(t *testing.T) {
	tests := []struct {
		irq  IRQLine
		want string
	}{
		{0, ""},
		{VBlank, "vblank"},
		{Raster | Sprite, "raster|sprite"},
		{VBlank | Raster | Sprite | Collision, "vblank|raster|sprite|collision"},
	}
	for _, tt := range tests {
		if got := tt.irq.String(); got != tt.want {
			t.Errorf("IRQLine(%d).String() = %q, want %q", uint8(tt.irq), got, tt.want)
		}
	}
}
