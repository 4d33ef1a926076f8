package compute

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		mean, max float64
		want      string
	}{
		{"negative mean is critical", -1, 50, StatusCritical},
		{"implausible max is critical", 25, 160, StatusCritical},
		{"low mean is warning", 10, 50, StatusWarning},
		{"steady load is normal", 50, 60, StatusNormal},
		// Both the critical and warning conditions match textually;
		// critical must win because rules evaluate in order.
		{"critical beats warning", -5, 160, StatusCritical},
		{"low mean with implausible max", 10, 151, StatusCritical},
		// Boundaries: the rules are strict comparisons.
		{"mean exactly zero", 0, 50, StatusWarning},
		{"max exactly 150", 50, 150, StatusNormal},
		{"mean exactly 20", 20, 50, StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.mean, tt.max); got != tt.want {
				t.Errorf("Classify(%v, %v): got %q, want %q", tt.mean, tt.max, got, tt.want)
			}
		})
	}
}

func TestCapacity(t *testing.T) {
	wants := map[string]float64{
		MeshAPI100: 250,
		MeshAPI140: 200,
		MeshAPI170: 160,
		MeshAPI200: 120,
	}
	for mesh, want := range wants {
		c, ok := Capacity(mesh)
		if !ok {
			t.Fatalf("Capacity(%q): not found", mesh)
		}
		if c != want {
			t.Errorf("Capacity(%q): got %v, want %v", mesh, c, want)
		}
	}

	if _, ok := Capacity("API 60"); ok {
		t.Error("Capacity of unknown mesh: got ok, want false")
	}

	if got := MeshTypes(); len(got) != 4 || got[0] != MeshAPI100 || got[3] != MeshAPI200 {
		t.Errorf("MeshTypes: got %v", got)
	}
}

// Utilization must be monotonically increasing in solids rate for a fixed
// capacity: more throughput, more utilization.
func TestDeriveUtilization_Monotonic(t *testing.T) {
	capacity, _ := Capacity(MeshAPI200)
	s := fullSeries()
	s.Readings = nil
	for wob := 1.0; wob <= 10; wob++ {
		s.Readings = append(s.Readings, row(50, wob, 100, 0))
	}

	out := DeriveUtilization(s, capacity)
	for i := 1; i < len(out.Readings); i++ {
		prev, cur := out.Readings[i-1], out.Readings[i]
		if cur.SolidsRate <= prev.SolidsRate {
			t.Fatalf("solids rate not increasing at row %d", i)
		}
		if cur.Utilization <= prev.Utilization {
			t.Errorf("utilization not increasing at row %d: %v then %v", i, prev.Utilization, cur.Utilization)
		}
	}
}
