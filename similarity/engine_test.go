package similarity

import (
	"bytes"
	"log/slog"
	"math"
	"testing"
)

const tolerance = 1e-9

func testMatrix() [][]float64 {
	// 三个商品：两个同类目不同价位、一个异类目（见 feature 包的编码）
	return [][]float64{
		{0, 1, 0, 1, 0, 0},
		{0, 1, 0, 0, 0, 1},
		{1, 0, 0, 1, 0, 0},
	}
}

func TestCompute_Symmetric(t *testing.T) {
	for _, e := range []Engine{&Sequential{}, &Parallel{Workers: 4}} {
		out, err := e.Compute(testMatrix())
		if err != nil {
			t.Fatalf("%s: Compute() error = %v", e.Name(), err)
		}
		for i := range out {
			for j := range out {
				if math.Abs(out[i][j]-out[j][i]) > tolerance {
					t.Errorf("%s: out[%d][%d]=%v != out[%d][%d]=%v",
						e.Name(), i, j, out[i][j], j, i, out[j][i])
				}
			}
		}
	}
}

func TestCompute_ZeroDiagonal(t *testing.T) {
	for _, e := range []Engine{&Sequential{}, &Parallel{}} {
		out, err := e.Compute(testMatrix())
		if err != nil {
			t.Fatalf("%s: Compute() error = %v", e.Name(), err)
		}
		for i := range out {
			if out[i][i] != 0 {
				t.Errorf("%s: out[%d][%d] = %v, want 0", e.Name(), i, i, out[i][i])
			}
		}
	}
}

func TestCompute_ImplementationsAgree(t *testing.T) {
	seq := &Sequential{}
	par := &Parallel{Workers: 3}

	mats := [][][]float64{
		testMatrix(),
		{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}, {0.1, 0.2, 0.3}},
		{{0, 0}, {1, 1}},
	}
	for _, m := range mats {
		a, err := seq.Compute(m)
		if err != nil {
			t.Fatalf("sequential: %v", err)
		}
		b, err := par.Compute(m)
		if err != nil {
			t.Fatalf("parallel: %v", err)
		}
		for i := range a {
			for j := range a[i] {
				if math.Abs(a[i][j]-b[i][j]) > tolerance {
					t.Errorf("mismatch at [%d][%d]: sequential=%v parallel=%v",
						i, j, a[i][j], b[i][j])
				}
			}
		}
	}
}

func TestCompute_ZeroNormRow(t *testing.T) {
	m := [][]float64{
		{0, 0, 0},
		{1, 2, 3},
		{4, 0, 1},
	}
	for _, e := range []Engine{&Sequential{}, &Parallel{}} {
		out, err := e.Compute(m)
		if err != nil {
			t.Fatalf("%s: Compute() error = %v", e.Name(), err)
		}
		for j := range out[0] {
			if out[0][j] != 0 {
				t.Errorf("%s: zero vector similarity out[0][%d] = %v, want 0",
					e.Name(), j, out[0][j])
			}
		}
	}
}

func TestCompute_ValueRange(t *testing.T) {
	e := New(WithMode(ModeSequential))
	out, err := e.Compute(testMatrix())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for i := range out {
		for j := range out[i] {
			if out[i][j] < -1-tolerance || out[i][j] > 1+tolerance {
				t.Errorf("out[%d][%d] = %v out of [-1, 1]", i, j, out[i][j])
			}
		}
	}
	// 同类目商品应比异类目商品更相似
	if out[0][1] <= out[0][2] {
		t.Errorf("same-category similarity %v should exceed cross-category %v",
			out[0][1], out[0][2])
	}
}

func TestCompute_RaggedInput(t *testing.T) {
	e := New()
	_, err := e.Compute([][]float64{{1, 2}, {1}})
	if err == nil {
		t.Fatal("ragged matrix should be rejected")
	}
}

func TestCompute_Empty(t *testing.T) {
	e := New()
	out, err := e.Compute(nil)
	if err != nil {
		t.Fatalf("Compute(nil) error = %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("Compute(nil) = %v, want empty", out)
	}
}

// panicEngine 模拟优化路径运行期崩溃，验证静默降级。
type panicEngine struct{}

func (panicEngine) Name() string                             { return "similarity.panic" }
func (panicEngine) Compute([][]float64) ([][]float64, error) { panic("native path gone") }

func TestGuarded_FallsBackOnPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	g := &guarded{primary: panicEngine{}, fallback: &Sequential{}, logger: logger}

	out, err := g.Compute(testMatrix())
	if err != nil {
		t.Fatalf("Compute() should recover via fallback, got error %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("fallback result has %d rows, want 3", len(out))
	}
	if !g.degraded.Load() {
		t.Error("engine should be marked degraded after fallback")
	}
	if Optimized(g) {
		t.Error("Optimized() should be false after degradation")
	}
	if buf.Len() == 0 {
		t.Error("fallback should be logged")
	}

	// 降级后再次调用仍然成功
	if _, err := g.Compute(testMatrix()); err != nil {
		t.Fatalf("second Compute() after degradation: %v", err)
	}
}

func TestNew_ModeSelection(t *testing.T) {
	if e := New(WithMode(ModeParallel)); !Optimized(e) {
		t.Error("ModeParallel engine should report optimized")
	}
	if e := New(WithMode(ModeSequential)); Optimized(e) {
		t.Error("ModeSequential engine should not report optimized")
	}
}
