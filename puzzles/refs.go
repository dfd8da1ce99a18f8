package puzzles

import (
	"gonum.org/v1/gonum/mat"

	"github.com/minigpu/minigpu"
)

// Reference functions are the verification oracles: plain sequential
// computations of each puzzle's expected output. Dot and matmul lean on
// gonum so the harness is checked against an independent implementation.

// addConstRef adds c to every element, for any buffer shape.
func addConstRef(c float32) minigpu.ReferenceFunc {
	return func(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
		in := ins[0].Data()
		res := out.Data()
		for i := range in {
			res[i] = in[i] + c
		}
	}
}

func zipRef(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
	a, b := ins[0].Data(), ins[1].Data()
	res := out.Data()
	for i := range res {
		res[i] = a[i] + b[i]
	}
}

func broadcastRef(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
	a, b := ins[0], ins[1]
	for i := 0; i < out.Rows(); i++ {
		for j := 0; j < out.Cols(); j++ {
			out.Set2(i, j, a.At2(i, 0)+b.At2(0, j))
		}
	}
}

// poolRef is the sliding-window sum of width 3.
func poolRef(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
	a := ins[0]
	for i := 0; i < a.Len(); i++ {
		var sum float32
		for j := i - 2; j <= i; j++ {
			if j >= 0 {
				sum += a.At(j)
			}
		}
		out.Set(i, sum)
	}
}

func dotRef(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
	a := mat.NewVecDense(ins[0].Len(), toFloat64(ins[0].Data()))
	b := mat.NewVecDense(ins[1].Len(), toFloat64(ins[1].Data()))
	out.Set(0, float32(mat.Dot(a, b)))
}

// convRef is the 1D convolution truncated at the end of a.
func convRef(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
	a, b := ins[0], ins[1]
	for i := 0; i < a.Len(); i++ {
		var sum float32
		for j := 0; j < b.Len(); j++ {
			if i+j < a.Len() {
				sum += a.At(i+j) * b.At(j)
			}
		}
		out.Set(i, sum)
	}
}

// blockSumRef sums each tpb-wide slice of the input into one output
// element.
func blockSumRef(tpb int) minigpu.ReferenceFunc {
	return func(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
		a := ins[0]
		for j := 0; j < out.Len(); j++ {
			var sum float32
			for i := j * tpb; i < (j+1)*tpb && i < a.Len(); i++ {
				sum += a.At(i)
			}
			out.Set(j, sum)
		}
	}
}

func axisSumRef(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
	a := ins[0]
	for r := 0; r < a.Rows(); r++ {
		var sum float32
		for c := 0; c < a.Cols(); c++ {
			sum += a.At2(r, c)
		}
		out.Set2(r, 0, sum)
	}
}

func matmulRef(out *minigpu.Buffer, ins ...*minigpu.Buffer) {
	n := ins[0].Rows()
	a := mat.NewDense(n, n, toFloat64(ins[0].Data()))
	b := mat.NewDense(n, n, toFloat64(ins[1].Data()))
	var c mat.Dense
	c.Mul(a, b)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out.Set2(i, j, float32(c.At(i, j)))
		}
	}
}

func toFloat64(data []float32) []float64 {
	res := make([]float64, len(data))
	for i, v := range data {
		res[i] = float64(v)
	}
	return res
}
