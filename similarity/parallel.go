package similarity

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Parallel 是优化实现：按行把上三角分给 worker 并发计算。
// 每对 (i, j) 只由认领行 i 的 worker 计算并同时写 (i,j) 与 (j,i)，
// 写入的矩阵元素互不重叠，无需加锁；
// 数学路径与 Sequential 共用 pairCosine，保证输出一致。
type Parallel struct {
	// Workers 并发度，<= 0 时取 GOMAXPROCS
	Workers int
}

func (p *Parallel) Name() string { return "similarity.parallel" }

func (p *Parallel) Compute(features [][]float64) ([][]float64, error) {
	n := len(features)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		// 规模太小不值得并发
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				sim := pairCosine(features[i], features[j])
				out[i][j] = sim
				out[j][i] = sim
			}
		}
		return out, nil
	}

	var eg errgroup.Group
	rows := make(chan int, n)
	for i := 0; i < n; i++ {
		rows <- i
	}
	close(rows)

	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			for i := range rows {
				row := out[i]
				for j := i + 1; j < n; j++ {
					sim := pairCosine(features[i], features[j])
					row[j] = sim
					out[j][i] = sim
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
