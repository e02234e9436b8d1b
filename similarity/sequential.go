package similarity

// Sequential 是参考实现：朴素的上三角双重循环。
// 作为优化路径不可用时的兜底，输出与 Parallel 完全一致。
type Sequential struct{}

func (s *Sequential) Name() string { return "similarity.sequential" }

func (s *Sequential) Compute(features [][]float64) ([][]float64, error) {
	n := len(features)
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := pairCosine(features[i], features[j])
			out[i][j] = sim
			out[j][i] = sim
		}
		// 对角线保持 0：不把商品推荐给它自己
	}
	return out, nil
}
