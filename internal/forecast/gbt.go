package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// gbtConfig mirrors the reference hyperparameters of the tree strategy.
type gbtConfig struct {
	nEstimators    int
	learningRate   float64
	maxDepth       int
	minChildWeight int
	subsample      float64
	colsample      float64
	seed           int64
}

var defaultGBTConfig = gbtConfig{
	nEstimators:    100,
	learningRate:   0.1,
	maxDepth:       5,
	minChildWeight: 1,
	subsample:      0.8,
	colsample:      0.8,
	seed:           42,
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

// gbtModel is a gradient-boosted ensemble of depth-limited regression trees
// trained on squared error. importanceGain accumulates the squared-error
// reduction contributed by each feature across all splits.
type gbtModel struct {
	base           float64
	learningRate   float64
	trees          []*treeNode
	importanceGain []float64
}

// trainGBT fits the ensemble: each round fits one tree to the current
// residuals on a row/feature subsample and shrinks its contribution by the
// learning rate. The fixed seed keeps training fully deterministic.
func trainGBT(x [][]float64, y []float64, cfg gbtConfig) *gbtModel {
	n := len(x)
	k := len(x[0])
	rng := rand.New(rand.NewSource(cfg.seed))

	model := &gbtModel{
		base:           mean(y),
		learningRate:   cfg.learningRate,
		importanceGain: make([]float64, k),
	}

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = model.base
	}

	residual := make([]float64, n)
	for round := 0; round < cfg.nEstimators; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}

		rows := sampleIndices(rng, n, cfg.subsample)
		cols := sampleIndices(rng, k, cfg.colsample)

		tree := buildTree(x, residual, rows, cols, cfg, 0, model.importanceGain)
		model.trees = append(model.trees, tree)

		for i := range pred {
			pred[i] += cfg.learningRate * predictTree(tree, x[i])
		}
	}

	return model
}

func (m *gbtModel) predict(row []float64) float64 {
	out := m.base
	for _, t := range m.trees {
		out += m.learningRate * predictTree(t, row)
	}
	return out
}

func (m *gbtModel) predictAll(x [][]float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = m.predict(x[i])
	}
	return out
}

// featureImportances returns the per-feature gain shares, normalized to sum
// to one; all-zero gains yield all-zero importances.
func (m *gbtModel) featureImportances() []float64 {
	var total float64
	for _, g := range m.importanceGain {
		total += g
	}
	out := make([]float64, len(m.importanceGain))
	if total == 0 {
		return out
	}
	for i, g := range m.importanceGain {
		out[i] = g / total
	}
	return out
}

func predictTree(node *treeNode, row []float64) float64 {
	for !node.leaf {
		if row[node.feature] < node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func buildTree(x [][]float64, target []float64, rows, cols []int, cfg gbtConfig, depth int, gains []float64) *treeNode {
	if depth >= cfg.maxDepth || len(rows) < 2*cfg.minChildWeight || len(rows) < 2 {
		return leafNode(target, rows)
	}

	feature, threshold, gain, ok := bestSplit(x, target, rows, cols, cfg.minChildWeight)
	if !ok || gain <= 0 {
		return leafNode(target, rows)
	}
	gains[feature] += gain

	var left, right []int
	for _, r := range rows {
		if x[r][feature] < threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      buildTree(x, target, left, cols, cfg, depth+1, gains),
		right:     buildTree(x, target, right, cols, cfg, depth+1, gains),
	}
}

func leafNode(target []float64, rows []int) *treeNode {
	var sum float64
	for _, r := range rows {
		sum += target[r]
	}
	value := 0.0
	if len(rows) > 0 {
		value = sum / float64(len(rows))
	}
	return &treeNode{leaf: true, value: value}
}

// bestSplit scans every candidate feature for the threshold with the
// largest squared-error reduction. Candidate thresholds are midpoints
// between consecutive distinct sample values.
func bestSplit(x [][]float64, target []float64, rows, cols []int, minChild int) (feature int, threshold, gain float64, ok bool) {
	parentSSE := subsetSSE(target, rows)
	bestGain := 0.0

	type sample struct {
		v float64
		t float64
	}
	for _, col := range cols {
		samples := make([]sample, len(rows))
		for i, r := range rows {
			samples[i] = sample{v: x[r][col], t: target[r]}
		}
		sort.Slice(samples, func(i, j int) bool { return samples[i].v < samples[j].v })

		var leftSum, leftSq float64
		var totalSum, totalSq float64
		for _, s := range samples {
			totalSum += s.t
			totalSq += s.t * s.t
		}

		for i := 0; i < len(samples)-1; i++ {
			leftSum += samples[i].t
			leftSq += samples[i].t * samples[i].t
			if samples[i].v == samples[i+1].v {
				continue
			}
			nl := i + 1
			nr := len(samples) - nl
			if nl < minChild || nr < minChild {
				continue
			}
			leftSSE := leftSq - leftSum*leftSum/float64(nl)
			rightSum := totalSum - leftSum
			rightSSE := (totalSq - leftSq) - rightSum*rightSum/float64(nr)
			g := parentSSE - leftSSE - rightSSE
			if g > bestGain {
				bestGain = g
				feature = col
				threshold = (samples[i].v + samples[i+1].v) / 2
				ok = true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

func subsetSSE(target []float64, rows []int) float64 {
	if len(rows) == 0 {
		return 0
	}
	var sum, sq float64
	for _, r := range rows {
		sum += target[r]
		sq += target[r] * target[r]
	}
	return sq - sum*sum/float64(len(rows))
}

// sampleIndices draws a fraction of 0..n-1 without replacement, at least
// one, in sorted order for deterministic iteration.
func sampleIndices(rng *rand.Rand, n int, fraction float64) []int {
	count := int(math.Floor(fraction * float64(n)))
	if count < 1 {
		count = 1
	}
	if count > n {
		count = n
	}
	perm := rng.Perm(n)
	out := append([]int(nil), perm[:count]...)
	sort.Ints(out)
	return out
}
