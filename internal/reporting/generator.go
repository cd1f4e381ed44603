package reporting

import (
	"context"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/storage"
)

// Generator produces reports from stored runs.
type Generator struct {
	scoreStore storage.ScoreStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(scoreStore storage.ScoreStore) *Generator {
	return &Generator{
		scoreStore: scoreStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for runID, or for the latest run when runID is empty.
// Returns storage.ErrNotFound if the run does not exist.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	var (
		run *domain.ScoreRun
		err error
	)
	if runID == "" {
		run, err = g.scoreStore.GetLatestRun(ctx)
	} else {
		run, err = g.scoreStore.GetRun(ctx, runID)
	}
	if err != nil {
		return nil, err
	}

	scores, err := g.scoreStore.GetRunScores(ctx, run.RunID)
	if err != nil {
		return nil, err
	}

	return Build(g.now(), run, scores), nil
}

// Build assembles a report from an in-memory run without touching storage.
func Build(generatedAt time.Time, run *domain.ScoreRun, scores []domain.WalletScore) *Report {
	r := &Report{
		GeneratedAt:  generatedAt,
		Summary:      summarize(scores),
		Distribution: distribution(scores),
		Scores:       SortByScore(scores),
	}
	if run != nil {
		r.Run = *run
	}
	return r
}

// summarize computes score statistics. Empty input yields a zero Summary.
func summarize(scores []domain.WalletScore) Summary {
	if len(scores) == 0 {
		return Summary{}
	}

	values := make([]float64, len(scores))
	s := Summary{
		WalletCount: len(scores),
		Min:         scores[0].Score,
		Max:         scores[0].Score,
	}
	for i, sc := range scores {
		values[i] = float64(sc.Score)
		if sc.Score < s.Min {
			s.Min = sc.Score
		}
		if sc.Score > s.Max {
			s.Max = sc.Score
		}
		if sc.Score == domain.BaselineScore {
			s.BaselineCount++
		}
	}

	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}

	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		s.Median = values[mid]
	} else {
		s.Median = (values[mid-1] + values[mid]) / 2
	}

	return s
}

// distribution buckets scores into fixed-width rows covering [MinScore, MaxScore].
// The last bucket is closed so MaxScore lands in it.
func distribution(scores []domain.WalletScore) []DistributionRow {
	n := (domain.MaxScore - domain.MinScore) / DistributionBucketWidth
	rows := make([]DistributionRow, n)
	for i := range rows {
		rows[i].Lower = domain.MinScore + i*DistributionBucketWidth
		rows[i].Upper = rows[i].Lower + DistributionBucketWidth - 1
	}
	rows[n-1].Upper = domain.MaxScore

	for _, sc := range scores {
		idx := (sc.Score - domain.MinScore) / DistributionBucketWidth
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		rows[idx].Count++
	}
	return rows
}
