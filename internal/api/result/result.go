package result

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nkiryanov/sims/internal/api"
	"github.com/nkiryanov/sims/internal/models"
)

const (
	pathExams    = "/results/api/exams/"
	pathMyScores = "/results/api/scores/my_scores/"
)

type ExamFilter struct {
	ExamType string
	Status   string
	Search   string
	Ordering string
}

func (f ExamFilter) query() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{
		"exam_type": f.ExamType,
		"status":    f.Status,
		"search":    f.Search,
		"ordering":  f.Ordering,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}

type API struct {
	client api.Client
}

func New(client api.Client) *API {
	return &API{client: client}
}

func (a *API) Exams(ctx context.Context, filter ExamFilter) (models.Page[models.Exam], error) {
	var page models.Page[models.Exam]
	err := a.client.Get(ctx, pathExams, filter.query(), &page)
	return page, err
}

func (a *API) ExamStatistics(ctx context.Context, examID int64) (models.ExamStatistics, error) {
	var stats models.ExamStatistics
	err := a.client.Get(ctx, fmt.Sprintf("%s%d/statistics/", pathExams, examID), nil, &stats)
	return stats, err
}

// Scores of the current trainee
func (a *API) MyScores(ctx context.Context) ([]models.Score, error) {
	var page models.Page[models.Score]
	if err := a.client.Get(ctx, pathMyScores, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}
