package feed

import (
	"context"
	"strings"
)

type Job struct {
	Title             string   `json:"title"`
	Location          string   `json:"location"`
	Description       []string `json:"description"`
	Responsibilities  []string `json:"responsibilities"`
	Requirements      []string `json:"requirements"`
	LookingFor        []string `json:"lookingFor"`
	Culture           []string `json:"culture"`
	WhyJoinUs         []string `json:"whyJoinUs"`
	ExtraRequirements []string `json:"extraRequirements"`
}

type Careers struct {
	fetcher *Fetcher
	url     string
}

func NewCareers(fetcher *Fetcher, url string) *Careers {
	return &Careers{fetcher: fetcher, url: url}
}

func (c *Careers) Jobs(ctx context.Context) ([]Job, error) {
	t, err := c.fetcher.Fetch(ctx, c.url)
	if err != nil {
		return nil, err
	}
	return jobsFromTable(t), nil
}

func jobsFromTable(t *Table) []Job {
	var (
		title        = t.Column("title")
		location     = t.Column("location")
		description  = t.Column("description")
		duties       = t.Column("responsibilities")
		requirements = t.Column("requirements")
		lookingFor   = t.Column("looking_for")
		culture      = t.Column("culture")
		whyJoinUs    = t.Column("why_join_us")
		extra        = t.Column("extra_requirements")
	)

	jobs := []Job{}
	for _, row := range t.Rows {
		j := Job{
			Title:             Value(row, title),
			Location:          Value(row, location),
			Description:       splitList(Value(row, description)),
			Responsibilities:  splitList(Value(row, duties)),
			Requirements:      splitList(Value(row, requirements)),
			LookingFor:        splitList(Value(row, lookingFor)),
			Culture:           splitList(Value(row, culture)),
			WhyJoinUs:         splitList(Value(row, whyJoinUs)),
			ExtraRequirements: splitList(Value(row, extra)),
		}
		if j.Title == "" {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs
}

// splitList splits a pipe-separated cell, dropping empty entries.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
