package model

import "time"

type GlobalStats struct {
	TotalJudges   int `json:"total_judges"`
	TotalVotes    int `json:"total_votes"`
	TotalProjects int `json:"total_projects"`
}

type CategoryMetrics struct {
	CategoryID   int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	Grade        string `json:"grade"`
	TotalVotes   int    `json:"total_votes"`
	VotingJudges int    `json:"voting_judges"`
	// AveragePerJudge is TotalVotes / VotingJudges, 0 when nobody voted.
	AveragePerJudge float64 `json:"average_per_judge"`
}

type TopProject struct {
	Rank           int       `json:"rank"`
	ProjectCode    string    `json:"project_code"`
	Votes          int       `json:"votes"`
	FirstNominated time.Time `json:"first_nominated_at"`
}

type CategoryTop struct {
	CategoryID   int          `json:"category_id"`
	CategoryName string       `json:"category_name"`
	Grade        string       `json:"grade"`
	Projects     []TopProject `json:"projects"`
}

type ActivityEntry struct {
	NominationID  string    `json:"nomination_id"`
	ProjectCode   string    `json:"project_code"`
	JudgeName     string    `json:"judge_name"`
	JudgeUsername string    `json:"judge_username"`
	CategoryName  string    `json:"category_name"`
	Grade         string    `json:"grade"`
	CreatedAt     time.Time `json:"created_at"`
	Relative      string    `json:"relative"`
}

type MetricsSnapshot struct {
	Global      GlobalStats       `json:"global"`
	Categories  []CategoryMetrics `json:"categories"`
	TopProjects []CategoryTop     `json:"top_projects"`
	Activity    []ActivityEntry   `json:"activity"`
	GeneratedAt time.Time         `json:"generated_at"`
}
