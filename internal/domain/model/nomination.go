package model

import "time"

type Nomination struct {
	ID          string    `json:"id"`
	JudgeID     string    `json:"judge_id"`
	CategoryID  int       `json:"category_id"`
	ProjectCode string    `json:"project_code"`
	CreatedAt   time.Time `json:"created_at"`
}

// NominationDetail is a nomination joined with its judge and category.
type NominationDetail struct {
	Nomination
	JudgeUsername string `json:"judge_username"`
	JudgeName     string `json:"judge_name"`
	CategoryName  string `json:"category_name"`
	Grade         string `json:"grade"`
}

// CategorySummary is one row of a judge's progress view.
type CategorySummary struct {
	CategoryID       int      `json:"category_id"`
	CategoryName     string   `json:"category_name"`
	Grade            string   `json:"grade"`
	TotalNominations int      `json:"total_nominations"`
	ProjectCodes     []string `json:"project_codes"`
}

type JudgeStats struct {
	TotalNominations    int `json:"total_nominations"`
	CategoriesCompleted int `json:"categories_completed"`
	TotalCategories     int `json:"total_categories"`
	TotalSlots          int `json:"total_slots"`
	RemainingSlots      int `json:"remaining_slots"`
}
