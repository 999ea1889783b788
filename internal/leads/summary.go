package leads

import "export-assistant/internal/models"

// Summary is the admin dashboard breakdown of the lead list.
type Summary struct {
	Total    int                          `json:"total"`
	ByStatus map[models.InquiryStatus]int `json:"byStatus"`
	BySource map[string]int               `json:"bySource"`
}

func Summarize(list []models.Inquiry) Summary {
	sum := Summary{
		Total:    len(list),
		ByStatus: map[models.InquiryStatus]int{models.StatusPending: 0, models.StatusResolved: 0},
		BySource: map[string]int{},
	}
	for _, inq := range list {
		sum.ByStatus[inq.Status]++
		sum.BySource[inq.Source]++
	}
	return sum
}
