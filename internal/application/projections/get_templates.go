package projections

import (
	"context"
	"time"

	"coachdesk/internal/adapters/storage/template"
	"coachdesk/internal/application/listutil"
	domainTemplate "coachdesk/internal/domain/template"
)

// GetTemplatesQuery carries query parameters.
type GetTemplatesQuery struct {
	listutil.ListParams
}

// TemplateSummary is one row of the template library.
type TemplateSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// GetTemplatesResult carries the query result.
type GetTemplatesResult struct {
	Templates []TemplateSummary `json:"templates"`
	Search    string            `json:"search"`
	Page      listutil.PageInfo `json:"page"`
}

// GetTemplatesDeps holds dependencies for GetTemplates.
type GetTemplatesDeps struct {
	TemplateStore TemplateStore
}

// QueryGetTemplates lists the template library newest first.
// PRE: query parsed with listutil.ParseListParams
// POST: at most PerPage templates whose title contains Search, case-insensitively
func QueryGetTemplates(ctx context.Context, query GetTemplatesQuery, deps GetTemplatesDeps) (GetTemplatesResult, error) {
	filter := template.ListFilter{Search: query.Search}
	total, err := deps.TemplateStore.Count(ctx, filter)
	if err != nil {
		return GetTemplatesResult{}, err
	}

	page := listutil.NewPageInfo(query.Page, query.PerPage, total)
	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	templates, err := deps.TemplateStore.List(ctx, filter)
	if err != nil {
		return GetTemplatesResult{}, err
	}

	summaries := make([]TemplateSummary, 0, len(templates))
	for _, t := range templates {
		summaries = append(summaries, templateSummary(t))
	}
	return GetTemplatesResult{Templates: summaries, Search: query.Search, Page: page}, nil
}

func templateSummary(t domainTemplate.Template) TemplateSummary {
	return TemplateSummary{ID: t.ID, Title: t.Title, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt}
}

// GetTemplateDetailQuery carries query parameters.
type GetTemplateDetailQuery struct {
	TemplateID string
}

// GetTemplateDetailResult carries the query result.
type GetTemplateDetailResult struct {
	Template TemplateSummary `json:"template"`
	Days     []DayView       `json:"days"`
}

// GetTemplateDetailDeps holds dependencies for GetTemplateDetail.
type GetTemplateDetailDeps struct {
	TemplateStore TemplateStore
}

// QueryGetTemplateDetail loads a template with its days in display order.
// PRE: TemplateID is non-empty
// POST: Days are stable-sorted by order and carry rendered workout HTML
func QueryGetTemplateDetail(ctx context.Context, query GetTemplateDetailQuery, deps GetTemplateDetailDeps) (GetTemplateDetailResult, error) {
	t, err := deps.TemplateStore.GetByID(ctx, query.TemplateID)
	if err != nil {
		return GetTemplateDetailResult{}, err
	}
	days, err := deps.TemplateStore.ListDays(ctx, t.ID)
	if err != nil {
		return GetTemplateDetailResult{}, err
	}
	views, err := dayViews(days)
	if err != nil {
		return GetTemplateDetailResult{}, err
	}
	return GetTemplateDetailResult{Template: templateSummary(t), Days: views}, nil
}
