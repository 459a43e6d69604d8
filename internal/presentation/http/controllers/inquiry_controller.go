package controllers

import (
    "context"

    "linkhub-gateway/internal/domain/entities"
    "linkhub-gateway/internal/domain/repositories"
)

type InquiryController struct {
    repo repositories.InquiryRepository
}

func NewInquiryController(repo repositories.InquiryRepository) *InquiryController {
    return &InquiryController{repo: repo}
}

func (c *InquiryController) List(ctx context.Context, profileID string) ([]entities.ServiceInquiry, error) {
    return c.repo.ListByProfile(ctx, profileID)
}

// ListWithPagination returns one page of inquiries (newest first) and the total count.
func (c *InquiryController) ListWithPagination(ctx context.Context, profileID string, page, limit int) ([]entities.ServiceInquiry, int, error) {
    all, err := c.repo.ListByProfile(ctx, profileID)
    if err != nil { return nil, 0, err }

    total := len(all)
    if page < 1 { page = 1 }
    if limit < 1 { limit = total }
    from := (page - 1) * limit
    if from > total { from = total }
    to := from + limit
    if to > total { to = total }

    items := make([]entities.ServiceInquiry, to-from)
    copy(items, all[from:to])
    return items, total, nil
}
