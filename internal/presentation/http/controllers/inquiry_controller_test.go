package controllers

import (
    "context"
    "errors"
    "testing"

    "linkhub-gateway/internal/domain/entities"
)

type stubInquiries struct {
    items []entities.ServiceInquiry
    err   error
}

func (s *stubInquiries) Create(ctx context.Context, inq *entities.ServiceInquiry) error { return nil }

func (s *stubInquiries) ListByProfile(ctx context.Context, profileID string) ([]entities.ServiceInquiry, error) {
    return s.items, s.err
}

func TestListWithPagination(t *testing.T) {
    repo := &stubInquiries{}
    for _, id := range []string{"a", "b", "c", "d", "e"} {
        repo.items = append(repo.items, entities.ServiceInquiry{ID: id})
    }
    c := NewInquiryController(repo)

    cases := []struct {
        page, limit int
        want        []string
    }{
        {1, 2, []string{"a", "b"}},
        {3, 2, []string{"e"}},
        {4, 2, []string{}},
        {0, 0, []string{"a", "b", "c", "d", "e"}},
    }
    for _, tc := range cases {
        items, total, err := c.ListWithPagination(context.Background(), "p", tc.page, tc.limit)
        if err != nil {
            t.Fatalf("page %d: %v", tc.page, err)
        }
        if total != 5 {
            t.Errorf("page %d: total = %d, want 5", tc.page, total)
        }
        if len(items) != len(tc.want) {
            t.Fatalf("page %d limit %d: got %d items, want %d", tc.page, tc.limit, len(items), len(tc.want))
        }
        for i, id := range tc.want {
            if items[i].ID != id {
                t.Errorf("page %d: items[%d] = %s, want %s", tc.page, i, items[i].ID, id)
            }
        }
    }
}

func TestListWithPaginationError(t *testing.T) {
    c := NewInquiryController(&stubInquiries{err: errors.New("boom")})
    if _, _, err := c.ListWithPagination(context.Background(), "p", 1, 10); err == nil {
        t.Fatal("expected repository error to propagate")
    }
}
