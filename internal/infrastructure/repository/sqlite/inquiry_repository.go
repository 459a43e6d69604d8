package sqlite

import (
    "context"

    dbpkg "linkhub-gateway/internal/database"
    "linkhub-gateway/internal/domain/entities"
    "linkhub-gateway/internal/domain/repositories"
)

type InquiryRepo struct {
    db *dbpkg.Database
}

var _ repositories.InquiryRepository = (*InquiryRepo)(nil)

func NewInquiryRepo(db *dbpkg.Database) *InquiryRepo { return &InquiryRepo{db: db} }

func (r *InquiryRepo) Create(ctx context.Context, inq *entities.ServiceInquiry) error {
    db, err := handle(r.db)
    if err != nil { return err }
    return db.InsertInquiry(ctx, &dbpkg.InquiryRecord{
        ID:        inq.ID,
        ProfileID: inq.ProfileID,
        ServiceID: inq.ServiceID,
        Name:      inq.Name,
        Email:     inq.Email,
        Message:   inq.Message,
        Budget:    inq.Budget,
        Source:    inq.Source,
        APIKeyID:  inq.APIKeyID,
        Status:    inq.Status,
        CreatedAt: inq.CreatedAt,
    })
}

func (r *InquiryRepo) ListByProfile(ctx context.Context, profileID string) ([]entities.ServiceInquiry, error) {
    db, err := handle(r.db)
    if err != nil { return nil, err }
    records, err := db.ListInquiries(ctx, profileID)
    if err != nil { return nil, err }
    out := make([]entities.ServiceInquiry, 0, len(records))
    for _, q := range records {
        out = append(out, entities.ServiceInquiry{
            ID:        q.ID,
            ProfileID: q.ProfileID,
            ServiceID: q.ServiceID,
            Name:      q.Name,
            Email:     q.Email,
            Message:   q.Message,
            Budget:    q.Budget,
            Source:    q.Source,
            APIKeyID:  q.APIKeyID,
            Status:    q.Status,
            CreatedAt: q.CreatedAt,
        })
    }
    return out, nil
}

type VisitRepo struct {
    db *dbpkg.Database
}

var _ repositories.VisitRepository = (*VisitRepo)(nil)

func NewVisitRepo(db *dbpkg.Database) *VisitRepo { return &VisitRepo{db: db} }

func (r *VisitRepo) Record(ctx context.Context, v *entities.AgentVisit) error {
    db, err := handle(r.db)
    if err != nil { return err }
    return db.InsertVisit(ctx, &dbpkg.VisitRecord{
        ID:        v.ID,
        ProfileID: v.ProfileID,
        AgentName: v.AgentName,
        UserAgent: v.UserAgent,
        Method:    v.Method,
        Source:    v.Source,
        CreatedAt: v.CreatedAt,
    })
}
