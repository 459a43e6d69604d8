package entities

import "time"

const (
    InquirySourceAgent = "agent"
    InquiryStatusNew   = "new"
)

type ServiceInquiry struct {
    ID        string    `json:"id"`
    ProfileID string    `json:"-"`
    ServiceID string    `json:"service_id,omitempty"`
    Name      string    `json:"name"`
    Email     string    `json:"email"`
    Message   string    `json:"message,omitempty"`
    Budget    string    `json:"budget,omitempty"`
    Source    string    `json:"source"`
    APIKeyID  string    `json:"api_key_id,omitempty"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
}

type AgentVisit struct {
    ID        string
    ProfileID string
    AgentName string
    UserAgent string
    Method    string
    Source    string
    CreatedAt time.Time
}
