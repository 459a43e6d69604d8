package entities

import "time"

type Profile struct {
    ID          string
    Username    string
    DisplayName string
    Bio         string
    AvatarURL   string
    CreatedAt   time.Time
}

type Link struct {
    ID        string
    ProfileID string
    Title     string
    URL       string
    Position  int
    IsActive  bool
}

// PriceType describes how a service is billed.
type PriceType string

const (
    PriceFixed      PriceType = "fixed"
    PriceHourly     PriceType = "hourly"
    PriceStartingAt PriceType = "starting_at"
    PriceQuote      PriceType = "quote"
)

type Service struct {
    ID          string
    ProfileID   string
    Title       string
    Description string
    Category    string
    PriceCents  int64
    Currency    string
    PriceType   PriceType
    Position    int
    IsActive    bool
}

type SocialLink struct {
    ID        string
    ProfileID string
    Platform  string
    URL       string
    Position  int
}

// ProfileBundle is everything the gateway can expose about one profile.
type ProfileBundle struct {
    Profile  Profile
    Links    []Link
    Services []Service
    Social   []SocialLink
}
