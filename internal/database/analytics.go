package database

import (
	"context"
	"fmt"
	"time"
)

// AnalyticsTimeRange represents different time range options
type AnalyticsTimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AgentVisitStats is the per-agent share of visits.
type AgentVisitStats struct {
	AgentName  string  `json:"agentName"`
	Visits     int64   `json:"visits"`
	Percentage float64 `json:"percentage"`
	LastSeen   string  `json:"lastSeen"`
}

// MethodStats counts visits per JSON-RPC method.
type MethodStats struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
}

// VisitTrend is one day of visits.
type VisitTrend struct {
	Date   string `json:"date"`
	Visits int64  `json:"visits"`
}

// VisitAnalytics summarises agent traffic for one profile.
type VisitAnalytics struct {
	TimeRange   AnalyticsTimeRange `json:"timeRange"`
	TotalVisits int64              `json:"totalVisits"`
	Inquiries   int64              `json:"inquiries"`
	Agents      []AgentVisitStats  `json:"agents"`
	Methods     []MethodStats      `json:"methods"`
	DailyTrends []VisitTrend       `json:"dailyTrends"`
}

// GetVisitAnalytics aggregates agent_visits and agent-sourced inquiries for a profile.
func (d *Database) GetVisitAnalytics(ctx context.Context, profileID string, timeRange AnalyticsTimeRange) (*VisitAnalytics, error) {
	analytics := &VisitAnalytics{TimeRange: timeRange}
	start := timeRange.Start.UTC().Format(timeLayout)
	end := timeRange.End.UTC().Format(timeLayout)

	err := d.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM agent_visits
	WHERE profile_id = ? AND created_at >= ? AND created_at <= ?`,
		profileID, start, end).Scan(&analytics.TotalVisits)
	if err != nil {
		return nil, fmt.Errorf("count visits: %w", err)
	}

	err = d.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM service_inquiries
	WHERE profile_id = ? AND source = 'agent' AND created_at >= ? AND created_at <= ?`,
		profileID, start, end).Scan(&analytics.Inquiries)
	if err != nil {
		return nil, fmt.Errorf("count inquiries: %w", err)
	}

	if analytics.Agents, err = d.getAgentStats(ctx, profileID, start, end, analytics.TotalVisits); err != nil {
		return nil, err
	}
	if analytics.Methods, err = d.getMethodStats(ctx, profileID, start, end); err != nil {
		return nil, err
	}
	if analytics.DailyTrends, err = d.getDailyTrends(ctx, profileID, start, end); err != nil {
		return nil, err
	}
	return analytics, nil
}

func (d *Database) getAgentStats(ctx context.Context, profileID, start, end string, total int64) ([]AgentVisitStats, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT agent_name, COUNT(*) AS visits, MAX(created_at)
	FROM agent_visits
	WHERE profile_id = ? AND created_at >= ? AND created_at <= ?
	GROUP BY agent_name
	ORDER BY visits DESC, agent_name ASC`, profileID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query agent stats: %w", err)
	}
	defer rows.Close()

	stats := []AgentVisitStats{}
	for rows.Next() {
		var s AgentVisitStats
		if err := rows.Scan(&s.AgentName, &s.Visits, &s.LastSeen); err != nil {
			return nil, fmt.Errorf("scan agent stats: %w", err)
		}
		if total > 0 {
			s.Percentage = float64(s.Visits) * 100 / float64(total)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (d *Database) getMethodStats(ctx context.Context, profileID, start, end string) ([]MethodStats, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT method, COUNT(*) AS n
	FROM agent_visits
	WHERE profile_id = ? AND created_at >= ? AND created_at <= ?
	GROUP BY method
	ORDER BY n DESC, method ASC`, profileID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query method stats: %w", err)
	}
	defer rows.Close()

	stats := []MethodStats{}
	for rows.Next() {
		var s MethodStats
		if err := rows.Scan(&s.Method, &s.Count); err != nil {
			return nil, fmt.Errorf("scan method stats: %w", err)
		}
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

func (d *Database) getDailyTrends(ctx context.Context, profileID, start, end string) ([]VisitTrend, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT substr(created_at, 1, 10) AS day, COUNT(*)
	FROM agent_visits
	WHERE profile_id = ? AND created_at >= ? AND created_at <= ?
	GROUP BY day
	ORDER BY day ASC`, profileID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily trends: %w", err)
	}
	defer rows.Close()

	trends := []VisitTrend{}
	for rows.Next() {
		var t VisitTrend
		if err := rows.Scan(&t.Date, &t.Visits); err != nil {
			return nil, fmt.Errorf("scan daily trend: %w", err)
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}
