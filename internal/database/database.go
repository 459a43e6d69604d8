package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Fixed-width UTC timestamps keep lexical order equal to time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("record not found")

// Database manager struct
type Database struct {
	db *sql.DB
}

// ProfileRecord is a row of the profiles table.
type ProfileRecord struct {
	ID           string
	Username     string
	DisplayName  string
	Bio          string
	AvatarURL    string
	PasswordHash string
	CreatedAt    time.Time
}

type LinkRecord struct {
	ID        string
	ProfileID string
	Title     string
	URL       string
	Position  int
	IsActive  bool
}

type ServiceRecord struct {
	ID          string
	ProfileID   string
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Currency    string
	PriceType   string
	Position    int
	IsActive    bool
}

type SocialLinkRecord struct {
	ID        string
	ProfileID string
	Platform  string
	URL       string
	Position  int
}

// APIKeyRecord is a row of api_keys. The secret itself is never stored.
type APIKeyRecord struct {
	ID          string
	ProfileID   string
	Name        string
	KeyHash     string
	KeyPrefix   string
	Permissions []string
	RateLimit   int
	IsActive    bool
	UsageCount  int64
	LastUsedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type InquiryRecord struct {
	ID        string
	ProfileID string
	ServiceID string
	Name      string
	Email     string
	Message   string
	Budget    string
	Source    string
	APIKeyID  string
	Status    string
	CreatedAt time.Time
}

type VisitRecord struct {
	ID        string
	ProfileID string
	AgentName string
	UserAgent string
	Method    string
	Source    string
	CreatedAt time.Time
}

var defaultDB *Database

// Open opens (and migrates) a SQLite database at dbPath.
func Open(dbPath string) (*Database, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection serialises the
	// background usage/visit writes with request-path reads.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return d, nil
}

// InitDatabase opens dbPath and installs it as the process default.
func InitDatabase(dbPath string) error {
	d, err := Open(dbPath)
	if err != nil {
		return err
	}
	defaultDB = d
	return nil
}

// GetDatabase returns the default database instance
func GetDatabase() *Database {
	return defaultDB
}

// createTables creates all necessary database tables
func (d *Database) createTables() error {
	createProfilesTable := `
	CREATE TABLE IF NOT EXISTS profiles (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		bio TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	`

	createContentTables := `
	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		url TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_links_profile ON links(profile_id, position);

	CREATE TABLE IF NOT EXISTS services (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		price_cents INTEGER NOT NULL DEFAULT 0,
		currency TEXT NOT NULL DEFAULT 'USD',
		price_type TEXT NOT NULL DEFAULT 'fixed',
		position INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT 1
	);
	CREATE INDEX IF NOT EXISTS idx_services_profile ON services(profile_id, position);

	CREATE TABLE IF NOT EXISTS social_links (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		platform TEXT NOT NULL,
		url TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_social_profile ON social_links(profile_id, position);
	`

	createAPIKeysTable := `
	CREATE TABLE IF NOT EXISTS api_keys (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		key_hash TEXT NOT NULL UNIQUE,
		key_prefix TEXT NOT NULL,
		permissions TEXT NOT NULL DEFAULT '[]',
		rate_limit INTEGER NOT NULL DEFAULT 100,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		usage_count INTEGER NOT NULL DEFAULT 0,
		last_used_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_api_keys_profile ON api_keys(profile_id);
	`

	createInquiriesTable := `
	CREATE TABLE IF NOT EXISTS service_inquiries (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		service_id TEXT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		message TEXT NOT NULL DEFAULT '',
		budget TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL,
		api_key_id TEXT,
		status TEXT NOT NULL DEFAULT 'new',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_inquiries_profile ON service_inquiries(profile_id, created_at);
	`

	createVisitsTable := `
	CREATE TABLE IF NOT EXISTS agent_visits (
		id TEXT PRIMARY KEY,
		profile_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		agent_name TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		method TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT 'agent',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_visits_profile ON agent_visits(profile_id, created_at);
	`

	// Access logs table (structured logger sink)
	createLogsTable := `
	CREATE TABLE IF NOT EXISTS access_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		level TEXT NOT NULL,
		ciid TEXT NOT NULL,
		gbid TEXT NOT NULL,
		event_code TEXT NOT NULL,
		message TEXT NOT NULL,
		details TEXT,
		hostname TEXT NOT NULL,
		source_location TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON access_logs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_logs_event_code ON access_logs(event_code);
	`

	tables := []string{
		createProfilesTable, createContentTables, createAPIKeysTable,
		createInquiriesTable, createVisitsTable, createLogsTable,
	}
	for _, table := range tables {
		if _, err := d.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// CreateProfile inserts a profile row.
func (d *Database) CreateProfile(ctx context.Context, p *ProfileRecord) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.ExecContext(ctx, `
	INSERT INTO profiles (id, username, display_name, bio, avatar_url, password_hash, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Username, p.DisplayName, p.Bio, p.AvatarURL, p.PasswordHash, p.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert profile %s: %w", p.Username, err)
	}
	return nil
}

// SetPasswordHash replaces the owner's bcrypt hash.
func (d *Database) SetPasswordHash(ctx context.Context, username, hash string) error {
	res, err := d.db.ExecContext(ctx, `UPDATE profiles SET password_hash = ? WHERE username = ?`, hash, username)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res)
}

// GetProfileByUsername loads a profile or returns ErrNotFound.
func (d *Database) GetProfileByUsername(ctx context.Context, username string) (*ProfileRecord, error) {
	row := d.db.QueryRowContext(ctx, `
	SELECT id, username, display_name, bio, avatar_url, password_hash, created_at
	FROM profiles WHERE username = ?`, username)

	var p ProfileRecord
	var createdAt string
	if err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.Bio, &p.AvatarURL, &p.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query profile %s: %w", username, err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// InsertLink adds a link to a profile.
func (d *Database) InsertLink(ctx context.Context, l *LinkRecord) error {
	_, err := d.db.ExecContext(ctx, `
	INSERT INTO links (id, profile_id, title, url, position, is_active) VALUES (?, ?, ?, ?, ?, ?)`,
		l.ID, l.ProfileID, l.Title, l.URL, l.Position, l.IsActive,
	)
	return err
}

// InsertService adds a service to a profile.
func (d *Database) InsertService(ctx context.Context, s *ServiceRecord) error {
	if s.Currency == "" {
		s.Currency = "USD"
	}
	if s.PriceType == "" {
		s.PriceType = "fixed"
	}
	_, err := d.db.ExecContext(ctx, `
	INSERT INTO services (id, profile_id, title, description, category, price_cents, currency, price_type, position, is_active)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.ProfileID, s.Title, s.Description, s.Category, s.PriceCents, s.Currency, s.PriceType, s.Position, s.IsActive,
	)
	return err
}

// InsertSocialLink adds a social link to a profile.
func (d *Database) InsertSocialLink(ctx context.Context, s *SocialLinkRecord) error {
	_, err := d.db.ExecContext(ctx, `
	INSERT INTO social_links (id, profile_id, platform, url, position) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.ProfileID, s.Platform, s.URL, s.Position,
	)
	return err
}

// GetActiveLinks returns the active links of a profile ordered by position.
func (d *Database) GetActiveLinks(ctx context.Context, profileID string) ([]LinkRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT id, profile_id, title, url, position, is_active
	FROM links WHERE profile_id = ? AND is_active = 1
	ORDER BY position ASC, id ASC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var out []LinkRecord
	for rows.Next() {
		var l LinkRecord
		if err := rows.Scan(&l.ID, &l.ProfileID, &l.Title, &l.URL, &l.Position, &l.IsActive); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// GetActiveServices returns the active services of a profile ordered by position.
func (d *Database) GetActiveServices(ctx context.Context, profileID string) ([]ServiceRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT id, profile_id, title, description, category, price_cents, currency, price_type, position, is_active
	FROM services WHERE profile_id = ? AND is_active = 1
	ORDER BY position ASC, id ASC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}
	defer rows.Close()

	var out []ServiceRecord
	for rows.Next() {
		var s ServiceRecord
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.Title, &s.Description, &s.Category,
			&s.PriceCents, &s.Currency, &s.PriceType, &s.Position, &s.IsActive); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSocialLinks returns a profile's social links ordered by position.
func (d *Database) GetSocialLinks(ctx context.Context, profileID string) ([]SocialLinkRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT id, profile_id, platform, url, position
	FROM social_links WHERE profile_id = ?
	ORDER BY position ASC, id ASC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query social links: %w", err)
	}
	defer rows.Close()

	var out []SocialLinkRecord
	for rows.Next() {
		var s SocialLinkRecord
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.Platform, &s.URL, &s.Position); err != nil {
			return nil, fmt.Errorf("scan social link: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CreateAPIKey stores a key record.
func (d *Database) CreateAPIKey(ctx context.Context, k *APIKeyRecord) error {
	now := time.Now().UTC()
	if k.CreatedAt.IsZero() {
		k.CreatedAt = now
	}
	k.UpdatedAt = k.CreatedAt
	perms, err := json.Marshal(k.Permissions)
	if err != nil {
		return fmt.Errorf("encode permissions: %w", err)
	}
	_, err = d.db.ExecContext(ctx, `
	INSERT INTO api_keys (id, profile_id, name, key_hash, key_prefix, permissions, rate_limit, is_active, usage_count, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		k.ID, k.ProfileID, k.Name, k.KeyHash, k.KeyPrefix, string(perms), k.RateLimit, k.IsActive,
		k.CreatedAt.UTC().Format(timeLayout), k.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}
	return nil
}

const apiKeyColumns = `id, profile_id, name, key_hash, key_prefix, permissions, rate_limit, is_active, usage_count, last_used_at, created_at, updated_at`

// GetAPIKeyByHash resolves a key by the digest of its secret.
func (d *Database) GetAPIKeyByHash(ctx context.Context, keyHash string) (*APIKeyRecord, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = ?`, keyHash)
	return scanAPIKey(row)
}

// GetAPIKeyByID resolves a key by id.
func (d *Database) GetAPIKeyByID(ctx context.Context, id string) (*APIKeyRecord, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = ?`, id)
	return scanAPIKey(row)
}

// ListAPIKeysByProfile returns a profile's keys, newest first.
func (d *Database) ListAPIKeysByProfile(ctx context.Context, profileID string) ([]APIKeyRecord, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE profile_id = ? ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query api keys: %w", err)
	}
	defer rows.Close()

	var out []APIKeyRecord
	for rows.Next() {
		k, err := scanAPIKey(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *k)
	}
	return out, rows.Err()
}

// UpdateAPIKeyFields applies the non-nil fields.
func (d *Database) UpdateAPIKeyFields(ctx context.Context, id string, name *string, permissions *[]string, rateLimit *int, isActive *bool) error {
	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC().Format(timeLayout)}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *name)
	}
	if permissions != nil {
		b, err := json.Marshal(*permissions)
		if err != nil {
			return fmt.Errorf("encode permissions: %w", err)
		}
		sets = append(sets, "permissions = ?")
		args = append(args, string(b))
	}
	if rateLimit != nil {
		sets = append(sets, "rate_limit = ?")
		args = append(args, *rateLimit)
	}
	if isActive != nil {
		sets = append(sets, "is_active = ?")
		args = append(args, *isActive)
	}
	args = append(args, id)

	query := "UPDATE api_keys SET "
	for i, s := range sets {
		if i > 0 {
			query += ", "
		}
		query += s
	}
	query += " WHERE id = ?"

	res, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}
	return requireAffected(res)
}

// UpdateAPIKeyUsage bumps usage_count and last_used_at in one statement so
// concurrent touches never lose increments.
func (d *Database) UpdateAPIKeyUsage(ctx context.Context, id string) error {
	_, err := d.db.ExecContext(ctx, `
	UPDATE api_keys SET usage_count = usage_count + 1, last_used_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeLayout), id)
	return err
}

// DeleteAPIKey removes a key.
func (d *Database) DeleteAPIKey(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}
	return requireAffected(res)
}

// InsertInquiry stores a service inquiry.
func (d *Database) InsertInquiry(ctx context.Context, q *InquiryRecord) error {
	_, err := d.db.ExecContext(ctx, `
	INSERT INTO service_inquiries (id, profile_id, service_id, name, email, message, budget, source, api_key_id, status, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.ProfileID, nullString(q.ServiceID), q.Name, q.Email, q.Message, q.Budget,
		q.Source, nullString(q.APIKeyID), q.Status, q.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert inquiry: %w", err)
	}
	return nil
}

// ListInquiries returns a profile's inquiries, newest first.
func (d *Database) ListInquiries(ctx context.Context, profileID string) ([]InquiryRecord, error) {
	rows, err := d.db.QueryContext(ctx, `
	SELECT id, profile_id, COALESCE(service_id, ''), name, email, message, budget, source, COALESCE(api_key_id, ''), status, created_at
	FROM service_inquiries WHERE profile_id = ? ORDER BY created_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("query inquiries: %w", err)
	}
	defer rows.Close()

	var out []InquiryRecord
	for rows.Next() {
		var q InquiryRecord
		var createdAt string
		if err := rows.Scan(&q.ID, &q.ProfileID, &q.ServiceID, &q.Name, &q.Email, &q.Message,
			&q.Budget, &q.Source, &q.APIKeyID, &q.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scan inquiry: %w", err)
		}
		q.CreatedAt = parseTime(createdAt)
		out = append(out, q)
	}
	return out, rows.Err()
}

// InsertVisit records an agent visit.
func (d *Database) InsertVisit(ctx context.Context, v *VisitRecord) error {
	_, err := d.db.ExecContext(ctx, `
	INSERT INTO agent_visits (id, profile_id, agent_name, user_agent, method, source, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.ProfileID, v.AgentName, v.UserAgent, v.Method, v.Source, v.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// GetDB returns the underlying handle (used by the logger sink).
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// Close closes the database connection
func (d *Database) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAPIKey(row rowScanner) (*APIKeyRecord, error) {
	var k APIKeyRecord
	var perms, createdAt, updatedAt string
	var lastUsed sql.NullString
	err := row.Scan(&k.ID, &k.ProfileID, &k.Name, &k.KeyHash, &k.KeyPrefix, &perms,
		&k.RateLimit, &k.IsActive, &k.UsageCount, &lastUsed, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan api key: %w", err)
	}
	if err := json.Unmarshal([]byte(perms), &k.Permissions); err != nil {
		return nil, fmt.Errorf("decode permissions for key %s: %w", k.ID, err)
	}
	if lastUsed.Valid && lastUsed.String != "" {
		t := parseTime(lastUsed.String)
		k.LastUsedAt = &t
	}
	k.CreatedAt = parseTime(createdAt)
	k.UpdatedAt = parseTime(updatedAt)
	return &k, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
