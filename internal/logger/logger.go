package logger

import (
    "database/sql"
    "encoding/json"
    "fmt"
    "log"
    "os"
    "runtime"
    "strings"
    "time"

    "github.com/google/uuid"
)

// LogLevel represents logging severity level
type LogLevel string

const (
    LogLevelDEBUG LogLevel = "DEBUG"
    LogLevelINFO  LogLevel = "INFO"
    LogLevelWARN  LogLevel = "WARN"
    LogLevelERROR LogLevel = "ERROR"
)

// EventCode represents structured event types
type EventCode string

const (
    EventAPIRequest     EventCode = "API_REQUEST"
    EventAPIResponse    EventCode = "API_RESPONSE"
    EventGatewayCall    EventCode = "GATEWAY_CALL"
    EventAuthFailure    EventCode = "AUTH_FAILURE"
    EventRateLimited    EventCode = "RATE_LIMITED"
    EventInquiryCreated EventCode = "INQUIRY_CREATED"
    EventAgentVisit     EventCode = "AGENT_VISIT"
    EventAPIKeyCreated  EventCode = "API_KEY_CREATED"
    EventAPIKeyUpdated  EventCode = "API_KEY_UPDATED"
    EventAPIKeyDeleted  EventCode = "API_KEY_DELETED"
    EventSystemStart    EventCode = "SYSTEM_START"
    EventSystemStop     EventCode = "SYSTEM_STOP"
    EventError          EventCode = "ERROR"
)

// StructuredLog is the persisted log record format
type StructuredLog struct {
    Timestamp      string                 `json:"timestamp"`
    Level          LogLevel               `json:"level"`
    CIID           string                 `json:"ciid"`
    GBID           string                 `json:"gbid"`
    EventCode      EventCode              `json:"event_code"`
    Message        string                 `json:"message"`
    Details        map[string]interface{} `json:"details"`
    Hostname       string                 `json:"hostname"`
    SourceLocation string                 `json:"source_location"`
}

// Logger writes structured logs to stdout and, when a db is attached, to access_logs.
// All methods are safe on a nil *Logger.
type Logger struct {
    db       *sql.DB
    hostname string
    ciid     string
    gbid     string
    minLevel LogLevel
}

var defaultLogger *Logger

// New builds a logger; db may be nil for stdout-only logging.
func New(db *sql.DB, ciid string) *Logger {
    hostname, err := os.Hostname()
    if err != nil {
        hostname = "unknown"
    }
    if ciid == "" {
        ciid = "linkhub-gateway"
    }
    return &Logger{
        db:       db,
        hostname: hostname,
        ciid:     ciid,
        gbid:     uuid.NewString(),
        minLevel: LogLevelINFO,
    }
}

// InitLogger initializes default logger
func InitLogger(db *sql.DB) error {
    defaultLogger = New(db, "linkhub-gateway-v1")
    return nil
}

// GetLogger returns default logger
func GetLogger() *Logger {
    return defaultLogger
}

// SetLevel sets the minimum level written; DEBUG enables everything.
func (l *Logger) SetLevel(level LogLevel) {
    if l == nil { return }
    l.minLevel = level
}

func (l *Logger) Debug(event EventCode, message string, details map[string]interface{}) {
    l.log(LogLevelDEBUG, event, message, details)
}

func (l *Logger) Info(event EventCode, message string, details map[string]interface{}) {
    l.log(LogLevelINFO, event, message, details)
}

func (l *Logger) Warn(event EventCode, message string, details map[string]interface{}) {
    l.log(LogLevelWARN, event, message, details)
}

func (l *Logger) Error(event EventCode, message string, details map[string]interface{}) {
    l.log(LogLevelERROR, event, message, details)
}

// LogAPIRequest records an API request event
func (l *Logger) LogAPIRequest(method, path, userAgent, remoteAddr string, requestID interface{}) {
    details := map[string]interface{}{
        "method":      method,
        "path":        path,
        "user_agent":  userAgent,
        "remote_addr": remoteAddr,
    }
    if requestID != nil {
        details["request_id"] = requestID
    }
    l.log(LogLevelINFO, EventAPIRequest, fmt.Sprintf("API request: %s %s", method, path), details)
}

// LogAPIResponse records an API response event
func (l *Logger) LogAPIResponse(method, path string, statusCode int, responseTime time.Duration, requestID interface{}) {
    details := map[string]interface{}{
        "method":        method,
        "path":          path,
        "status_code":   statusCode,
        "response_time": responseTime.Milliseconds(),
    }
    if requestID != nil {
        details["request_id"] = requestID
    }

    level := LogLevelINFO
    if statusCode >= 400 { level = LogLevelWARN }
    if statusCode >= 500 { level = LogLevelERROR }

    l.log(level, EventAPIResponse, fmt.Sprintf("API response: %s %s [%d] (%dms)", method, path, statusCode, responseTime.Milliseconds()), details)
}

// LogError records an error event with optional error payload
func (l *Logger) LogError(message string, err error, details map[string]interface{}) {
    if details == nil { details = make(map[string]interface{}) }
    if err != nil { details["error"] = err.Error() }
    l.log(LogLevelERROR, EventError, message, details)
}

func levelRank(level LogLevel) int {
    switch level {
    case LogLevelDEBUG:
        return 0
    case LogLevelINFO:
        return 1
    case LogLevelWARN:
        return 2
    default:
        return 3
    }
}

// log writes structured log to stdout and persists to DB
func (l *Logger) log(level LogLevel, eventCode EventCode, message string, details map[string]interface{}) {
    if l == nil || levelRank(level) < levelRank(l.minLevel) {
        return
    }

    // Capture caller location
    _, file, line, ok := runtime.Caller(2)
    sourceLocation := "unknown"
    if ok {
        parts := strings.Split(file, "/")
        filename := parts[len(parts)-1]
        sourceLocation = fmt.Sprintf("%s:%d", filename, line)
    }

    structuredLog := StructuredLog{
        Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
        Level:          level,
        CIID:           l.ciid,
        GBID:           l.gbid,
        EventCode:      eventCode,
        Message:        message,
        Details:        details,
        Hostname:       l.hostname,
        SourceLocation: sourceLocation,
    }

    // Console
    logJSON, _ := json.Marshal(structuredLog)
    log.Printf("%s", string(logJSON))

    // Persist
    l.saveToDatabase(structuredLog)
}

// saveToDatabase persists a structured log into access_logs
func (l *Logger) saveToDatabase(logEntry StructuredLog) {
    if l.db == nil { return }

    detailsJSON, _ := json.Marshal(logEntry.Details)

    insertSQL := `
    INSERT INTO access_logs (
        timestamp, level, ciid, gbid, event_code,
        message, details, hostname, source_location
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `

    _, err := l.db.Exec(insertSQL,
        logEntry.Timestamp,
        logEntry.Level,
        logEntry.CIID,
        logEntry.GBID,
        logEntry.EventCode,
        logEntry.Message,
        string(detailsJSON),
        logEntry.Hostname,
        logEntry.SourceLocation,
    )
    if err != nil {
        log.Printf("Failed to save log to database: %v", err)
    }
}

// GetAccessLogs loads recent logs with pagination
func (l *Logger) GetAccessLogs(limit int, offset int) ([]StructuredLog, error) {
    if l == nil || l.db == nil {
        return nil, fmt.Errorf("logger has no database")
    }
    querySQL := `
    SELECT timestamp, level, ciid, gbid, event_code,
           message, details, hostname, source_location
    FROM access_logs
    ORDER BY id DESC
    LIMIT ? OFFSET ?
    `

    rows, err := l.db.Query(querySQL, limit, offset)
    if err != nil { return nil, err }
    defer rows.Close()

    var logs []StructuredLog
    for rows.Next() {
        var logRec StructuredLog
        var detailsJSON sql.NullString

        err := rows.Scan(
            &logRec.Timestamp,
            &logRec.Level,
            &logRec.CIID,
            &logRec.GBID,
            &logRec.EventCode,
            &logRec.Message,
            &detailsJSON,
            &logRec.Hostname,
            &logRec.SourceLocation,
        )
        if err != nil { continue }

        if detailsJSON.Valid && detailsJSON.String != "" {
            _ = json.Unmarshal([]byte(detailsJSON.String), &logRec.Details)
        }
        logs = append(logs, logRec)
    }
    return logs, rows.Err()
}
