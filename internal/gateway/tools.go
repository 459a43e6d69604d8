package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"linkhub-gateway/internal/apikey"
	"linkhub-gateway/internal/authz"
	"linkhub-gateway/internal/domain/entities"
	domainerrors "linkhub-gateway/internal/domain/errors"
	"linkhub-gateway/internal/domain/repositories"
	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/presentation/http/validation"
)

// Engine errors the dispatcher maps onto protocol codes.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrPermissionDenied = errors.New("permission denied")
	ErrKeyNotForProfile = errors.New("api key does not belong to this profile")
)

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the tools/call result. IsError marks a domain failure that
// is still delivered in a successful envelope.
type ToolResult struct {
	Content           []Content   `json:"content"`
	StructuredContent interface{} `json:"structuredContent,omitempty"`
	IsError           bool        `json:"isError,omitempty"`
}

// ToolCall is what a handler sees. Bundle is already loaded and Auth has
// passed the tool's permission check.
type ToolCall struct {
	Arguments map[string]interface{}
	Auth      *AuthResult
	Bundle    *entities.ProfileBundle
	Demo      bool
}

type ToolHandler func(ctx context.Context, call *ToolCall) (*ToolResult, error)

// Tool is a static catalog entry. An empty Permission means the tool is public.
type Tool struct {
	Name          string
	Description   string
	Permission    string
	InputSchema   map[string]interface{}
	ReadOnly      bool
	NeedsServices bool
	Handler       ToolHandler
}

func (t *Tool) AuthRequired() bool { return t.Permission != "" }

// ToolDescriptor is the tools/list entry.
type ToolDescriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	Annotations map[string]interface{} `json:"annotations,omitempty"`
}

// Engine executes catalog tools against a profile.
type Engine struct {
	tools     map[string]*Tool
	order     []string
	enforcer  *authz.ToolEnforcer
	profiles  *Profiles
	inquiries repositories.InquiryRepository
	baseURL   string
	log       *logger.Logger
	now       func() time.Time
}

func NewEngine(profiles *Profiles, inquiries repositories.InquiryRepository, baseURL string, log *logger.Logger) (*Engine, error) {
	e := &Engine{
		tools:     make(map[string]*Tool),
		profiles:  profiles,
		inquiries: inquiries,
		baseURL:   baseURL,
		log:       log,
		now:       time.Now,
	}
	for _, t := range e.catalog() {
		t := t
		e.tools[t.Name] = &t
		e.order = append(e.order, t.Name)
	}

	requirements := make(map[string]string, len(e.tools))
	for name, t := range e.tools {
		requirements[name] = t.Permission
	}
	enforcer, err := authz.NewToolEnforcer(requirements)
	if err != nil {
		return nil, err
	}
	e.enforcer = enforcer
	return e, nil
}

func (e *Engine) catalog() []Tool {
	contact := map[string]interface{}{
		"name":  map[string]interface{}{"type": "string", "description": "Sender's name"},
		"email": map[string]interface{}{"type": "string", "description": "Sender's email address for the reply"},
	}
	return []Tool{
		{
			Name:        "get_profile",
			Description: "Get the profile's display name, bio, avatar and public URL.",
			InputSchema: objectSchema(nil, nil),
			ReadOnly:    true,
			Handler:     e.getProfile,
		},
		{
			Name:        "list_links",
			Description: "List the profile's active links in display order.",
			InputSchema: objectSchema(nil, nil),
			ReadOnly:    true,
			Handler:     e.listLinks,
		},
		{
			Name:        "list_services",
			Description: "List the services offered by the profile with pricing.",
			InputSchema: objectSchema(map[string]interface{}{
				"category": map[string]interface{}{"type": "string", "description": "Only return services in this category"},
			}, nil),
			ReadOnly:      true,
			NeedsServices: true,
			Handler:       e.listServices,
		},
		{
			Name:        "send_message",
			Description: "Send a message to the profile owner. Requires an API key with the inquire permission.",
			Permission:  apikey.PermissionInquire,
			InputSchema: objectSchema(merge(contact, map[string]interface{}{
				"message": map[string]interface{}{"type": "string", "description": "Message body"},
			}), []string{"name", "email"}),
			Handler: e.sendMessage,
		},
		{
			Name:        "request_quote",
			Description: "Request a quote for one of the profile's services. Requires an API key with the inquire permission.",
			Permission:  apikey.PermissionInquire,
			InputSchema: objectSchema(merge(contact, map[string]interface{}{
				"service": map[string]interface{}{"type": "string", "description": "Service id or title"},
				"details": map[string]interface{}{"type": "string", "description": "Project details"},
				"budget":  map[string]interface{}{"type": "string", "description": "Expected budget"},
			}), []string{"name", "email"}),
			NeedsServices: true,
			Handler:       e.requestQuote,
		},
	}
}

// Lookup returns the catalog entry for name.
func (e *Engine) Lookup(name string) (*Tool, bool) {
	t, ok := e.tools[name]
	return t, ok
}

// Tools returns the catalog in declaration order.
func (e *Engine) Tools() []*Tool {
	out := make([]*Tool, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.tools[name])
	}
	return out
}

// List builds the tools/list payload. Service tools are omitted when
// hasServices is false.
func (e *Engine) List(hasServices bool) []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(e.order))
	for _, t := range e.Tools() {
		if t.NeedsServices && !hasServices {
			continue
		}
		d := ToolDescriptor{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
		if t.ReadOnly {
			d.Annotations = map[string]interface{}{"readOnlyHint": true}
		}
		out = append(out, d)
	}
	return out
}

// Execute runs tool name for username. Protocol failures come back as
// errors; domain failures come back as a result with IsError set.
func (e *Engine) Execute(ctx context.Context, name string, args map[string]interface{}, auth *AuthResult, username string) (*ToolResult, error) {
	tool, ok := e.tools[name]
	if !ok {
		return nil, ErrUnknownTool
	}

	if tool.AuthRequired() {
		if auth == nil || !auth.Valid {
			return nil, ErrPermissionDenied
		}
		allowed, err := e.enforcer.Allowed(auth.Permissions, tool.Name)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrPermissionDenied
		}
	}

	bundle, demo, err := e.profiles.Load(ctx, username)
	if err != nil {
		if errors.Is(err, domainerrors.ErrProfileNotFound) {
			return toolError(fmt.Sprintf("Profile %q not found", username)), nil
		}
		return nil, err
	}
	if tool.AuthRequired() && !demo && auth.ProfileID != bundle.Profile.ID {
		return nil, ErrKeyNotForProfile
	}

	if args == nil {
		args = map[string]interface{}{}
	}
	return tool.Handler(ctx, &ToolCall{Arguments: args, Auth: auth, Bundle: bundle, Demo: demo})
}

func (e *Engine) getProfile(_ context.Context, call *ToolCall) (*ToolResult, error) {
	return jsonResult(profilePayload(call.Bundle, e.baseURL))
}

func (e *Engine) listLinks(_ context.Context, call *ToolCall) (*ToolResult, error) {
	return jsonResult(linksPayload(call.Bundle))
}

func (e *Engine) listServices(_ context.Context, call *ToolCall) (*ToolResult, error) {
	payload := servicesPayload(call.Bundle)
	if category := stringArg(call.Arguments, "category"); category != "" {
		filtered := payload.Services[:0]
		for _, s := range payload.Services {
			if strings.EqualFold(s.Category, category) {
				filtered = append(filtered, s)
			}
		}
		payload.Services = filtered
	}
	return jsonResult(payload)
}

// InquiryAck acknowledges a stored inquiry.
type InquiryAck struct {
	Success   bool   `json:"success"`
	InquiryID string `json:"inquiry_id"`
	Service   string `json:"service,omitempty"`
	CreatedAt string `json:"created_at"`
	Message   string `json:"message"`
}

func (e *Engine) sendMessage(ctx context.Context, call *ToolCall) (*ToolResult, error) {
	inq, msg := contactFrom(call.Arguments)
	if msg != "" {
		return toolError(msg), nil
	}
	inq.Message = stringArg(call.Arguments, "message")
	return e.storeInquiry(ctx, call, inq, "")
}

func (e *Engine) requestQuote(ctx context.Context, call *ToolCall) (*ToolResult, error) {
	inq, msg := contactFrom(call.Arguments)
	if msg != "" {
		return toolError(msg), nil
	}
	inq.Message = stringArg(call.Arguments, "details")
	inq.Budget = stringArg(call.Arguments, "budget")

	var title string
	if ref := stringArg(call.Arguments, "service"); ref != "" {
		svc := findService(call.Bundle.Services, ref)
		if svc == nil {
			return toolError(fmt.Sprintf("Service %q not found", ref)), nil
		}
		inq.ServiceID = svc.ID
		title = svc.Title
	}
	return e.storeInquiry(ctx, call, inq, title)
}

func (e *Engine) storeInquiry(ctx context.Context, call *ToolCall, inq *entities.ServiceInquiry, serviceTitle string) (*ToolResult, error) {
	inq.ID = uuid.NewString()
	inq.ProfileID = call.Bundle.Profile.ID
	inq.Source = entities.InquirySourceAgent
	inq.Status = entities.InquiryStatusNew
	inq.APIKeyID = call.Auth.KeyID
	inq.CreatedAt = e.now().UTC()

	if !call.Demo {
		if err := e.inquiries.Create(ctx, inq); err != nil {
			return nil, fmt.Errorf("store inquiry: %w", err)
		}
		e.log.Info(logger.EventInquiryCreated, "agent inquiry stored", map[string]interface{}{
			"inquiry_id": inq.ID,
			"profile_id": inq.ProfileID,
			"key_id":     inq.APIKeyID,
			"service_id": inq.ServiceID,
		})
	}

	return jsonResult(InquiryAck{
		Success:   true,
		InquiryID: inq.ID,
		Service:   serviceTitle,
		CreatedAt: inq.CreatedAt.Format(time.RFC3339),
		Message:   fmt.Sprintf("Your inquiry was delivered to %s.", displayName(&call.Bundle.Profile)),
	})
}

// contactFrom validates the sender fields shared by inquiry tools.
func contactFrom(args map[string]interface{}) (*entities.ServiceInquiry, string) {
	name := stringArg(args, "name")
	email := stringArg(args, "email")
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, "Missing required fields: " + strings.Join(missing, ", ")
	}
	if !validation.ValidateEmail(email) {
		return nil, fmt.Sprintf("Invalid email address: %s", email)
	}
	return &entities.ServiceInquiry{Name: name, Email: email}, ""
}

func findService(services []entities.Service, ref string) *entities.Service {
	for i := range services {
		if services[i].ID == ref || strings.EqualFold(services[i].Title, ref) {
			return &services[i]
		}
	}
	return nil
}

func displayName(p *entities.Profile) string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

func stringArg(args map[string]interface{}, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case json.Number:
		return s.String()
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

func jsonResult(v interface{}) (*ToolResult, error) {
	text, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &ToolResult{
		Content:           []Content{{Type: "text", Text: string(text)}},
		StructuredContent: v,
	}, nil
}

func toolError(msg string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: msg}},
		IsError: true,
	}
}

func objectSchema(props map[string]interface{}, required []string) map[string]interface{} {
	if props == nil {
		props = map[string]interface{}{}
	}
	s := map[string]interface{}{"type": "object", "properties": props}
	if len(required) > 0 {
		sort.Strings(required)
		s["required"] = required
	}
	return s
}

func merge(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
