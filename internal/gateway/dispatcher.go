// Package gateway implements the agent-facing JSON-RPC endpoint: envelope
// parsing, bearer key validation, tool execution, resource reads and visit
// tracking for one profile per request.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"linkhub-gateway/internal/logger"
	"linkhub-gateway/internal/metrics"
)

// ProtocolVersion is answered when the client asks for a version we do not know.
const ProtocolVersion = "2025-03-26"

var supportedProtocolVersions = map[string]bool{
	"2024-11-05": true,
	"2025-03-26": true,
	"2025-06-18": true,
}

// ServerInfo identifies the gateway in initialize and discovery.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Outcome is the transport-level result of one message. A nil Response
// means nothing is written back.
type Outcome struct {
	Status   int
	Response *Response
}

type rpcCall struct {
	req      *Request
	username string
	auth     *AuthResult
}

type methodHandler func(ctx context.Context, call *rpcCall) (interface{}, error)

// Dispatcher routes parsed requests and assembles every response envelope.
type Dispatcher struct {
	engine   *Engine
	resolver *Resolver
	profiles *Profiles
	info     ServerInfo
	log      *logger.Logger
	methods  map[string]methodHandler
}

func NewDispatcher(engine *Engine, resolver *Resolver, profiles *Profiles, info ServerInfo, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{engine: engine, resolver: resolver, profiles: profiles, info: info, log: log}
	d.methods = map[string]methodHandler{
		MethodInitialize:    d.initialize,
		MethodPing:          d.ping,
		MethodToolsList:     d.toolsList,
		MethodToolsCall:     d.toolsCall,
		MethodResourcesList: d.resourcesList,
		MethodResourcesRead: d.resourcesRead,
	}
	return d
}

// ParseFailure is the transport-level answer for an unreadable body.
func (d *Dispatcher) ParseFailure(reason string) *Outcome {
	metrics.ObserveRPC("", metrics.ErrorOutcome(CodeParseError))
	return &Outcome{
		Status:   http.StatusBadRequest,
		Response: errorResponse(zeroID, newRPCError(CodeParseError, "Parse error: %s", reason)),
	}
}

// Parse decodes body into a request. A non-nil Outcome means the message
// was rejected before dispatch.
func (d *Dispatcher) Parse(body []byte) (*Request, *Outcome) {
	if !json.Valid(body) {
		return nil, d.ParseFailure("invalid JSON")
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, d.reject("", salvageID(body), newRPCError(CodeParseError, "Parse error: invalid JSON-RPC envelope"))
	}
	if req.JSONRPC != jsonRPCVersion {
		return nil, d.reject(req.Method, idOrNull(req.ID), newRPCError(CodeInvalidRequest, "Invalid Request: jsonrpc must be %q", jsonRPCVersion))
	}
	if req.Method == "" {
		return nil, d.reject("", idOrNull(req.ID), newRPCError(CodeMethodNotFound, "Method not found: method is required"))
	}
	return &req, nil
}

// AuthFailure short-circuits a request whose supplied credential was rejected.
func (d *Dispatcher) AuthFailure(req *Request, auth *AuthResult) *Outcome {
	msg := "invalid credentials"
	if auth != nil && auth.Error != "" {
		msg = auth.Error
	}
	var id json.RawMessage
	method := ""
	if req != nil {
		id, method = req.ID, req.Method
	}
	return d.reject(method, idOrNull(id), newRPCError(CodeAuthFailed, "Authentication failed: %s", msg))
}

// InternalFailure answers a request whose credential could not be checked
// because the key store failed.
func (d *Dispatcher) InternalFailure(req *Request) *Outcome {
	var id json.RawMessage
	method := ""
	if req != nil {
		id, method = req.ID, req.Method
	}
	return d.reject(method, idOrNull(id), newRPCError(CodeInternalError, "Internal error"))
}

func (d *Dispatcher) panicked(method string, id json.RawMessage, username string, r interface{}) *Outcome {
	d.log.LogError("gateway request panicked", fmt.Errorf("%v", r), map[string]interface{}{
		"method":   method,
		"username": username,
	})
	return d.reject(method, id, newRPCError(CodeInternalError, "Internal error"))
}

// Dispatch runs a parsed request. auth is nil when no credential was sent.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request, username string, auth *AuthResult) (out *Outcome) {
	id := idOrNull(req.ID)

	defer func() {
		if r := recover(); r != nil {
			out = d.panicked(req.Method, id, username, r)
		}
	}()

	if req.IsNotification() && strings.HasPrefix(req.Method, notificationPrefix) {
		metrics.ObserveRPC("notification", metrics.OutcomeNotified)
		return &Outcome{Status: http.StatusAccepted}
	}

	handler, ok := d.methods[req.Method]
	if !ok {
		return d.reject(req.Method, id, newRPCError(CodeMethodNotFound, "Method not found: %s", req.Method))
	}

	result, err := handler(ctx, &rpcCall{req: req, username: username, auth: auth})
	if err != nil {
		return d.fail(req.Method, id, username, err)
	}

	outcome := metrics.OutcomeOK
	if tr, ok := result.(*ToolResult); ok && tr.IsError {
		outcome = metrics.OutcomeToolError
	}
	metrics.ObserveRPC(req.Method, outcome)
	return &Outcome{Status: http.StatusOK, Response: resultResponse(id, result)}
}

// methodLabel keeps metric cardinality bounded to the supported methods.
func (d *Dispatcher) methodLabel(method string) string {
	if _, ok := d.methods[method]; ok {
		return method
	}
	return "other"
}

// fail maps handler errors onto protocol codes.
func (d *Dispatcher) fail(method string, id json.RawMessage, username string, err error) *Outcome {
	var rpcErr *RPCError
	switch {
	case errors.As(err, &rpcErr):
	case errors.Is(err, ErrUnknownTool):
		rpcErr = newRPCError(CodeInvalidParams, "Invalid params: %v", err)
	case errors.Is(err, ErrPermissionDenied):
		rpcErr = newRPCError(CodePermission, "Permission denied: this tool requires an API key with the required permission")
	case errors.Is(err, ErrKeyNotForProfile):
		rpcErr = newRPCError(CodeAuthFailed, "Authentication failed: API key is not valid for %s", username)
	default:
		d.log.LogError("gateway call failed", err, map[string]interface{}{
			"method":   method,
			"username": username,
		})
		rpcErr = newRPCError(CodeInternalError, "Internal error")
	}
	return d.reject(method, id, rpcErr)
}

func (d *Dispatcher) reject(method string, id json.RawMessage, rpcErr *RPCError) *Outcome {
	metrics.ObserveRPC(d.methodLabel(method), metrics.ErrorOutcome(rpcErr.Code))
	status := http.StatusOK
	if rpcErr.Code == CodeAuthFailed {
		status = http.StatusUnauthorized
	}
	return &Outcome{Status: status, Response: errorResponse(id, rpcErr)}
}

type initializeParams struct {
	ProtocolVersion string `json:"protocolVersion"`
}

func (d *Dispatcher) initialize(_ context.Context, call *rpcCall) (interface{}, error) {
	var p initializeParams
	if len(call.req.Params) > 0 {
		_ = json.Unmarshal(call.req.Params, &p)
	}
	version := ProtocolVersion
	if supportedProtocolVersions[p.ProtocolVersion] {
		version = p.ProtocolVersion
	}
	return map[string]interface{}{
		"protocolVersion": version,
		"capabilities": map[string]interface{}{
			"tools":     map[string]interface{}{"listChanged": false},
			"resources": map[string]interface{}{"subscribe": false, "listChanged": false},
		},
		"serverInfo":   d.info,
		"instructions": fmt.Sprintf("Profile gateway for %s. Use tools/list and resources/list to discover what is available.", call.username),
	}, nil
}

func (d *Dispatcher) ping(context.Context, *rpcCall) (interface{}, error) {
	return struct{}{}, nil
}

func (d *Dispatcher) toolsList(ctx context.Context, call *rpcCall) (interface{}, error) {
	return map[string]interface{}{"tools": d.engine.List(d.hasServices(ctx, call.username))}, nil
}

func (d *Dispatcher) resourcesList(ctx context.Context, call *rpcCall) (interface{}, error) {
	return map[string]interface{}{"resources": d.resolver.List(call.username, d.hasServices(ctx, call.username))}, nil
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

func (d *Dispatcher) toolsCall(ctx context.Context, call *rpcCall) (interface{}, error) {
	var p toolsCallParams
	if err := decodeParams(call.req.Params, &p); err != nil {
		return nil, err
	}
	if p.Name == "" {
		return nil, errInvalidParams("missing tool name")
	}
	if _, ok := d.engine.Lookup(p.Name); !ok {
		return nil, errInvalidParams("unknown tool: %s", p.Name)
	}

	var args map[string]interface{}
	if len(p.Arguments) > 0 && string(p.Arguments) != "null" {
		if err := json.Unmarshal(p.Arguments, &args); err != nil {
			return nil, errInvalidParams("arguments must be an object")
		}
	}

	d.log.Info(logger.EventGatewayCall, "tools/call", map[string]interface{}{
		"username": call.username,
		"tool":     p.Name,
		"key_id":   keyID(call.auth),
	})
	return d.engine.Execute(ctx, p.Name, args, call.auth, call.username)
}

type resourcesReadParams struct {
	URI string `json:"uri"`
}

func (d *Dispatcher) resourcesRead(ctx context.Context, call *rpcCall) (interface{}, error) {
	var p resourcesReadParams
	if err := decodeParams(call.req.Params, &p); err != nil {
		return nil, err
	}
	if p.URI == "" {
		return nil, errInvalidParams("missing resource uri")
	}
	return d.resolver.Read(ctx, p.URI, call.username)
}

// hasServices reports whether username exposes services. Lookup failures
// leave the catalog unfiltered.
func (d *Dispatcher) hasServices(ctx context.Context, username string) bool {
	b, _, err := d.profiles.Load(ctx, username)
	if err != nil {
		return true
	}
	return len(b.Services) > 0
}

func decodeParams(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return errInvalidParams("params are required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidParams("params must be an object")
	}
	return nil
}

// salvageID pulls a usable id out of a body that is valid JSON but not a
// decodable envelope.
func salvageID(body []byte) json.RawMessage {
	id := gjson.GetBytes(body, "id")
	switch id.Type {
	case gjson.Number, gjson.String:
		return json.RawMessage(id.Raw)
	default:
		return zeroID
	}
}

func idOrNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

func keyID(auth *AuthResult) string {
	if auth == nil {
		return ""
	}
	return auth.KeyID
}
