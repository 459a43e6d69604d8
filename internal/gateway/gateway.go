package gateway

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
)

// Gateway is the per-request entry point used by the HTTP handler.
type Gateway struct {
	dispatcher *Dispatcher
	validator  *Validator
	tracker    *Tracker
}

func New(dispatcher *Dispatcher, validator *Validator, tracker *Tracker) *Gateway {
	return &Gateway{dispatcher: dispatcher, validator: validator, tracker: tracker}
}

// Handle processes one POSTed body for username. A supplied Authorization
// header is always validated, and a rejected one fails the request even
// for public methods.
func (g *Gateway) Handle(ctx context.Context, body []byte, username, authHeader, userAgent string) *Outcome {
	out := g.handle(ctx, body, username, authHeader)
	g.tracker.Track(username, userAgent, gjson.GetBytes(body, "method").String())
	return out
}

func (g *Gateway) handle(ctx context.Context, body []byte, username, authHeader string) (out *Outcome) {
	var req *Request
	defer func() {
		if r := recover(); r != nil {
			id, method := salvageID(body), gjson.GetBytes(body, "method").String()
			if req != nil {
				id, method = idOrNull(req.ID), req.Method
			}
			out = g.dispatcher.panicked(method, id, username, r)
		}
	}()

	req, out = g.dispatcher.Parse(body)
	if out != nil {
		return out
	}

	var auth *AuthResult
	if strings.TrimSpace(authHeader) != "" {
		auth = g.validator.Validate(ctx, authHeader)
		if auth.Internal {
			return g.dispatcher.InternalFailure(req)
		}
		if !auth.Valid {
			return g.dispatcher.AuthFailure(req, auth)
		}
	}
	return g.dispatcher.Dispatch(ctx, req, username, auth)
}

// ParseFailure answers a body that could not be read. The call still
// counts as a visit.
func (g *Gateway) ParseFailure(username, userAgent, reason string) *Outcome {
	g.tracker.Track(username, userAgent, "")
	return g.dispatcher.ParseFailure(reason)
}

// Wait drains background work started by requests.
func (g *Gateway) Wait() {
	g.tracker.Wait()
}
