package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"linkhub-gateway/internal/domain/entities"
	domainerrors "linkhub-gateway/internal/domain/errors"
)

// ResourceScheme prefixes every resource URI: linkhub://{username}/{kind}.
const ResourceScheme = "linkhub"

const resourceMIMEType = "application/json"

// ResourceKind is a static catalog entry addressable by URI.
type ResourceKind struct {
	Kind          string
	Name          string
	Description   string
	NeedsServices bool
	Build         func(r *Resolver, b *entities.ProfileBundle) interface{}
}

// URITemplate is the advertised template for the kind.
func (k *ResourceKind) URITemplate() string {
	return ResourceURI("{username}", k.Kind)
}

// ResourceURI builds the URI of a kind for username.
func ResourceURI(username, kind string) string {
	return ResourceScheme + "://" + username + "/" + kind
}

type ResourceDescriptor struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

type ResourceContents struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
	Text     string `json:"text"`
}

type ReadResult struct {
	Contents []ResourceContents `json:"contents"`
}

// Resolver serves profile data as read-only resources.
type Resolver struct {
	kinds    map[string]*ResourceKind
	order    []string
	profiles *Profiles
	baseURL  string
}

func NewResolver(profiles *Profiles, baseURL string) *Resolver {
	r := &Resolver{kinds: make(map[string]*ResourceKind), profiles: profiles, baseURL: baseURL}
	for _, k := range resourceCatalog() {
		k := k
		r.kinds[k.Kind] = &k
		r.order = append(r.order, k.Kind)
	}
	return r
}

func resourceCatalog() []ResourceKind {
	return []ResourceKind{
		{
			Kind:        "profile",
			Name:        "Profile",
			Description: "Display name, bio, avatar and public URL",
			Build: func(r *Resolver, b *entities.ProfileBundle) interface{} {
				return profilePayload(b, r.baseURL)
			},
		},
		{
			Kind:        "links",
			Name:        "Links",
			Description: "Active links in display order",
			Build: func(_ *Resolver, b *entities.ProfileBundle) interface{} {
				return linksPayload(b)
			},
		},
		{
			Kind:          "services",
			Name:          "Services",
			Description:   "Offered services with pricing",
			NeedsServices: true,
			Build: func(_ *Resolver, b *entities.ProfileBundle) interface{} {
				return servicesPayload(b)
			},
		},
		{
			Kind:        "social",
			Name:        "Social links",
			Description: "Social network profiles",
			Build: func(_ *Resolver, b *entities.ProfileBundle) interface{} {
				return socialPayload(b)
			},
		},
	}
}

// Kinds returns the catalog in declaration order.
func (r *Resolver) Kinds() []*ResourceKind {
	out := make([]*ResourceKind, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.kinds[k])
	}
	return out
}

// List builds resources/list for username.
func (r *Resolver) List(username string, hasServices bool) []ResourceDescriptor {
	out := make([]ResourceDescriptor, 0, len(r.order))
	for _, k := range r.Kinds() {
		if k.NeedsServices && !hasServices {
			continue
		}
		out = append(out, ResourceDescriptor{
			URI:         ResourceURI(username, k.Kind),
			Name:        k.Name,
			Description: k.Description,
			MIMEType:    resourceMIMEType,
		})
	}
	return out
}

// ParseResourceURI splits linkhub://{username}/{kind}.
func ParseResourceURI(uri string) (username, kind string, err error) {
	rest, ok := strings.CutPrefix(uri, ResourceScheme+"://")
	if !ok {
		return "", "", fmt.Errorf("unsupported resource URI scheme: %s", uri)
	}
	username, kind, ok = strings.Cut(rest, "/")
	if !ok || username == "" || kind == "" || strings.Contains(kind, "/") {
		return "", "", fmt.Errorf("malformed resource URI: %s", uri)
	}
	return username, kind, nil
}

// Read resolves uri against the route's username. Every lookup failure is
// reported as invalid params.
func (r *Resolver) Read(ctx context.Context, uri, username string) (*ReadResult, error) {
	owner, kindName, err := ParseResourceURI(uri)
	if err != nil {
		return nil, errInvalidParams("%s", err.Error())
	}
	if owner != username {
		return nil, errInvalidParams("resource %s does not belong to %s", uri, username)
	}
	kind, ok := r.kinds[kindName]
	if !ok {
		return nil, errInvalidParams("unknown resource: %s", uri)
	}

	bundle, _, err := r.profiles.Load(ctx, username)
	if err != nil {
		if errors.Is(err, domainerrors.ErrProfileNotFound) {
			return nil, errInvalidParams("profile %s not found", username)
		}
		return nil, err
	}

	text, err := json.MarshalIndent(kind.Build(r, bundle), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode resource %s: %w", uri, err)
	}
	return &ReadResult{Contents: []ResourceContents{{URI: uri, MIMEType: resourceMIMEType, Text: string(text)}}}, nil
}
