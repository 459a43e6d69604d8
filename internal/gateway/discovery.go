package gateway

import "strings"

const discoverySchemaVersion = "1.0"

type DiscoveryTool struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	AuthRequired bool   `json:"auth_required"`
	Permission   string `json:"permission,omitempty"`
}

type DiscoveryResource struct {
	URITemplate string `json:"uri_template"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DiscoveryAuth struct {
	Type        string   `json:"type"`
	RequiredFor []string `json:"required_for"`
	OptionalFor []string `json:"optional_for"`
}

// Discovery is served at /.well-known/mcp.json.
type Discovery struct {
	SchemaVersion  string              `json:"schema_version"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Version        string              `json:"version"`
	Endpoint       string              `json:"endpoint"`
	Transport      string              `json:"transport"`
	Authentication DiscoveryAuth       `json:"authentication"`
	Tools          []DiscoveryTool     `json:"tools"`
	Resources      []DiscoveryResource `json:"resources"`
}

// BuildDiscovery derives the document from the live catalogs so the two
// cannot drift.
func BuildDiscovery(engine *Engine, resolver *Resolver, info ServerInfo, baseURL, endpointPrefix string) *Discovery {
	d := &Discovery{
		SchemaVersion: discoverySchemaVersion,
		Name:          info.Name,
		Description:   "Query LinkHub profiles and contact their owners. Public profile data needs no credentials; inquiry tools need a bearer API key with the inquire permission.",
		Version:       info.Version,
		Endpoint:      strings.TrimRight(baseURL, "/") + "/" + strings.Trim(endpointPrefix, "/") + "/{username}",
		Transport:     "http",
		Authentication: DiscoveryAuth{
			Type:        "bearer",
			RequiredFor: []string{},
			OptionalFor: []string{MethodInitialize, MethodPing, MethodToolsList, MethodResourcesList, MethodResourcesRead},
		},
	}

	for _, t := range engine.Tools() {
		d.Tools = append(d.Tools, DiscoveryTool{
			Name:         t.Name,
			Description:  t.Description,
			AuthRequired: t.AuthRequired(),
			Permission:   t.Permission,
		})
		if t.AuthRequired() {
			d.Authentication.RequiredFor = append(d.Authentication.RequiredFor, MethodToolsCall+":"+t.Name)
		} else {
			d.Authentication.OptionalFor = append(d.Authentication.OptionalFor, MethodToolsCall+":"+t.Name)
		}
	}
	for _, k := range resolver.Kinds() {
		d.Resources = append(d.Resources, DiscoveryResource{
			URITemplate: k.URITemplate(),
			Name:        k.Name,
			Description: k.Description,
		})
	}
	return d
}
