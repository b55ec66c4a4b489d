// Package identity carries the authenticated caller through a request.
//
// Authentication itself happens upstream (gateway or identity provider); this
// package only transports the resulting user id and display name, and masks
// them for diagnostics.
package identity

import (
	"context"
	"net/http"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Header and metadata keys set by the authenticating gateway.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserName = "X-User-Name"

	MetadataUserID   = "x-user-id"
	MetadataUserName = "x-user-name"
)

// User is the caller of an operation. The zero value is an anonymous caller.
type User struct {
	ID   string
	Name string
}

// Authenticated reports whether the caller has a user id.
func (u User) Authenticated() bool {
	return u.ID != ""
}

type userKey struct{}

// WithUser returns a context carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// FromContext returns the caller stored in ctx, or an anonymous User.
func FromContext(ctx context.Context) User {
	u, _ := ctx.Value(userKey{}).(User)
	return u
}

// FromIncomingMetadata reads the caller from gRPC request metadata.
func FromIncomingMetadata(ctx context.Context) User {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return User{}
	}
	return User{
		ID:   first(md.Get(MetadataUserID)),
		Name: first(md.Get(MetadataUserName)),
	}
}

// AppendOutgoingMetadata forwards the caller in ctx to an outgoing gRPC call.
// Anonymous callers are forwarded as-is, without metadata.
func AppendOutgoingMetadata(ctx context.Context) context.Context {
	u := FromContext(ctx)
	if !u.Authenticated() {
		return ctx
	}
	kv := []string{MetadataUserID, u.ID}
	if u.Name != "" {
		kv = append(kv, MetadataUserName, u.Name)
	}
	return metadata.AppendToOutgoingContext(ctx, kv...)
}

// FromRequest reads the caller from gateway headers.
func FromRequest(r *http.Request) User {
	return User{
		ID:   strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Name: strings.TrimSpace(r.Header.Get(HeaderUserName)),
	}
}

func first(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
