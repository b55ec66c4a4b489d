package identity

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestMaskID(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "short", in: "U1", want: idMask},
		{name: "medium", in: "user-1234", want: "us" + idMask},
		{name: "guid", in: "0f8fad5b-d9cb-469f-a165-70867728950e", want: "0f8f" + idMask},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MaskID(tc.in))
		})
	}
}

func TestMaskID_NeverRevealsFullID(t *testing.T) {
	id := "alice@example.com"
	masked := MaskID(id)
	assert.NotContains(t, masked, id)
	assert.NotContains(t, masked, "example")
}

func TestMaskName(t *testing.T) {
	assert.Equal(t, "", MaskName(""))
	assert.Equal(t, "***", MaskName("al"))
	assert.Equal(t, "a***e", MaskName("alice"))
	assert.Equal(t, "Ž***a", MaskName("Žofia"))
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.False(t, FromContext(ctx).Authenticated())

	ctx = WithUser(ctx, User{ID: "U1", Name: "alice"})
	u := FromContext(ctx)
	assert.True(t, u.Authenticated())
	assert.Equal(t, "alice", u.Name)
}

func TestOutgoingToIncomingMetadata(t *testing.T) {
	ctx := WithUser(context.Background(), User{ID: "U1", Name: "alice"})
	ctx = AppendOutgoingMetadata(ctx)

	md, ok := metadata.FromOutgoingContext(ctx)
	assert.True(t, ok)

	in := metadata.NewIncomingContext(context.Background(), md)
	assert.Equal(t, User{ID: "U1", Name: "alice"}, FromIncomingMetadata(in))
}

func TestAppendOutgoingMetadata_Anonymous(t *testing.T) {
	ctx := AppendOutgoingMetadata(context.Background())
	_, ok := metadata.FromOutgoingContext(ctx)
	assert.False(t, ok)
}

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/basket", nil)
	r.Header.Set(HeaderUserID, " U1 ")
	r.Header.Set(HeaderUserName, "alice")

	assert.Equal(t, User{ID: "U1", Name: "alice"}, FromRequest(r))
}
