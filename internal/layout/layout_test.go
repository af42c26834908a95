package layout

import "testing"

import "github.com/stretchr/testify/assert"

func TestHashPath(t *testing.T) {
	cases := []struct {
		iri  string
		want string
	}{
		{"info:trellis/resource", "e4/3d/d2/3c11fdfba716fe4a8c2ad59720f73b3e"},
		{"info:trellis/other", "56/02/ed/94db502039137b6017bd7089ceaf8ad1"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HashPath(tc.iri), "iri=%s", tc.iri)
	}
}

func TestHashPathDeterministic(t *testing.T) {
	const iri = "info:trellis/repeatable"
	assert.Equal(t, HashPath(iri), HashPath(iri))
}

func TestResourcePath(t *testing.T) {
	cases := []struct {
		iri  string
		want string
	}{
		{"info:trellis/foo/bar?version=0123456#hash", "foo/bar"},
		{"info:trellis/foo?version=0123456#hash", "foo"},
	}
	for _, tc := range cases {
		got, err := ResourcePath(tc.iri)
		assert.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
}

func TestResourcePathRejectsForeignScheme(t *testing.T) {
	_, err := ResourcePath("http://example.com/foo")
	assert.Error(t, err)
}
