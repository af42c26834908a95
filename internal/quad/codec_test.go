package quad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeTermRoundTrips(t *testing.T) {
	cases := []Value{
		IRI("info:trellis/repository/item"),
		BNode("b0"),
		String("hello"),
		LangString{Value: "hello", Lang: "en"},
		TypedString{Value: "42", Type: IRI("xsd:integer")},
	}
	for _, v := range cases {
		encoded := EncodeTerm(v)
		decoded, err := DecodeTerm(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

func TestEncodeTermEscapesQuotesAndNewlines(t *testing.T) {
	encoded := EncodeTerm(String("a \"quoted\"\nvalue"))
	assert.Equal(t, `"a \"quoted\"\nvalue"`, encoded)
}

func TestSplitTermsIgnoresSpacesInsideLiteralsAndIRIs(t *testing.T) {
	terms, err := SplitTerms(`<info:trellis/item> <dc:title> "hello world" <trellis:PreferUserManaged>`)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"<info:trellis/item>",
		"<dc:title>",
		`"hello world"`,
		"<trellis:PreferUserManaged>",
	}, terms)
}

func TestSplitTermsRejectsUnbalancedInput(t *testing.T) {
	_, err := SplitTerms(`<info:trellis/item "unterminated`)
	assert.Error(t, err)
}

func TestDecodeTermRejectsMalformedInput(t *testing.T) {
	_, err := DecodeTerm("")
	assert.Error(t, err)

	_, err = DecodeTerm("<unterminated")
	assert.Error(t, err)

	_, err = DecodeTerm(`"unterminated`)
	assert.Error(t, err)

	_, err = DecodeTerm("bare")
	assert.Error(t, err)
}
