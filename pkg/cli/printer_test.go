package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestFormatBody_IndentsJSON(t *testing.T) {
	formatted := FormatBody([]byte(`{"data":{"id":1,"tags":["a"]}}`), true)

	assert.Equal(t, `{
  "data": {
    "id": 1,
    "tags": [
      "a"
    ]
  }
}`, formatted)
}

func TestFormatBody_KeepsKeyOrder(t *testing.T) {
	formatted := FormatBody([]byte(`{"z":1,"a":2}`), true)

	assert.Equal(t, "{\n  \"z\": 1,\n  \"a\": 2\n}", formatted)
}

func TestFormatBody_PlainText(t *testing.T) {
	formatted := FormatBody([]byte("Unauthorized\n"), true)

	assert.Equal(t, "Unauthorized", formatted)
}

func TestFormatBody_NoIndent(t *testing.T) {
	formatted := FormatBody([]byte(`{"a":1}`), false)

	assert.Equal(t, `{"a":1}`, formatted)
}

func TestFormatBody_Empty(t *testing.T) {
	assert.Equal(t, "", FormatBody(nil, true))
}

func TestPrinter(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	var out bytes.Buffer
	p := NewPrinter(&out)

	p.PrintSuccess("Logged in to %s", "pingoo")
	p.PrintWarning("Not logged in")
	p.PrintField("Expires", "never")
	p.PrintError(errors.New("boom"))
	p.PrintBody([]byte(`{"a":1}`))
	p.PrintBody(nil)

	assert.Equal(t, "✓ Logged in to pingoo\nNot logged in\n  Expires: never\n❌ boom\n{\"a\":1}\n", out.String())
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.Assert(t, !IsTerminal(&bytes.Buffer{}))
}

func TestReadSecret_FromPipe(t *testing.T) {
	var out bytes.Buffer
	secret, err := ReadSecret(strings.NewReader("  tok-123 \nignored\n"), &out, "Token: ")

	assert.NilError(t, err)
	assert.Equal(t, "tok-123", secret)
	assert.Equal(t, "Token: ", out.String())
}

func TestReadSecret_WithoutTrailingNewline(t *testing.T) {
	secret, err := ReadSecret(strings.NewReader("tok"), &bytes.Buffer{}, "")

	assert.NilError(t, err)
	assert.Equal(t, "tok", secret)
}

func TestReadSecret_EmptyInput(t *testing.T) {
	_, err := ReadSecret(strings.NewReader(""), &bytes.Buffer{}, "")

	assert.Check(t, is.ErrorContains(err, "failed to read input"))
}

func TestReadSecret_NilInput(t *testing.T) {
	_, err := ReadSecret(nil, &bytes.Buffer{}, "")

	assert.Error(t, err, "no input available")
}
