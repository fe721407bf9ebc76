package quickfix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyAppendsMissingColons(t *testing.T) {
	testCases := []struct {
		name        string
		source      string
		wantLines   []int
		wantChanged bool
	}{
		{
			name:      "unterminated if",
			source:    "if x > 1\n    print(x)",
			wantLines: []int{1},
		},
		{
			name:      "unterminated def",
			source:    "def add(a, b)\n    return a + b",
			wantLines: []int{1},
		},
		{
			name:      "unterminated class and method",
			source:    "class Greeter\n    def greet(self)\n        pass",
			wantLines: []int{1, 2},
		},
		{
			name:      "for and while",
			source:    "for i in range(3)\n    while i\n        i -= 1",
			wantLines: []int{1, 2},
		},
		{
			name:      "try except finally",
			source:    "try\n    pass\nexcept ValueError\n    pass\nfinally\n    pass",
			wantLines: []int{1, 3, 5},
		},
		{
			name:      "bare else and elif",
			source:    "if x:\n    pass\nelif y\n    pass\nelse\n    pass",
			wantLines: []int{3, 5},
		},
		{
			name:      "with statement",
			source:    "with open('f') as f\n    pass",
			wantLines: []int{1},
		},
		{
			name:      "already terminated source untouched",
			source:    "def add(a, b):\n    return a + b\n",
			wantLines: nil,
		},
		{
			name:      "comment lines never match",
			source:    "# if this were code\n#def broken(\nx = 1",
			wantLines: nil,
		},
		{
			name:      "header with trailing comment already terminated",
			source:    "if x > 1:  # boundary check\n    pass",
			wantLines: nil,
		},
		{
			name:      "header with trailing comment missing colon",
			source:    "if x > 1  # boundary check\n    pass",
			wantLines: []int{1},
		},
		{
			name:      "assignment starting with ifc is not a header",
			source:    "ifcount = 3\nforks = 2",
			wantLines: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fixed, edited := Apply(tc.source)
			assert.Equal(t, tc.wantLines, edited)

			if len(tc.wantLines) == 0 {
				assert.Equal(t, tc.source, fixed)
				return
			}

			fixedLines := strings.Split(fixed, "\n")
			for _, n := range edited {
				assert.True(t, strings.HasSuffix(fixedLines[n-1], fixMarker),
					"line %d should carry the fix marker: %q", n, fixedLines[n-1])
			}
		})
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	source := "def f(x)\n    if x\n        return x\n"

	once, editedOnce := Apply(source)
	require.NotEmpty(t, editedOnce)

	twice, editedTwice := Apply(once)
	assert.Equal(t, once, twice, "second application must be a no-op")
	assert.Empty(t, editedTwice)
}

func TestApplyPreservesTrailingNewline(t *testing.T) {
	fixed, edited := Apply("if x\n    pass\n")
	require.Equal(t, []int{1}, edited)
	assert.True(t, strings.HasSuffix(fixed, "\n"))

	fixed, edited = Apply("if x\n    pass")
	require.Equal(t, []int{1}, edited)
	assert.False(t, strings.HasSuffix(fixed, "\n"))
}

func TestResultIncludesDiffOnlyWhenEdited(t *testing.T) {
	res := Result("x = 1\n")
	require.NotNil(t, res)
	assert.Empty(t, res.EditedLines)
	assert.Empty(t, res.Diff)
	assert.Equal(t, "x = 1\n", res.FixedSource)

	res = Result("if x\n    pass\n")
	require.NotNil(t, res)
	assert.Equal(t, []int{1}, res.EditedLines)
	assert.Contains(t, res.Diff, "--- original")
	assert.Contains(t, res.Diff, "+++ fixed")
	assert.Contains(t, res.Diff, "+if x"+fixMarker)
}
