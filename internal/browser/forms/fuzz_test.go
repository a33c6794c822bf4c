// internal/browser/forms/fuzz_test.go
package forms

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formctl/internal/browser/dom"
)

var fuzzTags = []string{"form", "div", "input", "select", "fieldset", "span", "textarea"}

// FuzzOwnershipInvariant applies random insertions, moves and removals and
// checks after every step that each control's owner is its nearest form.
func FuzzOwnershipInvariant(f *testing.F) {
	f.Add([]byte{0, 0, 1, 2, 1, 0, 3, 5, 1, 4, 9, 0})
	f.Add([]byte{0, 1, 0, 0, 0, 2, 1, 1, 2, 1, 0, 1, 1, 0, 1, 2})
	f.Add([]byte("nested forms and moves between them"))

	f.Fuzz(func(t *testing.T, data []byte) {
		consumer := fuzz.NewConsumer(data)
		doc, err := dom.NewDocument(testURL,
			dom.WithLogger(zap.NewNop()),
			dom.WithBehaviorFactory(Behaviors()))
		require.NoError(t, err)

		nodes := []*dom.Node{doc.CreateElement("body")}
		require.NoError(t, doc.Root().AppendChild(nodes[0]))

		for step := 0; step < 64; step++ {
			op, err := consumer.GetInt()
			if err != nil {
				break
			}
			a, errA := consumer.GetInt()
			b, errB := consumer.GetInt()
			if errA != nil || errB != nil {
				break
			}
			a, b = abs(a), abs(b)

			switch abs(op) % 3 {
			case 0:
				n := doc.CreateElement(fuzzTags[a%len(fuzzTags)])
				_ = nodes[b%len(nodes)].AppendChild(n)
				nodes = append(nodes, n)
			case 1:
				// Moves that would create a cycle are rejected by the tree.
				_ = nodes[b%len(nodes)].AppendChild(nodes[a%len(nodes)])
			case 2:
				if n := nodes[a%len(nodes)]; n != nodes[0] {
					n.Remove()
				}
			}
			assertNearestOwner(t, nodes)
		}
	})
}

func assertNearestOwner(t *testing.T, nodes []*dom.Node) {
	t.Helper()
	for _, n := range nodes {
		c := ControlFromNode(n)
		if c == nil {
			continue
		}
		want := FromNode(n.ClosestAncestor(isFormElement))
		require.Same(t, want, c.Form(), "owner of <%s>", n.LocalName())
	}
}

func abs(v int) int {
	if v < 0 {
		if v == -v {
			return 0
		}
		return -v
	}
	return v
}
