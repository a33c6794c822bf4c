// internal/browser/dom/event_test.go
package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds outer > middle > target and returns the three elements.
func chain(t *testing.T) (*Document, *Node, *Node, *Node) {
	t.Helper()
	doc := newDoc(t)
	outer, middle, target := doc.CreateElement("outer"), doc.CreateElement("middle"), doc.CreateElement("target")
	require.NoError(t, outer.AppendChild(middle))
	require.NoError(t, middle.AppendChild(target))
	return doc, outer, middle, target
}

func TestDispatchEvent(t *testing.T) {
	t.Run("PhasesInOrder", func(t *testing.T) {
		doc, outer, middle, target := chain(t)
		var trail []string
		record := func(label string) Listener {
			return func(ev *Event) {
				trail = append(trail, label)
				assert.Same(t, target, ev.Target())
			}
		}
		outer.AddEventListener("ping", record("outer-capture"), ListenerOptions{Capture: true})
		middle.AddEventListener("ping", record("middle-capture"), ListenerOptions{Capture: true})
		target.AddEventListener("ping", record("target"))
		middle.AddEventListener("ping", record("middle-bubble"))
		outer.AddEventListener("ping", record("outer-bubble"))

		ok := target.DispatchEvent(doc.CreateEvent("ping", EventInit{Bubbles: true}))

		assert.True(t, ok)
		assert.Equal(t, []string{"outer-capture", "middle-capture", "target", "middle-bubble", "outer-bubble"}, trail)
	})

	t.Run("NonBubblingStopsAtTarget", func(t *testing.T) {
		doc, outer, _, target := chain(t)
		var trail []string
		outer.AddEventListener("ping", func(*Event) { trail = append(trail, "capture") }, ListenerOptions{Capture: true})
		outer.AddEventListener("ping", func(*Event) { trail = append(trail, "bubble") })
		target.AddEventListener("ping", func(ev *Event) {
			assert.Equal(t, PhaseAtTarget, ev.Phase())
			trail = append(trail, "target")
		})

		target.DispatchEvent(doc.CreateEvent("ping", EventInit{}))
		assert.Equal(t, []string{"capture", "target"}, trail)
	})

	t.Run("PreventDefault", func(t *testing.T) {
		doc, outer, _, target := chain(t)
		outer.AddEventListener("go", func(ev *Event) { ev.PreventDefault() })

		cancelable := doc.CreateEvent("go", EventInit{Bubbles: true, Cancelable: true})
		assert.False(t, target.DispatchEvent(cancelable))
		assert.True(t, cancelable.DefaultPrevented())

		notCancelable := doc.CreateEvent("go", EventInit{Bubbles: true})
		assert.True(t, target.DispatchEvent(notCancelable))
		assert.False(t, notCancelable.DefaultPrevented())
	})

	t.Run("StopPropagation", func(t *testing.T) {
		doc, outer, middle, target := chain(t)
		var trail []string
		middle.AddEventListener("go", func(ev *Event) {
			trail = append(trail, "middle-1")
			ev.StopPropagation()
		})
		middle.AddEventListener("go", func(*Event) { trail = append(trail, "middle-2") })
		outer.AddEventListener("go", func(*Event) { trail = append(trail, "outer") })

		target.DispatchEvent(doc.CreateEvent("go", EventInit{Bubbles: true}))
		assert.Equal(t, []string{"middle-1", "middle-2"}, trail)

		trail = nil
		middle.AddEventListener("halt", func(ev *Event) {
			trail = append(trail, "first")
			ev.StopImmediatePropagation()
		})
		middle.AddEventListener("halt", func(*Event) { trail = append(trail, "second") })
		target.DispatchEvent(doc.CreateEvent("halt", EventInit{Bubbles: true}))
		assert.Equal(t, []string{"first"}, trail)
	})

	t.Run("OnceAndRemoval", func(t *testing.T) {
		doc, _, _, target := chain(t)
		onceCalls, regular := 0, 0
		target.AddEventListener("tick", func(*Event) { onceCalls++ }, ListenerOptions{Once: true})
		remove := target.AddEventListener("tick", func(*Event) { regular++ })

		target.DispatchEvent(doc.CreateEvent("tick", EventInit{}))
		target.DispatchEvent(doc.CreateEvent("tick", EventInit{}))
		remove()
		target.DispatchEvent(doc.CreateEvent("tick", EventInit{}))

		assert.Equal(t, 1, onceCalls)
		assert.Equal(t, 2, regular)
		assert.False(t, target.HasEventListeners("tick"))
	})

	t.Run("ListenerListIsSnapshotted", func(t *testing.T) {
		doc, _, _, target := chain(t)
		var trail []string
		var removeSecond func()
		target.AddEventListener("tick", func(*Event) {
			trail = append(trail, "first")
			removeSecond()
			target.AddEventListener("tick", func(*Event) { trail = append(trail, "late") })
		})
		removeSecond = target.AddEventListener("tick", func(*Event) { trail = append(trail, "second") })

		target.DispatchEvent(doc.CreateEvent("tick", EventInit{}))
		assert.Equal(t, []string{"first"}, trail, "removed listeners are skipped and added ones wait")

		trail = nil
		target.DispatchEvent(doc.CreateEvent("tick", EventInit{}))
		assert.Equal(t, []string{"first", "late"}, trail)
	})

	t.Run("PathFixedBeforeListenersRun", func(t *testing.T) {
		doc, outer, middle, target := chain(t)
		reached := false
		target.AddEventListener("go", func(*Event) { middle.Remove() })
		outer.AddEventListener("go", func(*Event) { reached = true })
		middle.Remove()
		require.NoError(t, outer.AppendChild(middle))

		target.DispatchEvent(doc.CreateEvent("go", EventInit{Bubbles: true}))
		assert.True(t, reached)
		assert.Nil(t, middle.Parent())
	})

	t.Run("ReentrantDispatch", func(t *testing.T) {
		doc, _, middle, target := chain(t)
		inner := 0
		ev := doc.CreateEvent("go", EventInit{Cancelable: true})
		target.AddEventListener("go", func(e *Event) {
			e.PreventDefault()
			assert.False(t, middle.DispatchEvent(e), "an in-flight event is not dispatched twice")
			other := doc.CreateEvent("other", EventInit{})
			middle.DispatchEvent(other)
		})
		middle.AddEventListener("other", func(*Event) { inner++ })

		assert.False(t, target.DispatchEvent(ev))
		assert.Equal(t, 1, inner)
		assert.Nil(t, ev.CurrentTarget())
		assert.Equal(t, PhaseNone, ev.Phase())
	})
}
