package memhost

import (
	"context"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appscene "github.com/younwookim/sceneflow/internal/application/scene"
	"github.com/younwookim/sceneflow/internal/domain/scene"
)

// mockScene is a test double for the content Scene interface
type mockScene struct {
	name string
	log  *[]string
}

func (m *mockScene) Update(dt float64) error   { return nil }
func (m *mockScene) Draw(screen *ebiten.Image) {}
func (m *mockScene) OnEnter()                  { *m.log = append(*m.log, "enter:"+m.name) }
func (m *mockScene) OnExit()                   { *m.log = append(*m.log, "exit:"+m.name) }

func newTestHost(log *[]string, opts ...Option) *Host {
	entry := func(name string, frames int) Entry {
		return Entry{
			Name:         scene.Name(name),
			LoadFrames:   frames,
			UnloadFrames: 2,
			Content:      func() appscene.Scene { return &mockScene{name: name, log: log} },
		}
	}
	return New([]Entry{
		entry("Menu", 1),
		entry("Loading", 0),
		entry("Level1", 3),
	}, opts...)
}

func stepUntilDone(t *testing.T, h *Host, op scene.Operation) int {
	t.Helper()
	for i := 1; i <= 100; i++ {
		h.Step()
		if op.Done() {
			return i
		}
	}
	t.Fatal("operation never finished")
	return 0
}

func TestHost_LoadProgress(t *testing.T) {
	var log []string
	h := newTestHost(&log)

	op, err := h.LoadAsync("Level1", scene.Single, false)
	require.NoError(t, err)
	assert.Equal(t, 0.0, op.Progress())

	var seen []float64
	for !op.Done() {
		h.Step()
		seen = append(seen, op.Progress())
	}

	assert.Equal(t, []float64{0.3, 0.6, 0.9, 1}, roundAll(seen))
	assert.True(t, h.IsValid("Level1"))
	assert.Equal(t, scene.Name("Level1"), h.ActiveScene())
	assert.Equal(t, []string{"enter:Level1"}, log)
	assert.Equal(t, 0, h.Pending())
}

func TestHost_DeferredActivation(t *testing.T) {
	var log []string
	h := newTestHost(&log)

	op, err := h.LoadAsync("Level1", scene.Single, true)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		h.Step()
	}
	assert.InDelta(t, scene.ActivationThreshold, op.Progress(), 1e-9)
	assert.False(t, op.Done())
	assert.False(t, h.IsValid("Level1"))

	op.SetAllowActivation(true)
	h.Step()
	assert.True(t, op.Done())
	assert.True(t, h.IsValid("Level1"))
}

func TestHost_OnCompleteFiresOnce(t *testing.T) {
	var log []string
	h := newTestHost(&log)
	op, err := h.LoadAsync("Menu", scene.Single, false)
	require.NoError(t, err)

	calls := 0
	op.OnComplete(func(scene.Operation) { calls++ })
	stepUntilDone(t, h, op)
	h.Step()
	h.Step()
	assert.Equal(t, 1, calls)

	late := 0
	op.OnComplete(func(scene.Operation) { late++ })
	assert.Equal(t, 1, late, "registering after completion runs immediately")
}

func TestHost_SingleEvictsAndNotifies(t *testing.T) {
	var log []string
	h := newTestHost(&log, WithPersistent("Loading"))
	require.NoError(t, h.LoadImmediate("Menu", scene.Single))
	require.NoError(t, h.LoadImmediate("Loading", scene.Additive))

	var unloaded []scene.Name
	h.Subscribe(scene.Hooks{OnUnloaded: func(n scene.Name) { unloaded = append(unloaded, n) }})

	op, err := h.LoadAsync("Level1", scene.Single, false)
	require.NoError(t, err)
	stepUntilDone(t, h, op)

	assert.Equal(t, []scene.Name{"Menu"}, unloaded)
	assert.Equal(t, []scene.Name{"Loading", "Level1"}, h.Resident())
	assert.Equal(t, scene.Name("Level1"), h.ActiveScene())
}

func TestHost_Additive(t *testing.T) {
	var log []string
	h := newTestHost(&log)
	require.NoError(t, h.LoadImmediate("Menu", scene.Single))

	op, err := h.LoadAsync("Level1", scene.Additive, false)
	require.NoError(t, err)
	stepUntilDone(t, h, op)

	assert.Equal(t, []scene.Name{"Menu", "Level1"}, h.Resident())
	assert.Equal(t, scene.Name("Menu"), h.ActiveScene(), "additive load keeps the active scene")
	assert.Len(t, h.Scenes(), 2)
}

func TestHost_Unload(t *testing.T) {
	var log []string
	h := newTestHost(&log)
	require.NoError(t, h.LoadImmediate("Menu", scene.Single))
	require.NoError(t, h.LoadImmediate("Level1", scene.Additive))
	log = nil

	op, err := h.UnloadAsync("Menu")
	require.NoError(t, err)
	frames := stepUntilDone(t, h, op)

	assert.Equal(t, 3, frames)
	assert.Equal(t, []scene.Name{"Level1"}, h.Resident())
	assert.Equal(t, scene.Name("Level1"), h.ActiveScene())
	assert.Equal(t, []string{"exit:Menu"}, log)
	assert.Equal(t, 1, h.UnloadRequests("Menu"))
}

func TestHost_Errors(t *testing.T) {
	var log []string
	h := newTestHost(&log)

	_, err := h.LoadAsync("Nope", scene.Single, false)
	assert.ErrorIs(t, err, scene.ErrUnknownScene)

	_, err = h.UnloadAsync("Menu")
	assert.ErrorIs(t, err, ErrNotResident)

	assert.ErrorIs(t, h.LoadImmediate("Nope", scene.Single), scene.ErrUnknownScene)
	assert.ErrorIs(t, h.UnloadImmediate("Menu"), ErrNotResident)
	assert.False(t, h.SetActive("Menu"))
}

func TestHost_ImmediateNotifies(t *testing.T) {
	var log []string
	h := newTestHost(&log)

	var events []string
	unsubscribe := h.Subscribe(scene.Hooks{
		OnLoaded:   func(n scene.Name, m scene.Mode) { events = append(events, "loaded:"+n.String()+":"+m.String()) },
		OnUnloaded: func(n scene.Name) { events = append(events, "unloaded:"+n.String()) },
	})

	require.NoError(t, h.LoadImmediate("Menu", scene.Single))
	require.NoError(t, h.UnloadImmediate("Menu"))
	unsubscribe()
	require.NoError(t, h.LoadImmediate("Menu", scene.Single))

	assert.Equal(t, []string{"loaded:Menu:Single", "unloaded:Menu"}, events)
}

func TestHost_NameAtAndFinalize(t *testing.T) {
	var log []string
	h := newTestHost(&log)

	name, ok := h.NameAt(2)
	assert.True(t, ok)
	assert.Equal(t, scene.Name("Level1"), name)
	_, ok = h.NameAt(3)
	assert.False(t, ok)
	_, ok = h.NameAt(-1)
	assert.False(t, ok)

	h.FinalizeAdditive(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.FinalizeAdditive(ctx)
	assert.Equal(t, 1, h.Finalized())
}

func TestHost_ImplementsInterfaces(t *testing.T) {
	var _ scene.Host = (*Host)(nil)
	var _ scene.AdditiveFinalizer = (*Host)(nil)
}

func roundAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(int(v*1000+0.5)) / 1000
	}
	return out
}
