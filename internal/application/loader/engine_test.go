package loader

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/younwookim/sceneflow/internal/application/event"
	"github.com/younwookim/sceneflow/internal/application/frame"
	"github.com/younwookim/sceneflow/internal/application/registry"
	appscene "github.com/younwookim/sceneflow/internal/application/scene"
	"github.com/younwookim/sceneflow/internal/application/state"
	"github.com/younwookim/sceneflow/internal/domain/scene"
	"github.com/younwookim/sceneflow/internal/infrastructure/config"
	"github.com/younwookim/sceneflow/internal/infrastructure/memhost"
)

// recordingScene logs its lifecycle calls into a shared journal
type recordingScene struct {
	name string
	log  *[]string
}

func (r *recordingScene) Update(dt float64) error   { return nil }
func (r *recordingScene) Draw(screen *ebiten.Image) {}
func (r *recordingScene) OnEnter()                  { *r.log = append(*r.log, "enter:"+r.name) }
func (r *recordingScene) OnExit()                   { *r.log = append(*r.log, "exit:"+r.name) }

type fixture struct {
	host     *memhost.Host
	registry *registry.Registry
	ticker   *frame.Stepper
	engine   *Engine
	log      *[]string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	log := new([]string)
	entry := func(name string, loadFrames int) memhost.Entry {
		return memhost.Entry{
			Name:         scene.Name(name),
			LoadFrames:   loadFrames,
			UnloadFrames: 2,
			Content:      func() appscene.Scene { return &recordingScene{name: name, log: log} },
		}
	}

	host := memhost.New([]memhost.Entry{
		entry("Menu", 2),
		entry("Loading", 1),
		entry("Level1", 3),
		entry("Level2", 3),
	})
	reg := registry.New(host, &config.Record{LoadingScenes: []string{"Scenes/Loading.unity"}})
	t.Cleanup(reg.Close)
	ticker := frame.NewStepper(host.Step)

	return &fixture{
		host:     host,
		registry: reg,
		ticker:   ticker,
		engine:   New(host, reg, ticker, opts...),
		log:      log,
	}
}

func assertNonDecreasing(t *testing.T, values []float64) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		assert.GreaterOrEqual(t, values[i], values[i-1], "progress went backwards at %d: %v", i, values)
	}
}

func TestEngine_Load_Single(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var atRequest, atComplete [2][]scene.Name
	var completed []event.LoadEvent
	f.engine.Bus().LoadRequested.Subscribe(func(event.LoadEvent) {
		atRequest = [2][]scene.Name{f.registry.Loading(), f.registry.Loaded()}
	})
	f.engine.Bus().LoadCompleted.Subscribe(func(e event.LoadEvent) {
		completed = append(completed, e)
		atComplete = [2][]scene.Name{f.registry.Loading(), f.registry.Loaded()}
	})

	var progress []float64
	err := f.engine.Load(ctx, "Level1", LoadOptions{
		Mode:       scene.Single,
		OnProgress: func(p float64) { progress = append(progress, p) },
	})
	require.NoError(t, err)

	assert.Equal(t, []scene.Name{"Level1"}, atRequest[0])
	assert.Empty(t, atRequest[1])
	assert.Empty(t, atComplete[0])
	assert.Equal(t, []scene.Name{"Level1"}, atComplete[1])

	require.Len(t, completed, 1)
	assert.Equal(t, scene.Name("Level1"), completed[0].Scene)
	assert.Equal(t, []scene.Name{"Level1"}, completed[0].Active)

	require.NotEmpty(t, progress)
	assertNonDecreasing(t, progress)
	assert.Equal(t, 1.0, progress[len(progress)-1])

	assert.Equal(t, scene.Name("Level1"), f.host.ActiveScene())
	assert.Equal(t, state.PhaseLoaded, f.engine.Phase("Level1"))
	assert.Equal(t, 0, f.host.Finalized(), "single loads skip the additive finalize")
}

func TestEngine_Load_WithLoadingScene(t *testing.T) {
	f := newFixture(t)

	err := f.engine.Load(context.Background(), "Level1", LoadOptions{
		LoadingScene: "Scenes/Loading.unity",
		Mode:         scene.Single,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"enter:Loading", "enter:Level1", "exit:Loading"}, *f.log)
	assert.Equal(t, []scene.Name{"Level1"}, f.registry.Loaded())
	assert.Empty(t, f.registry.Loading())
	assert.Empty(t, f.registry.Unloading())
	assert.Equal(t, []scene.Name{"Level1"}, f.host.Resident())
	assert.Equal(t, scene.Name("Level1"), f.host.ActiveScene())
	assert.Equal(t, 1, f.host.Finalized(), "wrapper forces an additive load")
}

func TestEngine_Load_ReusesResidentLoadingScene(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.host.LoadImmediate("Loading", scene.Single))

	err := f.engine.Load(context.Background(), "Level1", LoadOptions{LoadingScene: "Loading"})
	require.NoError(t, err)

	assert.Equal(t, 0, f.host.LoadRequests("Loading"))
	assert.Equal(t, 1, f.host.UnloadRequests("Loading"), "the wrapper is torn down either way")
	assert.Equal(t, []scene.Name{"Level1"}, f.host.Resident())
}

func TestEngine_Load_Deduplicates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var gate atomic.Bool
	var completed atomic.Int32
	f.engine.Bus().LoadCompleted.Subscribe(func(event.LoadEvent) { completed.Add(1) })

	first := make(chan error, 1)
	go func() {
		first <- f.engine.Load(ctx, "Level1", LoadOptions{WaitUntil: gate.Load})
	}()

	require.Eventually(t, func() bool {
		return f.registry.IsLoading("Level1") && f.host.LoadRequests("Level1") == 1
	}, time.Second, time.Millisecond)

	// The second request returns at once while the first is in flight
	require.NoError(t, f.engine.Load(ctx, "Level1", LoadOptions{}))
	assert.True(t, f.registry.IsLoading("Level1"))

	gate.Store(true)
	select {
	case err := <-first:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first load never finished")
	}

	require.NoError(t, f.engine.Load(ctx, "Level1", LoadOptions{}))

	assert.Equal(t, 1, f.host.LoadRequests("Level1"))
	assert.Equal(t, int32(1), completed.Load())
	assert.True(t, f.registry.IsLoaded("Level1"))
	assert.Equal(t, []scene.Name{"Level1"}, f.registry.Loaded())
}

func TestEngine_Load_AlreadyResident(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.host.LoadImmediate("Menu", scene.Single))
	// Let the loaded set lag behind the host
	f.registry.UnmarkLoaded("Menu")

	requested := 0
	f.engine.Bus().LoadRequested.Subscribe(func(event.LoadEvent) { requested++ })

	require.NoError(t, f.engine.Load(context.Background(), "Menu", LoadOptions{}))

	assert.Equal(t, 0, f.host.LoadRequests("Menu"))
	assert.Equal(t, 0, requested)
	assert.Equal(t, []scene.Name{"Menu"}, f.registry.Loaded())
}

func TestEngine_Load_NormalizesName(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.Load(context.Background(), "Assets/Scenes/Level2.unity", LoadOptions{}))

	assert.Equal(t, []scene.Name{"Level2"}, f.registry.Loaded())
	assert.Equal(t, 1, f.host.LoadRequests("Level2"))
}

func TestEngine_Load_UnknownScene(t *testing.T) {
	f := newFixture(t)

	err := f.engine.Load(context.Background(), "Nope", LoadOptions{LoadingScene: "Loading"})

	assert.ErrorIs(t, err, scene.ErrUnknownScene)
	assert.Empty(t, f.registry.Loading())
	assert.False(t, f.host.IsValid("Loading"), "wrapper is torn down after a failed load")
}

func TestEngine_Load_CancelledKeepsMarks(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	err := f.engine.Load(ctx, "Level1", LoadOptions{
		WaitUntil: func() bool {
			calls++
			if calls == 3 {
				cancel()
			}
			return false
		},
	})

	require.NoError(t, err, "cancellation is an early return, not an error")
	assert.Equal(t, 3, calls)
	assert.True(t, f.registry.IsLoading("Level1"))
	assert.Equal(t, state.PhaseLoading, f.engine.Phase("Level1"))
	assert.False(t, f.host.IsValid("Level1"))
}

func TestEngine_Load_OnFinishOnceAndActivatingPhase(t *testing.T) {
	f := newFixture(t)

	finished := 0
	var phase state.Phase
	err := f.engine.Load(context.Background(), "Level1", LoadOptions{
		OnFinish: func(op scene.Operation) {
			finished++
			phase = f.engine.Phase("Level1")
			assert.True(t, op.Done())
		},
	})
	require.NoError(t, err)

	f.host.Step()
	f.host.Step()
	assert.Equal(t, 1, finished)
	assert.Equal(t, state.PhaseActivating, phase)
}

func TestEngine_LoadIndex(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.engine.LoadIndex(context.Background(), 2, LoadOptions{}))
	assert.True(t, f.host.IsValid("Level1"))

	err := f.engine.LoadIndex(context.Background(), 42, LoadOptions{})
	assert.ErrorIs(t, err, scene.ErrUnknownScene)
}

func TestEngine_FinalizeHook(t *testing.T) {
	finalized := 0
	f := newFixture(t, WithFinalizeHook(func(context.Context) { finalized++ }))
	ctx := context.Background()

	require.NoError(t, f.engine.Load(ctx, "Menu", LoadOptions{Mode: scene.Single}))
	assert.Equal(t, 0, finalized)

	require.NoError(t, f.engine.Load(ctx, "Level1", LoadOptions{Mode: scene.Additive}))
	assert.Equal(t, 1, finalized)
	assert.Equal(t, 0, f.host.Finalized(), "the hook replaces the host finalizer")
	assert.Equal(t, []scene.Name{"Menu", "Level1"}, f.registry.Loaded())
}

func TestEngine_SingleLoadEvictsThroughReconcile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.Load(ctx, "Menu", LoadOptions{}))
	require.NoError(t, f.engine.Load(ctx, "Level1", LoadOptions{Mode: scene.Single}))

	assert.Equal(t, []scene.Name{"Level1"}, f.registry.Loaded())
	assert.Equal(t, []scene.Name{"Level1"}, f.host.Resident())
}

func TestEngine_ExternalDriftIsReconciled(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Load(context.Background(), "Menu", LoadOptions{}))

	// Registry thinks Level2 is loading when the host loads it directly
	f.registry.MarkLoading("Level2")
	require.NoError(t, f.host.LoadImmediate("Level2", scene.Additive))

	assert.False(t, f.registry.IsLoading("Level2"))
	assert.Equal(t, f.host.Resident(), f.registry.Loaded())

	f.registry.MarkLoading("Menu")
	require.NoError(t, f.host.UnloadImmediate("Menu"))

	assert.False(t, f.registry.IsLoading("Menu"))
	assert.Equal(t, []scene.Name{"Level2"}, f.registry.Loaded())
}
