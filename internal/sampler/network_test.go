package sampler

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/pulse/internal/store"
)

func TestNetworkColdStartThenRate(t *testing.T) {
	st := store.NewMemory()
	ifaces := &fakeInterfaces{}
	ifaces.set("en0", 10_000, 5_000)
	clock := newFakeClock(0)
	p := NewNetworkProbe(st, ifaces, clock, nil)

	r := p.Read()
	require.False(t, r.Degraded())
	assert.Equal(t, Throughput{}, r.Value)

	v, ok, err := st.Get(KeyPreviousBytesIn)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "10000", v)

	const x, y = 204_800, 51_200
	ifaces.set("en0", 10_000+x, 5_000+y)
	clock.advance(time.Second)

	r = p.Read()
	require.False(t, r.Degraded())
	assert.InDelta(t, float64(x)/1024, r.Value.DownKBps, 1e-9)
	assert.InDelta(t, float64(y)/1024, r.Value.UpKBps, 1e-9)
}

func TestNetworkIrregularInterval(t *testing.T) {
	st := store.NewMemory()
	ifaces := &fakeInterfaces{}
	ifaces.set("eth0", 1, 1)
	clock := newFakeClock(0)
	p := NewNetworkProbe(st, ifaces, clock, nil)
	p.Read()

	ifaces.set("eth0", 1+90*1024, 1+45*1024)
	clock.advance(90 * time.Second)
	r := p.Read()
	assert.InDelta(t, 1.0, r.Value.DownKBps, 1e-9)
	assert.InDelta(t, 0.5, r.Value.UpKBps, 1e-9)

	ifaces.set("eth0", 1+90*1024+512, 1+45*1024)
	clock.advance(500 * time.Millisecond)
	r = p.Read()
	assert.InDelta(t, 1.0, r.Value.DownKBps, 1e-9)
	assert.Equal(t, 0.0, r.Value.UpKBps)
}

func TestNetworkCounterRegression(t *testing.T) {
	st := store.NewMemory()
	clock := newFakeClock(0)
	require.NoError(t, st.Set(KeyPreviousBytesIn, "900000"))
	require.NoError(t, st.Set(KeyPreviousBytesOut, "900000"))
	require.NoError(t, st.Set(KeyLastSampleAt, clock.Now().Add(-time.Second).Format(time.RFC3339Nano)))

	ifaces := &fakeInterfaces{}
	ifaces.set("en0", 1000, 2000)
	r := NewNetworkProbe(st, ifaces, clock, nil).Read()
	require.False(t, r.Degraded())
	assert.Equal(t, 0.0, r.Value.DownKBps)
	assert.Equal(t, 0.0, r.Value.UpKBps)

	v, _, _ := st.Get(KeyPreviousBytesIn)
	assert.Equal(t, "1000", v)
}

func TestNetworkClockWentBackwards(t *testing.T) {
	st := store.NewMemory()
	clock := newFakeClock(0)
	require.NoError(t, st.Set(KeyPreviousBytesIn, "100"))
	require.NoError(t, st.Set(KeyPreviousBytesOut, "100"))
	require.NoError(t, st.Set(KeyLastSampleAt, clock.Now().Add(time.Hour).Format(time.RFC3339Nano)))

	ifaces := &fakeInterfaces{}
	ifaces.set("en0", 1<<20, 1<<20)
	r := NewNetworkProbe(st, ifaces, clock, nil).Read()
	assert.Equal(t, Throughput{}, r.Value)

	at, _, _ := st.Get(KeyLastSampleAt)
	parsed, err := time.Parse(time.RFC3339Nano, at)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(clock.Now()))
}

func TestNetworkCorruptBaselineIsCold(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set(KeyPreviousBytesIn, "not-a-number"))
	require.NoError(t, st.Set(KeyPreviousBytesOut, "1"))
	require.NoError(t, st.Set(KeyLastSampleAt, "yesterday"))

	ifaces := &fakeInterfaces{}
	ifaces.set("en0", 5000, 5000)
	r := NewNetworkProbe(st, ifaces, newFakeClock(0), nil).Read()
	require.False(t, r.Degraded())
	assert.Equal(t, Throughput{}, r.Value)

	v, _, _ := st.Get(KeyPreviousBytesIn)
	assert.Equal(t, "5000", v)
}

func TestNetworkEnumerationFailureLeavesState(t *testing.T) {
	st := store.NewMemory()
	ifaces := &fakeInterfaces{err: errBoom}
	p := NewNetworkProbe(st, ifaces, newFakeClock(time.Second), nil)

	for i := 0; i < 3; i++ {
		r := p.Read()
		assert.True(t, errors.Is(r.Err, ErrUnavailable))
		assert.Equal(t, Throughput{}, r.Value)
	}
	assert.Equal(t, 0, st.Len())
}

func TestNetworkCountsAllowedInterfacesOnly(t *testing.T) {
	st := store.NewMemory()
	ifaces := &fakeInterfaces{}
	ifaces.set("en0", 100, 10)
	ifaces.set("lo", 20, 20)
	ifaces.set("utun3", 7_000, 7_000)
	ifaces.set("docker0", 9_000, 9_000)
	NewNetworkProbe(st, ifaces, newFakeClock(0), nil).Read()

	in, _, _ := st.Get(KeyPreviousBytesIn)
	out, _, _ := st.Get(KeyPreviousBytesOut)
	assert.Equal(t, "120", in)
	assert.Equal(t, "30", out)

	st = store.NewMemory()
	NewNetworkProbe(st, ifaces, newFakeClock(0), []string{"docker"}).Read()
	in, _, _ = st.Get(KeyPreviousBytesIn)
	assert.Equal(t, "9000", in)
}

type failingStore struct{ *store.Memory }

func (failingStore) Set(string, string) error        { return errBoom }
func (failingStore) SetMany(map[string]string) error { return errBoom }

func TestNetworkStoreWriteFailureStillReportsRate(t *testing.T) {
	mem := store.NewMemory()
	clock := newFakeClock(0)
	require.NoError(t, mem.Set(KeyPreviousBytesIn, "1024"))
	require.NoError(t, mem.Set(KeyPreviousBytesOut, "1024"))
	require.NoError(t, mem.Set(KeyLastSampleAt, clock.Now().Add(-time.Second).Format(time.RFC3339Nano)))

	ifaces := &fakeInterfaces{}
	ifaces.set("en0", 2048, 1024)
	r := NewNetworkProbe(failingStore{mem}, ifaces, clock, nil).Read()
	assert.True(t, r.Degraded())
	assert.InDelta(t, 1.0, r.Value.DownKBps, 1e-9)
}

// flakyStore rejects one baseline write.
type flakyStore struct {
	*store.Memory
	fail bool
}

func (f *flakyStore) SetMany(values map[string]string) error {
	if f.fail {
		f.fail = false
		return errBoom
	}
	return f.Memory.SetMany(values)
}

func TestNetworkFailedWriteKeepsPreviousBaseline(t *testing.T) {
	st := &flakyStore{Memory: store.NewMemory()}
	ifaces := &fakeInterfaces{stepIn: 1024, stepOut: 1024}
	ifaces.set("en0", 1024, 1024)
	p := NewNetworkProbe(st, ifaces, newFakeClock(time.Second), nil)

	require.False(t, p.Read().Degraded())

	st.fail = true
	r := p.Read()
	require.True(t, r.Degraded())
	assert.InDelta(t, 1.0, r.Value.DownKBps, 1e-9)

	r = p.Read()
	require.False(t, r.Degraded())
	assert.InDelta(t, 1.0, r.Value.DownKBps, 1e-9)
	assert.InDelta(t, 1.0, r.Value.UpKBps, 1e-9)
}

func TestNetworkReset(t *testing.T) {
	st := store.NewMemory()
	ifaces := &fakeInterfaces{}
	ifaces.set("en0", 1, 1)
	p := NewNetworkProbe(st, ifaces, newFakeClock(time.Second), nil)
	p.Read()
	require.Equal(t, 3, st.Len())

	require.NoError(t, p.Reset())
	assert.Equal(t, 0, st.Len())
}

func TestNetworkConcurrentReadsStayConsistent(t *testing.T) {
	st := store.NewMemory()
	ifaces := &fakeInterfaces{stepIn: 2048, stepOut: 1024}
	ifaces.set("en0", 0, 0)
	p := NewNetworkProbe(st, ifaces, newFakeClock(time.Second), nil)

	const workers, perWorker = 8, 25
	var mu sync.Mutex
	var results []Throughput
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				r := p.Read()
				mu.Lock()
				results = append(results, r.Value)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	cold := 0
	for _, tp := range results {
		if tp == (Throughput{}) {
			cold++
			continue
		}
		assert.InDelta(t, 2.0, tp.DownKBps, 1e-9)
		assert.InDelta(t, 1.0, tp.UpKBps, 1e-9)
	}
	assert.Equal(t, 1, cold)

	in, _, _ := st.Get(KeyPreviousBytesIn)
	assert.Equal(t, strconv.Itoa(workers*perWorker*2048), in)
}
