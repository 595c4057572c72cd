package spin

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Lock_IsLockedWhileHeld(t *testing.T) {
	array := New([5]int{1, 2, 3, 4, 5})
	require.False(t, array.IsLocked())

	g := array.Lock()
	require.True(t, array.IsLocked())
	require.Equal(t, 3, g.Get()[2])

	g.Unlock()
	require.False(t, array.IsLocked())
}

func Test_Lock_TryLock(t *testing.T) {
	array := New([5]int{1, 2, 3, 4, 5})

	first, ok := array.TryLock()
	require.True(t, ok)
	require.NotNil(t, first)

	second, ok := array.TryLock()
	require.False(t, ok, "second TryLock must fail while the first guard lives")
	require.Nil(t, second)

	first.Unlock()

	third, ok := array.TryLock()
	require.True(t, ok, "TryLock must succeed once the guard is released")
	third.Unlock()
}

func Test_Lock_TryLockFromOtherGoroutine(t *testing.T) {
	l := New(0)
	g := l.Lock()

	var acquired atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		if og, ok := l.TryLock(); ok {
			acquired.Store(true)
			og.Unlock()
		}
	}()
	<-done
	require.False(t, acquired.Load())

	g.Unlock()
}

func Test_Lock_RelockAfterUnlockDoesNotBlock(t *testing.T) {
	l := New("x")
	g := l.Lock()
	g.Unlock()

	done := make(chan struct{})
	go func() {
		g := l.Lock()
		g.Unlock()
		close(done)
	}()
	<-done
	assert.False(t, l.IsLocked())
}

func Test_Lock_MutualExclusion(t *testing.T) {
	const (
		workers    = 8
		increments = 2000
	)
	l := New(0)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range increments {
				g := l.Lock()
				*g.Get()++
				g.Unlock()
			}
		}()
	}
	wg.Wait()

	g := l.Lock()
	defer g.Unlock()
	require.Equal(t, workers*increments, *g.Get())
}

func Test_Lock_ZeroValueIsUnlocked(t *testing.T) {
	var l Lock[int]
	require.False(t, l.IsLocked())
	g, ok := l.TryLock()
	require.True(t, ok)
	g.Unlock()
}

func Test_Guard_DoubleUnlockPanics(t *testing.T) {
	l := New(1)
	g := l.Lock()
	g.Unlock()
	require.PanicsWithValue(t, "spin: unlock of released guard", func() { g.Unlock() })
	require.PanicsWithValue(t, "spin: use of released guard", func() { g.Get() })
}

func Test_Lock_WithReleasesOnPanic(t *testing.T) {
	l := New(0)
	require.Panics(t, func() {
		l.With(func(v *int) {
			*v = 7
			panic("boom")
		})
	})
	require.False(t, l.IsLocked())

	l.With(func(v *int) { require.Equal(t, 7, *v) })
}

func Test_Lock_Value(t *testing.T) {
	l := New([]int{1})
	*l.Value() = append(*l.Value(), 2)
	l.With(func(v *[]int) { require.Equal(t, []int{1, 2}, *v) })
}

func Test_Lock_String(t *testing.T) {
	l := New(42)
	require.Equal(t, "SpinLock{locked: false, value: 42}", l.String())

	g := l.Lock()
	require.Equal(t, "SpinLock{locked: true}", l.String())
	g.Unlock()
}

func BenchmarkLockUnlock(b *testing.B) {
	l := New(0)
	for b.Loop() {
		g := l.Lock()
		*g.Get()++
		g.Unlock()
	}
}
