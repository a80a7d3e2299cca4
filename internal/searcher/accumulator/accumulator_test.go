package accumulator

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"testing"
)

func TestAddAndBuildOrdinaryMap(t *testing.T) {
	m := New[int, float64](3)
	m.Add(1, 0.5)
	m.Add(4, 1.5)
	m.Add(1, 0.25)
	m.Add(2, 1)

	got := m.BuildOrdinaryMap()
	want := map[int]float64{1: 0.75, 4: 1.5, 2: 1}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("key %d = %v, want %v", k, got[k], v)
		}
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestAccessDefaultInserts(t *testing.T) {
	m := New[int, float64](4)
	m.Access(7, func(v *float64) {})
	v, ok := m.Load(7)
	if !ok || v != 0 {
		t.Errorf("Load(7) = %v, %v; want 0, true", v, ok)
	}
	m.Erase(7)
	if _, ok := m.Load(7); ok {
		t.Error("key survived Erase")
	}
	m.Erase(1000)
}

func TestBucketCountClampedAndNegativeKeys(t *testing.T) {
	m := New[int, int](0)
	if m.BucketCount() != 1 {
		t.Errorf("BucketCount() = %d, want 1", m.BucketCount())
	}
	m = New[int, int](5)
	m.Add(-3, 2)
	m.Add(-3, 2)
	if v, _ := m.Load(-3); v != 4 {
		t.Errorf("Load(-3) = %d, want 4", v)
	}
}

func TestConcurrentAccumulationMatchesSequentialSum(t *testing.T) {
	const (
		updates = 20000
		keys    = 97
		workers = 16
	)
	rng := rand.New(rand.NewSource(1))
	type update struct {
		key   int
		delta float64
	}
	all := make([]update, updates)
	want := make(map[int]float64)
	for i := range all {
		all[i] = update{key: rng.Intn(keys), delta: rng.Float64()}
		want[all[i].key] += all[i].delta
	}

	m := New[int, float64](7)
	var wg sync.WaitGroup
	chunk := updates / workers
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(part []update) {
			defer wg.Done()
			for _, u := range part {
				m.Add(u.key, u.delta)
			}
		}(all[w*chunk : (w+1)*chunk])
	}
	wg.Wait()

	got := m.BuildOrdinaryMap()
	if len(got) != len(want) {
		t.Fatalf("got %d keys, want %d", len(got), len(want))
	}
	for k, v := range want {
		if math.Abs(got[k]-v) > 1e-6 {
			t.Errorf("key %d = %v, want %v", k, got[k], v)
		}
	}
}

func TestConcurrentEraseAndAdd(t *testing.T) {
	m := New[int64, float64](4)
	for k := int64(0); k < 100; k++ {
		m.Add(k, 1)
	}
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(offset int64) {
			defer wg.Done()
			for k := offset; k < 100; k += 4 {
				if k%2 == 0 {
					m.Erase(k)
				} else {
					m.Add(k, 1)
				}
			}
		}(int64(w))
	}
	wg.Wait()
	got := m.BuildOrdinaryMap()
	if len(got) != 50 {
		t.Fatalf("expected 50 surviving keys, got %d", len(got))
	}
	for k, v := range got {
		if k%2 == 0 || v != 2 {
			t.Errorf("unexpected entry %d=%v", k, v)
		}
	}
}

func BenchmarkAccumulatorAddParallel(b *testing.B) {
	for _, buckets := range []int{1, 8, 64} {
		b.Run(fmt.Sprintf("buckets_%d", buckets), func(b *testing.B) {
			m := New[int, float64](buckets)
			b.ReportAllocs()
			b.RunParallel(func(pb *testing.PB) {
				k := 0
				for pb.Next() {
					m.Add(k%1024, 0.5)
					k++
				}
			})
		})
	}
}
