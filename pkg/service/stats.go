package service

import(
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codahale/hdrhistogram"
)

// Stats keeps a latency histogram per recipe, in milliseconds.
type Stats struct {
	mu       sync.Mutex
	hists    map[string]*hdrhistogram.Histogram
	failures map[string]int
}

func NewStats() *Stats {
	return &Stats{hists: map[string]*hdrhistogram.Histogram{}, failures: map[string]int{}}
}

const maxTrackedMillis = int64(30 * time.Minute / time.Millisecond)

func (s *Stats)Record(recipe string, took time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.failures[recipe]++
		return
	}

	h, exists := s.hists[recipe]
	if !exists {
		h = hdrhistogram.New(1, maxTrackedMillis, 3)
		s.hists[recipe] = h
	}
	ms := took.Milliseconds()
	if ms < 1                { ms = 1 }
	if ms > maxTrackedMillis { ms = maxTrackedMillis }
	h.RecordValue(ms)
}

// Count is how many successful runs the recipe has had
func (s *Stats)Count(recipe string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, exists := s.hists[recipe]; exists {
		return h.TotalCount()
	}
	return 0
}

func (s *Stats)Failures(recipe string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[recipe]
}

// Percentile returns the q'th percentile latency (q in [0,100]).
func (s *Stats)Percentile(recipe string, q float64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, exists := s.hists[recipe]; exists {
		return time.Duration(h.ValueAtQuantile(q)) * time.Millisecond
	}
	return 0
}

func (s *Stats)String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := map[string]bool{}
	for n := range s.hists    { names[n] = true }
	for n := range s.failures { names[n] = true }
	sorted := []string{}
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	str := ""
	for _, n := range sorted {
		line := fmt.Sprintf("%-10s ok=%-5d fail=%-4d", n, 0, s.failures[n])
		if h, exists := s.hists[n]; exists {
			line = fmt.Sprintf("%-10s ok=%-5d fail=%-4d p50=%dms p95=%dms max=%dms", n, h.TotalCount(),
				s.failures[n], h.ValueAtQuantile(50), h.ValueAtQuantile(95), h.Max())
		}
		str += line + "\n"
	}
	return strings.TrimSuffix(str, "\n")
}
