package refresh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"instancecat/internal/domain"
)

type fakeSource struct {
	mu    sync.Mutex
	docs  []string
	errs  []error
	opens int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) Open(_ context.Context) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.opens
	f.opens++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	doc := f.docs[len(f.docs)-1]
	if i < len(f.docs) {
		doc = f.docs[i]
	}
	return io.NopCloser(strings.NewReader(doc)), nil
}

type fakeWriter struct {
	mu      sync.Mutex
	calls   [][]domain.InstanceType
	failOn  map[int]error
	current map[string]domain.InstanceType
}

func (f *fakeWriter) ReplaceAll(_ context.Context, records []domain.InstanceType) (domain.ReplaceStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.calls)
	f.calls = append(f.calls, records)
	if err := f.failOn[call]; err != nil {
		return domain.ReplaceStats{}, err
	}
	next := make(map[string]domain.InstanceType, len(records))
	stats := domain.ReplaceStats{Total: len(records)}
	for _, r := range records {
		if prev, ok := f.current[r.Name]; ok && prev == r {
			stats.Unchanged++
		} else {
			stats.Upserted++
		}
		next[r.Name] = r
	}
	for name := range f.current {
		if _, ok := next[name]; !ok {
			stats.Deleted++
		}
	}
	f.current = next
	return stats, nil
}

func (f *fakeWriter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func pricingDoc(version string, names ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `{"version":%q,"products":{`, version)
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `"sku-%d":{"attributes":{"instanceType":%q,"vcpu":"2","memory":"4 GiB","operatingSystem":"Linux"}}`, i, name)
	}
	b.WriteString("}}")
	return b.String()
}

var errBoom = errors.New("boom")
