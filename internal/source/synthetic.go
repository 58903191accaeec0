package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// ErrInjected is the failure SyntheticSource returns on every failEvery-th
// page request.
var ErrInjected = errors.New("injected page failure")

var syntheticTags = []string{"ops", "design", "infra", "notes", "review", "ideas"}

var syntheticWords = strings.Fields(`lorem ipsum dolor sit amet consectetur
adipiscing elit sed do eiusmod tempor incididunt ut labore et dolore magna
aliqua enim ad minim veniam quis nostrud exercitation ullamco laboris nisi
aliquip ex ea commodo consequat`)

// SyntheticSource serves a deterministic feed of count items named c0 to
// c<count-1>. Bodies vary in length so expanded rows vary in height.
type SyntheticSource struct {
	count     int
	latency   time.Duration
	failEvery int
	epoch     time.Time

	calls atomic.Int64
}

type SyntheticOption func(*SyntheticSource)

// WithLatency delays every request by d.
func WithLatency(d time.Duration) SyntheticOption {
	return func(s *SyntheticSource) { s.latency = d }
}

// WithFailEvery makes every n-th page request fail with ErrInjected.
func WithFailEvery(n int) SyntheticOption {
	return func(s *SyntheticSource) { s.failEvery = n }
}

func NewSyntheticSource(count int, opts ...SyntheticOption) *SyntheticSource {
	s := &SyntheticSource{
		count: max(0, count),
		epoch: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SyntheticSource) Page(ctx context.Context, cursor string, limit int) (Page, error) {
	offset, err := parseCursor(cursor)
	if err != nil {
		return Page{}, err
	}
	if err := sleep(ctx, s.latency); err != nil {
		return Page{}, err
	}
	n := s.calls.Add(1)
	if s.failEvery > 0 && n%int64(s.failEvery) == 0 {
		return Page{}, fmt.Errorf("page at %d: %w", offset, ErrInjected)
	}

	if limit <= 0 {
		limit = s.count
	}
	end := min(offset+limit, s.count)
	var page Page
	for i := offset; i < end; i++ {
		page.Items = append(page.Items, s.item(i))
	}
	if end < s.count {
		page.Next = strconv.Itoa(end)
	}
	return page, nil
}

func (s *SyntheticSource) Detail(ctx context.Context, id string) (string, error) {
	i, ok := s.index(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := sleep(ctx, s.latency); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Card %d\n\n", i)
	paragraphs := i%5 + 1
	for p := 0; p < paragraphs; p++ {
		b.WriteString(s.sentence(i+p, 12+(i*7+p*3)%30))
		b.WriteString("\n\n")
	}
	if i%3 == 0 {
		b.WriteString("## Checklist\n\n")
		for k := 0; k < i%4+2; k++ {
			fmt.Fprintf(&b, "- [ ] %s\n", s.sentence(i+k, 4))
		}
		b.WriteString("\n")
	}
	if i%4 == 1 {
		fmt.Fprintf(&b, "```go\nfmt.Println(%q)\n```\n", s.ID(i))
	}
	return b.String(), nil
}

// ID returns the identity of the i-th item.
func (s *SyntheticSource) ID(i int) string {
	return "c" + strconv.Itoa(i)
}

// Calls reports how many page requests were made.
func (s *SyntheticSource) Calls() int {
	return int(s.calls.Load())
}

func (s *SyntheticSource) index(id string) (int, bool) {
	if !strings.HasPrefix(id, "c") {
		return 0, false
	}
	i, err := strconv.Atoi(id[1:])
	if err != nil || i < 0 || i >= s.count || s.ID(i) != id {
		return 0, false
	}
	return i, true
}

func (s *SyntheticSource) item(i int) Item {
	return Item{
		ID:      s.ID(i),
		Title:   fmt.Sprintf("Card %d", i),
		Summary: s.sentence(i, 6+i%10),
		Tags:    []string{syntheticTags[i%len(syntheticTags)]},
		Updated: s.epoch.Add(-time.Duration(i) * time.Minute),
	}
}

func (s *SyntheticSource) sentence(seed, words int) string {
	out := make([]string, words)
	for w := range out {
		out[w] = syntheticWords[(seed*31+w*7)%len(syntheticWords)]
	}
	out[0] = strings.ToUpper(out[0][:1]) + out[0][1:]
	return strings.Join(out, " ") + "."
}
