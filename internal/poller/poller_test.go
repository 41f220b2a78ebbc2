package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mailbot-io/mailbot/internal/client"
	"github.com/mailbot-io/mailbot/internal/execlog"
	"github.com/mailbot-io/mailbot/internal/mailbottest"
)

type statusEvent struct {
	msg     string
	running bool
}

type recordSink struct {
	mu       sync.Mutex
	batches  []Batch
	statuses []statusEvent
	errs     []error
	events   chan struct{}
}

func newRecordSink() *recordSink {
	return &recordSink{events: make(chan struct{}, 64)}
}

func (s *recordSink) Rows(b Batch) {
	s.mu.Lock()
	s.batches = append(s.batches, b)
	s.mu.Unlock()
	s.signal()
}

func (s *recordSink) Status(msg string, running bool) {
	s.mu.Lock()
	s.statuses = append(s.statuses, statusEvent{msg, running})
	s.mu.Unlock()
	s.signal()
}

func (s *recordSink) Notify(err error) {
	s.mu.Lock()
	s.errs = append(s.errs, err)
	s.mu.Unlock()
	s.signal()
}

func (s *recordSink) signal() {
	select {
	case s.events <- struct{}{}:
	default:
	}
}

func (s *recordSink) snapshot() ([]Batch, []statusEvent, []error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Batch(nil), s.batches...), append([]statusEvent(nil), s.statuses...), append([]error(nil), s.errs...)
}

type fetchReply struct {
	resp *client.LogResponse
	err  error
}

// scriptFetcher serves replies in order and repeats the last one.
type scriptFetcher struct {
	mu      sync.Mutex
	replies []fetchReply
	calls   int
}

func (f *scriptFetcher) FetchExecutionLog(ctx context.Context) (*client.LogResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.replies) {
		i = len(f.replies) - 1
	}
	f.calls++
	r := f.replies[i]
	return r.resp, r.err
}

func logReply(raw, status string) fetchReply {
	return fetchReply{resp: &client.LogResponse{
		Envelope:      client.Envelope{Status: true},
		IMAPLog:       client.Text(raw),
		UserStatusMsg: status,
	}}
}

func rowKeys(rows []execlog.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Key.Raw
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const (
	tsA = "7/15/2019, 9:35:01 AM"
	tsB = "7/15/2019, 10:12:44 AM"
	tsC = "7/15/2019, 1:02:09 PM"
)

func TestTwoTickEndToEnd(t *testing.T) {
	srv := mailbottest.NewServer(t)
	first := mailbottest.Log(
		mailbottest.Entry(tsA, mailbottest.KV{Key: "trigger", Value: "rule a"}),
		mailbottest.Entry(tsB, mailbottest.KV{Key: "trigger", Value: "rule b"}),
	)
	second := mailbottest.Log(
		mailbottest.Entry(tsA, mailbottest.KV{Key: "trigger", Value: "rule a"}),
		mailbottest.Entry(tsB, mailbottest.KV{Key: "trigger", Value: "rule b"}),
		mailbottest.Entry(tsC, mailbottest.KV{Key: "trigger", Value: "rule c"}),
	)
	srv.QueueLog(
		mailbottest.LogReply{Status: true, IMAPLog: first},
		mailbottest.LogReply{Status: true, IMAPLog: second},
	)

	c, err := client.New(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	sink := newRecordSink()
	p := New(c, sink, Options{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := p.Poll(ctx); err != nil {
			t.Fatalf("tick %d: Poll() error = %v", i+1, err)
		}
	}

	batches, _, errs := sink.snapshot()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(batches))
	}
	if batches[0].Kind != BatchInitial || !equalStrings(rowKeys(batches[0].Rows), []string{tsB, tsA}) {
		t.Errorf("first batch = %v %v, want initial [B A]", batches[0].Kind, rowKeys(batches[0].Rows))
	}
	if batches[1].Kind != BatchIncremental || !equalStrings(rowKeys(batches[1].Rows), []string{tsC}) {
		t.Errorf("second batch = %v %v, want incremental [C]", batches[1].Kind, rowKeys(batches[1].Rows))
	}
}

func TestStatusTransitions(t *testing.T) {
	raw := mailbottest.Log(mailbottest.Entry(tsA))
	f := &scriptFetcher{replies: []fetchReply{
		logReply(raw, "running"),
		logReply(raw, "running"),
		logReply(raw, ""),
		logReply(raw, ""),
	}}
	sink := newRecordSink()
	p := New(f, sink, Options{})
	for i := 0; i < 4; i++ {
		if err := p.Poll(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	_, statuses, _ := sink.snapshot()
	want := []statusEvent{{"running", true}, {"", false}}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %+v, want %+v", statuses, want)
	}
	for i := range want {
		if statuses[i] != want[i] {
			t.Errorf("status[%d] = %+v, want %+v", i, statuses[i], want[i])
		}
	}
}

func TestApplicationFailureReschedules(t *testing.T) {
	f := &scriptFetcher{replies: []fetchReply{
		{resp: &client.LogResponse{}, err: fmt.Errorf("%s: %w", client.EndpointFetchLog, client.ErrApplication)},
		logReply(mailbottest.Log(mailbottest.Entry(tsA)), ""),
	}}
	sink := newRecordSink()
	p := New(f, sink, Options{})

	if err := p.Poll(context.Background()); err != nil {
		t.Fatalf("Poll() error = %v, want nil for application failure", err)
	}
	batches, _, errs := sink.snapshot()
	if len(errs) != 1 || !errors.Is(errs[0], client.ErrApplication) {
		t.Fatalf("errs = %v, want one ErrApplication", errs)
	}
	if len(batches) != 0 {
		t.Fatalf("rendered %d batches on failure", len(batches))
	}

	if err := p.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	batches, _, _ = sink.snapshot()
	if len(batches) != 1 || batches[0].Kind != BatchInitial {
		t.Errorf("batches after recovery = %+v", batches)
	}
}

func TestDecodeFailure(t *testing.T) {
	good := mailbottest.Log(mailbottest.Entry(tsA))
	f := &scriptFetcher{replies: []fetchReply{
		logReply("{not json", ""),
		logReply("{not json", ""),
		logReply(good, ""),
	}}
	sink := newRecordSink()
	p := New(f, sink, Options{})
	for i := 0; i < 3; i++ {
		if err := p.Poll(context.Background()); err != nil {
			t.Fatalf("tick %d: %v", i+1, err)
		}
	}

	batches, _, errs := sink.snapshot()
	if len(errs) != 1 {
		t.Fatalf("errs = %v, want one report for the repeated bad payload", errs)
	}
	var de *execlog.DecodeError
	if !errors.As(errs[0], &de) {
		t.Errorf("error = %v, want *execlog.DecodeError", errs[0])
	}
	if len(batches) != 1 || !equalStrings(rowKeys(batches[0].Rows), []string{tsA}) {
		t.Errorf("batches = %+v, want the good payload rendered once", batches)
	}
}

func TestEmptyPayloadIsNoop(t *testing.T) {
	good := mailbottest.Log(mailbottest.Entry(tsA))
	f := &scriptFetcher{replies: []fetchReply{
		logReply("", ""),
		logReply("null", ""),
		logReply(good, ""),
	}}
	sink := newRecordSink()
	p := New(f, sink, Options{})

	for i := 0; i < 2; i++ {
		if err := p.Poll(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if batches, _, errs := sink.snapshot(); len(batches) != 0 || len(errs) != 0 {
		t.Fatalf("empty payloads produced batches=%v errs=%v", batches, errs)
	}

	if err := p.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	batches, _, _ := sink.snapshot()
	if len(batches) != 1 || batches[0].Kind != BatchInitial {
		t.Errorf("first real payload should be the first load: %+v", batches)
	}
}

func TestLoadMore(t *testing.T) {
	start := time.Date(2019, 1, 1, 9, 0, 0, 0, time.UTC)
	days := mailbottest.Days(start, 25)
	withNew := append(append([]mailbottest.EntryDef(nil), days...),
		mailbottest.Entry(mailbottest.BrowserTimestamp(start.AddDate(0, 0, 30))))

	f := &scriptFetcher{replies: []fetchReply{
		logReply(mailbottest.Log(days...), ""),
		logReply(mailbottest.Log(withNew...), ""),
	}}
	sink := newRecordSink()
	p := New(f, sink, Options{})
	ctx := context.Background()

	if err := p.Poll(ctx); err != nil {
		t.Fatal(err)
	}
	batches, _, _ := sink.snapshot()
	if len(batches) != 1 || len(batches[0].Rows) != 10 || !batches[0].HasMore {
		t.Fatalf("first load = %d rows hasMore=%v, want 10 rows with more", len(batches[0].Rows), batches[0].HasMore)
	}
	if got := batches[0].Rows[0].Key.Raw; got != days[24].Timestamp {
		t.Errorf("newest row = %q, want %q", got, days[24].Timestamp)
	}

	// A new entry arrives while the remainder is held back: only the new
	// entry is rendered.
	if err := p.Poll(ctx); err != nil {
		t.Fatal(err)
	}
	batches, _, _ = sink.snapshot()
	if len(batches) != 2 || len(batches[1].Rows) != 1 || !batches[1].HasMore {
		t.Fatalf("incremental batch = %+v", batches[len(batches)-1])
	}

	p.LoadMore()
	if err := p.wait(ctx, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	batches, _, _ = sink.snapshot()
	if len(batches) != 3 {
		t.Fatalf("batches = %d, want load-more batch", len(batches))
	}
	more := batches[2]
	if more.Kind != BatchLoadMore || len(more.Rows) != 15 || more.HasMore {
		t.Errorf("load more = %v %d rows hasMore=%v, want 15 rows and no more", more.Kind, len(more.Rows), more.HasMore)
	}

	p.LoadMore()
	if err := p.wait(ctx, 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if batches, _, _ = sink.snapshot(); len(batches) != 3 {
		t.Errorf("second load more rendered again: %d batches", len(batches))
	}

	seen := map[string]int{}
	for _, b := range batches {
		for _, r := range b.Rows {
			seen[r.Key.Raw]++
		}
	}
	if len(seen) != 26 {
		t.Errorf("distinct rendered keys = %d, want 26", len(seen))
	}
	for k, n := range seen {
		if n != 1 {
			t.Errorf("key %q rendered %d times", k, n)
		}
	}
}

func TestUncappedPageSize(t *testing.T) {
	days := mailbottest.Days(time.Date(2019, 1, 1, 9, 0, 0, 0, time.UTC), 25)
	f := &scriptFetcher{replies: []fetchReply{logReply(mailbottest.Log(days...), "")}}
	sink := newRecordSink()
	p := New(f, sink, Options{PageSize: -1})
	if err := p.Poll(context.Background()); err != nil {
		t.Fatal(err)
	}
	batches, _, _ := sink.snapshot()
	if len(batches) != 1 || len(batches[0].Rows) != 25 || batches[0].HasMore {
		t.Errorf("uncapped first load = %+v", batches)
	}
}

func transportErr() fetchReply {
	return fetchReply{err: &client.TransportError{Endpoint: client.EndpointFetchLog, Err: errors.New("connection refused")}}
}

func TestRunStopOnFailure(t *testing.T) {
	f := &scriptFetcher{replies: []fetchReply{transportErr()}}
	sink := newRecordSink()
	p := New(f, sink, Options{Interval: time.Millisecond, Policy: StopOnFailure})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := p.Run(ctx)
	if !client.IsTransport(err) {
		t.Fatalf("Run() error = %v, want transport error", err)
	}
	if _, _, errs := sink.snapshot(); len(errs) != 1 {
		t.Errorf("notifications = %d, want 1", len(errs))
	}
}

func TestRunRetriesWithBackoff(t *testing.T) {
	f := &scriptFetcher{replies: []fetchReply{
		transportErr(),
		transportErr(),
		logReply(mailbottest.Log(mailbottest.Entry(tsA)), "running"),
	}}
	sink := newRecordSink()
	p := New(f, sink, Options{Interval: time.Millisecond, MaxBackoff: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		batches, _, _ := sink.snapshot()
		if len(batches) > 0 {
			break
		}
		select {
		case <-sink.events:
		case <-deadline:
			cancel()
			t.Fatal("no rows rendered after transport failures")
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run() after cancel = %v, want nil", err)
	}
	_, statuses, errs := sink.snapshot()
	if len(errs) != 2 {
		t.Errorf("notifications = %d, want 2", len(errs))
	}
	if len(statuses) != 1 || !statuses[0].running {
		t.Errorf("statuses = %+v", statuses)
	}
}

// hangFetcher blocks until the request context ends for the first hangs
// calls, then serves reply.
type hangFetcher struct {
	mu    sync.Mutex
	hangs int
	calls int
	reply fetchReply
}

func (f *hangFetcher) FetchExecutionLog(ctx context.Context) (*client.LogResponse, error) {
	f.mu.Lock()
	f.calls++
	hang := f.calls <= f.hangs
	f.mu.Unlock()
	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.reply.resp, f.reply.err
}

func TestRequestTimeout(t *testing.T) {
	timeout := 50 * time.Millisecond
	sink := newRecordSink()
	p := New(&hangFetcher{hangs: 1 << 30}, sink, Options{RequestTimeout: timeout})

	start := time.Now()
	err := p.Poll(context.Background())
	elapsed := time.Since(start)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Poll() error = %v, want deadline exceeded", err)
	}
	if elapsed < timeout || elapsed > 2*time.Second {
		t.Errorf("Poll() took %v, want about %v", elapsed, timeout)
	}
	if _, _, errs := sink.snapshot(); len(errs) != 1 {
		t.Errorf("notifications = %d, want 1", len(errs))
	}
}

func TestRunRetriesAfterRequestTimeout(t *testing.T) {
	f := &hangFetcher{hangs: 2, reply: logReply(mailbottest.Log(mailbottest.Entry(tsA)), "")}
	sink := newRecordSink()
	p := New(f, sink, Options{
		Interval:       time.Millisecond,
		RequestTimeout: 20 * time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	deadline := time.After(3 * time.Second)
	for {
		batches, _, _ := sink.snapshot()
		if len(batches) > 0 {
			break
		}
		select {
		case <-sink.events:
		case <-deadline:
			cancel()
			t.Fatal("no rows rendered after timed-out fetches")
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Errorf("Run() after cancel = %v, want nil", err)
	}
	batches, _, errs := sink.snapshot()
	if len(errs) != 2 {
		t.Errorf("notifications = %d, want 2", len(errs))
	}
	for _, err := range errs {
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("notified %v, want deadline exceeded", err)
		}
	}
	if got := rowKeys(batches[0].Rows); !equalStrings(got, []string{tsA}) {
		t.Errorf("rows = %v, want [%s]", got, tsA)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want Policy
	}{
		{"stop", StopOnFailure},
		{" STOP ", StopOnFailure},
		{"retry", RetryWithBackoff},
		{"", RetryWithBackoff},
	}
	for _, tt := range tests {
		if got := ParsePolicy(tt.in); got != tt.want {
			t.Errorf("ParsePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
