package changefeed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/kafka-go"
)

func TestFileWriter_AppendsJSONLines(t *testing.T) {
	restore := NowUnix
	NowUnix = func() int64 { return 1651400000 }
	defer func() { NowUnix = restore }()

	dir := t.TempDir()
	w, err := NewFileWriter(dir, "events.jsonl")
	if err != nil {
		t.Fatalf("new file writer: %v", err)
	}

	events := []Event{
		{Op: "insert", Count: 128, TS: NowUnix()},
		{Op: "update", OrderID: "A1", TS: NowUnix()},
		{Op: "delete", OrderID: "A2", TS: NowUnix()},
	}
	for _, e := range events {
		if err := w.Append(e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	f, err := os.Open(filepath.Join(dir, "events.jsonl"))
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var got []Event
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Event
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		got = append(got, e)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("want %d lines, got %d", len(events), len(got))
	}
	for i := range events {
		if got[i] != events[i] {
			t.Fatalf("line %d mismatch: got %+v want %+v", i, got[i], events[i])
		}
	}
}

type fakeKafka struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeKafka) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func TestKafkaWriter_KeysByOrderID(t *testing.T) {
	fake := &fakeKafka{}
	w := NewKafkaWriterWith(fake)

	if err := w.Append(Event{Op: "update", OrderID: "A1", TS: 1}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := w.Append(Event{Op: "insert", Count: 3, TS: 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(fake.msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(fake.msgs))
	}
	if string(fake.msgs[0].Key) != "A1" {
		t.Fatalf("update key should be the order id, got %q", fake.msgs[0].Key)
	}
	// Batch inserts carry no order id, so the op keys the partition.
	if string(fake.msgs[1].Key) != "insert" {
		t.Fatalf("insert key should fall back to op, got %q", fake.msgs[1].Key)
	}

	var e Event
	if err := json.Unmarshal(fake.msgs[0].Value, &e); err != nil {
		t.Fatalf("payload not JSON: %v", err)
	}
	if e.Op != "update" || e.OrderID != "A1" || e.TS != 1 {
		t.Fatalf("payload mismatch: %+v", e)
	}
}

func TestKafkaWriter_PropagatesWriteError(t *testing.T) {
	fake := &fakeKafka{err: errors.New("broker down")}
	w := NewKafkaWriterWith(fake)
	if err := w.Append(Event{Op: "insert", Count: 1, TS: 1}); err == nil {
		t.Fatalf("broker failure must surface")
	}
}

func TestMultiWriter_FansOutAndStopsOnError(t *testing.T) {
	a := &fakeSink{}
	b := &fakeSink{err: errors.New("disk full")}
	c := &fakeSink{}
	w := NewMultiWriter(a, b, c)

	if err := w.Append(Event{Op: "insert", Count: 1, TS: 1}); err == nil {
		t.Fatalf("failing sink must surface")
	}
	if a.n != 1 {
		t.Fatalf("first sink should have received the event")
	}
	if c.n != 0 {
		t.Fatalf("sinks after the failure should not be written")
	}
}

type fakeSink struct {
	n   int
	err error
}

func (f *fakeSink) Append(Event) error {
	if f.err != nil {
		return f.err
	}
	f.n++
	return nil
}
