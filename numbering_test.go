package docpager

import (
	"sync"
	"testing"
)

func TestNumbering_Next(t *testing.T) {
	t.Parallel()

	n := NewNumbering(DefaultQuotePrefix, DefaultInvoicePrefix, 0, 42)

	tests := []struct {
		kind Kind
		want string
	}{
		{KindQuote, "TC-1001"},
		{KindQuote, "TC-1002"},
		{KindInvoice, "INV-42"},
		{KindLetterhead, ""},
		{KindInvoice, "INV-43"},
	}
	for i, tt := range tests {
		if got := n.Next(tt.kind); got != tt.want {
			t.Errorf("call %d: Next(%s) = %q, want %q", i, tt.kind, got, tt.want)
		}
	}
}

func TestNumbering_Assign(t *testing.T) {
	t.Parallel()

	n := NewNumbering("Q", "I", 1, 1)

	d := NewDocument(KindQuote)
	n.Assign(d)
	if d.Number() != "Q1" {
		t.Errorf("Number() = %q, want Q1", d.Number())
	}

	numbered := NewDocument(KindInvoice)
	numbered.SetNumber("INV-7")
	n.Assign(numbered)
	if numbered.Number() != "INV-7" {
		t.Errorf("Number() = %q, an existing number should be kept", numbered.Number())
	}
	n.Assign(nil)
}

func TestNumbering_Concurrent(t *testing.T) {
	t.Parallel()

	n := NewNumbering("Q", "I", 1, 1)
	const workers = 20

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v := n.Next(KindQuote)
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != workers {
		t.Errorf("got %d distinct numbers, want %d", len(seen), workers)
	}
}
