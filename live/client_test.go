package live

import (
	"sync"
	"testing"
)

func TestSendAfterSlowClientEviction(t *testing.T) {
	c := &Client{id: "c1", send: make(chan []byte, 1)}

	c.Send([]byte("one")) // fills the buffer
	c.Send([]byte("two")) // overflow evicts the client

	// The client stays registered until its read pump notices the drop,
	// so broadcasts can still arrive. They must be absorbed, not panic.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Send after eviction panicked: %v", r)
		}
	}()
	c.Send([]byte("three"))
}

func TestCloseSendIsIdempotent(t *testing.T) {
	c := &Client{id: "c1", send: make(chan []byte, 1)}
	c.closeSend()
	c.closeSend() // double close must not panic

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("Send after close panicked: %v", r)
		}
	}()
	c.Send([]byte("late"))
}

func TestConcurrentSendAndClose(t *testing.T) {
	c := &Client{id: "c1", send: make(chan []byte, 1)}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Send([]byte("x"))
		}()
	}
	c.closeSend()
	wg.Wait()
}
