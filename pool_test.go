package lzop

import (
	"errors"
	"testing"
	"time"
)

func TestPool_AcquireCreatesAndReuses(t *testing.T) {
	p := NewPool(nil)

	c1, err := p.Acquire(MethodLZO1X1)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	st := p.Stats()
	if st.Created != 1 || st.InUse != 1 || st.Idle != 0 {
		t.Fatalf("after acquire: %+v", st)
	}

	c1.Reset()
	p.Release(c1)

	st = p.Stats()
	if st.Created != 1 || st.InUse != 0 || st.Idle != 1 {
		t.Fatalf("after release: %+v", st)
	}

	c2, err := p.Acquire(MethodLZO1X1)
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if c2 != c1 {
		t.Fatal("expected the idle context to be reused")
	}

	p.Release(c2)
}

func TestPool_ZeroValueIsUsable(t *testing.T) {
	var p Pool

	c, err := p.Acquire(MethodLZO1X999)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	c.Reset()
	p.Release(c)

	if st := p.Stats(); st.Created != 1 || st.Idle != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestPool_MethodFamiliesAreSeparate(t *testing.T) {
	p := NewPool(nil)

	c1, _ := p.Acquire(MethodLZO1X1)
	c1.Reset()
	p.Release(c1)

	c999, err := p.Acquire(MethodLZO1X999)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if c999 == c1 {
		t.Fatal("context of a different method family must not be reused")
	}

	p.Release(c999)
}

func TestPool_InvalidMethod(t *testing.T) {
	if _, err := NewPool(nil).Acquire(Method(9)); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v, want ErrInvalidFormat", err)
	}
}

func TestPool_DoubleReleasePanics(t *testing.T) {
	p := NewPool(nil)
	c, err := p.Acquire(MethodLZO1X1)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	p.Release(c)

	defer func() {
		if recover() == nil {
			t.Fatal("expected double release to panic")
		}
	}()
	p.Release(c)
}

func TestPool_ReleaseNilIsNoop(t *testing.T) {
	NewPool(nil).Release(nil)
}

func TestPool_LimitBlocksUntilRelease(t *testing.T) {
	p := NewPool(&PoolOptions{Limit: 1})

	c, err := p.Acquire(MethodLZO1X1)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	got := make(chan *Context, 1)
	go func() {
		c2, err := p.Acquire(MethodLZO1X1)
		if err != nil {
			t.Errorf("blocked Acquire failed: %v", err)
		}
		got <- c2
	}()

	select {
	case <-got:
		t.Fatal("Acquire should block while the pool is at its limit")
	case <-time.After(20 * time.Millisecond):
	}

	c.Reset()
	p.Release(c)

	select {
	case c2 := <-got:
		if c2 != c {
			t.Fatal("the released context should satisfy the waiter")
		}
		p.Release(c2)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not wake after Release")
	}

	if st := p.Stats(); st.Created != 1 {
		t.Fatalf("limit pool created %d contexts, want 1", st.Created)
	}
}

type resettableDecompressor struct {
	resets *int
}

func (d *resettableDecompressor) DecompressBlock(dst, src []byte) (int, error) {
	return 0, nil
}

func (d *resettableDecompressor) Reset() { *d.resets++ }

func TestContext_ResetForwardsToDecompressor(t *testing.T) {
	resets := 0
	p := NewPool(&PoolOptions{
		New: func(Method) (BlockDecompressor, error) {
			return &resettableDecompressor{resets: &resets}, nil
		},
	})

	c, err := p.Acquire(MethodLZO1X1)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	c.Reset()
	c.Reset() // idempotent: resetting twice is allowed

	if resets != 2 {
		t.Fatalf("resets = %d, want 2", resets)
	}

	p.Release(c)
}

func TestPool_NewConstructorError(t *testing.T) {
	wantErr := errors.New("constructor boom")
	p := NewPool(&PoolOptions{
		Limit: 1,
		New: func(Method) (BlockDecompressor, error) {
			return nil, wantErr
		},
	})

	if _, err := p.Acquire(MethodLZO1X1); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}

	// The failed construction must not leak capacity out of a bounded pool.
	if st := p.Stats(); st.Created != 0 || st.InUse != 0 {
		t.Fatalf("stats after failed construction: %+v", st)
	}
}
