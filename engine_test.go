package kvtx

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestConcurrentReadersDoNotBlockEachOther(t *testing.T) {
	scm, tbl, _, _ := setupPeopleSchema()
	eng := NewEngine(scm, EngineOptions{})

	eng.Write(func(ctx *WriteContext) {
		UseTableRW(ctx, tbl).Set(1, Person{ID: 1, Name: "Ada", Age: 30})
	})

	const readers = 8
	var wg sync.WaitGroup
	wg.Add(readers)
	for i := 0; i < readers; i++ {
		go func() {
			defer wg.Done()
			eng.Read(func(ctx *ReadContext) {
				if got := UseTable(ctx, tbl).Get(1).Name; got != "Ada" {
					t.Errorf("Get(1).Name = %q, wanted Ada", got)
				}
			})
		}()
	}
	wg.Wait()

	if n := eng.ReadCount.Load(); n < readers {
		t.Fatalf("ReadCount = %d, wanted at least %d", n, readers)
	}
}

func TestWriteTransactionsAreSerialized(t *testing.T) {
	scm, tbl, _, _ := setupPeopleSchema()
	eng := NewEngine(scm, EngineOptions{})

	const writers = 5
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			eng.Write(func(ctx *WriteContext) {
				people := UseTableRW(ctx, tbl)
				people.Set(i, Person{ID: i, Name: "p", Age: int32(i)})
			})
		}()
	}
	wg.Wait()

	eng.Read(func(ctx *ReadContext) {
		if got := UseTable(ctx, tbl).Len(); got != writers {
			t.Fatalf("Len() = %d, wanted %d", got, writers)
		}
	})

	if n := eng.WriteCount.Load(); n != uint64(writers) {
		t.Fatalf("WriteCount = %d, wanted %d", n, writers)
	}
}

func TestWriteErrRollsBackOnError(t *testing.T) {
	scm, tbl, _, _ := setupPeopleSchema()
	eng := NewEngine(scm, EngineOptions{})

	boom := errors.New("boom")
	err := eng.WriteErr(func(ctx *WriteContext) error {
		UseTableRW(ctx, tbl).Set(1, Person{ID: 1, Name: "Ada", Age: 30})
		return boom
	})
	if err == nil {
		t.Fatalf("WriteErr returned nil, wanted an error")
	}

	eng.Read(func(ctx *ReadContext) {
		if got := UseTable(ctx, tbl).Len(); got != 0 {
			t.Fatalf("Len() after failed write = %d, wanted 0 (no publication on error)", got)
		}
	})
}

func TestCallbackPanicBecomesCallbackFailure(t *testing.T) {
	scm, _, _, _ := setupPeopleSchema()
	eng := NewEngine(scm, EngineOptions{})

	err := eng.WriteErr(func(ctx *WriteContext) error {
		panic("boom")
	})
	var cf *CallbackFailure
	if !errors.As(err, &cf) {
		t.Fatalf("error = %v (%T), wanted a *CallbackFailure", err, err)
	}
	if !cf.Panicked() {
		t.Fatalf("CallbackFailure.Panicked() = false, wanted true")
	}
}

func TestWriterTimeout(t *testing.T) {
	scm, tbl, _, _ := setupPeopleSchema()
	eng := NewEngine(scm, EngineOptions{WriterTimeout: 20 * time.Millisecond})

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Write(func(ctx *WriteContext) {
			UseTableRW(ctx, tbl).Set(1, Person{ID: 1})
			close(started)
			<-release
		})
	}()
	<-started

	err := eng.WriteErr(func(ctx *WriteContext) error {
		return nil
	})
	if err == nil {
		t.Fatalf("WriteErr returned nil, wanted a writer-lock timeout error")
	}

	close(release)
	wg.Wait()
}
