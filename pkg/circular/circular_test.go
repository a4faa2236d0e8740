package circular

import (
	"reflect"
	"testing"
)

func TestEnqueueWrap(t *testing.T) {
	b := CreateBuffer[int16](5)
	b.Enqueue(1, 2, 3)
	b.Enqueue(4, 5, 6, 7)

	out := make([]int16, 5)
	if err := b.Retrieve(out); err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if want := []int16{3, 4, 5, 6, 7}; !reflect.DeepEqual(out, want) {
		t.Fatalf("expected %v, got %v", want, out)
	}
	if b.Filled() != 5 {
		t.Fatalf("expected filled 5, got %d", b.Filled())
	}
}

func TestEnqueueOversized(t *testing.T) {
	b := CreateBuffer[int](3)
	b.Enqueue(1, 2, 3, 4, 5, 6, 7)
	if got := b.Tail(3); !reflect.DeepEqual(got, []int{5, 6, 7}) {
		t.Fatalf("expected newest elements, got %v", got)
	}
}

func TestTail(t *testing.T) {
	b := CreateBuffer[int](6)
	if got := b.Tail(3); got != nil {
		t.Fatalf("expected nil on empty buffer, got %v", got)
	}

	b.Enqueue(1, 2)
	if got := b.Tail(5); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("expected only written elements, got %v", got)
	}

	for i := 3; i <= 10; i++ {
		b.Enqueue(i)
	}
	if got := b.Tail(4); !reflect.DeepEqual(got, []int{7, 8, 9, 10}) {
		t.Fatalf("expected [7 8 9 10], got %v", got)
	}
	if got := b.Tail(6); !reflect.DeepEqual(got, []int{5, 6, 7, 8, 9, 10}) {
		t.Fatalf("expected full window, got %v", got)
	}
}

func TestRetrieveSizeMismatch(t *testing.T) {
	b := CreateBuffer[float64](4)
	if err := b.Retrieve(make([]float64, 3)); err == nil {
		t.Fatal("expected error for mismatched target")
	}
}

func TestAt(t *testing.T) {
	b := CreateBuffer[int](3)
	b.Enqueue(1, 2, 3, 4)
	if v := b.At(0); v == nil || *v != 2 {
		t.Fatalf("expected oldest element 2, got %v", v)
	}
	if v := b.At(2); v == nil || *v != 4 {
		t.Fatalf("expected newest element 4, got %v", v)
	}
	if b.At(3) != nil || b.At(-1) != nil {
		t.Fatal("expected nil out of range")
	}
}

func TestReset(t *testing.T) {
	b := CreateBuffer[int](3)
	b.Enqueue(1, 2, 3)
	b.Reset()
	if b.Filled() != 0 || b.Tail(3) != nil {
		t.Fatal("reset buffer should be empty")
	}
	b.Enqueue(9)
	if got := b.Tail(1); !reflect.DeepEqual(got, []int{9}) {
		t.Fatalf("expected [9], got %v", got)
	}
}

func TestZeroCapacity(t *testing.T) {
	b := CreateBuffer[int](0)
	b.Enqueue(1, 2)
	if b.Filled() != 0 || b.Tail(1) != nil {
		t.Fatal("zero capacity buffer must stay empty")
	}
}
